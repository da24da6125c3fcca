// Package reminder e-mails students about installments that are about to
// fall due or already overdue.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/billing"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/calendar"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/money"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/ports"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/utils"
)

// Window is how far ahead an unpaid installment is reminded of.
const Window = 7

type Schools interface {
	List(ctx context.Context) ([]models.School, error)
	Today() calendar.Date
	Defaults() models.FinancialConfig
}

// Line is one installment of a reminder priced on the day it is sent.
type Line struct {
	Installment models.Installment
	Breakdown   billing.Breakdown
	Overdue     bool
	DaysLate    int
}

type Reminder struct {
	SchoolID  string
	StudentID string
	To        string
	Name      string
	Lines     []Line
	Total     float64
}

type Service struct {
	schools Schools
	mailer  ports.Mailer
	log     logrus.FieldLogger
}

func NewService(schools Schools, mailer ports.Mailer, log logrus.FieldLogger) *Service {
	return &Service{schools: schools, mailer: mailer, log: log}
}

// Collect lists the reminders owed by sc today. Students without e-mail or
// with a dropout or breach status are skipped.
func Collect(sc models.School, today calendar.Date, cfg models.FinancialConfig) []Reminder {
	limit := today.AddDays(Window)
	var out []Reminder
	for _, st := range sc.Students {
		to := strings.TrimSpace(st.Email)
		if to == "" || st.Status == models.StudentDropout || st.Status == models.StudentBreach {
			continue
		}
		r := Reminder{SchoolID: sc.ID, StudentID: st.ID, To: to, Name: utils.FirstName(st.FullName)}
		var totals []float64
		for _, inst := range billing.SortByDueDate(st.Installments) {
			if inst.IsPaid() || inst.DueDate.After(limit) {
				continue
			}
			b := billing.Calculate(inst, st.EarlyPaymentDiscount, today, cfg)
			line := Line{Installment: inst, Breakdown: b, Overdue: billing.IsOverdue(inst, today)}
			if line.Overdue {
				line.DaysLate = calendar.DaysBetween(today, inst.DueDate)
			}
			r.Lines = append(r.Lines, line)
			totals = append(totals, b.Total)
		}
		if len(r.Lines) == 0 {
			continue
		}
		r.Total = money.Sum(totals...)
		out = append(out, r)
	}
	return out
}

// Run sends every reminder owed today across all schools and returns how
// many went out. A failed e-mail does not stop the others.
func (s *Service) Run(ctx context.Context) (int, error) {
	schools, err := s.schools.List(ctx)
	if err != nil {
		return 0, err
	}
	today := s.schools.Today()

	sent := 0
	var errs []error
	for _, sc := range schools {
		cfg := sc.FinancialSettings(s.schools.Defaults())
		for _, r := range Collect(sc, today, cfg) {
			if err := ctx.Err(); err != nil {
				return sent, err
			}
			if err := s.mailer.Send(ctx, Compose(sc, r)); err != nil {
				errs = append(errs, fmt.Errorf("school %s student %s: %w", r.SchoolID, r.StudentID, err))
				continue
			}
			sent++
		}
	}

	s.log.WithFields(logrus.Fields{"sent": sent, "failed": len(errs), "day": today.String()}).Info("[REMINDER][DONE]")
	return sent, errors.Join(errs...)
}

// Compose writes the e-mail for r.
func Compose(sc models.School, r Reminder) ports.Message {
	sender := sc.Name
	if sc.CompanyInfo != nil && sc.CompanyInfo.Name != "" {
		sender = sc.CompanyInfo.Name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Olá %s,\n\n", r.Name)
	b.WriteString("Este é um lembrete das suas parcelas em aberto:\n\n")
	for _, l := range r.Lines {
		label := l.Installment.History
		if label == "" {
			label = l.Installment.DocumentNumber
		}
		fmt.Fprintf(&b, "- %s: vencimento %s, valor %s", label, l.Installment.DueDate.Time().Format("02/01/2006"), money.FormatBRL(l.Breakdown.Total))
		if l.Overdue {
			fmt.Fprintf(&b, " (vencida há %d dias, multa %s, juros %s)",
				l.DaysLate, money.FormatBRL(l.Breakdown.Fine), money.FormatBRL(l.Breakdown.Interest))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", money.FormatBRL(r.Total))
	if sc.BankInfo != nil && sc.BankInfo.PixKey != "" {
		fmt.Fprintf(&b, "Chave Pix: %s\n", sc.BankInfo.PixKey)
	}
	fmt.Fprintf(&b, "\n%s\n", sender)

	return ports.Message{
		To:      []string{r.To},
		Subject: fmt.Sprintf("%s - lembrete de pagamento", sender),
		Text:    b.String(),
	}
}
