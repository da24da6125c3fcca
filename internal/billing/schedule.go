package billing

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/calendar"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/money"
)

const (
	DefaultDueDay = 10
	DefaultLabel  = "Mensalidade"
)

// ScheduleParams describes one installment plan. When FirstDueDate is set it
// wins over DueDay.
type ScheduleParams struct {
	Principal    float64
	Count        int
	DueDay       int
	FirstDueDate calendar.Date
	Label        string
}

// Generate splits Principal into Count monthly installments whose amounts add
// up to Principal to the cent; the last one absorbs the rounding residual.
func Generate(p ScheduleParams, today calendar.Date) []models.Installment {
	count := p.Count
	if count < 1 {
		count = 1
	}
	label := p.Label
	if label == "" {
		label = DefaultLabel
	}

	amounts := money.DistributeRemainder(money.Split(p.Principal, count), money.Round2(p.Principal))
	dues := dueDates(p, count, today)

	out := make([]models.Installment, count)
	for i := range out {
		out[i] = models.Installment{
			ID:             uuid.NewString(),
			DocumentNumber: documentNumber(today),
			History:        fmt.Sprintf("%s - %02d/%02d", label, i+1, count),
			DueDate:        dues[i],
			Amount:         amounts[i],
			OriginalAmount: amounts[i],
			Status:         models.PaymentPending,
		}
	}
	return out
}

func dueDates(p ScheduleParams, count int, today calendar.Date) []calendar.Date {
	out := make([]calendar.Date, count)
	if !p.FirstDueDate.IsZero() {
		for i := range out {
			out[i] = p.FirstDueDate.AddMonths(i)
		}
		return out
	}

	day := p.DueDay
	if day < 1 || day > 31 {
		day = DefaultDueDay
	}
	offset := 0
	if today.Day() > day {
		offset = 1
	}
	for i := range out {
		out[i] = calendar.OnDay(today.Year(), today.Month()+time.Month(offset+i), day)
	}
	return out
}

// FeeInstallment is a one-off charge due today, used for registration and
// material fees next to a generated plan.
func FeeInstallment(prefix, label string, amount float64, today calendar.Date) models.Installment {
	amount = money.Round2(amount)
	return models.Installment{
		ID:             uuid.NewString(),
		DocumentNumber: fmt.Sprintf("%s-%d", prefix, rand.IntN(1000)),
		History:        label,
		DueDate:        today,
		Amount:         amount,
		OriginalAmount: amount,
		Status:         models.PaymentPending,
	}
}

// documentNumber is a display reference, year followed by three digits. It
// is not unique.
func documentNumber(today calendar.Date) string {
	return fmt.Sprintf("%d%03d", today.Year(), rand.IntN(1000))
}
