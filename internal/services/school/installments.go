package school

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/billing"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/calendar"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
)

// TogglePayment pays an installment, or reverts it to unpaid when p has no
// paid date. The student's status follows the installments afterwards.
func (s *Service) TogglePayment(ctx context.Context, schoolID, studentID, installmentID string, p billing.Payment) (models.Student, error) {
	out, err := s.updateStudent(ctx, schoolID, studentID, func(cur models.Student, today calendar.Date) (models.Student, error) {
		list, err := billing.TogglePayment(cur.Installments, installmentID, p, today)
		if err != nil {
			return cur, err
		}
		return settleStatus(cur.WithInstallments(list)), nil
	})
	if err == nil {
		s.log.WithFields(logrus.Fields{
			"school":      schoolID,
			"student":     studentID,
			"installment": installmentID,
			"paid":        !p.PaidDate.IsZero(),
			"amount":      p.Amount,
		}).Info("[BILLING][PAY]")
	}
	return out, err
}

func (s *Service) EditInstallment(ctx context.Context, schoolID, studentID, installmentID string, e billing.InstallmentEdit) (models.Student, error) {
	return s.updateStudent(ctx, schoolID, studentID, func(cur models.Student, _ calendar.Date) (models.Student, error) {
		list, err := billing.EditInstallment(cur.Installments, installmentID, e)
		if err != nil {
			return cur, err
		}
		return cur.WithInstallments(list), nil
	})
}

func (s *Service) DeleteInstallments(ctx context.Context, schoolID, studentID string, ids ...string) (models.Student, error) {
	return s.updateStudent(ctx, schoolID, studentID, func(cur models.Student, _ calendar.Date) (models.Student, error) {
		return cur.WithInstallments(billing.DeleteInstallments(cur.Installments, ids...)), nil
	})
}

func (s *Service) InsertInstallment(ctx context.Context, schoolID, studentID string, a billing.AdHoc) (models.Student, error) {
	return s.updateStudent(ctx, schoolID, studentID, func(cur models.Student, today calendar.Date) (models.Student, error) {
		return cur.WithInstallments(billing.InsertInstallment(cur.Installments, a, today)), nil
	})
}

func (s *Service) PayWithCard(ctx context.Context, schoolID, studentID string, ids []string, cardInstallments int) (models.Student, error) {
	out, err := s.updateStudent(ctx, schoolID, studentID, func(cur models.Student, today calendar.Date) (models.Student, error) {
		list, err := billing.PayWithCard(cur.Installments, ids, cardInstallments, today)
		if err != nil {
			return cur, err
		}
		return settleStatus(cur.WithInstallments(list)), nil
	})
	if err == nil {
		s.log.WithFields(logrus.Fields{
			"school":  schoolID,
			"student": studentID,
			"count":   len(ids),
			"split":   cardInstallments,
		}).Info("[BILLING][CARD]")
	}
	return out, err
}

// Breakdown is the calculator result for one installment as of today.
func (s *Service) Breakdown(ctx context.Context, schoolID, studentID, installmentID string) (billing.Breakdown, error) {
	return s.BreakdownAt(ctx, schoolID, studentID, installmentID, s.Today())
}

// BreakdownAt prices the installment as of day, e.g. a back-dated payment.
func (s *Service) BreakdownAt(ctx context.Context, schoolID, studentID, installmentID string, day calendar.Date) (billing.Breakdown, error) {
	sc, err := s.store.Load(ctx, schoolID)
	if err != nil {
		return billing.Breakdown{}, err
	}
	idx := sc.StudentIndex(studentID)
	if idx < 0 {
		return billing.Breakdown{}, fmt.Errorf("%w: %s", ErrStudentNotFound, studentID)
	}
	st := sc.Students[idx]
	for _, inst := range st.Installments {
		if inst.ID == installmentID {
			return billing.Calculate(inst, st.EarlyPaymentDiscount, day, s.settings(sc)), nil
		}
	}
	return billing.Breakdown{}, fmt.Errorf("%w: %s", billing.ErrInstallmentNotFound, installmentID)
}

// InstallmentMatch locates an installment by document number inside the
// student with the given CPF or id, or directly by installment id. Used by
// the payment import.
type InstallmentMatch struct {
	StudentID      string
	CPF            string
	DocumentNumber string
	InstallmentID  string
}

func (m InstallmentMatch) String() string {
	if m.InstallmentID != "" {
		return "installment " + m.InstallmentID
	}
	return "document " + m.DocumentNumber
}

// PayMatching pays the one unpaid installment that fits m. Document numbers
// are not unique, so a document alone is refused and a match that hits more
// than one unpaid installment fails with ErrAmbiguousMatch.
func (s *Service) PayMatching(ctx context.Context, schoolID string, m InstallmentMatch, p billing.Payment) (models.Student, models.Installment, error) {
	if m.InstallmentID == "" && m.StudentID == "" && digits(m.CPF) == "" {
		return models.Student{}, models.Installment{}, fmt.Errorf("%w: %s", ErrMatchNeedsStudent, m)
	}

	var (
		out  models.Student
		paid models.Installment
	)
	_, err := s.Update(ctx, schoolID, func(sc *models.School) error {
		today := s.Today()
		if p.PaidDate.IsZero() {
			p.PaidDate = today
		}

		type hit struct{ student, inst int }
		var hits []hit
		for si, st := range sc.Students {
			if !m.matchesStudent(st) {
				continue
			}
			for ii, inst := range st.Installments {
				if !inst.IsPaid() && m.matchesInstallment(inst) {
					hits = append(hits, hit{si, ii})
				}
			}
		}
		switch len(hits) {
		case 0:
			return fmt.Errorf("%w: %s", billing.ErrInstallmentNotFound, m)
		case 1:
		default:
			return fmt.Errorf("%w: %s matches %d installments", ErrAmbiguousMatch, m, len(hits))
		}

		st := sc.Students[hits[0].student]
		inst := st.Installments[hits[0].inst]
		if p.Amount == 0 {
			p.Amount = billing.Calculate(inst, st.EarlyPaymentDiscount, p.PaidDate, s.settings(*sc)).Total
		}
		list, err := billing.TogglePayment(st.Installments, inst.ID, p, today)
		if err != nil {
			return err
		}
		out = settleStatus(st.WithInstallments(list))
		paid = list[indexByID(list, inst.ID)]
		*sc = sc.ReplaceStudent(out)
		return nil
	})
	return out, paid, err
}

func (m InstallmentMatch) matchesStudent(st models.Student) bool {
	switch {
	case m.StudentID != "":
		return st.ID == m.StudentID
	case digits(m.CPF) != "":
		return digits(st.CPF) == digits(m.CPF)
	}
	// only reached when matching by installment id
	return true
}

func (m InstallmentMatch) matchesInstallment(inst models.Installment) bool {
	if m.InstallmentID != "" {
		return inst.ID == m.InstallmentID
	}
	return m.DocumentNumber != "" && strings.EqualFold(inst.DocumentNumber, m.DocumentNumber)
}

// settleStatus stores Active for a student that is not under an
// administrative status. Late is never stored; billing.StudentEffectiveStatus
// derives it when the student is read. Snapshots that still carry a stored
// late status are brought back to Active here.
func settleStatus(st models.Student) models.Student {
	switch st.Status {
	case models.StudentLate, "":
		st.Status = models.StudentActive
	}
	return st
}

func indexByID(list []models.Installment, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
