package billing

import (
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/calendar"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
)

// EffectiveStatus is the status to show for inst today. The persisted status
// is only authoritative when it is PaymentPaid; an unpaid installment reads
// overdue once its due date has passed, even if storage still says pending.
// Storage is never rewritten here.
func EffectiveStatus(inst models.Installment, today calendar.Date) models.PaymentStatus {
	switch {
	case inst.IsPaid():
		return models.PaymentPaid
	case inst.Status == models.PaymentOverdue, inst.DueDate.Before(today):
		return models.PaymentOverdue
	default:
		return models.PaymentPending
	}
}

// IsOverdue reports whether inst counts as overdue today.
func IsOverdue(inst models.Installment, today calendar.Date) bool {
	return EffectiveStatus(inst, today) == models.PaymentOverdue
}

// StudentEffectiveStatus keeps the administrative statuses as set and derives
// late from the installments otherwise.
func StudentEffectiveStatus(s models.Student, today calendar.Date) models.StudentStatus {
	switch s.Status {
	case models.StudentDropout, models.StudentBreach, models.StudentCompleted:
		return s.Status
	}
	for _, inst := range s.Installments {
		if IsOverdue(inst, today) {
			return models.StudentLate
		}
	}
	return models.StudentActive
}

// IsMinor reports whether someone born on birth is under 18 on today.
func IsMinor(birth, today calendar.Date) bool {
	if birth.IsZero() {
		return false
	}
	age := today.Year() - birth.Year()
	if today.Month() < birth.Month() || (today.Month() == birth.Month() && today.Day() < birth.Day()) {
		age--
	}
	return age < 18
}
