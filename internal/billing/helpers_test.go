package billing

import (
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/calendar"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
)

var testConfig = models.FinancialConfig{FineAmount: 10, DailyInterestRate: 0.33, GracePeriodDays: 3}

func day(s string) calendar.Date { return calendar.MustParse(s) }

func pending(id, due string, amount float64) models.Installment {
	return models.Installment{
		ID:             id,
		DueDate:        day(due),
		Amount:         amount,
		OriginalAmount: amount,
		Status:         models.PaymentPending,
	}
}

func paid(id, due, paidOn string, amount float64) models.Installment {
	inst := pending(id, due, amount)
	d := day(paidOn)
	inst.Status = models.PaymentPaid
	inst.PaidDate = &d
	return inst
}
