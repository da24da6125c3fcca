package billing

import (
	"github.com/shopspring/decimal"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/calendar"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
)

// Breakdown is what an installment is worth on a given day.
type Breakdown struct {
	Total    float64 `json:"total"`
	Fine     float64 `json:"fine"`
	Interest float64 `json:"interest"`
	Discount float64 `json:"discount"`
	DaysLate int     `json:"daysLate"`
	IsEarly  bool    `json:"isEarly"`
}

// Calculate prices inst as of today. Paid installments keep their recorded
// amount. Unpaid ones are priced from OriginalAmount: the early payment
// discount up to and including the due date, nothing extra inside the grace
// window, and past it a flat fine plus simple daily interest counted over
// every day late, grace days included.
func Calculate(inst models.Installment, earlyDiscount float64, today calendar.Date, cfg models.FinancialConfig) Breakdown {
	if inst.IsPaid() {
		return Breakdown{Total: inst.Amount}
	}

	original := decimal.NewFromFloat(inst.OriginalAmount)

	if today.OnOrBefore(inst.DueDate) {
		discount := decimal.Zero
		if earlyDiscount > 0 {
			discount = decimal.NewFromFloat(earlyDiscount)
		}
		total := decimal.Max(original.Sub(discount), decimal.Zero)
		return Breakdown{
			Total:    total.Round(2).InexactFloat64(),
			Discount: discount.Round(2).InexactFloat64(),
			IsEarly:  true,
		}
	}

	daysLate := calendar.DaysBetween(today, inst.DueDate)
	if daysLate <= cfg.GracePeriodDays {
		return Breakdown{Total: original.Round(2).InexactFloat64()}
	}

	fine := decimal.NewFromFloat(cfg.FineAmount)
	interest := original.
		Mul(decimal.NewFromFloat(cfg.DailyInterestRate)).
		Div(decimal.NewFromInt(100)).
		Mul(decimal.NewFromInt(int64(daysLate))).
		Round(2)

	return Breakdown{
		Total:    original.Add(fine).Add(interest).Round(2).InexactFloat64(),
		Fine:     fine.Round(2).InexactFloat64(),
		Interest: interest.InexactFloat64(),
		DaysLate: daysLate,
	}
}
