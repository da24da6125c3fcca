package billing

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/calendar"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/money"
)

// Every function in this file returns a new slice and leaves its input alone.

const (
	adHocHistory  = "Parcela Avulsa"
	adHocDocument = "0000"
)

// Payment records a payment event. A zero PaidDate reverts the installment to
// unpaid.
type Payment struct {
	Amount      float64
	PaidDate    calendar.Date
	Method      models.PaymentMethod
	Observation string
}

func TogglePayment(list []models.Installment, id string, p Payment, today calendar.Date) ([]models.Installment, error) {
	idx := indexOf(list, id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrInstallmentNotFound, id)
	}
	out := slices.Clone(list)
	inst := out[idx]

	if !p.PaidDate.IsZero() {
		if inst.IsPaid() {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyPaid, id)
		}
		paid := p.PaidDate
		inst.Status = models.PaymentPaid
		inst.Amount = money.Round2(p.Amount)
		inst.PaidDate = &paid
		if p.Method != "" {
			inst.PaymentMethod = p.Method
		}
	} else {
		inst.Status = models.PaymentPending
		if inst.DueDate.Before(today) {
			inst.Status = models.PaymentOverdue
		}
		inst.Amount = inst.OriginalAmount
		inst.PaidDate = nil
	}
	if p.Observation != "" {
		inst.Observation = p.Observation
	}
	inst.DiscountApplied = nil

	out[idx] = inst
	return out, nil
}

// InstallmentEdit carries the fields to overwrite; nil means keep.
type InstallmentEdit struct {
	DueDate        *calendar.Date
	Amount         *float64
	History        *string
	DocumentNumber *string
}

// EditInstallment changes one installment. A new amount on an unpaid
// installment also becomes its OriginalAmount, the base for penalties.
func EditInstallment(list []models.Installment, id string, e InstallmentEdit) ([]models.Installment, error) {
	idx := indexOf(list, id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrInstallmentNotFound, id)
	}
	out := slices.Clone(list)
	inst := out[idx]

	if e.DueDate != nil && !e.DueDate.IsZero() {
		inst.DueDate = *e.DueDate
	}
	if e.Amount != nil {
		amount := money.Round2(max(*e.Amount, 0))
		inst.Amount = amount
		if !inst.IsPaid() {
			inst.OriginalAmount = amount
		}
	}
	if e.History != nil {
		inst.History = *e.History
	}
	if e.DocumentNumber != nil {
		inst.DocumentNumber = *e.DocumentNumber
	}

	out[idx] = inst
	return out, nil
}

// DeleteInstallments drops the given ids. Unknown ids are ignored.
func DeleteInstallments(list []models.Installment, ids ...string) []models.Installment {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	out := make([]models.Installment, 0, len(list))
	for _, inst := range list {
		if _, ok := drop[inst.ID]; ok {
			continue
		}
		out = append(out, inst)
	}
	return out
}

type AdHoc struct {
	Amount         float64
	DueDate        calendar.Date
	History        string
	DocumentNumber string

	// Course names the plan the charge belongs to when History is empty.
	Course string
}

func InsertInstallment(list []models.Installment, a AdHoc, today calendar.Date) []models.Installment {
	due := a.DueDate
	if due.IsZero() {
		due = today
	}
	history := a.History
	if history == "" {
		history = adHocHistory
		if a.Course != "" {
			history = a.Course + " - Avulso"
		}
	}
	doc := a.DocumentNumber
	if doc == "" {
		doc = adHocDocument
	}
	amount := money.Round2(max(a.Amount, 0))

	out := slices.Clone(list)
	return append(out, models.Installment{
		ID:             uuid.NewString(),
		DocumentNumber: doc,
		History:        history,
		DueDate:        due,
		Amount:         amount,
		OriginalAmount: amount,
		Status:         models.PaymentPending,
	})
}

// PayWithCard settles the selected installments at face value in one credit
// card charge split into cardInstallments. It refuses the whole selection if
// any of it is already paid.
func PayWithCard(list []models.Installment, ids []string, cardInstallments int, today calendar.Date) ([]models.Installment, error) {
	if len(ids) == 0 {
		return nil, ErrEmptySelection
	}
	if cardInstallments < 1 {
		cardInstallments = 1
	}
	selected := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		idx := indexOf(list, id)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s", ErrInstallmentNotFound, id)
		}
		if list[idx].IsPaid() {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyPaid, id)
		}
		selected[id] = struct{}{}
	}

	note := fmt.Sprintf("Pago no Cartão (%dx)", cardInstallments)
	out := slices.Clone(list)
	for i, inst := range out {
		if _, ok := selected[inst.ID]; !ok {
			continue
		}
		paid := today
		inst.Status = models.PaymentPaid
		inst.Amount = inst.OriginalAmount
		inst.PaidDate = &paid
		inst.PaymentMethod = models.MethodCreditCard
		if inst.Observation != "" {
			inst.Observation += " | " + note
		} else {
			inst.Observation = note
		}
		out[i] = inst
	}
	return out, nil
}

type RegenerateMode string

const (
	// RegenerateReplace drops the unpaid installments and keeps the paid ones
	// ahead of the new plan.
	RegenerateReplace RegenerateMode = "replace"
	// RegenerateAdd appends the new plan to everything already there.
	RegenerateAdd RegenerateMode = "add"
)

func Regenerate(list []models.Installment, mode RegenerateMode, p ScheduleParams, today calendar.Date) []models.Installment {
	fresh := Generate(p, today)
	if mode == RegenerateAdd {
		return append(slices.Clone(list), fresh...)
	}
	kept := make([]models.Installment, 0, len(list)+len(fresh))
	for _, inst := range list {
		if inst.IsPaid() {
			kept = append(kept, inst)
		}
	}
	return append(kept, fresh...)
}

// SortByDueDate returns the installments ordered by due date, stable for
// equal dates.
func SortByDueDate(list []models.Installment) []models.Installment {
	out := slices.Clone(list)
	slices.SortStableFunc(out, func(a, b models.Installment) int {
		return a.DueDate.Compare(b.DueDate)
	})
	return out
}

func indexOf(list []models.Installment, id string) int {
	return slices.IndexFunc(list, func(i models.Installment) bool { return i.ID == id })
}
