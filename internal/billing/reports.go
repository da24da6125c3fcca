package billing

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/calendar"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/money"
)

// Aggregates below read the persisted status. Overdue sums use
// OriginalAmount, so they differ from the per-installment totals the
// calculator shows with fines and interest.

type Totals struct {
	Received    float64 `json:"received"`
	Outstanding float64 `json:"outstanding"`
	Overdue     float64 `json:"overdue"`
}

func Summarize(list []models.Installment) Totals {
	var received, outstanding, overdue decimal.Decimal
	for _, inst := range list {
		if inst.IsPaid() {
			received = received.Add(decimal.NewFromFloat(inst.Amount))
			continue
		}
		outstanding = outstanding.Add(decimal.NewFromFloat(inst.OriginalAmount))
		if inst.Status == models.PaymentOverdue {
			overdue = overdue.Add(decimal.NewFromFloat(inst.OriginalAmount))
		}
	}
	return Totals{
		Received:    received.Round(2).InexactFloat64(),
		Outstanding: outstanding.Round(2).InexactFloat64(),
		Overdue:     overdue.Round(2).InexactFloat64(),
	}
}

// ReceivedInMonth sums paid amounts whose payment date falls in month/year.
func ReceivedInMonth(list []models.Installment, month time.Month, year int) float64 {
	return sumWhere(list, func(i models.Installment) (float64, bool) {
		return i.Amount, i.IsPaid() && i.PaidDate != nil && calendar.IsSameMonth(*i.PaidDate, month, year)
	})
}

// ExpectedInMonth sums original amounts due in month/year, paid or not.
func ExpectedInMonth(list []models.Installment, month time.Month, year int) float64 {
	return sumWhere(list, func(i models.Installment) (float64, bool) {
		return i.OriginalAmount, calendar.IsSameMonth(i.DueDate, month, year)
	})
}

func sumWhere(list []models.Installment, pick func(models.Installment) (float64, bool)) float64 {
	total := decimal.Zero
	for _, inst := range list {
		if v, ok := pick(inst); ok {
			total = total.Add(decimal.NewFromFloat(v))
		}
	}
	return total.Round(2).InexactFloat64()
}

type StatusFilter string

const (
	FilterAll     StatusFilter = ""
	FilterOpen    StatusFilter = "open"
	FilterSettled StatusFilter = "settled"
)

type StatementLine struct {
	models.Installment
	Effective models.PaymentStatus `json:"effectiveStatus"`
	Current   Breakdown            `json:"current"`
}

// Statement is the financial footer of one student, optionally narrowed to
// one course.
type Statement struct {
	StudentID     string          `json:"studentId"`
	Course        string          `json:"course,omitempty"`
	Lines         []StatementLine `json:"installments"`
	TotalReceived float64         `json:"totalReceived"`
	ToReceive     float64         `json:"toReceive"`
	TotalOverdue  float64         `json:"totalOverdue"`
	InterestFine  float64         `json:"interestFine"`
	CourseValue   float64         `json:"courseValue"`
	MonthlyFee    float64         `json:"monthlyFee"`
	EarlyDiscount float64         `json:"earlyDiscount"`
	ActiveCourses []string        `json:"activeCourses"`
}

func BuildStatement(s models.Student, course string, filter StatusFilter, today calendar.Date, cfg models.FinancialConfig) Statement {
	list := FilterByCourse(s, course)
	switch filter {
	case FilterOpen:
		list = keep(list, func(i models.Installment) bool { return !i.IsPaid() })
	case FilterSettled:
		list = keep(list, models.Installment.IsPaid)
	}
	list = SortByDueDate(list)

	totals := Summarize(list)
	interestFine := decimal.Zero
	courseValue := decimal.Zero
	lines := make([]StatementLine, 0, len(list))
	for _, inst := range list {
		courseValue = courseValue.Add(decimal.NewFromFloat(inst.OriginalAmount))
		if !inst.IsPaid() && inst.Status == models.PaymentOverdue {
			b := Calculate(inst, 0, today, cfg)
			interestFine = interestFine.Add(decimal.NewFromFloat(b.Fine)).Add(decimal.NewFromFloat(b.Interest))
		}
		lines = append(lines, StatementLine{
			Installment: inst,
			Effective:   EffectiveStatus(inst, today),
			Current:     Calculate(inst, s.EarlyPaymentDiscount, today, cfg),
		})
	}

	monthly := 0.0
	if len(list) > 0 {
		monthly = courseValue.Div(decimal.NewFromInt(int64(len(list)))).Round(2).InexactFloat64()
	}

	return Statement{
		StudentID:     s.ID,
		Course:        course,
		Lines:         lines,
		TotalReceived: totals.Received,
		ToReceive:     totals.Outstanding,
		TotalOverdue:  totals.Overdue,
		InterestFine:  interestFine.Round(2).InexactFloat64(),
		CourseValue:   courseValue.Round(2).InexactFloat64(),
		MonthlyFee:    monthly,
		EarlyDiscount: s.EarlyPaymentDiscount,
		ActiveCourses: ActiveCourses(s),
	}
}

type Dashboard struct {
	TotalRevenue      float64 `json:"totalRevenue"`
	TotalExpenses     float64 `json:"totalExpenses"`
	NetResult         float64 `json:"netResult"`
	Delinquency       float64 `json:"delinquency"`
	ActiveStudents    int     `json:"activeStudents"`
	LateStudents      int     `json:"lateStudents"`
	DropoutStudents   int     `json:"dropoutStudents"`
	RevenueThisMonth  float64 `json:"revenueThisMonth"`
	RevenuePrevMonth  float64 `json:"revenuePrevMonth"`
	ExpectedThisMonth float64 `json:"expectedThisMonth"`
	PendingThisMonth  float64 `json:"pendingThisMonth"`
	Growth            float64 `json:"growth"`
	MonthProgress     float64 `json:"monthProgress"`
	DueNext7Days      int     `json:"dueNext7Days"`
}

func BuildDashboard(students []models.Student, expenses []models.Expense, today calendar.Date) Dashboard {
	month, year := today.Month(), today.Year()
	prevMonth, prevYear := calendar.PreviousMonth(today)
	weekEnd := today.AddDays(7)

	var d Dashboard
	var revenue, delinquency, thisMonth, prev, expected decimal.Decimal
	for _, s := range students {
		switch s.Status {
		case models.StudentActive:
			d.ActiveStudents++
		case models.StudentDropout:
			d.DropoutStudents++
		}
		late := s.Status == models.StudentLate || StudentEffectiveStatus(s, today) == models.StudentLate
		for _, inst := range s.Installments {
			if inst.IsPaid() {
				revenue = revenue.Add(decimal.NewFromFloat(inst.Amount))
			} else if !inst.DueDate.Before(today) && inst.DueDate.OnOrBefore(weekEnd) {
				d.DueNext7Days++
			}
			if inst.Status == models.PaymentOverdue {
				late = true
				delinquency = delinquency.Add(decimal.NewFromFloat(inst.Amount))
			}
		}
		if late {
			d.LateStudents++
		}
		thisMonth = thisMonth.Add(decimal.NewFromFloat(ReceivedInMonth(s.Installments, month, year)))
		prev = prev.Add(decimal.NewFromFloat(ReceivedInMonth(s.Installments, prevMonth, prevYear)))
		expected = expected.Add(decimal.NewFromFloat(ExpectedInMonth(s.Installments, month, year)))
	}

	totalExpenses := decimal.Zero
	for _, e := range expenses {
		totalExpenses = totalExpenses.Add(decimal.NewFromFloat(e.Amount))
	}

	d.TotalRevenue = revenue.Round(2).InexactFloat64()
	d.TotalExpenses = totalExpenses.Round(2).InexactFloat64()
	d.NetResult = revenue.Sub(totalExpenses).Round(2).InexactFloat64()
	d.Delinquency = delinquency.Round(2).InexactFloat64()
	d.RevenueThisMonth = thisMonth.Round(2).InexactFloat64()
	d.RevenuePrevMonth = prev.Round(2).InexactFloat64()
	d.ExpectedThisMonth = expected.Round(2).InexactFloat64()
	d.PendingThisMonth = expected.Sub(thisMonth).Round(2).InexactFloat64()
	d.MonthProgress = money.Percent(d.RevenueThisMonth, d.ExpectedThisMonth)
	if prev.IsZero() {
		d.Growth = 100
	} else {
		d.Growth = thisMonth.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
	}
	return d
}

type DueWindow string

const (
	DueAll      DueWindow = "all"
	DueWeek     DueWindow = "week"
	DueMonth    DueWindow = "month"
	DueOverdue  DueWindow = "overdue"
	DueIncoming DueWindow = "incoming"
)

type DueQuery struct {
	Window DueWindow
	From   calendar.Date
	To     calendar.Date
}

type DueReport struct {
	Items []models.FlatInstallment `json:"items"`
	Total float64                  `json:"total"`
}

// DueDates flattens the installments of every student, filters them by
// window and optional date range and orders them by due date.
func DueDates(students []models.Student, q DueQuery, today calendar.Date) DueReport {
	weekEnd := today.AddDays(7)
	match := func(i models.Installment) bool {
		switch q.Window {
		case DueWeek:
			return !i.IsPaid() && !i.DueDate.Before(today) && i.DueDate.OnOrBefore(weekEnd)
		case DueMonth:
			return !i.IsPaid() && calendar.IsSameMonth(i.DueDate, today.Month(), today.Year())
		case DueOverdue:
			return i.Status == models.PaymentOverdue || (i.Status == models.PaymentPending && i.DueDate.Before(today))
		case DueIncoming:
			return i.Status == models.PaymentPending && i.DueDate.After(today)
		}
		return true
	}

	var items []models.FlatInstallment
	for _, s := range students {
		for _, inst := range s.Installments {
			if !match(inst) {
				continue
			}
			if !q.From.IsZero() && inst.DueDate.Before(q.From) {
				continue
			}
			if !q.To.IsZero() && inst.DueDate.After(q.To) {
				continue
			}
			items = append(items, models.FlatInstallment{
				Installment:  inst,
				StudentID:    s.ID,
				StudentName:  s.FullName,
				StudentClass: s.CourseClass,
			})
		}
	}
	slices.SortStableFunc(items, func(a, b models.FlatInstallment) int {
		return a.DueDate.Compare(b.DueDate)
	})

	total := decimal.Zero
	for _, it := range items {
		total = total.Add(decimal.NewFromFloat(it.Amount))
	}
	return DueReport{Items: items, Total: total.Round(2).InexactFloat64()}
}

func keep(list []models.Installment, ok func(models.Installment) bool) []models.Installment {
	out := make([]models.Installment, 0, len(list))
	for _, inst := range list {
		if ok(inst) {
			out = append(out, inst)
		}
	}
	return out
}
