package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
)

func overdue(id, due string, amount float64) models.Installment {
	inst := pending(id, due, amount)
	inst.Status = models.PaymentOverdue
	return inst
}

func TestSummarize(t *testing.T) {
	p := paid("a", "2024-02-10", "2024-02-12", 100)
	p.Amount = 110.5
	list := []models.Installment{p, overdue("b", "2024-03-10", 100), pending("c", "2024-04-10", 100)}

	got := Summarize(list)
	assert.Equal(t, Totals{Received: 110.5, Outstanding: 200, Overdue: 100}, got)
	assert.Equal(t, Totals{}, Summarize(nil))
}

func TestMonthScopedSums(t *testing.T) {
	list := []models.Installment{
		paid("a", "2024-02-10", "2024-03-02", 100),
		paid("b", "2024-03-10", "2024-03-09", 50),
		pending("c", "2024-03-20", 70),
	}

	assert.Equal(t, 150.0, ReceivedInMonth(list, time.March, 2024))
	assert.Equal(t, 0.0, ReceivedInMonth(list, time.February, 2024))
	assert.Equal(t, 120.0, ExpectedInMonth(list, time.March, 2024))
}

func TestBuildStatement(t *testing.T) {
	today := day("2024-03-11")
	s := models.Student{
		ID:                   "s1",
		CourseClass:          "Inglês",
		EarlyPaymentDiscount: 20,
		Installments: []models.Installment{
			withHistory("3", "Inglês - 03/03"),
			paid("1", "2024-01-01", "2024-01-01", 200),
			overdue("2", "2024-03-01", 200),
		},
	}
	s.Installments[0].DueDate = day("2024-04-01")
	s.Installments[1].History = "Inglês - 01/03"
	s.Installments[2].History = "Inglês - 02/03"

	st := BuildStatement(s, "", FilterAll, today, testConfig)

	require.Len(t, st.Lines, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{st.Lines[0].ID, st.Lines[1].ID, st.Lines[2].ID})
	assert.Equal(t, 200.0, st.TotalReceived)
	assert.Equal(t, 300.0, st.ToReceive)
	assert.Equal(t, 200.0, st.TotalOverdue)
	assert.Equal(t, 16.6, st.InterestFine)
	assert.Equal(t, 500.0, st.CourseValue)
	assert.Equal(t, 166.67, st.MonthlyFee)
	assert.Equal(t, models.PaymentOverdue, st.Lines[1].Effective)
	assert.Equal(t, 216.6, st.Lines[1].Current.Total)
	assert.Equal(t, 80.0, st.Lines[2].Current.Total)

	open := BuildStatement(s, "Inglês", FilterOpen, today, testConfig)
	assert.Len(t, open.Lines, 2)

	empty := BuildStatement(s, "Francês", FilterAll, today, testConfig)
	assert.Empty(t, empty.Lines)
	assert.Equal(t, 0.0, empty.MonthlyFee)
}

func TestBuildDashboard(t *testing.T) {
	today := day("2024-03-11")
	students := []models.Student{
		{
			ID:     "s1",
			Status: models.StudentActive,
			Installments: []models.Installment{
				paid("a", "2024-02-10", "2024-02-10", 100),
				paid("b", "2024-03-10", "2024-03-10", 150),
				pending("c", "2024-03-15", 100),
			},
		},
		{
			ID:           "s2",
			Status:       models.StudentActive,
			Installments: []models.Installment{overdue("d", "2024-03-01", 80)},
		},
		{ID: "s3", Status: models.StudentDropout},
	}
	expenses := []models.Expense{{Amount: 50}, {Amount: 25.5}}

	d := BuildDashboard(students, expenses, today)

	assert.Equal(t, 250.0, d.TotalRevenue)
	assert.Equal(t, 75.5, d.TotalExpenses)
	assert.Equal(t, 174.5, d.NetResult)
	assert.Equal(t, 80.0, d.Delinquency)
	assert.Equal(t, 2, d.ActiveStudents)
	assert.Equal(t, 1, d.LateStudents)
	assert.Equal(t, 1, d.DropoutStudents)
	assert.Equal(t, 150.0, d.RevenueThisMonth)
	assert.Equal(t, 100.0, d.RevenuePrevMonth)
	assert.Equal(t, 330.0, d.ExpectedThisMonth)
	assert.Equal(t, 180.0, d.PendingThisMonth)
	assert.Equal(t, 50.0, d.Growth)
	assert.Equal(t, 45.45, d.MonthProgress)
	assert.Equal(t, 1, d.DueNext7Days)

	quiet := BuildDashboard(nil, nil, today)
	assert.Equal(t, 100.0, quiet.Growth)
	assert.Equal(t, 0.0, quiet.MonthProgress)
}

func TestDashboardDerivesLateStudents(t *testing.T) {
	today := day("2024-03-11")
	students := []models.Student{
		{ID: "s1", Status: models.StudentActive, Installments: []models.Installment{pending("a", "2024-02-10", 100)}},
		{ID: "s2", Status: models.StudentActive, Installments: []models.Installment{pending("b", "2024-04-10", 100)}},
	}

	d := BuildDashboard(students, nil, today)
	assert.Equal(t, 2, d.ActiveStudents)
	assert.Equal(t, 1, d.LateStudents)
	assert.Equal(t, 0.0, d.Delinquency)
}

func TestDueDates(t *testing.T) {
	today := day("2024-03-11")
	students := []models.Student{
		{ID: "s1", FullName: "Ana", CourseClass: "Inglês", Installments: []models.Installment{
			pending("late-pending", "2024-03-05", 100),
			pending("week", "2024-03-15", 100),
			pending("next-month", "2024-04-20", 100),
		}},
		{ID: "s2", FullName: "Bia", CourseClass: "Espanhol", Installments: []models.Installment{
			overdue("late", "2024-02-01", 50),
			paid("done", "2024-03-12", "2024-03-10", 70),
		}},
	}
	ids := func(r DueReport) []string {
		out := make([]string, len(r.Items))
		for i, it := range r.Items {
			out[i] = it.ID
		}
		return out
	}

	all := DueDates(students, DueQuery{}, today)
	assert.Equal(t, []string{"late", "late-pending", "done", "week", "next-month"}, ids(all))
	assert.Equal(t, 420.0, all.Total)
	assert.Equal(t, "Bia", all.Items[0].StudentName)
	assert.Equal(t, "Espanhol", all.Items[0].StudentClass)

	assert.Equal(t, []string{"week"}, ids(DueDates(students, DueQuery{Window: DueWeek}, today)))
	assert.Equal(t, []string{"late-pending", "week"}, ids(DueDates(students, DueQuery{Window: DueMonth}, today)))
	assert.Equal(t, []string{"late", "late-pending"}, ids(DueDates(students, DueQuery{Window: DueOverdue}, today)))
	assert.Equal(t, []string{"week", "next-month"}, ids(DueDates(students, DueQuery{Window: DueIncoming}, today)))

	ranged := DueDates(students, DueQuery{From: day("2024-03-01"), To: day("2024-03-31")}, today)
	assert.Equal(t, []string{"late-pending", "done", "week"}, ids(ranged))
}

func TestEffectiveStatus(t *testing.T) {
	today := day("2024-03-11")

	assert.Equal(t, models.PaymentOverdue, EffectiveStatus(pending("a", "2024-03-10", 1), today))
	assert.Equal(t, models.PaymentPending, EffectiveStatus(pending("a", "2024-03-11", 1), today))
	assert.Equal(t, models.PaymentPaid, EffectiveStatus(paid("a", "2024-01-01", "2024-01-01", 1), today))

	s := models.Student{Status: models.StudentActive, Installments: []models.Installment{pending("a", "2024-03-01", 1)}}
	assert.Equal(t, models.StudentLate, StudentEffectiveStatus(s, today))
	s.Status = models.StudentDropout
	assert.Equal(t, models.StudentDropout, StudentEffectiveStatus(s, today))
	assert.Equal(t, models.StudentActive, StudentEffectiveStatus(models.Student{}, today))
}
