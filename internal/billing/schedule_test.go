package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/calendar"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/money"
)

func amounts(list []models.Installment) []float64 {
	out := make([]float64, len(list))
	for i, inst := range list {
		out[i] = inst.Amount
	}
	return out
}

func dueStrings(list []models.Installment) []string {
	out := make([]string, len(list))
	for i, inst := range list {
		out[i] = inst.DueDate.String()
	}
	return out
}

func TestGenerateSumsToPrincipal(t *testing.T) {
	today := day("2024-05-15")
	for _, principal := range []float64{0, 0.01, 7, 10, 1000, 1234.56, 2399.99, 99999.99} {
		for count := 1; count <= 36; count++ {
			list := Generate(ScheduleParams{Principal: principal, Count: count, DueDay: 10}, today)
			require.Len(t, list, count)
			assert.Equal(t, money.Round2(principal), money.Sum(amounts(list)...), "principal=%v count=%d", principal, count)
		}
	}
}

func TestGenerateThousandInThree(t *testing.T) {
	list := Generate(ScheduleParams{Principal: 1000, Count: 3, DueDay: 10, Label: "Inglês"}, day("2024-05-15"))

	assert.Equal(t, []float64{333.33, 333.33, 333.34}, amounts(list))
	assert.Equal(t, 333.34, list[2].OriginalAmount)
	assert.Equal(t, "Inglês - 01/03", list[0].History)
	assert.Equal(t, "Inglês - 03/03", list[2].History)
	for _, inst := range list {
		assert.NotEmpty(t, inst.ID)
		assert.NotEmpty(t, inst.DocumentNumber)
		assert.Equal(t, models.PaymentPending, inst.Status)
	}
}

func TestGenerateFirstDueDateRollsMonthEnd(t *testing.T) {
	list := Generate(ScheduleParams{Principal: 300, Count: 3, FirstDueDate: day("2024-01-31")}, day("2024-01-02"))

	assert.Equal(t, []string{"2024-01-31", "2024-02-29", "2024-03-31"}, dueStrings(list))
}

func TestGenerateDueDay(t *testing.T) {
	today := day("2024-05-15")
	cases := []struct {
		dueDay int
		want   []string
	}{
		{10, []string{"2024-06-10", "2024-07-10"}},
		{20, []string{"2024-05-20", "2024-06-20"}},
		{15, []string{"2024-05-15", "2024-06-15"}},
		{0, []string{"2024-06-10", "2024-07-10"}},
	}
	for _, tc := range cases {
		list := Generate(ScheduleParams{Principal: 100, Count: 2, DueDay: tc.dueDay}, today)
		assert.Equal(t, tc.want, dueStrings(list), "dueDay=%d", tc.dueDay)
	}

	endOfMonth := Generate(ScheduleParams{Principal: 100, Count: 3, DueDay: 31}, day("2024-01-31"))
	assert.Equal(t, []string{"2024-01-31", "2024-02-29", "2024-03-31"}, dueStrings(endOfMonth))
}

func TestGenerateClampsCount(t *testing.T) {
	list := Generate(ScheduleParams{Principal: 150, Count: 0}, day("2024-05-15"))

	require.Len(t, list, 1)
	assert.Equal(t, 150.0, list[0].Amount)
	assert.Equal(t, "Mensalidade - 01/01", list[0].History)
}

func TestFeeInstallment(t *testing.T) {
	today := calendar.New(2024, 5, 15)
	fee := FeeInstallment("MAT", "Taxa de Matrícula - Inglês", 99.999, today)

	assert.Equal(t, 100.0, fee.Amount)
	assert.Equal(t, fee.Amount, fee.OriginalAmount)
	assert.True(t, fee.DueDate.Equal(today))
	assert.Regexp(t, `^MAT-\d+$`, fee.DocumentNumber)
}
