package reminder

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/calendar"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/ports"
)

var today = calendar.MustParse("2024-03-15")

type fakeSchools struct{ list []models.School }

func (f fakeSchools) List(context.Context) ([]models.School, error) { return f.list, nil }
func (f fakeSchools) Today() calendar.Date { return today }
func (f fakeSchools) Defaults() models.FinancialConfig {
	return models.FinancialConfig{FineAmount: 10, DailyInterestRate: 0.33, GracePeriodDays: 3}
}

type fakeMailer struct {
	sent []ports.Message
	fail string
}

func (m *fakeMailer) Send(_ context.Context, msg ports.Message) error {
	if msg.To[0] == m.fail {
		return errors.New("smtp down")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func unpaid(id, due string, amount float64) models.Installment {
	return models.Installment{
		ID:             id,
		History:        "Inglês - " + id,
		DueDate:        calendar.MustParse(due),
		Amount:         amount,
		OriginalAmount: amount,
		Status:         models.PaymentPending,
	}
}

func fixture() models.School {
	paid := unpaid("p", "2024-03-10", 100)
	paid.Status = models.PaymentPaid

	return models.School{
		ID:       "1234",
		Name:     "Escola Centro",
		BankInfo: &models.BankInfo{PixKey: "pix@escola"},
		Students: []models.Student{
			{
				ID:                   "a",
				FullName:             "Ana Maria",
				Email:                "ana@x",
				EarlyPaymentDiscount: 5,
				Installments: []models.Installment{
					unpaid("3", "2024-04-10", 100),
					unpaid("2", "2024-03-20", 100),
					unpaid("1", "2024-03-01", 100),
					paid,
				},
			},
			{ID: "b", FullName: "Bruno", Installments: []models.Installment{unpaid("1", "2024-03-01", 50)}},
			{ID: "c", FullName: "Caio", Email: "caio@x", Status: models.StudentDropout, Installments: []models.Installment{unpaid("1", "2024-03-01", 50)}},
			{ID: "d", FullName: "Davi", Email: "davi@x", Installments: []models.Installment{paid}},
		},
	}
}

func TestCollect(t *testing.T) {
	got := Collect(fixture(), today, fakeSchools{}.Defaults())
	require.Len(t, got, 1)

	r := got[0]
	assert.Equal(t, "a", r.StudentID)
	assert.Equal(t, "Ana", r.Name)
	require.Len(t, r.Lines, 2)

	assert.Equal(t, "1", r.Lines[0].Installment.ID)
	assert.True(t, r.Lines[0].Overdue)
	assert.Equal(t, 14, r.Lines[0].DaysLate)
	assert.Equal(t, 114.62, r.Lines[0].Breakdown.Total)

	assert.Equal(t, "2", r.Lines[1].Installment.ID)
	assert.False(t, r.Lines[1].Overdue)
	assert.Equal(t, 95.0, r.Lines[1].Breakdown.Total)

	assert.Equal(t, 209.62, r.Total)
}

func TestRun(t *testing.T) {
	log, _ := test.NewNullLogger()
	mailer := &fakeMailer{}
	svc := NewService(fakeSchools{list: []models.School{fixture()}}, mailer, log)

	n, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, mailer.sent, 1)

	msg := mailer.sent[0]
	assert.Equal(t, []string{"ana@x"}, msg.To)
	assert.Equal(t, "Escola Centro - lembrete de pagamento", msg.Subject)
	assert.Contains(t, msg.Text, "Olá Ana,")
	assert.Contains(t, msg.Text, "vencimento 01/03/2024, valor R$ 114,62 (vencida há 14 dias, multa R$ 10,00, juros R$ 4,62)")
	assert.Contains(t, msg.Text, "Total: R$ 209,62")
	assert.Contains(t, msg.Text, "Chave Pix: pix@escola")
}

func TestRunKeepsGoingAfterFailure(t *testing.T) {
	log, _ := test.NewNullLogger()
	sc := fixture()
	sc.Students[1].Email = "bruno@x"
	mailer := &fakeMailer{fail: "ana@x"}

	n, err := NewService(fakeSchools{list: []models.School{sc}}, mailer, log).Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"bruno@x"}, mailer.sent[0].To)
}
