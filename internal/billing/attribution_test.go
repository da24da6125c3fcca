package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
)

func withHistory(id, history string) models.Installment {
	inst := pending(id, "2024-03-01", 100)
	inst.History = history
	return inst
}

func TestAttributeInstallment(t *testing.T) {
	cases := []struct {
		history string
		course  string
		primary string
		want    bool
	}{
		{"Inglês - 01/10", "inglês", "Espanhol", true},
		{"Mensalidade - 01/10", "Espanhol", "Espanhol", true},
		{"Mensalidade - 01/10", "Inglês", "Espanhol", false},
		{"Taxa de Matrícula - Inglês", "Inglês", "Inglês", false},
		{"", "Inglês", "Inglês", false},
		// shared prefixes are indistinguishable
		{"Inglês Avançado - 01/05", "Inglês", "", true},
	}
	for _, tc := range cases {
		got := AttributeInstallment(withHistory("x", tc.history), tc.course, tc.primary)
		assert.Equal(t, tc.want, got, "%q vs %q", tc.history, tc.course)
	}
}

func TestActiveCoursesAndFilter(t *testing.T) {
	s := models.Student{
		CourseClass: "Inglês",
		Installments: []models.Installment{
			withHistory("1", "Taxa de Matrícula - Inglês"),
			withHistory("2", "Inglês - 01/02"),
			withHistory("3", "Espanhol - 01/02"),
			withHistory("4", "Material Didático - Inglês"),
			withHistory("5", "Parcela Avulsa"),
			withHistory("6", "Espanhol - 02/02"),
		},
	}

	assert.Equal(t, []string{"Inglês", "Espanhol"}, ActiveCourses(s))

	spanish := FilterByCourse(s, "Espanhol")
	assert.Len(t, spanish, 2)
	assert.Len(t, FilterByCourse(s, ""), 6)
}
