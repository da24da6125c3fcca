package database

import (
	"encoding/json"
	"testing"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/calendar"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
)

func TestDecodeSchoolKeepsPortugueseEnums(t *testing.T) {
	in := models.School{
		ID:   "1234",
		Name: "Escola Centro",
		Students: []models.Student{{
			ID:     "s1",
			Status: models.StudentLate,
			Installments: []models.Installment{{
				ID:      "i1",
				DueDate: calendar.MustParse("2024-01-31"),
				Status:  models.PaymentOverdue,
			}},
		}},
	}
	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	out, err := decodeSchool(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Students[0].Status != "Em Atraso" {
		t.Fatalf("student status = %q", out.Students[0].Status)
	}
	inst := out.Students[0].Installments[0]
	if inst.Status != "Vencido" || inst.DueDate.String() != "2024-01-31" {
		t.Fatalf("installment = %+v", inst)
	}
}

func TestDecodeSchoolRejectsGarbage(t *testing.T) {
	if _, err := decodeSchool([]byte("{")); err == nil {
		t.Fatal("expected error")
	}
}

func TestSchoolRepoTableName(t *testing.T) {
	if got := NewSchoolRepo(nil).GetTableName(); got != "school_snapshots" {
		t.Fatalf("table = %q", got)
	}
}
