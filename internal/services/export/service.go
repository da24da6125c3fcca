// Package export renders reports as spreadsheets.
package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/billing"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/calendar"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	dueSheet        = "Vencimentos"
)

var dueHeader = []string{"Vencimento", "Aluno", "Turma", "Documento", "Histórico", "Valor", "Status"}

type DueSource interface {
	DueDates(ctx context.Context, schoolID string, q billing.DueQuery) (billing.DueReport, error)
	Today() calendar.Date
}

type Service struct {
	schools DueSource
}

func NewService(schools DueSource) *Service {
	return &Service{schools: schools}
}

// DueDates builds the due-dates workbook of a school and the file name to
// download it as.
func (s *Service) DueDates(ctx context.Context, schoolID string, q billing.DueQuery) ([]byte, string, error) {
	rep, err := s.schools.DueDates(ctx, schoolID, q)
	if err != nil {
		return nil, "", err
	}
	today := s.schools.Today()
	data, err := DueDatesXLSX(rep, today)
	if err != nil {
		return nil, "", err
	}
	window := string(q.Window)
	if window == "" {
		window = string(billing.DueAll)
	}
	return data, fmt.Sprintf("vencimentos-%s-%s.xlsx", window, today.String()), nil
}

// DueDatesXLSX writes one row per installment and a closing total row.
// Status is the effective status on today.
func DueDatesXLSX(rep billing.DueReport, today calendar.Date) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), dueSheet); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	// built-in format 14 is a short date, 4 is #,##0.00
	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	if err != nil {
		return nil, err
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(dueSheet, "A1", &dueHeader); err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(dueSheet, 1, 1, bold); err != nil {
		return nil, err
	}

	for i, it := range rep.Items {
		row := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := []any{
			it.DueDate.Time(),
			it.StudentName,
			it.StudentClass,
			it.DocumentNumber,
			it.History,
			it.Amount,
			string(billing.EffectiveStatus(it.Installment, today)),
		}
		if err := f.SetSheetRow(dueSheet, cell, &values); err != nil {
			return nil, err
		}
	}

	last := len(rep.Items) + 1
	if last > 1 {
		if err := f.SetCellStyle(dueSheet, "A2", fmt.Sprintf("A%d", last), dateStyle); err != nil {
			return nil, err
		}
	}
	totalRow := last + 1
	if err := f.SetCellValue(dueSheet, fmt.Sprintf("E%d", totalRow), "Total"); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(dueSheet, fmt.Sprintf("F%d", totalRow), rep.Total); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(dueSheet, "F2", fmt.Sprintf("F%d", totalRow), amountStyle); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(dueSheet, fmt.Sprintf("E%d", totalRow), fmt.Sprintf("E%d", totalRow), bold); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(dueSheet, "B", "B", 32); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(dueSheet, "E", "E", 36); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
