package processors

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/billing"
	importitems "github.com/robinhoalvessb-ui/performance-gest-o/internal/repository/imports"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/services/school"
)

// PaymentsProcessor settles installments by installment id, or by document
// number inside the student named by id or CPF. A row without an amount pays
// the calculator total at its payment date.
type PaymentsProcessor struct {
	*BaseProcessor
}

func (p PaymentsProcessor) Type() string { return string(importitems.ModelTypePayments) }

func (p *PaymentsProcessor) ProcessBatch(ctx context.Context, batch []map[string]string) error {
	schoolID, recordID, err := p.scope(ctx)
	if err != nil {
		return err
	}
	p.Log.WithFields(logrus.Fields{"rows": len(batch), "school": schoolID, "import_record_id": recordID}).Info("[PROC][payments][START]")

	paid := 0
	for _, raw := range batch {
		r := foldRow(raw)
		match := school.InstallmentMatch{
			StudentID:      r.get("aluno_id", "student_id"),
			CPF:            r.get("cpf"),
			DocumentNumber: r.get("documento", "numero_documento", "n_documento", "document_number"),
			InstallmentID:  r.get("parcela_id", "installment_id"),
		}
		params := importitems.LogParams{
			ImportRecordID: recordID,
			SchoolID:       schoolID,
			ModelType:      importitems.ModelTypePayments,
			ModelID:        match.DocumentNumber,
			Payload:        raw,
		}
		switch {
		case match.InstallmentID != "":
		case match.DocumentNumber == "":
			p.fail(ctx, params, "missing document number")
			continue
		case match.StudentID == "" && match.CPF == "":
			p.fail(ctx, params, "missing student id or cpf")
			continue
		}

		amount, ok := parseAmount(r.get("valor_pago", "valor", "amount"))
		if !ok || amount < 0 {
			p.fail(ctx, params, "bad amount")
			continue
		}
		paidAt, ok := parseDate(r.get("data_pagamento", "data_do_pagamento", "pago_em", "paid_date", "payment_date"))
		if !ok {
			p.fail(ctx, params, "bad payment date")
			continue
		}

		_, inst, err := p.Schools.PayMatching(ctx, schoolID, match, billing.Payment{
			Amount:      amount,
			PaidDate:    paidAt,
			Method:      paymentMethod(r.get("forma_de_pagamento", "forma_pagamento", "payment_method")),
			Observation: r.get("observacao", "obs", "observation"),
		})
		if err != nil {
			p.fail(ctx, params, err.Error())
			continue
		}
		params.ModelID = inst.ID
		p.Items.Done(ctx, params)
		paid++
	}

	p.Log.WithFields(logrus.Fields{"total": len(batch), "paid": paid}).Info("[PROC][payments][DONE]")
	return nil
}
