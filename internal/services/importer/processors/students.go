package processors

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/billing"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
	importitems "github.com/robinhoalvessb-ui/performance-gest-o/internal/repository/imports"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/utils"
)

// StudentsProcessor enrolls one student per row.
type StudentsProcessor struct {
	*BaseProcessor
}

func (p StudentsProcessor) Type() string { return string(importitems.ModelTypeStudents) }

func (p *StudentsProcessor) ProcessBatch(ctx context.Context, batch []map[string]string) error {
	schoolID, recordID, err := p.scope(ctx)
	if err != nil {
		return err
	}
	p.Log.WithFields(logrus.Fields{"rows": len(batch), "school": schoolID, "import_record_id": recordID}).Info("[PROC][students][START]")

	enrolled := 0
	for _, raw := range batch {
		params := importitems.LogParams{
			ImportRecordID: recordID,
			SchoolID:       schoolID,
			ModelType:      importitems.ModelTypeStudents,
			ModelID:        uuid.NewString(),
			Payload:        raw,
		}

		profile, plan, msg := studentFromRow(foldRow(raw))
		if msg != "" {
			p.fail(ctx, params, msg)
			continue
		}
		profile.ID = params.ModelID

		st, warnings, err := p.Schools.Enroll(ctx, schoolID, profile, plan)
		if err != nil {
			p.fail(ctx, params, err.Error())
			continue
		}
		params.ModelID = st.ID
		params.Errors = strings.Join(warnings, "; ")
		p.Items.Done(ctx, params)
		enrolled++
	}

	p.Log.WithFields(logrus.Fields{"total": len(batch), "enrolled": enrolled}).Info("[PROC][students][DONE]")
	return nil
}

// studentFromRow maps a spreadsheet row; msg is non-empty when the row can
// not be enrolled.
func studentFromRow(r row) (models.Student, billing.Plan, string) {
	name := utils.NormalizeFullName(r.get("nome", "nome_completo", "aluno", "full_name", "name"))
	if name == "" {
		return models.Student{}, billing.Plan{}, "missing name"
	}
	course := r.get("curso", "turma", "course", "course_class", "plano")
	pkg, ok := parseAmount(r.get("valor_pacote", "valor_total", "valor", "package_value"))
	if !ok {
		return models.Student{}, billing.Plan{}, "bad package value"
	}
	if course == "" || pkg <= 0 {
		return models.Student{}, billing.Plan{}, billing.ErrIncompletePlan.Error()
	}

	birth, ok := parseDate(r.get("data_de_nascimento", "data_nascimento", "nascimento", "birth_date"))
	if !ok {
		return models.Student{}, billing.Plan{}, "bad birth date"
	}
	first, ok := parseDate(r.get("primeiro_vencimento", "first_due_date"))
	if !ok {
		return models.Student{}, billing.Plan{}, "bad first due date"
	}

	fees := make(map[string]float64, 4)
	for key, aliases := range map[string][]string{
		"registration": {"taxa_de_matricula", "taxa_matricula", "matricula", "registration_fee"},
		"material":     {"material", "material_didatico", "taxa_material", "material_fee"},
		"discount":     {"desconto", "desconto_valor", "discount_value"},
		"early":        {"desconto_pontualidade", "desconto_antecipado", "early_payment_discount"},
	} {
		v, ok := parseAmount(r.get(aliases...))
		if !ok {
			return models.Student{}, billing.Plan{}, "bad " + key + " amount"
		}
		fees[key] = v
	}

	profile := models.Student{
		FullName:      name,
		CPF:           r.get("cpf"),
		RG:            r.get("rg"),
		Birth:         birth,
		Phone:         r.get("telefone", "celular", "whatsapp", "phone"),
		Email:         strings.ToLower(r.get("email", "e_mail")),
		Address:       r.get("endereco", "logradouro", "address"),
		AddressNumber: r.get("numero", "address_number"),
		Neighborhood:  r.get("bairro", "neighborhood"),
		City:          r.get("cidade", "city"),
		GuardianName:  utils.NormalizeFullName(r.get("responsavel", "nome_responsavel", "guardian_name")),
		GuardianCPF:   r.get("cpf_responsavel", "responsavel_cpf", "guardian_cpf"),
		GuardianPhone: r.get("telefone_responsavel", "responsavel_telefone", "guardian_phone"),
		PaymentMethod: paymentMethod(r.get("forma_de_pagamento", "forma_pagamento", "payment_method")),
		Seller:        r.get("vendedor", "seller"),
		Observations:  r.get("observacoes", "observacao", "obs"),
		IsScholarship: parseBool(r.get("bolsista", "scholarship")),
	}
	plan := billing.Plan{
		CourseClass:          course,
		PackageValue:         pkg,
		InstallmentsCount:    parseInt(r.get("parcelas", "quantidade_de_parcelas", "installments"), 1),
		DueDay:               parseInt(r.get("dia_de_vencimento", "dia_vencimento", "vencimento", "due_day"), billing.DefaultDueDay),
		FirstDueDate:         first,
		RegistrationFee:      fees["registration"],
		MaterialFee:          fees["material"],
		DiscountValue:        fees["discount"],
		EarlyPaymentDiscount: fees["early"],
	}
	return profile, plan, ""
}

func paymentMethod(s string) models.PaymentMethod {
	switch utils.FoldKey(s) {
	case "cartao", "cartao_de_credito", "credito", "credit_card":
		return models.MethodCreditCard
	case "dinheiro", "especie", "cash":
		return models.MethodCash
	case "pix":
		return models.MethodPix
	}
	return ""
}
