package billing

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/calendar"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/money"
)

var ErrIncompletePlan = errors.New("course and package value are required")

const WarnInvalidCPF = "invalid cpf"

// Plan holds the pricing of one enrollment.
type Plan struct {
	CourseClass          string
	PackageValue         float64
	InstallmentsCount    int
	DueDay               int
	FirstDueDate         calendar.Date
	RegistrationFee      float64
	MaterialFee          float64
	DiscountValue        float64
	DiscountPercent      float64
	EarlyPaymentDiscount float64
}

func (p Plan) schedule() ScheduleParams {
	return ScheduleParams{
		Principal:    p.PackageValue,
		Count:        p.InstallmentsCount,
		DueDay:       p.DueDay,
		FirstDueDate: p.FirstDueDate,
		Label:        p.CourseClass,
	}
}

// Enroll builds a new student from profile and plan. The package plan is
// generated from the full package value; the registration fee goes first and
// the material fee last, both due today. An invalid CPF is reported as a
// warning and does not stop the enrollment.
func Enroll(profile models.Student, plan Plan, today calendar.Date) (models.Student, []string) {
	var warnings []string
	if profile.CPF != "" && !ValidCPF(profile.CPF) {
		warnings = append(warnings, WarnInvalidCPF)
	}

	installments := Generate(plan.schedule(), today)
	if plan.RegistrationFee > 0 {
		fee := FeeInstallment("MAT", "Taxa de Matrícula - "+plan.CourseClass, plan.RegistrationFee, today)
		installments = append([]models.Installment{fee}, installments...)
	}
	if plan.MaterialFee > 0 {
		installments = append(installments, FeeInstallment("MATER", "Material Didático - "+plan.CourseClass, plan.MaterialFee, today))
	}

	s := profile
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if !IsMinor(s.Birth, today) {
		s.GuardianName, s.GuardianCPF, s.GuardianPhone = "", "", ""
	}
	if s.PaymentMethod == "" {
		s.PaymentMethod = models.MethodPix
	}
	s.EnrollmentDate = today
	s.Status = models.StudentActive
	s.ContractNumber = fmt.Sprintf("%d-%d", today.Year(), rand.IntN(10000))
	s.Installments = installments
	s.TotalValue = money.Sum(plan.PackageValue, -plan.DiscountValue, plan.MaterialFee, plan.RegistrationFee)
	applyPlan(&s, plan)
	return s, warnings
}

// UpdateEnrollment regenerates the student's plan. Add appends a new plan for
// another course or package and grows the contract value; replace swaps the
// unpaid installments for the new plan.
func UpdateEnrollment(s models.Student, mode RegenerateMode, plan Plan, today calendar.Date) (models.Student, error) {
	out := s
	switch mode {
	case RegenerateAdd:
		if plan.PackageValue <= 0 || strings.TrimSpace(plan.CourseClass) == "" {
			return s, ErrIncompletePlan
		}
		out.Installments = Regenerate(s.Installments, RegenerateAdd, plan.schedule(), today)
		out.TotalValue = money.Sum(s.TotalValue, plan.PackageValue)
		out.CourseClass = plan.CourseClass
	case RegenerateReplace:
		out.Installments = Regenerate(s.Installments, RegenerateReplace, plan.schedule(), today)
		applyPlan(&out, plan)
	default:
		return s, fmt.Errorf("unknown regenerate mode %q", mode)
	}
	return out, nil
}

func applyPlan(s *models.Student, plan Plan) {
	if plan.CourseClass != "" {
		s.CourseClass = plan.CourseClass
	}
	s.PackageValue = plan.PackageValue
	s.RegistrationFee = plan.RegistrationFee
	s.MaterialFee = plan.MaterialFee
	s.DiscountValue = plan.DiscountValue
	s.DiscountPercent = plan.DiscountPercent
	s.EarlyPaymentDiscount = plan.EarlyPaymentDiscount
}

func ToggleRecurring(s models.Student) models.Student {
	s.IsRecurring = !s.IsRecurring
	return s
}

// CancelCourse marks the student as a dropout and appends the reason to the
// observations with a timestamp.
func CancelCourse(s models.Student, reason string, at time.Time) models.Student {
	entry := fmt.Sprintf("[CANCELAMENTO - %s] Motivo: %s", at.Format("02/01/2006 15:04:05"), reason)
	if s.Observations != "" {
		s.Observations += "\n" + entry
	} else {
		s.Observations = entry
	}
	s.Status = models.StudentDropout
	return s
}

// SetStatus applies an administrative status change.
func SetStatus(s models.Student, status models.StudentStatus) models.Student {
	s.Status = status
	return s
}
