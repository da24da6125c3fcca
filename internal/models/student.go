package models

import "github.com/robinhoalvessb-ui/performance-gest-o/internal/calendar"

// Student is a billing subject. Every course or package the student enrolls
// in contributes installments to the same Installments list; they are told
// apart only by the History label.
type Student struct {
	ID       string        `json:"id" bson:"id"`
	FullName string        `json:"fullName" bson:"fullName"`
	RG       string        `json:"rg" bson:"rg"`
	RGIssuer string        `json:"rgIssuer,omitempty" bson:"rgIssuer,omitempty"`
	CPF      string        `json:"cpf" bson:"cpf"`
	Birth    calendar.Date `json:"birthDate" bson:"birthDate"`

	GuardianName  string `json:"guardianName,omitempty" bson:"guardianName,omitempty"`
	GuardianCPF   string `json:"guardianCpf,omitempty" bson:"guardianCpf,omitempty"`
	GuardianPhone string `json:"guardianPhone,omitempty" bson:"guardianPhone,omitempty"`

	Phone         string `json:"phone" bson:"phone"`
	Email         string `json:"email" bson:"email"`
	Address       string `json:"address" bson:"address"`
	AddressNumber string `json:"addressNumber" bson:"addressNumber"`
	Neighborhood  string `json:"neighborhood,omitempty" bson:"neighborhood,omitempty"`
	City          string `json:"city" bson:"city"`

	EnrollmentDate calendar.Date `json:"enrollmentDate" bson:"enrollmentDate"`
	CourseClass    string        `json:"courseClass" bson:"courseClass"`
	Status         StudentStatus `json:"status" bson:"status"`
	Observations   string        `json:"observations,omitempty" bson:"observations,omitempty"`

	ContractNumber       string        `json:"contractNumber,omitempty" bson:"contractNumber,omitempty"`
	TotalValue           float64       `json:"totalValue" bson:"totalValue"`
	EarlyPaymentDiscount float64       `json:"earlyPaymentDiscount,omitempty" bson:"earlyPaymentDiscount,omitempty"`
	Installments         []Installment `json:"installments" bson:"installments"`
	PaymentMethod        PaymentMethod `json:"paymentMethod" bson:"paymentMethod"`

	ClassType            string  `json:"classType,omitempty" bson:"classType,omitempty"`
	HoursPerWeek         float64 `json:"hoursPerWeek,omitempty" bson:"hoursPerWeek,omitempty"`
	RegistrationFee      float64 `json:"registrationFee,omitempty" bson:"registrationFee,omitempty"`
	PackageValue         float64 `json:"packageValue,omitempty" bson:"packageValue,omitempty"`
	PackageBonus         float64 `json:"packageBonus,omitempty" bson:"packageBonus,omitempty"`
	MaterialFee          float64 `json:"materialFee,omitempty" bson:"materialFee,omitempty"`
	MaterialInstallments int     `json:"materialInstallments,omitempty" bson:"materialInstallments,omitempty"`
	IsMaterialIncluded   bool    `json:"isMaterialIncluded,omitempty" bson:"isMaterialIncluded,omitempty"`
	IsScholarship        bool    `json:"isScholarship,omitempty" bson:"isScholarship,omitempty"`
	Agreement            string  `json:"agreement,omitempty" bson:"agreement,omitempty"`
	DiscountPercent      float64 `json:"discountPercent,omitempty" bson:"discountPercent,omitempty"`
	DiscountValue        float64 `json:"discountValue,omitempty" bson:"discountValue,omitempty"`

	Attendant       string `json:"attendant,omitempty" bson:"attendant,omitempty"`
	Seller          string `json:"seller,omitempty" bson:"seller,omitempty"`
	KnowledgeSource string `json:"knowledgeSource,omitempty" bson:"knowledgeSource,omitempty"`
	Referrer        string `json:"referrer,omitempty" bson:"referrer,omitempty"`
	PaymentPlan     string `json:"paymentPlan,omitempty" bson:"paymentPlan,omitempty"`

	IsRecurring bool          `json:"isRecurring,omitempty" bson:"isRecurring,omitempty"`
	EndDate     calendar.Date `json:"endDate,omitempty" bson:"endDate,omitempty"`
	IsSigned    bool          `json:"isSigned,omitempty" bson:"isSigned,omitempty"`
}

// WithInstallments returns a copy of s carrying list. The copy shares nothing
// mutable with s.
func (s Student) WithInstallments(list []Installment) Student {
	out := s
	out.Installments = list
	return out
}
