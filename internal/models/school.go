package models

import "github.com/robinhoalvessb-ui/performance-gest-o/internal/calendar"

// FinancialConfig holds the tenant-wide late payment rules.
type FinancialConfig struct {
	FineAmount        float64 `json:"fineAmount" bson:"fineAmount"`               // flat, charged once past grace
	DailyInterestRate float64 `json:"dailyInterestRate" bson:"dailyInterestRate"` // percent per day late
	GracePeriodDays   int     `json:"gracePeriodDays" bson:"gracePeriodDays"`
}

type User struct {
	ID       string `json:"id" bson:"id"`
	Name     string `json:"name" bson:"name"`
	Username string `json:"username" bson:"username"`

	// bcrypt hash; older snapshots may still hold the plain password
	Password string `json:"password,omitempty" bson:"password,omitempty"`
	Role     Role   `json:"role" bson:"role"`
}

type CompanyInfo struct {
	Name         string `json:"name" bson:"name"`
	CNPJ         string `json:"cnpj" bson:"cnpj"`
	Address      string `json:"address" bson:"address"`
	Phone        string `json:"phone" bson:"phone"`
	Email        string `json:"email" bson:"email"`
	LogoURL      string `json:"logoUrl,omitempty" bson:"logoUrl,omitempty"`
	OpeningHours string `json:"openingHours,omitempty" bson:"openingHours,omitempty"`
}

type BankInfo struct {
	BankName      string `json:"bankName" bson:"bankName"`
	AccountType   string `json:"accountType" bson:"accountType"`
	PixKey        string `json:"pixKey" bson:"pixKey"`
	Agency        string `json:"agency" bson:"agency"`
	AccountNumber string `json:"accountNumber" bson:"accountNumber"`
	HolderName    string `json:"holderName" bson:"holderName"`
}

type Course struct {
	ID              string  `json:"id" bson:"id"`
	Name            string  `json:"name" bson:"name"`
	TotalValue      float64 `json:"totalValue" bson:"totalValue"`
	Installments    int     `json:"installments" bson:"installments"`
	Duration        string  `json:"duration" bson:"duration"`
	Modality        string  `json:"modality" bson:"modality"`
	Category        string  `json:"category" bson:"category"`
	Description     string  `json:"description,omitempty" bson:"description,omitempty"`
	IsActive        bool    `json:"isActive" bson:"isActive"`
	RegistrationFee float64 `json:"registrationFee,omitempty" bson:"registrationFee,omitempty"`
	MaterialFee     float64 `json:"materialFee,omitempty" bson:"materialFee,omitempty"`
	DefaultBonus    float64 `json:"defaultBonus,omitempty" bson:"defaultBonus,omitempty"`
	HoursPerWeek    float64 `json:"hoursPerWeek,omitempty" bson:"hoursPerWeek,omitempty"`
}

type EducationPackage struct {
	ID                string   `json:"id" bson:"id"`
	Name              string   `json:"name" bson:"name"`
	IncludedCourseIDs []string `json:"includedCourseIds" bson:"includedCourseIds"`
	TotalValue        float64  `json:"totalValue" bson:"totalValue"`
	PromotionalValue  float64  `json:"promotionalValue,omitempty" bson:"promotionalValue,omitempty"`
	Installments      int      `json:"installments" bson:"installments"`
	Validity          string   `json:"validity,omitempty" bson:"validity,omitempty"`
	RegistrationFee   float64  `json:"registrationFee,omitempty" bson:"registrationFee,omitempty"`
	MaterialFee       float64  `json:"materialFee,omitempty" bson:"materialFee,omitempty"`
	ContractTemplate  string   `json:"contractTemplate,omitempty" bson:"contractTemplate,omitempty"`
}

type Expense struct {
	ID            string          `json:"id" bson:"id"`
	Description   string          `json:"description" bson:"description"`
	Category      ExpenseCategory `json:"category" bson:"category"`
	Amount        float64         `json:"amount" bson:"amount"`
	Date          calendar.Date   `json:"date" bson:"date"`
	Beneficiary   string          `json:"beneficiary" bson:"beneficiary"`
	PaymentMethod string          `json:"paymentMethod" bson:"paymentMethod"`
	Notes         string          `json:"notes,omitempty" bson:"notes,omitempty"`
	ProofURL      string          `json:"proofUrl,omitempty" bson:"proofUrl,omitempty"`
}

// School is the tenant and the unit of persistence: the whole record is
// loaded, changed and saved back as one snapshot.
type School struct {
	ID          string             `json:"id" bson:"_id"`
	Name        string             `json:"name" bson:"name"`
	Users       []User             `json:"users" bson:"users"`
	Students    []Student          `json:"students" bson:"students"`
	Expenses    []Expense          `json:"expenses" bson:"expenses"`
	Settings    *FinancialConfig   `json:"settings,omitempty" bson:"settings,omitempty"`
	CompanyInfo *CompanyInfo       `json:"companyInfo,omitempty" bson:"companyInfo,omitempty"`
	BankInfo    *BankInfo          `json:"bankInfo,omitempty" bson:"bankInfo,omitempty"`
	Courses     []Course           `json:"courses,omitempty" bson:"courses,omitempty"`
	Packages    []EducationPackage `json:"packages,omitempty" bson:"packages,omitempty"`
}

// FinancialSettings returns the stored rules of the school, or def when the
// snapshot carries none. An all-zero config is a real setting: no fine, no
// interest and no grace.
func (s School) FinancialSettings(def FinancialConfig) FinancialConfig {
	if s.Settings == nil {
		return def
	}
	return *s.Settings
}

// StudentIndex returns the position of the student with id, or -1.
func (s School) StudentIndex(id string) int {
	for i := range s.Students {
		if s.Students[i].ID == id {
			return i
		}
	}
	return -1
}

// ReplaceStudent returns a copy of s with the student of the same id swapped
// for st. The students slice is copied, never written in place.
func (s School) ReplaceStudent(st Student) School {
	out := s
	out.Students = make([]Student, len(s.Students))
	for i, cur := range s.Students {
		if cur.ID == st.ID {
			out.Students[i] = st
			continue
		}
		out.Students[i] = cur
	}
	return out
}
