package models

// The string values below are what exported backups carry; do not translate.

type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "Pago"
	PaymentPending PaymentStatus = "Pendente"
	PaymentOverdue PaymentStatus = "Vencido"
)

type StudentStatus string

const (
	StudentActive    StudentStatus = "Ativo"
	StudentLate      StudentStatus = "Em Atraso"
	StudentDropout   StudentStatus = "Desistente"
	StudentBreach    StudentStatus = "Quebra de Contrato"
	StudentCompleted StudentStatus = "Quitado"
)

type PaymentMethod string

const (
	MethodPix        PaymentMethod = "Pix"
	MethodCreditCard PaymentMethod = "Cartão de Crédito"
	MethodCash       PaymentMethod = "Dinheiro"
)

type Role string

const (
	RoleSuperAdmin  Role = "SUPER_ADMIN"
	RoleAdmin       Role = "ADMIN"
	RoleCoordinator Role = "COORDINATOR"
	RoleMasterAdmin Role = "MASTER_ADMIN"
	RoleSchoolAdmin Role = "SCHOOL_ADMIN"

	// spelling used by the system role enum of older snapshots
	RoleCoordenator Role = "COORDENATOR"
)

type ExpenseCategory string

const (
	ExpenseTeachers       ExpenseCategory = "Professores"
	ExpenseInfrastructure ExpenseCategory = "Infraestrutura"
	ExpenseMarketing      ExpenseCategory = "Marketing"
	ExpenseOther          ExpenseCategory = "Outros"
)
