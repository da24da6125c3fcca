package billing

import "errors"

var (
	ErrAlreadyPaid         = errors.New("installment already paid")
	ErrInstallmentNotFound = errors.New("installment not found")
	ErrEmptySelection      = errors.New("no installments selected")
)
