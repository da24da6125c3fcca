package models

import "github.com/robinhoalvessb-ui/performance-gest-o/internal/calendar"

// Installment is one billing obligation of a student.
//
// OriginalAmount is the reference for penalty and discount math and is never
// touched by payment logic. Amount is what is owed, or what was paid once
// Status is PaymentPaid. Only PaymentPaid is authoritative in Status; for
// unpaid installments the effective status is derived from the due date.
type Installment struct {
	ID              string         `json:"id" bson:"id"`
	DocumentNumber  string         `json:"documentNumber,omitempty" bson:"documentNumber,omitempty"`
	History         string         `json:"history,omitempty" bson:"history,omitempty"`
	DueDate         calendar.Date  `json:"dueDate" bson:"dueDate"`
	Amount          float64        `json:"amount" bson:"amount"`
	OriginalAmount  float64        `json:"originalAmount" bson:"originalAmount"`
	Bonus           float64        `json:"bonus,omitempty" bson:"bonus,omitempty"`
	PenaltyAmount   float64        `json:"penaltyAmount,omitempty" bson:"penaltyAmount,omitempty"`
	InterestAmount  float64        `json:"interestAmount,omitempty" bson:"interestAmount,omitempty"`
	DiscountApplied *float64       `json:"discountApplied,omitempty" bson:"discountApplied,omitempty"`
	Status          PaymentStatus  `json:"status" bson:"status"`
	PaidDate        *calendar.Date `json:"paidDate,omitempty" bson:"paidDate,omitempty"`
	DaysLate        int            `json:"daysLate,omitempty" bson:"daysLate,omitempty"`
	Observation     string         `json:"observation,omitempty" bson:"observation,omitempty"`
	PaymentMethod   PaymentMethod  `json:"paymentMethod,omitempty" bson:"paymentMethod,omitempty"`
}

func (i Installment) IsPaid() bool { return i.Status == PaymentPaid }

// FlatInstallment is an installment joined with its owner, used by listings
// that span all students of a school.
type FlatInstallment struct {
	Installment
	StudentID    string `json:"studentId"`
	StudentName  string `json:"studentName"`
	StudentClass string `json:"studentClass"`
}
