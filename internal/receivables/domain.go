package receivables

import (
	"errors"
	"time"
)

// ReceivableStatus enumerates receivable statuses.
type ReceivableStatus string

const (
	StatusOpen    ReceivableStatus = "OPEN"
	StatusPartial ReceivableStatus = "PARTIAL"
	StatusSettled ReceivableStatus = "SETTLED"
)

// PaymentMethod enumerates accepted settlement methods.
type PaymentMethod string

const (
	MethodCash     PaymentMethod = "CASH"
	MethodCheck    PaymentMethod = "CHECK"
	MethodCard     PaymentMethod = "CARD"
	MethodDiscount PaymentMethod = "DISCOUNT"
	MethodDeposit  PaymentMethod = "DEPOSIT"
	MethodTransfer PaymentMethod = "TRANSFER"
)

// KnownMethod reports whether m is one of the enumerated methods.
func KnownMethod(m PaymentMethod) bool {
	switch m {
	case MethodCash, MethodCheck, MethodCard, MethodDiscount, MethodDeposit, MethodTransfer:
		return true
	}
	return false
}

// Receivable model. OutstandingAmount only decreases on payment application
// and increases on reversal; it never goes negative.
type Receivable struct {
	ID                int64
	Description       string
	PayerName         string
	PayerType         string
	IssueDate         time.Time
	DueDate           time.Time
	OriginalAmount    float64
	OutstandingAmount float64
	ReceivedAmount    float64
	Status            ReceivableStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Installment model. Installments are created as a batch and replaced as a
// batch; they are never deleted individually.
type Installment struct {
	ID           int64
	ReceivableID int64
	Number       int
	DueDate      time.Time
	Amount       float64
	Status       ReceivableStatus
}

// Payment model. Once Reversed is set the payment is permanently excluded
// from active-balance computation and from reversal candidate sets.
type Payment struct {
	ID           int64
	ReceivableID int64
	Number       string
	Date         time.Time
	Method       PaymentMethod
	Amount       float64

	Bank         string
	Agency       string
	Account      string
	CheckNumber  string
	ClearingDate time.Time
	PayerTaxID   string

	Acquirer      string
	Brand         string
	OperationType string

	DiscountReason string

	TransactionDate time.Time

	Note           string
	Reversed       bool
	ReversedAt     *time.Time
	ReversalReason string
	CreatedAt      time.Time
}

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("receivables: not found")
	// ErrInvalidPlan indicates a non-positive total or installment count below one.
	ErrInvalidPlan = errors.New("receivables: total must be positive and count at least one")
	// ErrInstallmentIndex indicates an installment number outside the plan.
	ErrInstallmentIndex = errors.New("receivables: installment number out of range")
	// ErrNegativeInstallment indicates a rebalance that would drive an installment below zero.
	ErrNegativeInstallment = errors.New("receivables: rebalance would make an installment negative")
	// ErrNoPaymentsSelected indicates a reversal without any payment selected.
	ErrNoPaymentsSelected = errors.New("receivables: at least one payment must be selected")
	// ErrJustificationTooShort indicates a reversal justification below the minimum length.
	ErrJustificationTooShort = errors.New("receivables: justification must have at least 10 characters")
	// ErrPaymentAlreadyReversed indicates a reversal targeting an already reversed payment.
	ErrPaymentAlreadyReversed = errors.New("receivables: payment already reversed")
)
