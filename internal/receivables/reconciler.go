package receivables

import (
	"time"

	"github.com/vitalis-health/vitalis/internal/shared"
)

// PaymentAttempt carries a proposed payment before reconciliation. Only the
// fields of the chosen method are required; the rest stay zero-valued.
type PaymentAttempt struct {
	Date   time.Time
	Method PaymentMethod
	Amount float64

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

	Note string
}

// ValidatePayment checks an attempt against the receivable's outstanding
// amount. All violated rules are collected into the returned map; nothing
// short-circuits. An overpayment is rejected for every method except DISCOUNT.
func ValidatePayment(att PaymentAttempt, outstanding float64) shared.FieldErrors {
	errs := shared.FieldErrors{}

	if att.Date.IsZero() {
		errs.Add("date", "date is required")
	}
	if att.Method == "" {
		errs.Add("method", "payment method is required")
	} else if !KnownMethod(att.Method) {
		errs.Add("method", "unknown payment method")
	}
	if att.Amount <= 0 {
		errs.Add("amount", "amount must be greater than zero")
	} else if att.Amount > outstanding && att.Method != MethodDiscount {
		errs.Add("amount", "amount exceeds the outstanding balance")
	}

	switch att.Method {
	case MethodCheck:
		if att.Bank == "" {
			errs.Add("bank", "bank is required")
		}
		if att.Agency == "" {
			errs.Add("agency", "agency is required")
		}
		if att.Account == "" {
			errs.Add("account", "account is required")
		}
		if att.CheckNumber == "" {
			errs.Add("check_number", "check number is required")
		}
		if att.ClearingDate.IsZero() {
			errs.Add("clearing_date", "clearing date is required")
		}
		if att.PayerTaxID == "" {
			errs.Add("payer_tax_id", "payer tax id is required")
		}
	case MethodCard:
		if att.Acquirer == "" {
			errs.Add("acquirer", "acquirer is required")
		}
		if att.Brand == "" {
			errs.Add("brand", "brand is required")
		}
		if att.OperationType == "" {
			errs.Add("operation_type", "operation type is required")
		}
	case MethodDiscount:
		if att.DiscountReason == "" {
			errs.Add("discount_reason", "discount reason is required")
		}
	case MethodDeposit, MethodTransfer:
		if att.Bank == "" {
			errs.Add("bank", "bank is required")
		}
		if att.Agency == "" {
			errs.Add("agency", "agency is required")
		}
		if att.Account == "" {
			errs.Add("account", "account is required")
		}
		if att.TransactionDate.IsZero() {
			errs.Add("transaction_date", "transaction date is required")
		}
	}

	return errs
}
