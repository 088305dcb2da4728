package receivables

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validCashAttempt() PaymentAttempt {
	return PaymentAttempt{
		Date:   date(2026, 3, 10),
		Method: MethodCash,
		Amount: 100,
	}
}

func TestValidatePaymentCashAccepted(t *testing.T) {
	errs := ValidatePayment(validCashAttempt(), 250)
	require.False(t, errs.Any())
	require.NoError(t, errs.Err())
}

func TestValidatePaymentRequiredBasics(t *testing.T) {
	errs := ValidatePayment(PaymentAttempt{}, 250)
	require.Contains(t, errs, "date")
	require.Contains(t, errs, "method")
	require.Contains(t, errs, "amount")
}

func TestValidatePaymentUnknownMethod(t *testing.T) {
	att := validCashAttempt()
	att.Method = "PIX"
	errs := ValidatePayment(att, 250)
	require.Equal(t, "unknown payment method", errs["method"])
}

func TestValidatePaymentOverpaymentRejected(t *testing.T) {
	att := validCashAttempt()
	att.Amount = 300
	errs := ValidatePayment(att, 250)
	require.Contains(t, errs, "amount")
}

func TestValidatePaymentDiscountMayExceedOutstanding(t *testing.T) {
	att := PaymentAttempt{
		Date:           date(2026, 3, 10),
		Method:         MethodDiscount,
		Amount:         300,
		DiscountReason: "courtesy adjustment",
	}
	errs := ValidatePayment(att, 250)
	require.False(t, errs.Any())
}

func TestValidatePaymentCheckRequiredFields(t *testing.T) {
	att := PaymentAttempt{
		Date:   date(2026, 3, 10),
		Method: MethodCheck,
		Amount: 100,
	}
	errs := ValidatePayment(att, 250)
	for _, field := range []string{"bank", "agency", "account", "check_number", "clearing_date", "payer_tax_id"} {
		require.Contains(t, errs, field)
	}

	att.Bank = "001"
	att.Agency = "1234"
	att.Account = "56789-0"
	att.CheckNumber = "000451"
	att.ClearingDate = date(2026, 3, 20)
	att.PayerTaxID = "123.456.789-00"
	require.False(t, ValidatePayment(att, 250).Any())
}

func TestValidatePaymentCardRequiredFields(t *testing.T) {
	att := PaymentAttempt{
		Date:   date(2026, 3, 10),
		Method: MethodCard,
		Amount: 100,
	}
	errs := ValidatePayment(att, 250)
	require.Contains(t, errs, "acquirer")
	require.Contains(t, errs, "brand")
	require.Contains(t, errs, "operation_type")
}

func TestValidatePaymentDiscountRequiresReason(t *testing.T) {
	att := PaymentAttempt{
		Date:   date(2026, 3, 10),
		Method: MethodDiscount,
		Amount: 50,
	}
	errs := ValidatePayment(att, 250)
	require.Contains(t, errs, "discount_reason")
}

func TestValidatePaymentTransferRequiredFields(t *testing.T) {
	for _, method := range []PaymentMethod{MethodDeposit, MethodTransfer} {
		att := PaymentAttempt{
			Date:   date(2026, 3, 10),
			Method: method,
			Amount: 100,
		}
		errs := ValidatePayment(att, 250)
		require.Contains(t, errs, "bank")
		require.Contains(t, errs, "agency")
		require.Contains(t, errs, "account")
		require.Contains(t, errs, "transaction_date")
	}
}

func TestValidatePaymentCollectsAllViolations(t *testing.T) {
	att := PaymentAttempt{
		Method: MethodCheck,
		Amount: -5,
	}
	errs := ValidatePayment(att, 250)
	// Nothing short-circuits: basics and method fields report together.
	require.Contains(t, errs, "date")
	require.Contains(t, errs, "amount")
	require.Contains(t, errs, "bank")
	require.Contains(t, errs, "check_number")
}
