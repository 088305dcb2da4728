package receivables

import (
	"strings"
	"unicode/utf8"

	"github.com/vitalis-health/vitalis/internal/shared"
)

// MinJustificationLen is the minimum reversal justification length.
const MinJustificationLen = 10

// ReversalResult describes the receivable balances after removing the effect
// of the selected payments.
type ReversalResult struct {
	ReversedTotal  float64
	NewOutstanding float64
	NewReceived    float64
	NewStatus      ReceivableStatus
}

// ComputeReversal recomputes the outstanding balance and status of a
// receivable after reversing the selected payments. Reversal is one-way:
// a payment already marked reversed is never a valid candidate again.
func ComputeReversal(original, outstanding, received float64, selected []Payment, justification string) (ReversalResult, error) {
	if len(selected) == 0 {
		return ReversalResult{}, ErrNoPaymentsSelected
	}
	if utf8.RuneCountInString(strings.TrimSpace(justification)) < MinJustificationLen {
		return ReversalResult{}, ErrJustificationTooShort
	}

	var total float64
	for _, p := range selected {
		if p.Reversed {
			return ReversalResult{}, ErrPaymentAlreadyReversed
		}
		total += p.Amount
	}
	total = shared.Round2(total)

	result := ReversalResult{
		ReversedTotal:  total,
		NewOutstanding: shared.Round2(outstanding + total),
		NewReceived:    shared.Round2(received - total),
	}
	if result.NewOutstanding >= original {
		result.NewStatus = StatusOpen
	} else {
		result.NewStatus = StatusPartial
	}
	return result, nil
}
