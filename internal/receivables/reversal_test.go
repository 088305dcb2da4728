package receivables

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const justification = "duplicate charge by mistake"

func TestComputeReversalPartial(t *testing.T) {
	selected := []Payment{{ID: 1, Amount: 50}}

	result, err := ComputeReversal(350, 250, 100, selected, justification)
	require.NoError(t, err)
	require.Equal(t, 50.0, result.ReversedTotal)
	require.Equal(t, 300.0, result.NewOutstanding)
	require.Equal(t, 50.0, result.NewReceived)
	require.Equal(t, StatusPartial, result.NewStatus)
}

func TestComputeReversalBackToOpen(t *testing.T) {
	selected := []Payment{{ID: 1, Amount: 60}, {ID: 2, Amount: 40}}

	result, err := ComputeReversal(350, 250, 100, selected, justification)
	require.NoError(t, err)
	require.Equal(t, 100.0, result.ReversedTotal)
	require.Equal(t, 350.0, result.NewOutstanding)
	require.Equal(t, 0.0, result.NewReceived)
	require.Equal(t, StatusOpen, result.NewStatus)
}

func TestComputeReversalRequiresSelection(t *testing.T) {
	_, err := ComputeReversal(350, 250, 100, nil, justification)
	require.ErrorIs(t, err, ErrNoPaymentsSelected)
}

func TestComputeReversalJustificationMinLength(t *testing.T) {
	selected := []Payment{{ID: 1, Amount: 50}}

	_, err := ComputeReversal(350, 250, 100, selected, "too short")
	require.ErrorIs(t, err, ErrJustificationTooShort)

	_, err = ComputeReversal(350, 250, 100, selected, "   padded    ")
	require.ErrorIs(t, err, ErrJustificationTooShort)

	_, err = ComputeReversal(350, 250, 100, selected, "exactly10c")
	require.NoError(t, err)
}

func TestComputeReversalRejectsAlreadyReversed(t *testing.T) {
	selected := []Payment{{ID: 1, Amount: 50, Reversed: true}}

	_, err := ComputeReversal(350, 250, 100, selected, justification)
	require.ErrorIs(t, err, ErrPaymentAlreadyReversed)
}
