package receivables

import (
	"time"

	"github.com/vitalis-health/vitalis/internal/shared"
)

// PlanInstallments splits a total into count installments due one calendar
// month apart starting at start. Every installment carries round2(total/count),
// so the plan sum may drift from the total by up to (count-1) * 0.005; callers
// compare sums with shared.AmountsEqual.
func PlanInstallments(total float64, count int, start time.Time) ([]Installment, error) {
	if total <= 0 || count < 1 {
		return nil, ErrInvalidPlan
	}

	amount := shared.Round2(total / float64(count))
	plan := make([]Installment, count)
	for i := range plan {
		plan[i] = Installment{
			Number:  i + 1,
			DueDate: start.AddDate(0, i, 0),
			Amount:  amount,
			Status:  StatusOpen,
		}
	}
	return plan, nil
}

// Rebalance sets installment k (0-indexed) to newAmount and spreads the
// resulting delta across the later installments, each decremented by
// round2(delta/m). Editing the last installment, or a zero delta, changes
// only installment k. The total is preserved up to per-step rounding.
func Rebalance(plan []Installment, k int, newAmount float64) ([]Installment, error) {
	if k < 0 || k >= len(plan) {
		return nil, ErrInstallmentIndex
	}
	if newAmount < 0 {
		return nil, ErrNegativeInstallment
	}

	out := make([]Installment, len(plan))
	copy(out, plan)

	delta := shared.Round2(newAmount - out[k].Amount)
	out[k].Amount = shared.Round2(newAmount)

	m := len(out) - k - 1
	if delta == 0 || m == 0 {
		return out, nil
	}

	step := shared.Round2(delta / float64(m))
	for i := k + 1; i < len(out); i++ {
		next := shared.Round2(out[i].Amount - step)
		if next < 0 {
			return nil, ErrNegativeInstallment
		}
		out[i].Amount = next
	}
	return out, nil
}

// PlanTotal sums the installment amounts of a plan.
func PlanTotal(plan []Installment) float64 {
	var total float64
	for _, ins := range plan {
		total += ins.Amount
	}
	return shared.Round2(total)
}
