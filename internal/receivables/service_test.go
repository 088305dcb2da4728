package receivables

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vitalis-health/vitalis/internal/shared"
)

type memoryRepo struct {
	receivables  map[int64]*Receivable
	installments map[int64][]Installment
	payments     map[int64][]Payment
	nextRecID    int64
	nextPayID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		receivables:  make(map[int64]*Receivable),
		installments: make(map[int64][]Installment),
		payments:     make(map[int64][]Payment),
	}
}

func (r *memoryRepo) CreateReceivable(ctx context.Context, input CreateReceivableInput, plan []Installment) (*Receivable, error) {
	r.nextRecID++
	rec := &Receivable{
		ID:                r.nextRecID,
		Description:       input.Description,
		PayerName:         input.PayerName,
		PayerType:         input.PayerType,
		IssueDate:         input.IssueDate,
		DueDate:           input.DueDate,
		OriginalAmount:    input.TotalAmount,
		OutstandingAmount: input.TotalAmount,
		Status:            StatusOpen,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
	r.receivables[rec.ID] = rec
	batch := make([]Installment, len(plan))
	copy(batch, plan)
	for i := range batch {
		batch[i].ReceivableID = rec.ID
	}
	r.installments[rec.ID] = batch
	return rec, nil
}

func (r *memoryRepo) GetReceivable(ctx context.Context, id int64) (*Receivable, error) {
	rec, ok := r.receivables[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func (r *memoryRepo) ListReceivables(ctx context.Context, req ListReceivablesRequest) ([]Receivable, error) {
	var out []Receivable
	for _, rec := range r.receivables {
		if req.Status != "" && rec.Status != req.Status {
			continue
		}
		out = append(out, *rec)
	}
	return out, nil
}

func (r *memoryRepo) ListInstallments(ctx context.Context, receivableID int64) ([]Installment, error) {
	return r.installments[receivableID], nil
}

func (r *memoryRepo) ReplaceInstallments(ctx context.Context, receivableID int64, plan []Installment) error {
	batch := make([]Installment, len(plan))
	copy(batch, plan)
	r.installments[receivableID] = batch
	return nil
}

func (r *memoryRepo) UpdateInstallmentDueDate(ctx context.Context, receivableID int64, number int, due time.Time) error {
	plan := r.installments[receivableID]
	for i := range plan {
		if plan[i].Number == number {
			plan[i].DueDate = due
			return nil
		}
	}
	return ErrNotFound
}

func (r *memoryRepo) ListPayments(ctx context.Context, receivableID int64) ([]Payment, error) {
	return r.payments[receivableID], nil
}

func (r *memoryRepo) ApplyPayment(ctx context.Context, receivableID int64, p Payment, outstanding, received float64, status ReceivableStatus) (*Payment, error) {
	rec, ok := r.receivables[receivableID]
	if !ok {
		return nil, ErrNotFound
	}
	r.nextPayID++
	p.ID = r.nextPayID
	p.ReceivableID = receivableID
	r.payments[receivableID] = append(r.payments[receivableID], p)
	rec.OutstandingAmount = outstanding
	rec.ReceivedAmount = received
	rec.Status = status
	return &p, nil
}

func (r *memoryRepo) ReversePayments(ctx context.Context, receivableID int64, paymentIDs []int64, reason string, at time.Time, result ReversalResult) error {
	rec, ok := r.receivables[receivableID]
	if !ok {
		return ErrNotFound
	}
	payments := r.payments[receivableID]
	for _, id := range paymentIDs {
		for i := range payments {
			if payments[i].ID == id {
				payments[i].Reversed = true
				payments[i].ReversedAt = &at
				payments[i].ReversalReason = reason
			}
		}
	}
	rec.OutstandingAmount = result.NewOutstanding
	rec.ReceivedAmount = result.NewReceived
	rec.Status = result.NewStatus
	return nil
}

func newTestService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	return NewService(repo), repo
}

func createTestReceivable(t *testing.T, svc *Service, total float64, count int) *Receivable {
	t.Helper()
	rec, err := svc.CreateReceivable(context.Background(), CreateReceivableInput{
		Description:      "Lab panel",
		PayerName:        "Ana Souza",
		PayerType:        "patient",
		IssueDate:        date(2026, 1, 10),
		DueDate:          date(2026, 2, 10),
		TotalAmount:      total,
		InstallmentCount: count,
		FirstDueDate:     date(2026, 2, 10),
	})
	require.NoError(t, err)
	return rec
}

func TestCreateReceivableGeneratesPlan(t *testing.T) {
	svc, repo := newTestService()
	rec := createTestReceivable(t, svc, 300, 3)

	require.Equal(t, StatusOpen, rec.Status)
	require.Equal(t, 300.0, rec.OutstandingAmount)

	plan := repo.installments[rec.ID]
	require.Len(t, plan, 3)
	require.Equal(t, 100.0, plan[0].Amount)
	require.Equal(t, date(2026, 2, 10), plan[0].DueDate)
	require.Equal(t, date(2026, 4, 10), plan[2].DueDate)
}

func TestCreateReceivableRequiresDescription(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.CreateReceivable(context.Background(), CreateReceivableInput{
		PayerName:   "Ana Souza",
		TotalAmount: 100,
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "description required")
}

func TestUpdateInstallmentAmountKeepsTotal(t *testing.T) {
	svc, repo := newTestService()
	rec := createTestReceivable(t, svc, 300, 3)

	plan, err := svc.UpdateInstallmentAmount(context.Background(), rec.ID, 1, 150)
	require.NoError(t, err)
	require.Equal(t, 150.0, plan[0].Amount)
	require.Equal(t, 75.0, plan[1].Amount)
	require.Equal(t, 75.0, plan[2].Amount)
	require.True(t, shared.AmountsEqual(300, PlanTotal(repo.installments[rec.ID])))
}

func TestUpdateInstallmentDueDateOutOfRange(t *testing.T) {
	svc, _ := newTestService()
	rec := createTestReceivable(t, svc, 300, 3)

	err := svc.UpdateInstallmentDueDate(context.Background(), rec.ID, 4, date(2026, 6, 1))
	require.ErrorIs(t, err, ErrInstallmentIndex)
}

func TestRegenerateInstallmentsReplacesBatch(t *testing.T) {
	svc, repo := newTestService()
	rec := createTestReceivable(t, svc, 300, 3)

	plan, err := svc.RegenerateInstallments(context.Background(), rec.ID, 2, date(2026, 5, 1))
	require.NoError(t, err)
	require.Len(t, plan, 2)
	require.Equal(t, 150.0, plan[0].Amount)
	require.Len(t, repo.installments[rec.ID], 2)
}

func TestRegisterPaymentReducesOutstanding(t *testing.T) {
	svc, repo := newTestService()
	rec := createTestReceivable(t, svc, 250, 1)

	result, err := svc.RegisterPayment(context.Background(), rec.ID, PaymentAttempt{
		Date:   date(2026, 2, 12),
		Method: MethodCash,
		Amount: 100,
	}, false)
	require.NoError(t, err)
	require.Equal(t, 150.0, result.Outstanding)
	require.Equal(t, 100.0, result.Received)
	require.Equal(t, StatusPartial, result.Status)
	require.NotEmpty(t, result.Payment.Number)
	require.Nil(t, result.Next)

	stored := repo.receivables[rec.ID]
	require.Equal(t, 150.0, stored.OutstandingAmount)
}

func TestRegisterPaymentSettles(t *testing.T) {
	svc, _ := newTestService()
	rec := createTestReceivable(t, svc, 250, 1)

	result, err := svc.RegisterPayment(context.Background(), rec.ID, PaymentAttempt{
		Date:   date(2026, 2, 12),
		Method: MethodCash,
		Amount: 250,
	}, false)
	require.NoError(t, err)
	require.Equal(t, 0.0, result.Outstanding)
	require.Equal(t, StatusSettled, result.Status)
}

func TestRegisterPaymentOverpaymentRejected(t *testing.T) {
	svc, _ := newTestService()
	rec := createTestReceivable(t, svc, 250, 1)

	_, err := svc.RegisterPayment(context.Background(), rec.ID, PaymentAttempt{
		Date:   date(2026, 2, 12),
		Method: MethodCash,
		Amount: 300,
	}, false)
	require.Error(t, err)

	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "amount")
}

func TestRegisterPaymentDiscountOverpaymentSettles(t *testing.T) {
	svc, _ := newTestService()
	rec := createTestReceivable(t, svc, 250, 1)

	result, err := svc.RegisterPayment(context.Background(), rec.ID, PaymentAttempt{
		Date:           date(2026, 2, 12),
		Method:         MethodDiscount,
		Amount:         300,
		DiscountReason: "negotiated write-down",
	}, false)
	require.NoError(t, err)
	// Outstanding never goes negative.
	require.Equal(t, 0.0, result.Outstanding)
	require.Equal(t, StatusSettled, result.Status)
}

func TestRegisterPaymentCreateNextPrefillsPriorOutstanding(t *testing.T) {
	svc, _ := newTestService()
	rec := createTestReceivable(t, svc, 250, 1)

	result, err := svc.RegisterPayment(context.Background(), rec.ID, PaymentAttempt{
		Date:   date(2026, 2, 12),
		Method: MethodCash,
		Amount: 100,
	}, true)
	require.NoError(t, err)
	require.NotNil(t, result.Next)
	// The next-payment template carries the outstanding amount as it was
	// before this payment was applied.
	require.Equal(t, 250.0, result.Next.Amount)
}

func TestReversePaymentsRestoresBalance(t *testing.T) {
	svc, repo := newTestService()
	rec := createTestReceivable(t, svc, 350, 1)

	first, err := svc.RegisterPayment(context.Background(), rec.ID, PaymentAttempt{
		Date: date(2026, 2, 12), Method: MethodCash, Amount: 50,
	}, false)
	require.NoError(t, err)
	_, err = svc.RegisterPayment(context.Background(), rec.ID, PaymentAttempt{
		Date: date(2026, 2, 13), Method: MethodCash, Amount: 50,
	}, false)
	require.NoError(t, err)

	result, err := svc.ReversePayments(context.Background(), rec.ID, []int64{first.Payment.ID}, "wrong payer selected")
	require.NoError(t, err)
	require.Equal(t, 50.0, result.ReversedTotal)
	require.Equal(t, 300.0, result.NewOutstanding)
	require.Equal(t, 50.0, result.NewReceived)
	require.Equal(t, StatusPartial, result.NewStatus)

	stored := repo.receivables[rec.ID]
	require.Equal(t, 300.0, stored.OutstandingAmount)
}

func TestReversePaymentsAllBackToOpen(t *testing.T) {
	svc, _ := newTestService()
	rec := createTestReceivable(t, svc, 350, 1)

	pay, err := svc.RegisterPayment(context.Background(), rec.ID, PaymentAttempt{
		Date: date(2026, 2, 12), Method: MethodCash, Amount: 100,
	}, false)
	require.NoError(t, err)

	result, err := svc.ReversePayments(context.Background(), rec.ID, []int64{pay.Payment.ID}, "charged in duplicate")
	require.NoError(t, err)
	require.Equal(t, 350.0, result.NewOutstanding)
	require.Equal(t, StatusOpen, result.NewStatus)
}

func TestReversePaymentsIsOneWay(t *testing.T) {
	svc, _ := newTestService()
	rec := createTestReceivable(t, svc, 350, 1)

	pay, err := svc.RegisterPayment(context.Background(), rec.ID, PaymentAttempt{
		Date: date(2026, 2, 12), Method: MethodCash, Amount: 100,
	}, false)
	require.NoError(t, err)

	_, err = svc.ReversePayments(context.Background(), rec.ID, []int64{pay.Payment.ID}, "charged in duplicate")
	require.NoError(t, err)

	_, err = svc.ReversePayments(context.Background(), rec.ID, []int64{pay.Payment.ID}, "charged in duplicate")
	require.ErrorIs(t, err, ErrPaymentAlreadyReversed)
}

func TestReversePaymentsGuards(t *testing.T) {
	svc, _ := newTestService()
	rec := createTestReceivable(t, svc, 350, 1)

	_, err := svc.ReversePayments(context.Background(), rec.ID, nil, "charged in duplicate")
	require.ErrorIs(t, err, ErrNoPaymentsSelected)

	pay, err := svc.RegisterPayment(context.Background(), rec.ID, PaymentAttempt{
		Date: date(2026, 2, 12), Method: MethodCash, Amount: 100,
	}, false)
	require.NoError(t, err)

	_, err = svc.ReversePayments(context.Background(), rec.ID, []int64{pay.Payment.ID}, "short")
	require.ErrorIs(t, err, ErrJustificationTooShort)

	_, err = svc.ReversePayments(context.Background(), rec.ID, []int64{9999}, "charged in duplicate")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRegisterPaymentUnknownReceivable(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.RegisterPayment(context.Background(), 42, PaymentAttempt{
		Date: date(2026, 2, 12), Method: MethodCash, Amount: 100,
	}, false)
	require.True(t, errors.Is(err, ErrNotFound))
}
