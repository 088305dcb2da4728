package receivables

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vitalis-health/vitalis/internal/shared"
)

// RepositoryPort defines data access methods for receivables.
type RepositoryPort interface {
	CreateReceivable(ctx context.Context, input CreateReceivableInput, plan []Installment) (*Receivable, error)
	GetReceivable(ctx context.Context, id int64) (*Receivable, error)
	ListReceivables(ctx context.Context, req ListReceivablesRequest) ([]Receivable, error)
	ListInstallments(ctx context.Context, receivableID int64) ([]Installment, error)
	ReplaceInstallments(ctx context.Context, receivableID int64, plan []Installment) error
	UpdateInstallmentDueDate(ctx context.Context, receivableID int64, number int, due time.Time) error
	ListPayments(ctx context.Context, receivableID int64) ([]Payment, error)
	ApplyPayment(ctx context.Context, receivableID int64, p Payment, outstanding, received float64, status ReceivableStatus) (*Payment, error)
	ReversePayments(ctx context.Context, receivableID int64, paymentIDs []int64, reason string, at time.Time, result ReversalResult) error
}

// CacheBumper invalidates derived report caches after balance changes.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// CreateReceivableInput for creating receivables with a generated plan.
type CreateReceivableInput struct {
	Description      string
	PayerName        string
	PayerType        string
	IssueDate        time.Time
	DueDate          time.Time
	TotalAmount      float64
	InstallmentCount int
	FirstDueDate     time.Time
}

// ListReceivablesRequest filters receivable listings.
type ListReceivablesRequest struct {
	Status    ReceivableStatus
	PayerName string
	Limit     int
	Offset    int
}

// RegisterPaymentResult carries the stored payment and the refreshed balance.
// Next is populated in save-and-create-next mode, prefilled with the
// outstanding amount as it was before this payment was applied.
type RegisterPaymentResult struct {
	Payment     *Payment
	Outstanding float64
	Received    float64
	Status      ReceivableStatus
	Next        *PaymentAttempt
}

// Service handles receivable business logic.
type Service struct {
	repo   RepositoryPort
	audit  *shared.AuditLogger
	bumper CacheBumper
	now    func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithAudit attaches an audit logger for reversal trails.
func (s *Service) WithAudit(audit *shared.AuditLogger) *Service {
	s.audit = audit
	return s
}

// WithCacheBumper attaches a report-cache invalidation hook.
func (s *Service) WithCacheBumper(b CacheBumper) *Service {
	s.bumper = b
	return s
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// CreateReceivable stores a receivable together with its installment plan.
func (s *Service) CreateReceivable(ctx context.Context, input CreateReceivableInput) (*Receivable, error) {
	if strings.TrimSpace(input.Description) == "" {
		return nil, errors.New("receivables: description required")
	}
	if strings.TrimSpace(input.PayerName) == "" {
		return nil, errors.New("receivables: payer name required")
	}
	start := input.FirstDueDate
	if start.IsZero() {
		start = input.DueDate
	}
	count := input.InstallmentCount
	if count < 1 {
		count = 1
	}
	plan, err := PlanInstallments(input.TotalAmount, count, start)
	if err != nil {
		return nil, err
	}
	return s.repo.CreateReceivable(ctx, input, plan)
}

// GetReceivable returns one receivable by id.
func (s *Service) GetReceivable(ctx context.Context, id int64) (*Receivable, error) {
	return s.repo.GetReceivable(ctx, id)
}

// ListReceivables returns receivables matching the filter.
func (s *Service) ListReceivables(ctx context.Context, req ListReceivablesRequest) ([]Receivable, error) {
	return s.repo.ListReceivables(ctx, req)
}

// ListInstallments returns the current installment plan.
func (s *Service) ListInstallments(ctx context.Context, receivableID int64) ([]Installment, error) {
	return s.repo.ListInstallments(ctx, receivableID)
}

// ListPayments returns the payments applied to a receivable.
func (s *Service) ListPayments(ctx context.Context, receivableID int64) ([]Payment, error) {
	return s.repo.ListPayments(ctx, receivableID)
}

// RegenerateInstallments replaces the whole installment batch with a fresh
// plan over the receivable's original amount.
func (s *Service) RegenerateInstallments(ctx context.Context, receivableID int64, count int, start time.Time) ([]Installment, error) {
	rec, err := s.repo.GetReceivable(ctx, receivableID)
	if err != nil {
		return nil, err
	}
	plan, err := PlanInstallments(rec.OriginalAmount, count, start)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceInstallments(ctx, receivableID, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// UpdateInstallmentAmount rebalances the plan so the total stays invariant
// and persists the full batch.
func (s *Service) UpdateInstallmentAmount(ctx context.Context, receivableID int64, number int, amount float64) ([]Installment, error) {
	plan, err := s.repo.ListInstallments(ctx, receivableID)
	if err != nil {
		return nil, err
	}
	rebalanced, err := Rebalance(plan, number-1, amount)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceInstallments(ctx, receivableID, rebalanced); err != nil {
		return nil, err
	}
	return rebalanced, nil
}

// UpdateInstallmentDueDate moves a single installment's due date. Later
// installments are not shifted.
func (s *Service) UpdateInstallmentDueDate(ctx context.Context, receivableID int64, number int, due time.Time) error {
	plan, err := s.repo.ListInstallments(ctx, receivableID)
	if err != nil {
		return err
	}
	if number < 1 || number > len(plan) {
		return ErrInstallmentIndex
	}
	return s.repo.UpdateInstallmentDueDate(ctx, receivableID, number, due)
}

// RegisterPayment reconciles an attempt against the receivable and, when
// valid, applies it. createNext requests a prefilled template for the next
// payment in the same sitting.
func (s *Service) RegisterPayment(ctx context.Context, receivableID int64, att PaymentAttempt, createNext bool) (*RegisterPaymentResult, error) {
	rec, err := s.repo.GetReceivable(ctx, receivableID)
	if err != nil {
		return nil, err
	}

	if verr := ValidatePayment(att, rec.OutstandingAmount).Err(); verr != nil {
		return nil, verr
	}

	priorOutstanding := rec.OutstandingAmount
	outstanding := shared.Round2(priorOutstanding - att.Amount)
	if outstanding < 0 {
		// Only a DISCOUNT can exceed the outstanding balance; it settles the
		// receivable rather than driving the balance negative.
		outstanding = 0
	}
	received := shared.Round2(rec.ReceivedAmount + att.Amount)

	status := StatusPartial
	if outstanding <= shared.MoneyTolerance {
		outstanding = 0
		status = StatusSettled
	}

	payment := Payment{
		ReceivableID:    receivableID,
		Number:          "REC-" + strings.ToUpper(uuid.NewString()[:8]),
		Date:            att.Date,
		Method:          att.Method,
		Amount:          shared.Round2(att.Amount),
		Bank:            att.Bank,
		Agency:          att.Agency,
		Account:         att.Account,
		CheckNumber:     att.CheckNumber,
		ClearingDate:    att.ClearingDate,
		PayerTaxID:      att.PayerTaxID,
		Acquirer:        att.Acquirer,
		Brand:           att.Brand,
		OperationType:   att.OperationType,
		DiscountReason:  att.DiscountReason,
		TransactionDate: att.TransactionDate,
		Note:            att.Note,
		CreatedAt:       s.now(),
	}

	stored, err := s.repo.ApplyPayment(ctx, receivableID, payment, outstanding, received, status)
	if err != nil {
		return nil, err
	}

	s.bump(ctx)

	result := &RegisterPaymentResult{
		Payment:     stored,
		Outstanding: outstanding,
		Received:    received,
		Status:      status,
	}
	if createNext {
		result.Next = &PaymentAttempt{Amount: priorOutstanding}
	}
	return result, nil
}

// ReversePayments marks the selected payments reversed and restores their
// effect on the receivable's balance. There is no un-reverse.
func (s *Service) ReversePayments(ctx context.Context, receivableID int64, paymentIDs []int64, justification string) (*ReversalResult, error) {
	rec, err := s.repo.GetReceivable(ctx, receivableID)
	if err != nil {
		return nil, err
	}
	payments, err := s.repo.ListPayments(ctx, receivableID)
	if err != nil {
		return nil, err
	}

	selected := make([]Payment, 0, len(paymentIDs))
	for _, id := range paymentIDs {
		found := false
		for _, p := range payments {
			if p.ID == id {
				selected = append(selected, p)
				found = true
				break
			}
		}
		if !found {
			return nil, ErrNotFound
		}
	}

	result, err := ComputeReversal(rec.OriginalAmount, rec.OutstandingAmount, rec.ReceivedAmount, selected, justification)
	if err != nil {
		return nil, err
	}

	at := s.now()
	if err := s.repo.ReversePayments(ctx, receivableID, paymentIDs, justification, at, result); err != nil {
		return nil, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Actor:    shared.ActorFromContext(ctx),
			Action:   "payment.reverse",
			Entity:   "receivable",
			EntityID: itoa(receivableID),
			Meta: map[string]any{
				"payment_ids":   paymentIDs,
				"reversed":      result.ReversedTotal,
				"justification": justification,
			},
			At: at,
		})
	}

	s.bump(ctx)
	return &result, nil
}

func (s *Service) bump(ctx context.Context) {
	if s.bumper != nil {
		_ = s.bumper.Bump(ctx)
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
