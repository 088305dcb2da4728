package invoicing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vitalis-health/vitalis/internal/shared"
)

// RepositoryPort defines persistence behavior required by the service.
type RepositoryPort interface {
	Create(ctx context.Context, inv *Invoice, opened TimelineEvent) (*Invoice, error)
	Get(ctx context.Context, id int64) (*Invoice, error)
	List(ctx context.Context, req ListRequest) ([]Invoice, error)
	AddLineItem(ctx context.Context, item LineItem, newTotal float64) (*LineItem, error)
	ListLineItems(ctx context.Context, invoiceID int64) ([]LineItem, error)
	Transition(ctx context.Context, id int64, status InvoiceStatus, filePath string, event TimelineEvent) error
	ListTimeline(ctx context.Context, invoiceID int64) ([]TimelineEvent, error)
}

// FileEnqueuer hands remittance-file generation to the background worker.
type FileEnqueuer interface {
	EnqueueInvoiceFile(ctx context.Context, invoiceID int64) error
}

// ListRequest filters the invoice listing.
type ListRequest struct {
	Status          InvoiceStatus
	InsurerName     string
	CompetenceMonth string
	Limit           int
	Offset          int
}

// CreateInvoiceInput carries the fields accepted on creation.
type CreateInvoiceInput struct {
	InsurerName     string
	CompetenceMonth string
}

// AddLineItemInput attaches one receivable to an open invoice.
type AddLineItemInput struct {
	ReceivableID int64
	Description  string
	Amount       float64
}

// Service coordinates the invoice lifecycle.
type Service struct {
	repo     RepositoryPort
	enqueuer FileEnqueuer
	now      func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithEnqueuer attaches the background file-generation queue.
func (s *Service) WithEnqueuer(e FileEnqueuer) *Service {
	s.enqueuer = e
	return s
}

// WithNow overrides the clock for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create opens a new invoice for an insurer and competence month.
func (s *Service) Create(ctx context.Context, input CreateInvoiceInput) (*Invoice, error) {
	if strings.TrimSpace(input.InsurerName) == "" {
		return nil, errors.New("invoicing: insurer name required")
	}
	if _, err := time.Parse("2006-01", input.CompetenceMonth); err != nil {
		return nil, errors.New("invoicing: competence month must be YYYY-MM")
	}

	now := s.now()
	inv := &Invoice{
		Number:          "FAT-" + strings.ToUpper(uuid.NewString()[:8]),
		InsurerName:     strings.TrimSpace(input.InsurerName),
		CompetenceMonth: input.CompetenceMonth,
		Status:          StatusOpen,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	opened := TimelineEvent{
		Actor:       shared.ActorFromContext(ctx),
		At:          now,
		Description: "invoice opened",
	}
	return s.repo.Create(ctx, inv, opened)
}

// Get loads a single invoice.
func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.Get(ctx, id)
}

// List returns invoices matching the filter.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Invoice, error) {
	if req.Limit <= 0 || req.Limit > 200 {
		req.Limit = 50
	}
	return s.repo.List(ctx, req)
}

// AddLineItem attaches a receivable while the invoice is still open.
func (s *Service) AddLineItem(ctx context.Context, invoiceID int64, input AddLineItemInput) (*LineItem, error) {
	if input.Amount <= 0 {
		return nil, errors.New("invoicing: line amount must be positive")
	}

	inv, err := s.repo.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status != StatusOpen {
		return nil, ErrInvoiceNotOpen
	}

	item := LineItem{
		InvoiceID:    invoiceID,
		ReceivableID: input.ReceivableID,
		Description:  input.Description,
		Amount:       shared.Round2(input.Amount),
	}
	return s.repo.AddLineItem(ctx, item, shared.Round2(inv.TotalAmount+item.Amount))
}

// ListLineItems returns the attached receivable lines.
func (s *Service) ListLineItems(ctx context.Context, invoiceID int64) ([]LineItem, error) {
	return s.repo.ListLineItems(ctx, invoiceID)
}

// Close seals the invoice against further line items.
func (s *Service) Close(ctx context.Context, id int64) (*Invoice, error) {
	return s.advance(ctx, id, StatusClosed, "", "invoice closed")
}

// RequestFileGeneration enqueues the remittance file job for a closed
// invoice. The status only moves to FILE_GENERATED when the worker
// finishes.
func (s *Service) RequestFileGeneration(ctx context.Context, id int64) error {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := CanTransition(inv.Status, StatusFileGenerated); err != nil {
		return err
	}
	if s.enqueuer == nil {
		return errors.New("invoicing: file generation queue not configured")
	}
	return s.enqueuer.EnqueueInvoiceFile(ctx, id)
}

// CompleteFileGeneration records the worker-produced artifact.
func (s *Service) CompleteFileGeneration(ctx context.Context, id int64, filePath string) (*Invoice, error) {
	return s.advance(ctx, id, StatusFileGenerated, filePath,
		fmt.Sprintf("remittance file generated at %s", filePath))
}

// Send marks the generated file as delivered to the insurer.
func (s *Service) Send(ctx context.Context, id int64) (*Invoice, error) {
	return s.advance(ctx, id, StatusSent, "", "invoice sent to insurer")
}

// Timeline returns the full lifecycle history, oldest first.
func (s *Service) Timeline(ctx context.Context, invoiceID int64) ([]TimelineEvent, error) {
	if _, err := s.repo.Get(ctx, invoiceID); err != nil {
		return nil, err
	}
	return s.repo.ListTimeline(ctx, invoiceID)
}

func (s *Service) advance(ctx context.Context, id int64, target InvoiceStatus, filePath, description string) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CanTransition(inv.Status, target); err != nil {
		return nil, err
	}

	now := s.now()
	event := TimelineEvent{
		InvoiceID:   id,
		Actor:       shared.ActorFromContext(ctx),
		At:          now,
		Description: description,
	}
	if err := s.repo.Transition(ctx, id, target, filePath, event); err != nil {
		return nil, err
	}

	inv.Status = target
	if filePath != "" {
		inv.FilePath = filePath
	}
	inv.UpdatedAt = now
	return inv, nil
}
