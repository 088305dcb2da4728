package checks

import (
	"context"
	"errors"
	"strings"
	"time"
)

// RepositoryPort defines persistence behavior required by the service.
type RepositoryPort interface {
	Create(ctx context.Context, c *Check) (*Check, error)
	Get(ctx context.Context, id int64) (*Check, error)
	List(ctx context.Context, req ListRequest) ([]Check, error)
	Update(ctx context.Context, c *Check) error
}

// ListRequest filters the check listing.
type ListRequest struct {
	Status    CheckStatus
	PayerName string
	Limit     int
	Offset    int
}

// CreateCheckInput carries the fields accepted on registration.
type CreateCheckInput struct {
	Number      string
	Bank        string
	Agency      string
	Account     string
	PayerName   string
	PayerTaxID  string
	Amount      float64
	GoodForDate time.Time
}

// Service coordinates check lifecycle operations.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithNow overrides the clock for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create registers a new check on hand.
func (s *Service) Create(ctx context.Context, input CreateCheckInput) (*Check, error) {
	if strings.TrimSpace(input.Number) == "" {
		return nil, errors.New("checks: number required")
	}
	if strings.TrimSpace(input.PayerName) == "" {
		return nil, errors.New("checks: payer name required")
	}
	if input.Amount <= 0 {
		return nil, errors.New("checks: amount must be positive")
	}

	now := s.now()
	return s.repo.Create(ctx, &Check{
		Number:      strings.TrimSpace(input.Number),
		Bank:        input.Bank,
		Agency:      input.Agency,
		Account:     input.Account,
		PayerName:   strings.TrimSpace(input.PayerName),
		PayerTaxID:  input.PayerTaxID,
		Amount:      input.Amount,
		GoodForDate: input.GoodForDate,
		Status:      StatusOpen,
		Location:    LocationOnHand,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// Get loads a single check.
func (s *Service) Get(ctx context.Context, id int64) (*Check, error) {
	return s.repo.Get(ctx, id)
}

// List returns checks matching the filter.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Check, error) {
	if req.Limit <= 0 || req.Limit > 200 {
		req.Limit = 50
	}
	return s.repo.List(ctx, req)
}

// Transition moves a check to target and derives its location.
func (s *Service) Transition(ctx context.Context, id int64, target CheckStatus) (*Check, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CanTransition(c.Status, target); err != nil {
		return nil, err
	}

	c.Status = target
	c.Location = locationFor[target]
	c.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateLocation overrides the custody location of a non-cleared check.
func (s *Service) UpdateLocation(ctx context.Context, id int64, location string) (*Check, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, errors.New("checks: location required")
	}

	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status == StatusCleared {
		return nil, ErrCheckCleared
	}

	c.Location = location
	c.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
