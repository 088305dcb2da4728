package patients

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/vitalis-health/vitalis/internal/shared"
)

// RepositoryPort defines persistence behavior required by the service.
type RepositoryPort interface {
	Create(ctx context.Context, p *Patient) (*Patient, error)
	Get(ctx context.Context, id int64) (*Patient, error)
	List(ctx context.Context, req ListRequest) ([]Patient, error)
	Count(ctx context.Context, req ListRequest) (int, error)
	Update(ctx context.Context, p *Patient) error
	SetActive(ctx context.Context, id int64, active bool) error
}

// ListRequest filters the patient listing.
type ListRequest struct {
	Search     string
	ActiveOnly bool
	Page       int
	PerPage    int
}

// UpsertPatientInput carries the fields accepted on create and update.
type UpsertPatientInput struct {
	Name          string
	TaxID         string
	BirthDate     *time.Time
	Sex           string
	Phone         string
	Email         string
	InsurancePlan string
}

// Service coordinates patient master data.
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

// Create registers a new active patient.
func (s *Service) Create(ctx context.Context, input UpsertPatientInput) (*Patient, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	now := s.now()
	return s.repo.Create(ctx, &Patient{
		Name:          strings.TrimSpace(input.Name),
		TaxID:         strings.TrimSpace(input.TaxID),
		BirthDate:     input.BirthDate,
		Sex:           input.Sex,
		Phone:         input.Phone,
		Email:         input.Email,
		InsurancePlan: input.InsurancePlan,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

// Get loads a single patient.
func (s *Service) Get(ctx context.Context, id int64) (*Patient, error) {
	return s.repo.Get(ctx, id)
}

// List returns one page of patients matching the filter, plus paging metadata.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Patient, shared.Pagination, error) {
	if req.PerPage <= 0 || req.PerPage > 200 {
		req.PerPage = 50
	}
	if req.Page <= 0 {
		req.Page = 1
	}

	total, err := s.repo.Count(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	rows, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return rows, shared.NewPagination(req.Page, req.PerPage, total), nil
}

// Update replaces the editable fields of a patient.
func (s *Service) Update(ctx context.Context, id int64, input UpsertPatientInput) (*Patient, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Name = strings.TrimSpace(input.Name)
	p.TaxID = strings.TrimSpace(input.TaxID)
	p.BirthDate = input.BirthDate
	p.Sex = input.Sex
	p.Phone = input.Phone
	p.Email = input.Email
	p.InsurancePlan = input.InsurancePlan
	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Deactivate soft-removes a patient. Billing history stays intact.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.SetActive(ctx, id, false)
}

// Reactivate restores a deactivated patient.
func (s *Service) Reactivate(ctx context.Context, id int64) error {
	return s.repo.SetActive(ctx, id, true)
}

func validateInput(input UpsertPatientInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return errors.New("patients: name required")
	}
	if strings.TrimSpace(input.TaxID) == "" {
		return errors.New("patients: tax id required")
	}
	return nil
}
