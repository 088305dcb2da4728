package cashbook

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/vitalis-health/vitalis/internal/shared"
)

// RepositoryPort defines persistence behavior required by the service.
type RepositoryPort interface {
	CreateSession(ctx context.Context, s *CashSession) (*CashSession, error)
	GetSession(ctx context.Context, id int64) (*CashSession, error)
	FindOpenSession(ctx context.Context, registerName string) (*CashSession, error)
	ListSessions(ctx context.Context, req ListSessionsRequest) ([]CashSession, error)
	CloseSession(ctx context.Context, s *CashSession) error
	AddMovement(ctx context.Context, m *CashMovement) (*CashMovement, error)
	ListMovements(ctx context.Context, sessionID int64) ([]CashMovement, error)
}

// ListSessionsRequest filters the session listing.
type ListSessionsRequest struct {
	RegisterName string
	Status       SessionStatus
	Limit        int
	Offset       int
}

// OpenSessionInput carries the opening payload.
type OpenSessionInput struct {
	RegisterName   string
	Operator       string
	OpeningBalance float64
}

// MovementInput carries one in or out entry.
type MovementInput struct {
	Kind        MovementKind
	Amount      float64
	Description string
}

// CloseResult summarizes the till count at close.
type CloseResult struct {
	Session         *CashSession
	ExpectedBalance float64
	Difference      float64
}

// Service coordinates cash session operations.
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

// OpenSession starts a shift. A register holds at most one open session.
func (s *Service) OpenSession(ctx context.Context, input OpenSessionInput) (*CashSession, error) {
	register := strings.TrimSpace(input.RegisterName)
	if register == "" {
		return nil, errors.New("cashbook: register name required")
	}
	if strings.TrimSpace(input.Operator) == "" {
		return nil, errors.New("cashbook: operator required")
	}
	if input.OpeningBalance < 0 {
		return nil, errors.New("cashbook: opening balance cannot be negative")
	}

	existing, err := s.repo.FindOpenSession(ctx, register)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrRegisterBusy
	}

	return s.repo.CreateSession(ctx, &CashSession{
		RegisterName:   register,
		Operator:       strings.TrimSpace(input.Operator),
		OpenedAt:       s.now(),
		OpeningBalance: shared.Round2(input.OpeningBalance),
		Status:         StatusOpen,
	})
}

// GetSession loads a single session.
func (s *Service) GetSession(ctx context.Context, id int64) (*CashSession, error) {
	return s.repo.GetSession(ctx, id)
}

// ListSessions returns sessions matching the filter.
func (s *Service) ListSessions(ctx context.Context, req ListSessionsRequest) ([]CashSession, error) {
	if req.Limit <= 0 || req.Limit > 200 {
		req.Limit = 50
	}
	return s.repo.ListSessions(ctx, req)
}

// AddMovement records an in or out entry on an open session.
func (s *Service) AddMovement(ctx context.Context, sessionID int64, input MovementInput) (*CashMovement, error) {
	if input.Kind != KindIn && input.Kind != KindOut {
		return nil, errors.New("cashbook: movement kind must be IN or OUT")
	}
	if input.Amount <= 0 {
		return nil, errors.New("cashbook: movement amount must be positive")
	}

	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != StatusOpen {
		return nil, ErrSessionClosed
	}

	return s.repo.AddMovement(ctx, &CashMovement{
		SessionID:   sessionID,
		Kind:        input.Kind,
		Amount:      shared.Round2(input.Amount),
		Description: input.Description,
		At:          s.now(),
	})
}

// ListMovements returns the entries of a session, oldest first.
func (s *Service) ListMovements(ctx context.Context, sessionID int64) ([]CashMovement, error) {
	if _, err := s.repo.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.repo.ListMovements(ctx, sessionID)
}

// CloseSession counts the till against the movement log and seals the
// session.
func (s *Service) CloseSession(ctx context.Context, sessionID int64, countedBalance float64) (*CloseResult, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != StatusOpen {
		return nil, ErrSessionClosed
	}

	movements, err := s.repo.ListMovements(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	expected := session.OpeningBalance
	for _, m := range movements {
		switch m.Kind {
		case KindIn:
			expected += m.Amount
		case KindOut:
			expected -= m.Amount
		}
	}
	expected = shared.Round2(expected)

	closedAt := s.now()
	session.Status = StatusClosed
	session.ClosedAt = &closedAt
	session.ClosingBalance = shared.Round2(countedBalance)
	session.ExpectedBalance = expected
	session.Difference = shared.Round2(session.ClosingBalance - expected)

	if err := s.repo.CloseSession(ctx, session); err != nil {
		return nil, err
	}
	return &CloseResult{
		Session:         session,
		ExpectedBalance: expected,
		Difference:      session.Difference,
	}, nil
}
