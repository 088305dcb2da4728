package cashbook

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memorySessionRepo struct {
	sessions  map[int64]*CashSession
	movements map[int64][]CashMovement
	nextID    int64
	nextMovID int64
}

func newMemorySessionRepo() *memorySessionRepo {
	return &memorySessionRepo{
		sessions:  make(map[int64]*CashSession),
		movements: make(map[int64][]CashMovement),
	}
}

func (r *memorySessionRepo) CreateSession(ctx context.Context, s *CashSession) (*CashSession, error) {
	r.nextID++
	s.ID = r.nextID
	copied := *s
	r.sessions[s.ID] = &copied
	return s, nil
}

func (r *memorySessionRepo) GetSession(ctx context.Context, id int64) (*CashSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *memorySessionRepo) FindOpenSession(ctx context.Context, registerName string) (*CashSession, error) {
	for _, s := range r.sessions {
		if s.RegisterName == registerName && s.Status == StatusOpen {
			copied := *s
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memorySessionRepo) ListSessions(ctx context.Context, req ListSessionsRequest) ([]CashSession, error) {
	var out []CashSession
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	return out, nil
}

func (r *memorySessionRepo) CloseSession(ctx context.Context, s *CashSession) error {
	stored, ok := r.sessions[s.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Status != StatusOpen {
		return ErrSessionClosed
	}
	copied := *s
	r.sessions[s.ID] = &copied
	return nil
}

func (r *memorySessionRepo) AddMovement(ctx context.Context, m *CashMovement) (*CashMovement, error) {
	r.nextMovID++
	m.ID = r.nextMovID
	r.movements[m.SessionID] = append(r.movements[m.SessionID], *m)
	return m, nil
}

func (r *memorySessionRepo) ListMovements(ctx context.Context, sessionID int64) ([]CashMovement, error) {
	return r.movements[sessionID], nil
}

func openTestSession(t *testing.T, svc *Service, opening float64) *CashSession {
	t.Helper()
	s, err := svc.OpenSession(context.Background(), OpenSessionInput{
		RegisterName:   "front-desk-1",
		Operator:       "joana",
		OpeningBalance: opening,
	})
	require.NoError(t, err)
	return s
}

func TestOpenSessionRejectsSecondOpenOnRegister(t *testing.T) {
	svc := NewService(newMemorySessionRepo())
	openTestSession(t, svc, 200)

	_, err := svc.OpenSession(context.Background(), OpenSessionInput{
		RegisterName: "front-desk-1",
		Operator:     "pedro",
	})
	require.ErrorIs(t, err, ErrRegisterBusy)

	// A different register is fine.
	_, err = svc.OpenSession(context.Background(), OpenSessionInput{
		RegisterName: "front-desk-2",
		Operator:     "pedro",
	})
	require.NoError(t, err)
}

func TestCloseSessionComputesExpectedAndDifference(t *testing.T) {
	svc := NewService(newMemorySessionRepo())
	s := openTestSession(t, svc, 200)

	_, err := svc.AddMovement(context.Background(), s.ID, MovementInput{Kind: KindIn, Amount: 150, Description: "cash payment"})
	require.NoError(t, err)
	_, err = svc.AddMovement(context.Background(), s.ID, MovementInput{Kind: KindIn, Amount: 80.50, Description: "cash payment"})
	require.NoError(t, err)
	_, err = svc.AddMovement(context.Background(), s.ID, MovementInput{Kind: KindOut, Amount: 30, Description: "courier"})
	require.NoError(t, err)

	result, err := svc.CloseSession(context.Background(), s.ID, 395)
	require.NoError(t, err)
	require.Equal(t, 400.50, result.ExpectedBalance)
	require.Equal(t, -5.50, result.Difference)
	require.Equal(t, StatusClosed, result.Session.Status)
	require.NotNil(t, result.Session.ClosedAt)
}

func TestClosedSessionIsImmutable(t *testing.T) {
	svc := NewService(newMemorySessionRepo())
	s := openTestSession(t, svc, 100)

	_, err := svc.CloseSession(context.Background(), s.ID, 100)
	require.NoError(t, err)

	_, err = svc.AddMovement(context.Background(), s.ID, MovementInput{Kind: KindIn, Amount: 10})
	require.ErrorIs(t, err, ErrSessionClosed)

	_, err = svc.CloseSession(context.Background(), s.ID, 100)
	require.ErrorIs(t, err, ErrSessionClosed)
}

func TestAddMovementValidatesInput(t *testing.T) {
	svc := NewService(newMemorySessionRepo())
	s := openTestSession(t, svc, 100)

	_, err := svc.AddMovement(context.Background(), s.ID, MovementInput{Kind: "TRANSFER", Amount: 10})
	require.Error(t, err)

	_, err = svc.AddMovement(context.Background(), s.ID, MovementInput{Kind: KindIn, Amount: 0})
	require.Error(t, err)

	_, err = svc.AddMovement(context.Background(), 99, MovementInput{Kind: KindIn, Amount: 10})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOpenSessionValidatesInput(t *testing.T) {
	svc := NewService(newMemorySessionRepo())

	_, err := svc.OpenSession(context.Background(), OpenSessionInput{Operator: "joana"})
	require.Error(t, err)

	_, err = svc.OpenSession(context.Background(), OpenSessionInput{RegisterName: "front-desk-1"})
	require.Error(t, err)

	_, err = svc.OpenSession(context.Background(), OpenSessionInput{
		RegisterName: "front-desk-1", Operator: "joana", OpeningBalance: -1,
	})
	require.Error(t, err)
}
