package checks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryCheckRepo struct {
	checks map[int64]*Check
	nextID int64
}

func newMemoryCheckRepo() *memoryCheckRepo {
	return &memoryCheckRepo{checks: make(map[int64]*Check)}
}

func (r *memoryCheckRepo) Create(ctx context.Context, c *Check) (*Check, error) {
	r.nextID++
	c.ID = r.nextID
	copied := *c
	r.checks[c.ID] = &copied
	return c, nil
}

func (r *memoryCheckRepo) Get(ctx context.Context, id int64) (*Check, error) {
	c, ok := r.checks[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *memoryCheckRepo) List(ctx context.Context, req ListRequest) ([]Check, error) {
	var out []Check
	for _, c := range r.checks {
		if req.Status != "" && c.Status != req.Status {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (r *memoryCheckRepo) Update(ctx context.Context, c *Check) error {
	if _, ok := r.checks[c.ID]; !ok {
		return ErrNotFound
	}
	copied := *c
	r.checks[c.ID] = &copied
	return nil
}

func newTestCheck(t *testing.T, svc *Service) *Check {
	t.Helper()
	c, err := svc.Create(context.Background(), CreateCheckInput{
		Number:      "000451",
		Bank:        "001",
		Agency:      "1234",
		Account:     "56789-0",
		PayerName:   "Carlos Lima",
		PayerTaxID:  "123.456.789-00",
		Amount:      480,
		GoodForDate: time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return c
}

func TestCreateCheckStartsOpenOnHand(t *testing.T) {
	svc := NewService(newMemoryCheckRepo())
	c := newTestCheck(t, svc)

	require.Equal(t, StatusOpen, c.Status)
	require.Equal(t, LocationOnHand, c.Location)
}

func TestTransitionDerivesLocation(t *testing.T) {
	svc := NewService(newMemoryCheckRepo())
	c := newTestCheck(t, svc)

	c, err := svc.Transition(context.Background(), c.ID, StatusDeposited)
	require.NoError(t, err)
	require.Equal(t, LocationInTransit, c.Location)

	c, err = svc.Transition(context.Background(), c.ID, StatusReturned)
	require.NoError(t, err)
	require.Equal(t, LocationReturned, c.Location)

	c, err = svc.Transition(context.Background(), c.ID, StatusRepresented)
	require.NoError(t, err)
	require.Equal(t, LocationInTransit, c.Location)

	c, err = svc.Transition(context.Background(), c.ID, StatusDeposited)
	require.NoError(t, err)

	c, err = svc.Transition(context.Background(), c.ID, StatusCleared)
	require.NoError(t, err)
	require.Equal(t, LocationCleared, c.Location)
}

func TestTransitionRejectsSkippedStates(t *testing.T) {
	svc := NewService(newMemoryCheckRepo())
	c := newTestCheck(t, svc)

	_, err := svc.Transition(context.Background(), c.ID, StatusCleared)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Transition(context.Background(), c.ID, StatusReturned)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Transition(context.Background(), c.ID, CheckStatus("BOUNCED"))
	require.ErrorIs(t, err, ErrUnknownStatus)
}

func TestClearedIsTerminal(t *testing.T) {
	svc := NewService(newMemoryCheckRepo())
	c := newTestCheck(t, svc)

	_, err := svc.Transition(context.Background(), c.ID, StatusDeposited)
	require.NoError(t, err)
	_, err = svc.Transition(context.Background(), c.ID, StatusCleared)
	require.NoError(t, err)

	for _, target := range []CheckStatus{StatusOpen, StatusDeposited, StatusReturned, StatusRepresented, StatusCleared} {
		_, err = svc.Transition(context.Background(), c.ID, target)
		require.ErrorIs(t, err, ErrCheckCleared)
	}

	_, err = svc.UpdateLocation(context.Background(), c.ID, "vault")
	require.ErrorIs(t, err, ErrCheckCleared)
}

func TestUpdateLocationBeforeClearing(t *testing.T) {
	svc := NewService(newMemoryCheckRepo())
	c := newTestCheck(t, svc)

	c, err := svc.UpdateLocation(context.Background(), c.ID, "branch safe")
	require.NoError(t, err)
	require.Equal(t, "branch safe", c.Location)

	// A later transition overrides the manual location again.
	c, err = svc.Transition(context.Background(), c.ID, StatusDeposited)
	require.NoError(t, err)
	require.Equal(t, LocationInTransit, c.Location)
}

func TestCreateCheckValidatesBasics(t *testing.T) {
	svc := NewService(newMemoryCheckRepo())

	_, err := svc.Create(context.Background(), CreateCheckInput{PayerName: "Carlos", Amount: 10})
	require.Error(t, err)

	_, err = svc.Create(context.Background(), CreateCheckInput{Number: "1", PayerName: "Carlos", Amount: 0})
	require.Error(t, err)
}
