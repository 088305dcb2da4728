package invoicing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vitalis-health/vitalis/internal/shared"
)

type memoryInvoiceRepo struct {
	invoices map[int64]*Invoice
	items    map[int64][]LineItem
	timeline map[int64][]TimelineEvent
	nextID   int64
}

func newMemoryInvoiceRepo() *memoryInvoiceRepo {
	return &memoryInvoiceRepo{
		invoices: make(map[int64]*Invoice),
		items:    make(map[int64][]LineItem),
		timeline: make(map[int64][]TimelineEvent),
	}
}

func (r *memoryInvoiceRepo) Create(ctx context.Context, inv *Invoice, opened TimelineEvent) (*Invoice, error) {
	r.nextID++
	inv.ID = r.nextID
	copied := *inv
	r.invoices[inv.ID] = &copied
	opened.InvoiceID = inv.ID
	r.timeline[inv.ID] = append(r.timeline[inv.ID], opened)
	return inv, nil
}

func (r *memoryInvoiceRepo) Get(ctx context.Context, id int64) (*Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *inv
	return &copied, nil
}

func (r *memoryInvoiceRepo) List(ctx context.Context, req ListRequest) ([]Invoice, error) {
	var out []Invoice
	for _, inv := range r.invoices {
		out = append(out, *inv)
	}
	return out, nil
}

func (r *memoryInvoiceRepo) AddLineItem(ctx context.Context, item LineItem, newTotal float64) (*LineItem, error) {
	inv, ok := r.invoices[item.InvoiceID]
	if !ok {
		return nil, ErrNotFound
	}
	item.ID = int64(len(r.items[item.InvoiceID]) + 1)
	r.items[item.InvoiceID] = append(r.items[item.InvoiceID], item)
	inv.TotalAmount = newTotal
	return &item, nil
}

func (r *memoryInvoiceRepo) ListLineItems(ctx context.Context, invoiceID int64) ([]LineItem, error) {
	return r.items[invoiceID], nil
}

func (r *memoryInvoiceRepo) Transition(ctx context.Context, id int64, status InvoiceStatus, filePath string, event TimelineEvent) error {
	inv, ok := r.invoices[id]
	if !ok {
		return ErrNotFound
	}
	inv.Status = status
	if filePath != "" {
		inv.FilePath = filePath
	}
	event.InvoiceID = id
	r.timeline[id] = append(r.timeline[id], event)
	return nil
}

func (r *memoryInvoiceRepo) ListTimeline(ctx context.Context, invoiceID int64) ([]TimelineEvent, error) {
	return r.timeline[invoiceID], nil
}

type recordingEnqueuer struct {
	enqueued []int64
}

func (e *recordingEnqueuer) EnqueueInvoiceFile(ctx context.Context, invoiceID int64) error {
	e.enqueued = append(e.enqueued, invoiceID)
	return nil
}

func newTestInvoice(t *testing.T, svc *Service) *Invoice {
	t.Helper()
	inv, err := svc.Create(context.Background(), CreateInvoiceInput{
		InsurerName:     "Unimed Central",
		CompetenceMonth: "2026-03",
	})
	require.NoError(t, err)
	return inv
}

func TestCreateInvoiceStartsOpen(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	svc := NewService(repo)
	inv := newTestInvoice(t, svc)

	require.Equal(t, StatusOpen, inv.Status)
	require.NotEmpty(t, inv.Number)

	timeline, err := svc.Timeline(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 1)
	require.Equal(t, "invoice opened", timeline[0].Description)
	require.Equal(t, "system", timeline[0].Actor)
}

func TestCreateInvoiceValidatesCompetence(t *testing.T) {
	svc := NewService(newMemoryInvoiceRepo())

	_, err := svc.Create(context.Background(), CreateInvoiceInput{
		InsurerName:     "Unimed Central",
		CompetenceMonth: "March 2026",
	})
	require.Error(t, err)
}

func TestAddLineItemWhileOpenOnly(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	svc := NewService(repo)
	inv := newTestInvoice(t, svc)

	_, err := svc.AddLineItem(context.Background(), inv.ID, AddLineItemInput{
		ReceivableID: 7, Description: "Lab panel", Amount: 120.50,
	})
	require.NoError(t, err)
	_, err = svc.AddLineItem(context.Background(), inv.ID, AddLineItemInput{
		ReceivableID: 8, Description: "Consultation", Amount: 200,
	})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, 320.50, got.TotalAmount)

	_, err = svc.Close(context.Background(), inv.ID)
	require.NoError(t, err)

	_, err = svc.AddLineItem(context.Background(), inv.ID, AddLineItemInput{
		ReceivableID: 9, Description: "Late add", Amount: 50,
	})
	require.ErrorIs(t, err, ErrInvoiceNotOpen)
}

func TestLifecycleMovesForwardOnly(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	enq := &recordingEnqueuer{}
	svc := NewService(repo).WithEnqueuer(enq)
	inv := newTestInvoice(t, svc)

	// Cannot skip ahead.
	err := svc.RequestFileGeneration(context.Background(), inv.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
	_, err = svc.Send(context.Background(), inv.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Close(context.Background(), inv.ID)
	require.NoError(t, err)

	// Closing twice is rejected.
	_, err = svc.Close(context.Background(), inv.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, svc.RequestFileGeneration(context.Background(), inv.ID))
	require.Equal(t, []int64{inv.ID}, enq.enqueued)

	// The queue request alone does not advance the status.
	got, err := svc.Get(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusClosed, got.Status)

	_, err = svc.CompleteFileGeneration(context.Background(), inv.ID, "/var/lib/vitalis/invoices/FAT-1.rem")
	require.NoError(t, err)

	got, err = svc.Get(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusFileGenerated, got.Status)
	require.Equal(t, "/var/lib/vitalis/invoices/FAT-1.rem", got.FilePath)

	_, err = svc.Send(context.Background(), inv.ID)
	require.NoError(t, err)

	// SENT is terminal.
	_, err = svc.Send(context.Background(), inv.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
	_, err = svc.Close(context.Background(), inv.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTimelineRecordsEveryTransition(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	svc := NewService(repo).WithEnqueuer(&recordingEnqueuer{}).WithNow(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})

	ctx := shared.ContextWithActor(context.Background(), "maria")
	inv, err := svc.Create(ctx, CreateInvoiceInput{InsurerName: "Unimed Central", CompetenceMonth: "2026-03"})
	require.NoError(t, err)

	_, err = svc.Close(ctx, inv.ID)
	require.NoError(t, err)
	_, err = svc.CompleteFileGeneration(ctx, inv.ID, "/tmp/f.rem")
	require.NoError(t, err)
	_, err = svc.Send(ctx, inv.ID)
	require.NoError(t, err)

	timeline, err := svc.Timeline(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 4)
	for _, ev := range timeline {
		require.Equal(t, "maria", ev.Actor)
		require.False(t, ev.At.IsZero())
	}
	require.Equal(t, "invoice closed", timeline[1].Description)
	require.Equal(t, "invoice sent to insurer", timeline[3].Description)
	require.True(t, timeline[2].At.After(timeline[1].At))
}
