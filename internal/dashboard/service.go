package dashboard

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vitalis-health/vitalis/internal/shared"
)

// AgingBucket summarises outstanding amounts inside a time bucket.
type AgingBucket struct {
	Bucket string  `json:"bucket"`
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
}

// RevenueSummary aggregates billing activity inside a period.
type RevenueSummary struct {
	ReceivedTotal       float64        `json:"received_total"`
	ReversedTotal       float64        `json:"reversed_total"`
	OutstandingTotal    float64        `json:"outstanding_total"`
	ReceivablesByStatus map[string]int `json:"receivables_by_status"`
	OpenInvoiceCount    int            `json:"open_invoice_count"`
	OpenCheckAmount     float64        `json:"open_check_amount"`
}

// ReceivableAgingRow is one open receivable as seen by the aging query.
type ReceivableAgingRow struct {
	DueDate     time.Time
	Outstanding float64
}

// RepositoryPort defines the read queries behind the dashboard.
type RepositoryPort interface {
	OpenReceivables(ctx context.Context) ([]ReceivableAgingRow, error)
	RevenueSummary(ctx context.Context, from, to time.Time) (*RevenueSummary, error)
}

// Service serves cached dashboard aggregates.
type Service struct {
	repo  RepositoryPort
	cache *Cache
	group singleflight.Group
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Aging buckets follow accounts-receivable convention.
const (
	bucketCurrent = "current"
	bucket30      = "1-30"
	bucket60      = "31-60"
	bucket90      = "61-90"
	bucketOver90  = "90+"
)

// AgingBuckets groups open receivables by days overdue as of asOf.
func (s *Service) AgingBuckets(ctx context.Context, asOf time.Time) ([]AgingBucket, error) {
	if asOf.IsZero() {
		asOf = time.Now().UTC().Truncate(24 * time.Hour)
	}

	key, err := s.cache.BuildKey(ctx, "dashboard", "aging", asOf.Format(shared.WireDate))
	if err != nil {
		return nil, err
	}

	value, err, _ := s.group.Do(key, func() (interface{}, error) {
		var buckets []AgingBucket
		err := s.cache.FetchJSON(ctx, key, &buckets, func(ctx context.Context) (interface{}, error) {
			rows, err := s.repo.OpenReceivables(ctx)
			if err != nil {
				return nil, err
			}
			return bucketize(rows, asOf), nil
		})
		return buckets, err
	})
	if err != nil {
		return nil, err
	}
	return value.([]AgingBucket), nil
}

// Summary aggregates billing activity between from and to.
func (s *Service) Summary(ctx context.Context, from, to time.Time) (*RevenueSummary, error) {
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.AddDate(0, -1, 0)
	}

	key, err := s.cache.BuildKey(ctx, "dashboard", "summary",
		from.Format(shared.WireDate), to.Format(shared.WireDate))
	if err != nil {
		return nil, err
	}

	value, err, _ := s.group.Do(key, func() (interface{}, error) {
		var summary RevenueSummary
		err := s.cache.FetchJSON(ctx, key, &summary, func(ctx context.Context) (interface{}, error) {
			return s.repo.RevenueSummary(ctx, from, to)
		})
		return &summary, err
	})
	if err != nil {
		return nil, err
	}
	return value.(*RevenueSummary), nil
}

// Bump invalidates cached aggregates after billing writes.
func (s *Service) Bump(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func bucketize(rows []ReceivableAgingRow, asOf time.Time) []AgingBucket {
	order := []string{bucketCurrent, bucket30, bucket60, bucket90, bucketOver90}
	byName := make(map[string]*AgingBucket, len(order))
	out := make([]AgingBucket, len(order))
	for i, name := range order {
		out[i] = AgingBucket{Bucket: name}
		byName[name] = &out[i]
	}

	for _, row := range rows {
		overdue := int(asOf.Sub(row.DueDate).Hours() / 24)
		var name string
		switch {
		case overdue <= 0:
			name = bucketCurrent
		case overdue <= 30:
			name = bucket30
		case overdue <= 60:
			name = bucket60
		case overdue <= 90:
			name = bucket90
		default:
			name = bucketOver90
		}
		b := byName[name]
		b.Amount = shared.Round2(b.Amount + row.Outstanding)
		b.Count++
	}
	return out
}
