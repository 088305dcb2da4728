package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository runs the dashboard read queries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds Repository instance.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) OpenReceivables(ctx context.Context) ([]ReceivableAgingRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT due_date, outstanding_amount
		FROM receivables
		WHERE status IN ('OPEN', 'PARTIAL') AND outstanding_amount > 0`)
	if err != nil {
		return nil, fmt.Errorf("open receivables: %w", err)
	}
	defer rows.Close()

	var out []ReceivableAgingRow
	for rows.Next() {
		var row ReceivableAgingRow
		if err := rows.Scan(&row.DueDate, &row.Outstanding); err != nil {
			return nil, fmt.Errorf("scan aging row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *Repository) RevenueSummary(ctx context.Context, from, to time.Time) (*RevenueSummary, error) {
	summary := &RevenueSummary{ReceivablesByStatus: make(map[string]int)}

	row := r.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE NOT reversed), 0),
			COALESCE(SUM(amount) FILTER (WHERE reversed), 0)
		FROM receivable_payments
		WHERE paid_at >= $1 AND paid_at < $2`, from, to)
	if err := row.Scan(&summary.ReceivedTotal, &summary.ReversedTotal); err != nil {
		return nil, fmt.Errorf("payment totals: %w", err)
	}

	row = r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(outstanding_amount), 0)
		FROM receivables
		WHERE status IN ('OPEN', 'PARTIAL')`)
	if err := row.Scan(&summary.OutstandingTotal); err != nil {
		return nil, fmt.Errorf("outstanding total: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM receivables GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("receivable counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan receivable count: %w", err)
		}
		summary.ReceivablesByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	row = r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM invoices WHERE status = 'OPEN'`)
	if err := row.Scan(&summary.OpenInvoiceCount); err != nil {
		return nil, fmt.Errorf("open invoice count: %w", err)
	}

	row = r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM checks
		WHERE status NOT IN ('CLEARED')`)
	if err := row.Scan(&summary.OpenCheckAmount); err != nil {
		return nil, fmt.Errorf("open check amount: %w", err)
	}

	return summary, nil
}
