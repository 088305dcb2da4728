package invoicing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitalis-health/vitalis/internal/platform/db"
)

// Repository persists invoices in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds Repository instance.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const invoiceColumns = `id, number, insurer_name, competence_month, total_amount,
status, file_path, created_at, updated_at`

func (r *Repository) Create(ctx context.Context, inv *Invoice, opened TimelineEvent) (*Invoice, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO invoices (number, insurer_name, competence_month, total_amount,
				status, created_at, updated_at)
			VALUES ($1, $2, $3, 0, $4, $5, $5)
			RETURNING id`,
			inv.Number, inv.InsurerName, inv.CompetenceMonth, inv.Status, inv.CreatedAt,
		)
		if err := row.Scan(&inv.ID); err != nil {
			return fmt.Errorf("insert invoice: %w", err)
		}
		return insertTimelineEvent(ctx, tx, inv.ID, opened)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*Invoice, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)

	var inv Invoice
	if err := scanInvoice(row, &inv); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select invoice: %w", err)
	}
	return &inv, nil
}

func (r *Repository) List(ctx context.Context, req ListRequest) ([]Invoice, error) {
	var (
		where []string
		args  []any
	)
	if req.Status != "" {
		args = append(args, req.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if req.InsurerName != "" {
		args = append(args, "%"+req.InsurerName+"%")
		where = append(where, fmt.Sprintf("insurer_name ILIKE $%d", len(args)))
	}
	if req.CompetenceMonth != "" {
		args = append(args, req.CompetenceMonth)
		where = append(where, fmt.Sprintf("competence_month = $%d", len(args)))
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, req.Limit, req.Offset)
	query += fmt.Sprintf(" ORDER BY competence_month DESC, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		var inv Invoice
		if err := scanInvoice(rows, &inv); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *Repository) AddLineItem(ctx context.Context, item LineItem, newTotal float64) (*LineItem, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO invoice_line_items (invoice_id, receivable_id, description, amount)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			item.InvoiceID, item.ReceivableID, item.Description, item.Amount,
		)
		if err := row.Scan(&item.ID); err != nil {
			return fmt.Errorf("insert line item: %w", err)
		}

		tag, err := tx.Exec(ctx,
			`UPDATE invoices SET total_amount = $2, updated_at = now() WHERE id = $1`,
			item.InvoiceID, newTotal)
		if err != nil {
			return fmt.Errorf("update invoice total: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) ListLineItems(ctx context.Context, invoiceID int64) ([]LineItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_id, receivable_id, description, amount
		FROM invoice_line_items
		WHERE invoice_id = $1
		ORDER BY id`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list line items: %w", err)
	}
	defer rows.Close()

	var out []LineItem
	for rows.Next() {
		var item LineItem
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.ReceivableID, &item.Description, &item.Amount); err != nil {
			return nil, fmt.Errorf("scan line item: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *Repository) Transition(ctx context.Context, id int64, status InvoiceStatus, filePath string, event TimelineEvent) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var path pgtype.Text
		if filePath != "" {
			path = pgtype.Text{String: filePath, Valid: true}
		}
		tag, err := tx.Exec(ctx, `
			UPDATE invoices
			SET status = $2, file_path = COALESCE($3, file_path), updated_at = $4
			WHERE id = $1`,
			id, status, path, event.At)
		if err != nil {
			return fmt.Errorf("update invoice status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return insertTimelineEvent(ctx, tx, id, event)
	})
}

func (r *Repository) ListTimeline(ctx context.Context, invoiceID int64) ([]TimelineEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_id, actor, occurred_at, description
		FROM invoice_timeline_events
		WHERE invoice_id = $1
		ORDER BY occurred_at, id`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list timeline: %w", err)
	}
	defer rows.Close()

	var out []TimelineEvent
	for rows.Next() {
		var ev TimelineEvent
		if err := rows.Scan(&ev.ID, &ev.InvoiceID, &ev.Actor, &ev.At, &ev.Description); err != nil {
			return nil, fmt.Errorf("scan timeline event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func insertTimelineEvent(ctx context.Context, tx pgx.Tx, invoiceID int64, ev TimelineEvent) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO invoice_timeline_events (invoice_id, actor, occurred_at, description)
		VALUES ($1, $2, $3, $4)`,
		invoiceID, ev.Actor, ev.At, ev.Description)
	if err != nil {
		return fmt.Errorf("insert timeline event: %w", err)
	}
	return nil
}

func scanInvoice(row pgx.Row, inv *Invoice) error {
	var path pgtype.Text
	if err := row.Scan(
		&inv.ID, &inv.Number, &inv.InsurerName, &inv.CompetenceMonth, &inv.TotalAmount,
		&inv.Status, &path, &inv.CreatedAt, &inv.UpdatedAt,
	); err != nil {
		return err
	}
	if path.Valid {
		inv.FilePath = path.String
	}
	return nil
}
