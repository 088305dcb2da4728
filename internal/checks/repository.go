package checks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists checks in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds Repository instance.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const checkColumns = `id, number, bank, agency, account, payer_name, payer_tax_id,
amount, good_for_date, status, location, created_at, updated_at`

func (r *Repository) Create(ctx context.Context, c *Check) (*Check, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO checks (number, bank, agency, account, payer_name, payer_tax_id,
			amount, good_for_date, status, location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING id`,
		c.Number, c.Bank, c.Agency, c.Account, c.PayerName, c.PayerTaxID,
		c.Amount, c.GoodForDate, c.Status, c.Location, c.CreatedAt,
	)
	if err := row.Scan(&c.ID); err != nil {
		return nil, fmt.Errorf("insert check: %w", err)
	}
	return c, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*Check, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+checkColumns+` FROM checks WHERE id = $1`, id)

	var c Check
	if err := scanCheck(row, &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select check: %w", err)
	}
	return &c, nil
}

func (r *Repository) List(ctx context.Context, req ListRequest) ([]Check, error) {
	var (
		where []string
		args  []any
	)
	if req.Status != "" {
		args = append(args, req.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if req.PayerName != "" {
		args = append(args, "%"+req.PayerName+"%")
		where = append(where, fmt.Sprintf("payer_name ILIKE $%d", len(args)))
	}

	query := `SELECT ` + checkColumns + ` FROM checks`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, req.Limit, req.Offset)
	query += fmt.Sprintf(" ORDER BY good_for_date, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list checks: %w", err)
	}
	defer rows.Close()

	var out []Check
	for rows.Next() {
		var c Check
		if err := scanCheck(rows, &c); err != nil {
			return nil, fmt.Errorf("scan check: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) Update(ctx context.Context, c *Check) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE checks
		SET status = $2, location = $3, updated_at = $4
		WHERE id = $1`,
		c.ID, c.Status, c.Location, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update check: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCheck(row pgx.Row, c *Check) error {
	return row.Scan(
		&c.ID, &c.Number, &c.Bank, &c.Agency, &c.Account, &c.PayerName, &c.PayerTaxID,
		&c.Amount, &c.GoodForDate, &c.Status, &c.Location, &c.CreatedAt, &c.UpdatedAt,
	)
}
