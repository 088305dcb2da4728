package cashbook

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists cash sessions in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds Repository instance.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const sessionColumns = `id, register_name, operator, opened_at, closed_at,
opening_balance, closing_balance, expected_balance, difference, status`

func (r *Repository) CreateSession(ctx context.Context, s *CashSession) (*CashSession, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO cash_sessions (register_name, operator, opened_at,
			opening_balance, closing_balance, expected_balance, difference, status)
		VALUES ($1, $2, $3, $4, 0, 0, 0, $5)
		RETURNING id`,
		s.RegisterName, s.Operator, s.OpenedAt, s.OpeningBalance, s.Status,
	)
	if err := row.Scan(&s.ID); err != nil {
		return nil, fmt.Errorf("insert cash session: %w", err)
	}
	return s, nil
}

func (r *Repository) GetSession(ctx context.Context, id int64) (*CashSession, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM cash_sessions WHERE id = $1`, id)

	var s CashSession
	if err := scanSession(row, &s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select cash session: %w", err)
	}
	return &s, nil
}

func (r *Repository) FindOpenSession(ctx context.Context, registerName string) (*CashSession, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM cash_sessions
		 WHERE register_name = $1 AND status = 'OPEN'`, registerName)

	var s CashSession
	if err := scanSession(row, &s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select open cash session: %w", err)
	}
	return &s, nil
}

func (r *Repository) ListSessions(ctx context.Context, req ListSessionsRequest) ([]CashSession, error) {
	var (
		where []string
		args  []any
	)
	if req.RegisterName != "" {
		args = append(args, req.RegisterName)
		where = append(where, fmt.Sprintf("register_name = $%d", len(args)))
	}
	if req.Status != "" {
		args = append(args, req.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + sessionColumns + ` FROM cash_sessions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, req.Limit, req.Offset)
	query += fmt.Sprintf(" ORDER BY opened_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cash sessions: %w", err)
	}
	defer rows.Close()

	var out []CashSession
	for rows.Next() {
		var s CashSession
		if err := scanSession(rows, &s); err != nil {
			return nil, fmt.Errorf("scan cash session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) CloseSession(ctx context.Context, s *CashSession) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE cash_sessions
		SET status = $2, closed_at = $3, closing_balance = $4,
			expected_balance = $5, difference = $6
		WHERE id = $1 AND status = 'OPEN'`,
		s.ID, s.Status, s.ClosedAt, s.ClosingBalance, s.ExpectedBalance, s.Difference,
	)
	if err != nil {
		return fmt.Errorf("close cash session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionClosed
	}
	return nil
}

func (r *Repository) AddMovement(ctx context.Context, m *CashMovement) (*CashMovement, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO cash_movements (session_id, kind, amount, description, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		m.SessionID, m.Kind, m.Amount, m.Description, m.At,
	)
	if err := row.Scan(&m.ID); err != nil {
		return nil, fmt.Errorf("insert cash movement: %w", err)
	}
	return m, nil
}

func (r *Repository) ListMovements(ctx context.Context, sessionID int64) ([]CashMovement, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, session_id, kind, amount, description, occurred_at
		FROM cash_movements
		WHERE session_id = $1
		ORDER BY occurred_at, id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list cash movements: %w", err)
	}
	defer rows.Close()

	var out []CashMovement
	for rows.Next() {
		var m CashMovement
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Kind, &m.Amount, &m.Description, &m.At); err != nil {
			return nil, fmt.Errorf("scan cash movement: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanSession(row pgx.Row, s *CashSession) error {
	var closedAt pgtype.Timestamptz
	if err := row.Scan(
		&s.ID, &s.RegisterName, &s.Operator, &s.OpenedAt, &closedAt,
		&s.OpeningBalance, &s.ClosingBalance, &s.ExpectedBalance, &s.Difference, &s.Status,
	); err != nil {
		return err
	}
	if closedAt.Valid {
		t := closedAt.Time
		s.ClosedAt = &t
	}
	return nil
}
