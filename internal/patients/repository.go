package patients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists patients in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds Repository instance.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const patientColumns = `id, name, tax_id, birth_date, sex, phone, email,
insurance_plan, active, created_at, updated_at`

func (r *Repository) Create(ctx context.Context, p *Patient) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO patients (name, tax_id, birth_date, sex, phone, email,
			insurance_plan, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING id`,
		p.Name, p.TaxID, p.BirthDate, nullText(p.Sex), nullText(p.Phone),
		nullText(p.Email), nullText(p.InsurancePlan), p.Active, p.CreatedAt,
	)
	if err := row.Scan(&p.ID); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert patient: %w", err)
	}
	return p, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*Patient, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE id = $1`, id)

	var p Patient
	if err := scanPatient(row, &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select patient: %w", err)
	}
	return &p, nil
}

func listFilter(req ListRequest) (string, []any) {
	var (
		where []string
		args  []any
	)
	if req.Search != "" {
		args = append(args, "%"+req.Search+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR tax_id ILIKE $%d)", len(args), len(args)))
	}
	if req.ActiveOnly {
		where = append(where, "active")
	}
	if len(where) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func (r *Repository) List(ctx context.Context, req ListRequest) ([]Patient, error) {
	clause, args := listFilter(req)

	query := `SELECT ` + patientColumns + ` FROM patients` + clause
	args = append(args, req.PerPage, (req.Page-1)*req.PerPage)
	query += fmt.Sprintf(" ORDER BY name, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var out []Patient
	for rows.Next() {
		var p Patient
		if err := scanPatient(rows, &p); err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) Count(ctx context.Context, req ListRequest) (int, error) {
	clause, args := listFilter(req)

	var total int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM patients`+clause, args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count patients: %w", err)
	}
	return total, nil
}

func (r *Repository) Update(ctx context.Context, p *Patient) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE patients
		SET name = $2, tax_id = $3, birth_date = $4, sex = $5, phone = $6,
			email = $7, insurance_plan = $8, updated_at = $9
		WHERE id = $1`,
		p.ID, p.Name, p.TaxID, p.BirthDate, nullText(p.Sex), nullText(p.Phone),
		nullText(p.Email), nullText(p.InsurancePlan), p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE patients SET active = $2, updated_at = now() WHERE id = $1`,
		id, active)
	if err != nil {
		return fmt.Errorf("set patient active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nullText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func scanPatient(row pgx.Row, p *Patient) error {
	var (
		birth                   pgtype.Date
		sex, phone, email, plan pgtype.Text
	)
	if err := row.Scan(
		&p.ID, &p.Name, &p.TaxID, &birth, &sex, &phone, &email,
		&plan, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return err
	}
	if birth.Valid {
		t := birth.Time
		p.BirthDate = &t
	}
	p.Sex = sex.String
	p.Phone = phone.String
	p.Email = email.String
	p.InsurancePlan = plan.String
	return nil
}
