package receivables

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for receivables.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateReceivable inserts the receivable and its installment batch in one
// transaction.
func (r *Repository) CreateReceivable(ctx context.Context, input CreateReceivableInput, plan []Installment) (*Receivable, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO receivables (
			description, payer_name, payer_type, issue_date, due_date,
			original_amount, outstanding_amount, received_amount, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $6, 0, 'OPEN', NOW(), NOW())
		RETURNING id, created_at, updated_at`

	var rec Receivable
	err = tx.QueryRow(ctx, query,
		input.Description,
		input.PayerName,
		input.PayerType,
		input.IssueDate,
		input.DueDate,
		input.TotalAmount,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := insertInstallments(ctx, tx, rec.ID, plan); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	rec.Description = input.Description
	rec.PayerName = input.PayerName
	rec.PayerType = input.PayerType
	rec.IssueDate = input.IssueDate
	rec.DueDate = input.DueDate
	rec.OriginalAmount = input.TotalAmount
	rec.OutstandingAmount = input.TotalAmount
	rec.Status = StatusOpen
	return &rec, nil
}

func insertInstallments(ctx context.Context, tx pgx.Tx, receivableID int64, plan []Installment) error {
	for _, ins := range plan {
		_, err := tx.Exec(ctx, `
			INSERT INTO installments (receivable_id, number, due_date, amount, status)
			VALUES ($1, $2, $3, $4, $5)`,
			receivableID, ins.Number, ins.DueDate, ins.Amount, string(ins.Status),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetReceivable retrieves a receivable by ID.
func (r *Repository) GetReceivable(ctx context.Context, id int64) (*Receivable, error) {
	query := `
		SELECT id, description, payer_name, payer_type, issue_date, due_date,
			original_amount, outstanding_amount, received_amount, status,
			created_at, updated_at
		FROM receivables
		WHERE id = $1`

	var rec Receivable
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.Description, &rec.PayerName, &rec.PayerType,
		&rec.IssueDate, &rec.DueDate,
		&rec.OriginalAmount, &rec.OutstandingAmount, &rec.ReceivedAmount, &rec.Status,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListReceivables returns receivables with optional filtering.
func (r *Repository) ListReceivables(ctx context.Context, req ListReceivablesRequest) ([]Receivable, error) {
	query := `
		SELECT id, description, payer_name, payer_type, issue_date, due_date,
			original_amount, outstanding_amount, received_amount, status,
			created_at, updated_at
		FROM receivables
		WHERE 1=1`

	args := []any{}
	argNum := 1

	if req.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(req.Status))
		argNum++
	}
	if req.PayerName != "" {
		query += fmt.Sprintf(" AND payer_name ILIKE $%d", argNum)
		args = append(args, "%"+req.PayerName+"%")
		argNum++
	}

	query += " ORDER BY due_date, id"

	if req.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, req.Limit)
		argNum++
	}
	if req.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, req.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Receivable
	for rows.Next() {
		var rec Receivable
		err := rows.Scan(
			&rec.ID, &rec.Description, &rec.PayerName, &rec.PayerType,
			&rec.IssueDate, &rec.DueDate,
			&rec.OriginalAmount, &rec.OutstandingAmount, &rec.ReceivedAmount, &rec.Status,
			&rec.CreatedAt, &rec.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListInstallments returns the installment batch ordered by number.
func (r *Repository) ListInstallments(ctx context.Context, receivableID int64) ([]Installment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, receivable_id, number, due_date, amount, status
		FROM installments
		WHERE receivable_id = $1
		ORDER BY number`, receivableID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Installment
	for rows.Next() {
		var ins Installment
		if err := rows.Scan(&ins.ID, &ins.ReceivableID, &ins.Number, &ins.DueDate, &ins.Amount, &ins.Status); err != nil {
			return nil, err
		}
		out = append(out, ins)
	}
	return out, rows.Err()
}

// ReplaceInstallments swaps the whole installment batch atomically.
func (r *Repository) ReplaceInstallments(ctx context.Context, receivableID int64, plan []Installment) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM installments WHERE receivable_id = $1`, receivableID); err != nil {
		return err
	}
	if err := insertInstallments(ctx, tx, receivableID, plan); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// UpdateInstallmentDueDate moves one installment's due date.
func (r *Repository) UpdateInstallmentDueDate(ctx context.Context, receivableID int64, number int, due time.Time) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE installments SET due_date = $3
		WHERE receivable_id = $1 AND number = $2`, receivableID, number, due)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPayments returns all payments of a receivable, oldest first.
func (r *Repository) ListPayments(ctx context.Context, receivableID int64) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, receivable_id, number, paid_at, method, amount,
			bank, agency, account, check_number, clearing_date, payer_tax_id,
			acquirer, brand, operation_type, discount_reason, transaction_date,
			note, reversed, reversed_at, reversal_reason, created_at
		FROM receivable_payments
		WHERE receivable_id = $1
		ORDER BY paid_at, id`, receivableID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPayment(row pgx.Row) (Payment, error) {
	var p Payment
	var clearingDate, transactionDate, reversedAt pgtype.Timestamptz
	var reversalReason pgtype.Text

	err := row.Scan(
		&p.ID, &p.ReceivableID, &p.Number, &p.Date, &p.Method, &p.Amount,
		&p.Bank, &p.Agency, &p.Account, &p.CheckNumber, &clearingDate, &p.PayerTaxID,
		&p.Acquirer, &p.Brand, &p.OperationType, &p.DiscountReason, &transactionDate,
		&p.Note, &p.Reversed, &reversedAt, &reversalReason, &p.CreatedAt,
	)
	if err != nil {
		return Payment{}, err
	}
	if clearingDate.Valid {
		p.ClearingDate = clearingDate.Time
	}
	if transactionDate.Valid {
		p.TransactionDate = transactionDate.Time
	}
	if reversedAt.Valid {
		p.ReversedAt = &reversedAt.Time
	}
	if reversalReason.Valid {
		p.ReversalReason = reversalReason.String
	}
	return p, nil
}

// ApplyPayment stores the payment and the refreshed receivable balance in one
// transaction.
func (r *Repository) ApplyPayment(ctx context.Context, receivableID int64, p Payment, outstanding, received float64, status ReceivableStatus) (*Payment, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var clearingDate, transactionDate pgtype.Timestamptz
	if !p.ClearingDate.IsZero() {
		clearingDate = pgtype.Timestamptz{Time: p.ClearingDate, Valid: true}
	}
	if !p.TransactionDate.IsZero() {
		transactionDate = pgtype.Timestamptz{Time: p.TransactionDate, Valid: true}
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO receivable_payments (
			receivable_id, number, paid_at, method, amount,
			bank, agency, account, check_number, clearing_date, payer_tax_id,
			acquirer, brand, operation_type, discount_reason, transaction_date,
			note, reversed, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, FALSE, NOW())
		RETURNING id, created_at`,
		receivableID, p.Number, p.Date, string(p.Method), p.Amount,
		p.Bank, p.Agency, p.Account, p.CheckNumber, clearingDate, p.PayerTaxID,
		p.Acquirer, p.Brand, p.OperationType, p.DiscountReason, transactionDate,
		p.Note,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	result, err := tx.Exec(ctx, `
		UPDATE receivables
		SET outstanding_amount = $2, received_amount = $3, status = $4, updated_at = NOW()
		WHERE id = $1`, receivableID, outstanding, received, string(status))
	if err != nil {
		return nil, err
	}
	if result.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	p.ReceivableID = receivableID
	return &p, nil
}

// ReversePayments marks the selected payments reversed and restores the
// receivable balance in one transaction.
func (r *Repository) ReversePayments(ctx context.Context, receivableID int64, paymentIDs []int64, reason string, at time.Time, result ReversalResult) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE receivable_payments
		SET reversed = TRUE, reversed_at = $3, reversal_reason = $4
		WHERE receivable_id = $1 AND id = ANY($2) AND reversed = FALSE`,
		receivableID, paymentIDs, at, reason)
	if err != nil {
		return err
	}
	if int(tag.RowsAffected()) != len(paymentIDs) {
		return ErrPaymentAlreadyReversed
	}

	_, err = tx.Exec(ctx, `
		UPDATE receivables
		SET outstanding_amount = $2, received_amount = $3, status = $4, updated_at = NOW()
		WHERE id = $1`,
		receivableID, result.NewOutstanding, result.NewReceived, string(result.NewStatus))
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}
