package invoicing

import (
	"errors"
	"time"
)

// InvoiceStatus represents invoice lifecycle state.
type InvoiceStatus string

const (
	StatusOpen          InvoiceStatus = "OPEN"
	StatusClosed        InvoiceStatus = "CLOSED"
	StatusFileGenerated InvoiceStatus = "FILE_GENERATED"
	StatusSent          InvoiceStatus = "SENT"
)

var (
	ErrNotFound          = errors.New("invoicing: invoice not found")
	ErrInvalidTransition = errors.New("invoicing: invalid status transition")
	ErrInvoiceNotOpen    = errors.New("invoicing: invoice no longer open")
)

// Invoice groups receivable line items billed to an insurer for a
// competence month.
type Invoice struct {
	ID              int64         `json:"id"`
	Number          string        `json:"number"`
	InsurerName     string        `json:"insurer_name"`
	CompetenceMonth string        `json:"competence_month"`
	TotalAmount     float64       `json:"total_amount"`
	Status          InvoiceStatus `json:"status"`
	FilePath        string        `json:"file_path,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// LineItem links a receivable into an invoice.
type LineItem struct {
	ID           int64   `json:"id"`
	InvoiceID    int64   `json:"invoice_id"`
	ReceivableID int64   `json:"receivable_id"`
	Description  string  `json:"description"`
	Amount       float64 `json:"amount"`
}

// TimelineEvent records one lifecycle step. Events are append-only and
// never edited after the fact.
type TimelineEvent struct {
	ID          int64     `json:"id"`
	InvoiceID   int64     `json:"invoice_id"`
	Actor       string    `json:"actor"`
	At          time.Time `json:"at"`
	Description string    `json:"description"`
}

// The lifecycle moves strictly forward. Each status has exactly one
// successor, and SENT has none.
var forward = map[InvoiceStatus]InvoiceStatus{
	StatusOpen:          StatusClosed,
	StatusClosed:        StatusFileGenerated,
	StatusFileGenerated: StatusSent,
}

// CanTransition reports whether from may move to target.
func CanTransition(from, target InvoiceStatus) error {
	if forward[from] != target || target == "" {
		return ErrInvalidTransition
	}
	return nil
}
