package receivables

import (
	"time"

	"github.com/vitalis-health/vitalis/internal/shared"
)

// ReceivableResponse is the wire representation of a receivable.
type ReceivableResponse struct {
	ID                 int64   `json:"id"`
	Description        string  `json:"description"`
	PayerName          string  `json:"payer_name"`
	PayerType          string  `json:"payer_type"`
	IssueDate          string  `json:"issue_date"`
	DueDate            string  `json:"due_date"`
	OriginalAmount     float64 `json:"original_amount"`
	OutstandingAmount  float64 `json:"outstanding_amount"`
	ReceivedAmount     float64 `json:"received_amount"`
	Status             string  `json:"status"`
	OriginalDisplay    string  `json:"original_display"`
	OutstandingDisplay string  `json:"outstanding_display"`
	DueDateDisplay     string  `json:"due_date_display"`
}

// InstallmentResponse is the wire representation of one installment.
type InstallmentResponse struct {
	Number         int     `json:"number"`
	DueDate        string  `json:"due_date"`
	Amount         float64 `json:"amount"`
	Status         string  `json:"status"`
	AmountDisplay  string  `json:"amount_display"`
	DueDateDisplay string  `json:"due_date_display"`
}

// PaymentResponse is the wire representation of a payment.
type PaymentResponse struct {
	ID            int64   `json:"id"`
	Number        string  `json:"number"`
	Date          string  `json:"date"`
	Method        string  `json:"method"`
	Amount        float64 `json:"amount"`
	AmountDisplay string  `json:"amount_display"`
	Reversed      bool    `json:"reversed"`
	Note          string  `json:"note,omitempty"`
}

// CreateReceivableRequest is the create payload.
type CreateReceivableRequest struct {
	Description      string  `json:"description" validate:"required"`
	PayerName        string  `json:"payer_name" validate:"required"`
	PayerType        string  `json:"payer_type" validate:"required,oneof=patient insurer other"`
	IssueDate        string  `json:"issue_date" validate:"required"`
	DueDate          string  `json:"due_date" validate:"required"`
	TotalAmount      float64 `json:"total_amount" validate:"required,gt=0"`
	InstallmentCount int     `json:"installment_count" validate:"omitempty,min=1"`
	FirstDueDate     string  `json:"first_due_date"`
}

// UpdateInstallmentRequest edits one installment's amount and/or due date.
type UpdateInstallmentRequest struct {
	Amount  *float64 `json:"amount"`
	DueDate *string  `json:"due_date"`
}

// RegisterPaymentRequest is the payment payload.
type RegisterPaymentRequest struct {
	Date            string  `json:"date"`
	Method          string  `json:"method"`
	Amount          float64 `json:"amount"`
	Bank            string  `json:"bank"`
	Agency          string  `json:"agency"`
	Account         string  `json:"account"`
	CheckNumber     string  `json:"check_number"`
	ClearingDate    string  `json:"clearing_date"`
	PayerTaxID      string  `json:"payer_tax_id"`
	Acquirer        string  `json:"acquirer"`
	Brand           string  `json:"brand"`
	OperationType   string  `json:"operation_type"`
	DiscountReason  string  `json:"discount_reason"`
	TransactionDate string  `json:"transaction_date"`
	Note            string  `json:"note"`
	CreateNext      bool    `json:"create_next"`
}

// ReverseRequest selects payments for reversal.
type ReverseRequest struct {
	PaymentIDs    []int64 `json:"payment_ids"`
	Justification string  `json:"justification"`
}

func toReceivableResponse(rec *Receivable) ReceivableResponse {
	return ReceivableResponse{
		ID:                 rec.ID,
		Description:        rec.Description,
		PayerName:          rec.PayerName,
		PayerType:          rec.PayerType,
		IssueDate:          rec.IssueDate.Format(shared.WireDate),
		DueDate:            rec.DueDate.Format(shared.WireDate),
		OriginalAmount:     rec.OriginalAmount,
		OutstandingAmount:  rec.OutstandingAmount,
		ReceivedAmount:     rec.ReceivedAmount,
		Status:             string(rec.Status),
		OriginalDisplay:    shared.FormatBRL(rec.OriginalAmount),
		OutstandingDisplay: shared.FormatBRL(rec.OutstandingAmount),
		DueDateDisplay:     shared.FormatDate(rec.DueDate),
	}
}

func toInstallmentResponses(plan []Installment) []InstallmentResponse {
	out := make([]InstallmentResponse, 0, len(plan))
	for _, ins := range plan {
		out = append(out, InstallmentResponse{
			Number:         ins.Number,
			DueDate:        ins.DueDate.Format(shared.WireDate),
			Amount:         ins.Amount,
			Status:         string(ins.Status),
			AmountDisplay:  shared.FormatBRL(ins.Amount),
			DueDateDisplay: shared.FormatDate(ins.DueDate),
		})
	}
	return out
}

func toPaymentResponses(payments []Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentResponse(&p))
	}
	return out
}

func toPaymentResponse(p *Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		Number:        p.Number,
		Date:          p.Date.Format(shared.WireDate),
		Method:        string(p.Method),
		Amount:        p.Amount,
		AmountDisplay: shared.FormatBRL(p.Amount),
		Reversed:      p.Reversed,
		Note:          p.Note,
	}
}

func parseWireDate(s string) time.Time {
	t, _ := time.Parse(shared.WireDate, s)
	return t
}
