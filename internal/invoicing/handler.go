package invoicing

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vitalis-health/vitalis/internal/platform/httpx"
	"github.com/vitalis-health/vitalis/internal/shared"
)

// Handler manages invoice endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Get("/{id}/items", h.listItems)
	r.Post("/{id}/items", h.addItem)
	r.Post("/{id}/close", h.close)
	r.Post("/{id}/generate-file", h.generateFile)
	r.Post("/{id}/send", h.send)
	r.Get("/{id}/timeline", h.timeline)
}

type createInvoiceRequest struct {
	InsurerName     string `json:"insurer_name"`
	CompetenceMonth string `json:"competence_month"`
}

type addItemRequest struct {
	ReceivableID int64   `json:"receivable_id"`
	Description  string  `json:"description"`
	Amount       float64 `json:"amount"`
}

// InvoiceResponse is the wire representation of an invoice.
type InvoiceResponse struct {
	ID              int64   `json:"id"`
	Number          string  `json:"number"`
	InsurerName     string  `json:"insurer_name"`
	CompetenceMonth string  `json:"competence_month"`
	TotalAmount     float64 `json:"total_amount"`
	TotalDisplay    string  `json:"total_display"`
	Status          string  `json:"status"`
	FilePath        string  `json:"file_path,omitempty"`
}

// TimelineEventResponse is one lifecycle entry.
type TimelineEventResponse struct {
	Actor       string `json:"actor"`
	At          string `json:"at"`
	Description string `json:"description"`
}

func toInvoiceResponse(inv *Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:              inv.ID,
		Number:          inv.Number,
		InsurerName:     inv.InsurerName,
		CompetenceMonth: inv.CompetenceMonth,
		TotalAmount:     inv.TotalAmount,
		TotalDisplay:    shared.FormatBRL(inv.TotalAmount),
		Status:          string(inv.Status),
		FilePath:        inv.FilePath,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	invoices, err := h.service.List(r.Context(), ListRequest{
		Status:          InvoiceStatus(r.URL.Query().Get("status")),
		InsurerName:     r.URL.Query().Get("insurer"),
		CompetenceMonth: r.URL.Query().Get("competence"),
		Limit:           limit,
		Offset:          offset,
	})
	if err != nil {
		h.logger.Error("list invoices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	out := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		out = append(out, toInvoiceResponse(&invoices[i]))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"invoices": out})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}

	inv, err := h.service.Create(r.Context(), CreateInvoiceInput{
		InsurerName:     req.InsurerName,
		CompetenceMonth: req.CompetenceMonth,
	})
	if err != nil {
		h.logger.Error("create invoice", slog.Any("error", err))
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toInvoiceResponse(inv))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid invoice id")
		return
	}
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toInvoiceResponse(inv))
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid invoice id")
		return
	}
	items, err := h.service.ListLineItems(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid invoice id")
		return
	}
	var req addItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}

	item, err := h.service.AddLineItem(r.Context(), id, AddLineItemInput{
		ReceivableID: req.ReceivableID,
		Description:  req.Description,
		Amount:       req.Amount,
	})
	if err != nil {
		h.logger.Error("add invoice line item", slog.Any("error", err), slog.Int64("id", id))
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, h.service.Close)
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, h.service.Send)
}

func (h *Handler) generateFile(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid invoice id")
		return
	}

	if err := h.service.RequestFileGeneration(r.Context(), id); err != nil {
		h.logger.Error("request invoice file", slog.Any("error", err), slog.Int64("id", id))
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{"status": "queued"})
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid invoice id")
		return
	}
	events, err := h.service.Timeline(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	out := make([]TimelineEventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, TimelineEventResponse{
			Actor:       ev.Actor,
			At:          ev.At.Format("2006-01-02T15:04:05Z07:00"),
			Description: ev.Description,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"timeline": out})
}

func (h *Handler) advance(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id int64) (*Invoice, error)) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid invoice id")
		return
	}

	inv, err := op(r.Context(), id)
	if err != nil {
		h.logger.Error("advance invoice", slog.Any("error", err), slog.Int64("id", id))
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toInvoiceResponse(inv))
}

func (h *Handler) pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (h *Handler) respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrInvoiceNotOpen):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}
