package receivables

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vitalis-health/vitalis/internal/platform/httpx"
	"github.com/vitalis-health/vitalis/internal/shared"
)

// Handler manages receivable endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers receivable routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Get("/{id}/installments", h.listInstallments)
	r.Put("/{id}/installments", h.regenerateInstallments)
	r.Patch("/{id}/installments/{number}", h.updateInstallment)
	r.Get("/{id}/payments", h.listPayments)
	r.Post("/{id}/payments", h.registerPayment)
	r.Post("/{id}/reversals", h.reversePayments)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	recs, err := h.service.ListReceivables(r.Context(), ListReceivablesRequest{
		Status:    ReceivableStatus(r.URL.Query().Get("status")),
		PayerName: r.URL.Query().Get("payer"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		h.logger.Error("list receivables", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	out := make([]ReceivableResponse, 0, len(recs))
	for i := range recs {
		out = append(out, toReceivableResponse(&recs[i]))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"receivables": out})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateReceivableRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		fields := shared.FieldErrors{}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields.Add(fe.Field(), fe.Error())
			}
		}
		httpx.ProblemFields(w, http.StatusUnprocessableEntity, "Validation Failed", fields)
		return
	}

	rec, err := h.service.CreateReceivable(r.Context(), CreateReceivableInput{
		Description:      req.Description,
		PayerName:        req.PayerName,
		PayerType:        req.PayerType,
		IssueDate:        parseWireDate(req.IssueDate),
		DueDate:          parseWireDate(req.DueDate),
		TotalAmount:      req.TotalAmount,
		InstallmentCount: req.InstallmentCount,
		FirstDueDate:     parseWireDate(req.FirstDueDate),
	})
	if err != nil {
		h.logger.Error("create receivable", slog.Any("error", err))
		h.respondDomainError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, toReceivableResponse(rec))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid receivable id")
		return
	}

	rec, err := h.service.GetReceivable(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toReceivableResponse(rec))
}

func (h *Handler) listInstallments(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid receivable id")
		return
	}

	plan, err := h.service.ListInstallments(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"installments": toInstallmentResponses(plan)})
}

type regenerateRequest struct {
	Count        int    `json:"count"`
	FirstDueDate string `json:"first_due_date"`
}

func (h *Handler) regenerateInstallments(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid receivable id")
		return
	}
	var req regenerateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}

	plan, err := h.service.RegenerateInstallments(r.Context(), id, req.Count, parseWireDate(req.FirstDueDate))
	if err != nil {
		h.logger.Error("regenerate installments", slog.Any("error", err), slog.Int64("id", id))
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"installments": toInstallmentResponses(plan)})
}

func (h *Handler) updateInstallment(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid receivable id")
		return
	}
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid installment number")
		return
	}
	var req UpdateInstallmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}

	if req.Amount != nil {
		plan, err := h.service.UpdateInstallmentAmount(r.Context(), id, number, *req.Amount)
		if err != nil {
			h.logger.Error("update installment amount", slog.Any("error", err), slog.Int64("id", id))
			h.respondDomainError(w, err)
			return
		}
		if req.DueDate != nil {
			if err := h.service.UpdateInstallmentDueDate(r.Context(), id, number, parseWireDate(*req.DueDate)); err != nil {
				h.respondDomainError(w, err)
				return
			}
			plan[number-1].DueDate = parseWireDate(*req.DueDate)
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"installments": toInstallmentResponses(plan)})
		return
	}

	if req.DueDate != nil {
		if err := h.service.UpdateInstallmentDueDate(r.Context(), id, number, parseWireDate(*req.DueDate)); err != nil {
			h.respondDomainError(w, err)
			return
		}
		plan, err := h.service.ListInstallments(r.Context(), id)
		if err != nil {
			h.respondDomainError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"installments": toInstallmentResponses(plan)})
		return
	}

	httpx.Problem(w, http.StatusBadRequest, "Bad Request", "amount or due_date must be provided")
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid receivable id")
		return
	}
	payments, err := h.service.ListPayments(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"payments": toPaymentResponses(payments)})
}

func (h *Handler) registerPayment(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid receivable id")
		return
	}
	var req RegisterPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}

	result, err := h.service.RegisterPayment(r.Context(), id, PaymentAttempt{
		Date:            parseWireDate(req.Date),
		Method:          PaymentMethod(req.Method),
		Amount:          req.Amount,
		Bank:            req.Bank,
		Agency:          req.Agency,
		Account:         req.Account,
		CheckNumber:     req.CheckNumber,
		ClearingDate:    parseWireDate(req.ClearingDate),
		PayerTaxID:      req.PayerTaxID,
		Acquirer:        req.Acquirer,
		Brand:           req.Brand,
		OperationType:   req.OperationType,
		DiscountReason:  req.DiscountReason,
		TransactionDate: parseWireDate(req.TransactionDate),
		Note:            req.Note,
	}, req.CreateNext)
	if err != nil {
		h.logger.Error("register payment", slog.Any("error", err), slog.Int64("id", id))
		h.respondDomainError(w, err)
		return
	}

	body := map[string]any{
		"payment":             toPaymentResponse(result.Payment),
		"outstanding_amount":  result.Outstanding,
		"received_amount":     result.Received,
		"status":              string(result.Status),
		"outstanding_display": shared.FormatBRL(result.Outstanding),
	}
	if result.Next != nil {
		body["next"] = map[string]any{"amount": result.Next.Amount}
	}
	httpx.JSON(w, http.StatusCreated, body)
}

func (h *Handler) reversePayments(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid receivable id")
		return
	}
	var req ReverseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}

	result, err := h.service.ReversePayments(r.Context(), id, req.PaymentIDs, req.Justification)
	if err != nil {
		h.logger.Error("reverse payments", slog.Any("error", err), slog.Int64("id", id))
		h.respondDomainError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"reversed_total":     result.ReversedTotal,
		"outstanding_amount": result.NewOutstanding,
		"received_amount":    result.NewReceived,
		"status":             string(result.NewStatus),
	})
}

func (h *Handler) pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func (h *Handler) respondDomainError(w http.ResponseWriter, err error) {
	var verr *shared.ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.ProblemFields(w, http.StatusUnprocessableEntity, "Validation Failed", verr.Fields)
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidPlan),
		errors.Is(err, ErrInstallmentIndex),
		errors.Is(err, ErrNegativeInstallment),
		errors.Is(err, ErrNoPaymentsSelected),
		errors.Is(err, ErrJustificationTooShort):
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, ErrPaymentAlreadyReversed):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}
