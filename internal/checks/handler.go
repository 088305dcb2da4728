package checks

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vitalis-health/vitalis/internal/platform/httpx"
	"github.com/vitalis-health/vitalis/internal/shared"
)

// Handler manages check endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers check routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Post("/{id}/transition", h.transition)
	r.Put("/{id}/location", h.updateLocation)
}

// CreateCheckRequest carries the registration payload.
type CreateCheckRequest struct {
	Number      string  `json:"number" validate:"required"`
	Bank        string  `json:"bank" validate:"required"`
	Agency      string  `json:"agency" validate:"required"`
	Account     string  `json:"account" validate:"required"`
	PayerName   string  `json:"payer_name" validate:"required"`
	PayerTaxID  string  `json:"payer_tax_id" validate:"required"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	GoodForDate string  `json:"good_for_date" validate:"required"`
}

type transitionRequest struct {
	Status string `json:"status"`
}

type locationRequest struct {
	Location string `json:"location"`
}

// CheckResponse is the wire representation of a check.
type CheckResponse struct {
	ID             int64   `json:"id"`
	Number         string  `json:"number"`
	Bank           string  `json:"bank"`
	Agency         string  `json:"agency"`
	Account        string  `json:"account"`
	PayerName      string  `json:"payer_name"`
	PayerTaxID     string  `json:"payer_tax_id"`
	Amount         float64 `json:"amount"`
	AmountDisplay  string  `json:"amount_display"`
	GoodForDate    string  `json:"good_for_date"`
	GoodForDisplay string  `json:"good_for_display"`
	Status         string  `json:"status"`
	Location       string  `json:"location"`
}

func toCheckResponse(c *Check) CheckResponse {
	return CheckResponse{
		ID:             c.ID,
		Number:         c.Number,
		Bank:           c.Bank,
		Agency:         c.Agency,
		Account:        c.Account,
		PayerName:      c.PayerName,
		PayerTaxID:     c.PayerTaxID,
		Amount:         c.Amount,
		AmountDisplay:  shared.FormatBRL(c.Amount),
		GoodForDate:    c.GoodForDate.Format(shared.WireDate),
		GoodForDisplay: shared.FormatDate(c.GoodForDate),
		Status:         string(c.Status),
		Location:       c.Location,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	out, err := h.service.List(r.Context(), ListRequest{
		Status:    CheckStatus(r.URL.Query().Get("status")),
		PayerName: r.URL.Query().Get("payer"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		h.logger.Error("list checks", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	items := make([]CheckResponse, 0, len(out))
	for i := range out {
		items = append(items, toCheckResponse(&out[i]))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"checks": items})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateCheckRequest
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
	goodFor, err := time.Parse(shared.WireDate, req.GoodForDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "good_for_date must be YYYY-MM-DD")
		return
	}

	c, err := h.service.Create(r.Context(), CreateCheckInput{
		Number:      req.Number,
		Bank:        req.Bank,
		Agency:      req.Agency,
		Account:     req.Account,
		PayerName:   req.PayerName,
		PayerTaxID:  req.PayerTaxID,
		Amount:      req.Amount,
		GoodForDate: goodFor,
	})
	if err != nil {
		h.logger.Error("create check", slog.Any("error", err))
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toCheckResponse(c))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid check id")
		return
	}
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toCheckResponse(c))
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid check id")
		return
	}
	var req transitionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}

	c, err := h.service.Transition(r.Context(), id, CheckStatus(req.Status))
	if err != nil {
		h.logger.Error("transition check", slog.Any("error", err), slog.Int64("id", id), slog.String("target", req.Status))
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toCheckResponse(c))
}

func (h *Handler) updateLocation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid check id")
		return
	}
	var req locationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}

	c, err := h.service.UpdateLocation(r.Context(), id, req.Location)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toCheckResponse(c))
}

func (h *Handler) respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrCheckCleared):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrUnknownStatus):
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}
