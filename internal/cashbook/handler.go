package cashbook

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vitalis-health/vitalis/internal/platform/httpx"
	"github.com/vitalis-health/vitalis/internal/shared"
)

// Handler manages cash session endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers cashbook routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/sessions", h.listSessions)
	r.Post("/sessions", h.openSession)
	r.Get("/sessions/{id}", h.getSession)
	r.Post("/sessions/{id}/close", h.closeSession)
	r.Get("/sessions/{id}/movements", h.listMovements)
	r.Post("/sessions/{id}/movements", h.addMovement)
}

type openSessionRequest struct {
	RegisterName   string  `json:"register_name"`
	Operator       string  `json:"operator"`
	OpeningBalance float64 `json:"opening_balance"`
}

type closeSessionRequest struct {
	CountedBalance float64 `json:"counted_balance"`
}

type movementRequest struct {
	Kind        string  `json:"kind"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

// SessionResponse is the wire representation of a session.
type SessionResponse struct {
	ID                int64   `json:"id"`
	RegisterName      string  `json:"register_name"`
	Operator          string  `json:"operator"`
	OpenedAt          string  `json:"opened_at"`
	ClosedAt          string  `json:"closed_at,omitempty"`
	OpeningBalance    float64 `json:"opening_balance"`
	ClosingBalance    float64 `json:"closing_balance"`
	ExpectedBalance   float64 `json:"expected_balance"`
	Difference        float64 `json:"difference"`
	DifferenceDisplay string  `json:"difference_display"`
	Status            string  `json:"status"`
}

func toSessionResponse(s *CashSession) SessionResponse {
	out := SessionResponse{
		ID:                s.ID,
		RegisterName:      s.RegisterName,
		Operator:          s.Operator,
		OpenedAt:          s.OpenedAt.Format("2006-01-02T15:04:05Z07:00"),
		OpeningBalance:    s.OpeningBalance,
		ClosingBalance:    s.ClosingBalance,
		ExpectedBalance:   s.ExpectedBalance,
		Difference:        s.Difference,
		DifferenceDisplay: shared.FormatBRL(s.Difference),
		Status:            string(s.Status),
	}
	if s.ClosedAt != nil {
		out.ClosedAt = s.ClosedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return out
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	sessions, err := h.service.ListSessions(r.Context(), ListSessionsRequest{
		RegisterName: r.URL.Query().Get("register"),
		Status:       SessionStatus(r.URL.Query().Get("status")),
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		h.logger.Error("list cash sessions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	out := make([]SessionResponse, 0, len(sessions))
	for i := range sessions {
		out = append(out, toSessionResponse(&sessions[i]))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sessions": out})
}

func (h *Handler) openSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}

	session, err := h.service.OpenSession(r.Context(), OpenSessionInput{
		RegisterName:   req.RegisterName,
		Operator:       req.Operator,
		OpeningBalance: req.OpeningBalance,
	})
	if err != nil {
		h.logger.Error("open cash session", slog.Any("error", err))
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toSessionResponse(session))
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid session id")
		return
	}
	session, err := h.service.GetSession(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toSessionResponse(session))
}

func (h *Handler) closeSession(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid session id")
		return
	}
	var req closeSessionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}

	result, err := h.service.CloseSession(r.Context(), id, req.CountedBalance)
	if err != nil {
		h.logger.Error("close cash session", slog.Any("error", err), slog.Int64("id", id))
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toSessionResponse(result.Session))
}

func (h *Handler) listMovements(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid session id")
		return
	}
	movements, err := h.service.ListMovements(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"movements": movements})
}

func (h *Handler) addMovement(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid session id")
		return
	}
	var req movementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}

	movement, err := h.service.AddMovement(r.Context(), id, MovementInput{
		Kind:        MovementKind(req.Kind),
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		h.logger.Error("add cash movement", slog.Any("error", err), slog.Int64("id", id))
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, movement)
}

func (h *Handler) pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (h *Handler) respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrRegisterBusy), errors.Is(err, ErrSessionClosed):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}
