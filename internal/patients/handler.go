package patients

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

// Handler manages patient endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers patient routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.deactivate)
	r.Post("/{id}/reactivate", h.reactivate)
}

// UpsertPatientRequest carries the create/update payload.
type UpsertPatientRequest struct {
	Name          string `json:"name" validate:"required"`
	TaxID         string `json:"tax_id" validate:"required"`
	BirthDate     string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Sex           string `json:"sex" validate:"omitempty,oneof=F M other"`
	Phone         string `json:"phone"`
	Email         string `json:"email" validate:"omitempty,email"`
	InsurancePlan string `json:"insurance_plan"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	out, pg, err := h.service.List(r.Context(), ListRequest{
		Search:     r.URL.Query().Get("q"),
		ActiveOnly: r.URL.Query().Get("active") == "true",
		Page:       page,
		PerPage:    perPage,
	})
	if err != nil {
		h.logger.Error("list patients", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"patients": out, "pagination": pg})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeUpsert(w, r)
	if !ok {
		return
	}

	p, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.logger.Error("create patient", slog.Any("error", err))
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid patient id")
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid patient id")
		return
	}
	input, ok := h.decodeUpsert(w, r)
	if !ok {
		return
	}

	p, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		h.logger.Error("update patient", slog.Any("error", err), slog.Int64("id", id))
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid patient id")
		return
	}
	if err := h.service.Deactivate(r.Context(), id); err != nil {
		h.respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) reactivate(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid patient id")
		return
	}
	if err := h.service.Reactivate(r.Context(), id); err != nil {
		h.respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeUpsert(w http.ResponseWriter, r *http.Request) (UpsertPatientInput, bool) {
	var req UpsertPatientRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return UpsertPatientInput{}, false
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
		return UpsertPatientInput{}, false
	}

	input := UpsertPatientInput{
		Name:          req.Name,
		TaxID:         req.TaxID,
		Sex:           req.Sex,
		Phone:         req.Phone,
		Email:         req.Email,
		InsurancePlan: req.InsurancePlan,
	}
	if req.BirthDate != "" {
		birth, err := time.Parse(shared.WireDate, req.BirthDate)
		if err == nil {
			input.BirthDate = &birth
		}
	}
	return input, true
}

func (h *Handler) pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (h *Handler) respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}
