package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vitalis-health/vitalis/internal/cashbook"
	"github.com/vitalis-health/vitalis/internal/checks"
	"github.com/vitalis-health/vitalis/internal/dashboard"
	"github.com/vitalis-health/vitalis/internal/invoicing"
	"github.com/vitalis-health/vitalis/internal/observability"
	"github.com/vitalis-health/vitalis/internal/patients"
	"github.com/vitalis-health/vitalis/internal/receivables"
	"github.com/vitalis-health/vitalis/internal/shared"
	"github.com/vitalis-health/vitalis/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	PatientsHandler    *patients.Handler
	ReceivablesHandler *receivables.Handler
	ChecksHandler      *checks.Handler
	InvoicingHandler   *invoicing.Handler
	CashbookHandler    *cashbook.Handler
	DashboardHandler   *dashboard.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with Vitalis defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	if params.Metrics != nil {
		r.Use(params.Metrics.Middleware)
	}
	r.Use(actorMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.PatientsHandler != nil {
		r.Route("/patients", params.PatientsHandler.MountRoutes)
	}
	if params.ReceivablesHandler != nil {
		r.Route("/receivables", params.ReceivablesHandler.MountRoutes)
	}
	if params.ChecksHandler != nil {
		r.Route("/checks", params.ChecksHandler.MountRoutes)
	}
	if params.InvoicingHandler != nil {
		r.Route("/invoices", params.InvoicingHandler.MountRoutes)
	}
	if params.CashbookHandler != nil {
		r.Route("/cashbook", params.CashbookHandler.MountRoutes)
	}
	if params.DashboardHandler != nil {
		r.Route("/dashboard", params.DashboardHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics.Handler())
	}

	return r
}

// actorMiddleware propagates the X-Actor header so writes are attributed
// to the operator the hosting application authenticated.
func actorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor := r.Header.Get(shared.ActorHeader); actor != "" {
			r = r.WithContext(shared.ContextWithActor(r.Context(), actor))
		}
		next.ServeHTTP(w, r)
	})
}
