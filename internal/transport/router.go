package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/corecomply/corecomply/internal/config"
)

// Dependencies holds all injected dependencies for the HTTP transport layer.
type Dependencies struct {
	Config       *config.Config
	Authenticate func(http.Handler) http.Handler
	API          *API

	// Public endpoints served outside the auth boundary. Nil handlers
	// fall back to a plain 200.
	Health  http.HandlerFunc
	Ready   http.HandlerFunc
	Metrics http.Handler

	// Instrumentation is applied to authenticated routes only, after
	// request context construction. Typically tracing and metrics.
	Instrumentation []func(http.Handler) http.Handler
}

// NewRouter creates a chi.Router with the full middleware pipeline and all
// route registrations. Health, readiness, and metrics endpoints bypass the
// authentication middleware.
func NewRouter(deps Dependencies) chi.Router {
	r := chi.NewRouter()

	// Global middleware: applied to all routes including health.
	r.Use(Recovery)
	r.Use(CORS(deps.Config.Server.CORS))
	r.Use(RequestID)
	r.Use(SecurityHeaders)

	// Public routes bypass authentication.
	health := deps.Health
	if health == nil {
		health = func(w http.ResponseWriter, _ *http.Request) {
			WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		}
	}
	ready := deps.Ready
	if ready == nil {
		ready = func(w http.ResponseWriter, _ *http.Request) {
			WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		}
	}
	r.Get("/health", health)
	r.Get("/ready", ready)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, deps.Config.Observability.Metrics.Path, deps.Metrics)
	}

	auth := deps.Authenticate
	if auth == nil {
		auth = func(next http.Handler) http.Handler { return next }
	}

	api := deps.API

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth)
		r.Use(BuildRequestContext(deps.Config.Identity.ClaimPaths))
		for _, mw := range deps.Instrumentation {
			r.Use(mw)
		}
		r.Use(HandlerTimeout(deps.Config.Server.HandlerTimeout))
		r.Use(RequestLogging)

		r.Get("/evidence", api.handleListEvidence)
		r.Get("/evidence/{artifactId}", api.handleGetEvidence)
		r.Post("/evidence/{artifactId}/disposition", api.handleEvidenceDisposition)
		r.Put("/evidence/{artifactId}/links", api.handleEvidenceRelink)
		r.Delete("/evidence/{artifactId}", api.handleRemoveEvidence)

		r.Post("/discovery/run", api.handleDiscoveryRun)

		r.Get("/rasci", api.handleListRASCI)
		r.Get("/rasci/{key}", api.handleGetRASCI)
		r.Post("/rasci/adopt", api.handleAdoptRASCI)

		r.Get("/setup", api.handleSetupStatus)
		r.Post("/setup/steps/{stepKey}/visit", api.handleVisitStep)

		r.Get("/obligations", api.handleListObligations)
		r.Post("/obligations", api.handleAddObligation)
		r.Post("/obligations/seed", api.handleSeedObligations)
		r.Get("/obligations/{obligationId}", api.handleGetObligation)

		r.Route("/org", func(r chi.Router) {
			r.Get("/profile", api.handleGetProfile)
			r.Put("/profile", api.handleSetProfile)
			r.Get("/people", api.handleListPeople)
			r.Post("/people", api.handleAddPerson)
			r.Get("/personnel", api.handleGetPersonnel)
			r.Put("/personnel", api.handleSetPersonnel)
			r.Get("/integrations", api.handleListIntegrations)
			r.Put("/integrations/{name}", api.handleSetIntegration)
			r.Get("/timetable", api.handleGetTimetable)
			r.Put("/timetable", api.handleSetTimetable)
		})

		r.Route("/registers", func(r chi.Router) {
			r.Get("/suppliers", api.handleListSuppliers)
			r.Post("/suppliers", api.handleAddSupplier)
			r.Post("/suppliers/{supplierId}/review", api.handleReviewSupplier)
			r.Delete("/suppliers/{supplierId}", api.handleRemoveSupplier)
			r.Get("/nonconformities", api.handleListNonconformities)
			r.Post("/nonconformities", api.handleRaiseNonconformity)
			r.Post("/nonconformities/{ncId}/actions", api.handleAddAction)
			r.Post("/nonconformities/{ncId}/actions/{actionId}/complete", api.handleCompleteAction)
			r.Post("/nonconformities/{ncId}/close", api.handleCloseNonconformity)
		})
	})

	return r
}
