// Package httpapi is the thin HTTP layer. Handlers decode, delegate to the
// domain services, and encode; no business rules live here.
package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gather/internal/collector"
	"gather/internal/filemanager"
	"gather/internal/integration"
	"gather/internal/platform/middleware"
	"gather/internal/program"
	"gather/internal/user"
	"gather/internal/workflow"
	dErrors "gather/pkg/domain-errors"
	"gather/pkg/platform/httputil"
)

// Services bundles the domain services the router exposes.
type Services struct {
	Users       *user.Service
	Programs    *program.Service
	Workflows   *workflow.Service
	Collector   *collector.Service
	Connections *integration.Service
	Files       *filemanager.Service
}

// Deps are the non-service collaborators of the router.
type Deps struct {
	Tokens middleware.TokenValidator
	Health func(r *http.Request) error
	Logger *slog.Logger
}

// NewRouter wires middleware and all authenticated endpoints.
func NewRouter(svc Services, deps Deps) http.Handler {
	h := &handler{svc: svc, log: deps.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Metadata)

	r.Get("/healthz", h.health(deps.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.Tokens, deps.Logger))

		r.Route("/users", func(r chi.Router) {
			r.Post("/", h.createUser)
			r.Post("/bulk", h.bulkCreateUsers)
			r.Get("/", h.listUsers)
			r.Get("/{id}", h.getUser)
			r.Patch("/{id}", h.updateUser)
			r.Delete("/{id}", h.deleteUser)
		})

		r.Route("/programs", func(r chi.Router) {
			r.Post("/", h.createProgram)
			r.Get("/", h.listPrograms)
			r.Get("/{id}", h.getProgram)
			r.Patch("/{id}", h.updateProgram)
			r.Delete("/{id}", h.deleteProgram)
			r.Put("/{id}/users", h.assignProgramUsers)
			r.Get("/{id}/users", h.listProgramUsers)
		})

		r.Route("/workflows", func(r chi.Router) {
			r.Post("/", h.createWorkflow)
			r.Get("/", h.listWorkflows)
			r.Get("/{id}", h.getWorkflow)
			r.Put("/{id}/children", h.upsertWorkflowChildren)
			r.Post("/{id}/status", h.setWorkflowStatus)
			r.Delete("/{id}", h.deleteWorkflow)
		})

		r.Route("/submissions", func(r chi.Router) {
			r.Post("/", h.submit)
			r.Get("/", h.listSubmissions)
			r.Get("/{id}", h.getSubmission)
			r.Post("/status", h.markSubmissionStatus)
			r.Post("/discard", h.discardSubmissions)
		})

		r.Route("/connections", func(r chi.Router) {
			r.Post("/", h.createConnection)
			r.Get("/", h.listConnections)
			r.Get("/{id}", h.getConnection)
			r.Delete("/{id}", h.deleteConnection)
			r.Post("/{id}/test", h.testConnection)
			r.Get("/{id}/overview", h.connectionOverview)
			r.Get("/{id}/schemas/{kind}/{schemaID}", h.fetchSchema)
			r.Post("/{id}/push", h.pushRecords)
		})

		r.Route("/files", func(r chi.Router) {
			r.Post("/", h.uploadFile)
			r.Get("/", h.listFiles)
			r.Get("/{id}", h.getFile)
			r.Get("/{id}/content", h.downloadFile)
			r.Delete("/{id}", h.deleteFile)
		})
	})

	return r
}

type handler struct {
	svc Services
	log *slog.Logger
}

func (h *handler) health(check func(r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// pagination reads skip/take query parameters with sane bounds.
func pagination(r *http.Request) (skip, take int) {
	skip, _ = strconv.Atoi(r.URL.Query().Get("skip"))
	if skip < 0 {
		skip = 0
	}
	take, _ = strconv.Atoi(r.URL.Query().Get("take"))
	if take <= 0 || take > 200 {
		take = 50
	}
	return skip, take
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	httputil.WriteError(w, err)
}
