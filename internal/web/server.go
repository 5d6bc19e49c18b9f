// Package web is the portal's HTTP surface: the route table, the page
// handlers, and the glue between browser sessions and the auth gateway.
package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/froonn/MedicalVision/internal/auth"
	"github.com/froonn/MedicalVision/internal/guard"
	"github.com/froonn/MedicalVision/internal/platform/metrics"
	"github.com/froonn/MedicalVision/internal/platform/middleware"
	"github.com/froonn/MedicalVision/internal/session"
)

const (
	pathLogin        = "/login"
	pathUnauthorized = "/unauthorized"
)

// Handler bundles the dependencies of every page handler.
type Handler struct {
	gateway  *auth.Gateway
	cookies  *session.CookieManager
	renderer *renderer
	logger   *slog.Logger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
}

// NewHandler wires the page layer.
func NewHandler(gateway *auth.Gateway, cookies *session.CookieManager, logger *slog.Logger, m *metrics.Metrics, gatherer prometheus.Gatherer) *Handler {
	return &Handler{
		gateway:  gateway,
		cookies:  cookies,
		renderer: newRenderer(logger),
		logger:   logger,
		metrics:  m,
		gatherer: gatherer,
	}
}

// Router builds the full route table: public auth pages, the role-gated
// dashboards, and the catch-all not-found page.
func (h *Handler) Router() http.Handler {
	guarded := &guard.Middleware{
		Sessions:         h.gateway,
		Logger:           h.logger,
		LoginPath:        pathLogin,
		UnauthorizedPath: pathUnauthorized,
		RenderLoading:    h.loadingPage,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(h.observe)
	r.Use(h.sessionContext)

	// Public routes.
	r.Get(pathLogin, h.loginPage)
	r.Post(pathLogin, h.loginSubmit)
	r.Get("/logout", h.logout)
	r.Get("/register", h.registerPage)
	r.Post("/register", h.registerSubmit)
	r.Get(pathUnauthorized, h.unauthorizedPage)

	// Post-login landing. Authenticated but role-agnostic: it dispatches to
	// the role's home or renders the unconfigured-access page.
	r.Group(func(r chi.Router) {
		r.Use(guarded.RequireAuthenticated())
		r.Get("/", h.landing)
	})

	r.Group(func(r chi.Router) {
		r.Use(guarded.Require(session.RoleDiagnostician))
		r.Get("/diagnostician", h.diagnosticianDashboard)
		r.Post("/diagnostician/upload", h.uploadAnalysis)
		r.Get("/diagnostician/analyses/{analysisID}", h.analysisDetail)
		r.Post("/diagnostician/analyses/{analysisID}/confirm", h.confirmAnalysis)
	})

	r.Group(func(r chi.Router) {
		r.Use(guarded.Require(session.RoleClinician))
		r.Get("/clinician", h.clinicianDashboard)
		r.Post("/clinician/analyses/{analysisID}/prescribe", h.prescribeTreatment)
	})

	r.Group(func(r chi.Router) {
		r.Use(guarded.Require(session.RoleAdmin))
		r.Get("/admin", h.adminDashboard)
		r.Post("/admin/users/{userID}/role", h.changeUserRole)
	})

	r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	r.NotFound(h.notFoundPage)
	return r
}

// sessionContext resolves the browser's session key from the signed cookie,
// minting a cookie when needed, and threads the key through the request
// context so the guard and the backend transport see the same session.
func (h *Handler) sessionContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid, err := h.cookies.Ensure(w, r)
		if err != nil {
			h.logger.ErrorContext(r.Context(), "session cookie", "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithSessionID(r.Context(), sid)))
	})
}

// observe records request latency under the chi route pattern.
func (h *Handler) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "notfound"
		}
		h.metrics.ObserveRequest(route, sw.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
