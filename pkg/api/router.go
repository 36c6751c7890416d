package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/openbbs/internal/logger"
	"github.com/marmos91/openbbs/pkg/api/handlers"
)

// Store is what the API reads from persistence.
type Store interface {
	handlers.Pinger
	handlers.StatsStore
}

// Deps are the collaborators the router exposes.
type Deps struct {
	Store Store

	// Sessions reports active sessions. May be nil.
	Sessions handlers.SessionCounter

	// Metrics serves /metrics. Nil leaves the route unregistered.
	Metrics http.Handler

	// StartTime is reported as uptime by /health.
	StartTime time.Time
}

// NewRouter builds the chi router.
//
// Middleware: request ID, real IP, request logging, panic recovery and a
// 30s request timeout.
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/ready - Readiness probe (store ping)
//   - GET /api/v1/stats - Post, user and session counts
//   - GET /metrics - Prometheus exposition, when enabled
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	if deps.StartTime.IsZero() {
		deps.StartTime = time.Now()
	}

	health := handlers.NewHealthHandler(deps.Store, deps.StartTime)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", health.Liveness)
		r.Get("/ready", health.Readiness)
	})

	if deps.Store != nil {
		stats := handlers.NewStatsHandler(deps.Store, deps.Sessions)
		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/stats", stats.Get)
		})
	}

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	return r
}

// requestLogger logs each request at DEBUG on start and INFO on completion.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.Info("API request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			logger.DurationMs(time.Since(start)),
		)
	})
}
