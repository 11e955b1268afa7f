package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ssgreg/logf"

	"github.com/yourusername/hostgate/middleware"
)

// RouterOpts wires the optional endpoints of the router.
type RouterOpts struct {
	// Stats serves GET /api/stats when set.
	Stats MetricsProvider
	// Buckets serves GET /api/buckets when set.
	Buckets BucketLister
	// Gatherer serves GET /metrics when set.
	Gatherer prometheus.Gatherer
	// Logger is used by the access log and recovery middleware.
	Logger *logf.Logger
}

// NewRouter returns the HTTP API. Callers may mount further routes on it.
func NewRouter(h *Handler, opts RouterOpts) chi.Router {
	logger := opts.Logger
	if logger == nil {
		logger = logf.NewDisabledLogger()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recovery(logger))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		sendError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		sendError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/domains", h.Configure)
		r.Get("/check", h.Check)
		r.Get("/status", h.Status)
		if opts.Stats != nil {
			r.Method(http.MethodGet, "/stats", NewStatsHandler(opts.Stats))
		}
		if opts.Buckets != nil {
			r.Method(http.MethodGet, "/buckets", NewBucketsHandler(opts.Buckets))
		}
	})

	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}
