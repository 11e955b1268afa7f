package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ssgreg/logf"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/yourusername/hostgate/pkg/hostgate"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

var noopTracer = noop.NewTracerProvider().Tracer("")

// Gate is the part of the registry the HTTP API drives.
// *hostgate.Registry satisfies it.
type Gate interface {
	ConfigurePolicy(key string, policy hostgate.Policy) error
	Decide(key string) hostgate.Decision
	Status() hostgate.Status
	Defaults() hostgate.Policy
}

// ConfigureRecorder is told about every configure call.
type ConfigureRecorder interface {
	RecordConfigure(domain string, err error)
}

// Handler serves the admission API
type Handler struct {
	gate      Gate
	hosts     *hostgate.HostCache
	configure ConfigureRecorder
	tracer    trace.Tracer
	logger    *logf.Logger
}

// HandlerOpts holds optional Handler dependencies.
type HandlerOpts struct {
	// Hosts caches URL to hostname extraction. Nil disables caching.
	Hosts *hostgate.HostCache
	// Configures records configure calls. May be nil.
	Configures ConfigureRecorder
	// Tracer creates the per-check span. A no-op tracer is used when nil.
	Tracer trace.Tracer
	// Logger defaults to a disabled logger.
	Logger *logf.Logger
}

// NewHandler creates a new API handler
func NewHandler(gate Gate, opts HandlerOpts) *Handler {
	h := &Handler{
		gate:      gate,
		hosts:     opts.Hosts,
		configure: opts.Configures,
		tracer:    opts.Tracer,
		logger:    opts.Logger,
	}
	if h.tracer == nil {
		h.tracer = noopTracer
	}
	if h.logger == nil {
		h.logger = logf.NewDisabledLogger()
	}
	return h
}

// ConfigureRequest is the body of POST /api/domains
type ConfigureRequest struct {
	Domain   string   `json:"domain"`             // Required: hostname to configure
	Cap      *float64 `json:"cap,omitempty"`      // Optional: defaults to the registry default cap
	PeriodMs *int64   `json:"periodMs,omitempty"` // Optional: defaults to the registry default period
}

// OKResponse acknowledges a successful configure
type OKResponse struct {
	OK bool `json:"ok"`
}

// CheckResponse is the body of GET /api/check
type CheckResponse struct {
	Allowed bool `json:"allowed"`
}

// StatusResponse is the body of GET /api/status
type StatusResponse struct {
	Status      string `json:"status"`
	BucketCount int    `json:"bucketCount"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Configure handles POST /api/domains
func (h *Handler) Configure(w http.ResponseWriter, r *http.Request) {
	var req ConfigureRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	domain := strings.ToLower(strings.TrimSpace(req.Domain))
	if domain == "" {
		sendError(w, http.StatusBadRequest, "domain is required")
		return
	}

	policy := h.gate.Defaults()
	if req.Cap != nil {
		policy.Capacity = *req.Cap
	}
	var err error
	if req.PeriodMs != nil {
		policy.Period, err = hostgate.PeriodFromMillis(*req.PeriodMs)
	}
	if err == nil {
		err = h.gate.ConfigurePolicy(domain, policy)
	}
	if h.configure != nil {
		h.configure.RecordConfigure(domain, err)
	}
	if err != nil {
		if !isClientError(err) {
			h.logger.Error("configure failed", logf.String("domain", domain), logf.Error(err))
			sendError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		h.logger.Debug("configure rejected", logf.String("domain", domain), logf.Error(err))
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	sendJSON(w, http.StatusOK, OKResponse{OK: true})
}

// Check handles GET /api/check?url=
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	_, span := h.tracer.Start(r.Context(), "hostgate.check")
	defer span.End()

	raw := r.URL.Query().Get("url")
	if raw == "" {
		span.SetStatus(codes.Error, "url is required")
		sendError(w, http.StatusBadRequest, "url is required")
		return
	}

	host, err := h.hosts.Resolve(raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, hostgate.ErrInvalidURL.Error())
		sendError(w, http.StatusBadRequest, hostgate.ErrInvalidURL.Error())
		return
	}

	decision := h.gate.Decide(host)
	span.SetAttributes(
		attribute.String("hostgate.domain", host),
		attribute.Bool("hostgate.allowed", decision.Allowed),
		attribute.Float64("hostgate.remaining", decision.Remaining),
	)

	if !decision.Allowed && decision.RetryAfter > 0 {
		w.Header().Set("Retry-After", retryAfterSeconds(decision.RetryAfter))
	}
	sendJSON(w, http.StatusOK, CheckResponse{Allowed: decision.Allowed})
}

// Status handles GET /api/status
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, http.StatusOK, StatusResponse{
		Status:      "ok",
		BucketCount: h.gate.Status().BucketCount,
	})
}

// Health handles GET /health
func Health(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "hostgate",
	})
}

// retryAfterSeconds rounds d up to whole seconds for the Retry-After header.
func retryAfterSeconds(d time.Duration) string {
	secs := int64((d + time.Second - 1) / time.Second)
	return strconv.FormatInt(secs, 10)
}

func sendJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

func sendError(w http.ResponseWriter, statusCode int, message string) {
	sendJSON(w, statusCode, ErrorResponse{Error: message})
}

// isClientError reports whether err was caused by the caller's input.
func isClientError(err error) bool {
	return errors.Is(err, hostgate.ErrInvalidConfig) ||
		errors.Is(err, hostgate.ErrInvalidKey) ||
		errors.Is(err, hostgate.ErrInvalidURL)
}
