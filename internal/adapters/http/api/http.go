// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/staffing/pkg/logger"
	"github.com/okian/staffing/pkg/metrics"
)

// Default limits for /match.
const (
	defaultMatchLimit = 5
	defaultMaxLimit   = 50
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	MatchDependencies
	AllocationDependencies
	DirectoryDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	matchHandler       *MatchHandler
	allocationsHandler *AllocationsHandler
	directoryHandler   *DirectoryHandler

	logger logger.Logger
}

// Option configures a Server.
type Option func(*serverOptions)

type serverOptions struct {
	defaultLimit int
	maxLimit     int
	logger       logger.Logger
}

// WithMatchLimits sets the default and maximum /match limit.
func WithMatchLimits(def, max int) Option {
	return func(o *serverOptions) {
		if max > 0 {
			o.maxLimit = max
		}
		if def > 0 {
			o.defaultLimit = def
		}
	}
}

// WithLogger sets the logger used for internal errors.
func WithLogger(l logger.Logger) Option {
	return func(o *serverOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := serverOptions{defaultLimit: defaultMatchLimit, maxLimit: defaultMaxLimit}
	for _, opt := range opts {
		opt(&o)
	}
	if o.defaultLimit > o.maxLimit {
		o.defaultLimit = o.maxLimit
	}
	if o.logger == nil {
		o.logger = logger.Get().Named("api")
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		matchHandler:       NewMatchHandler(deps, o.defaultLimit, o.maxLimit, o.logger),
		allocationsHandler: NewAllocationsHandler(deps, o.logger),
		directoryHandler:   NewDirectoryHandler(deps, o.logger),
		logger:             o.logger,
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Use(middleware.Recoverer)

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	r.Get("/match", MetricsMiddleware(s.matchHandler.HandleMatch, "match"))
	r.Get("/employees", MetricsMiddleware(s.directoryHandler.HandleListEmployees, "employees"))
	r.Get("/projects", MetricsMiddleware(s.directoryHandler.HandleListProjects, "projects"))

	// /hr_allocation is kept as an alias of /allocations.
	for _, prefix := range []string{"/allocations", "/hr_allocation"} {
		r.Route(prefix, func(r chi.Router) {
			r.Get("/", MetricsMiddleware(s.allocationsHandler.HandleList, "allocations"))
			r.Post("/", MetricsMiddleware(s.allocationsHandler.HandleCreate, "allocations"))
			r.Get("/{id}", MetricsMiddleware(s.allocationsHandler.HandleGet, "allocation"))
			r.Delete("/{id}", MetricsMiddleware(s.allocationsHandler.HandleDelete, "allocation"))
			r.Get("/{id}/history", MetricsMiddleware(s.allocationsHandler.HandleHistory, "allocation_history"))
		})
	}
}

// Router builds a chi router with every route registered.
func (s *Server) Router(ctx context.Context) *chi.Mux {
	r := chi.NewRouter()
	s.Register(ctx, r)
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type listResponse[T any] struct {
	Data []T `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError classifies err and writes the error body. Internal errors are
// logged and their detail withheld from the client.
func writeError(ctx context.Context, l logger.Logger, w http.ResponseWriter, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		l.Error(ctx, "request failed", logger.Error(err))
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
