package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/staffing/internal/adapters/ai/gemini"
	"github.com/okian/staffing/internal/adapters/http/api"
	"github.com/okian/staffing/internal/adapters/http/swagger"
	app "github.com/okian/staffing/internal/app"
	"github.com/okian/staffing/internal/config"
	"github.com/okian/staffing/pkg/logger"
	"github.com/okian/staffing/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

// Compile-time check that the service satisfies the handler contracts.
var _ api.Dependencies = (*app.Service)(nil)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := newService(ctx, cfg, log)
	if err != nil {
		log.Fatal(ctx, "failed to build service", logger.Error(err))
	}
	if err := svc.Start(ctx); err != nil {
		log.Fatal(ctx, "failed to start service", logger.Error(err))
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	// WriteTimeout must outlast a match with both AI attempts.
	writeTimeout := time.Duration(cfg.AIRetries+1)*cfg.AITimeout() + readTimeout
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "service shutdown failed", logger.Error(err))
	}

	log.Info(shutdownCtx, "server stopped")
}

// newService builds the service from configuration. The Gemini re-ranker
// is attached only when AI is enabled and an API key is present.
func newService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, error) {
	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithDBPath(cfg.DBPath),
		app.WithSeedFile(cfg.SeedFile),
		app.WithAvailabilityBonus(cfg.AvailabilityBonus),
		app.WithRankParallelism(cfg.RankParallelism),
		app.WithAITimeout(cfg.AITimeout()),
		app.WithAIRetries(cfg.AIRetries),
		app.WithAIMaxCandidates(cfg.AIMaxCandidates),
		app.WithQueueSize(cfg.AuditQueueSize),
		app.WithWorkerCount(cfg.AuditWorkerCount),
	}

	switch {
	case cfg.AIActive():
		gen, err := gemini.NewGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		opts = append(opts, app.WithReranker(gemini.NewReranker(gen, log.Named("gemini"))))
		log.Info(ctx, "ai re-ranking enabled", logger.String("model", gen.Model()))
	case cfg.AIEnabled:
		log.Warn(ctx, "ai_enabled is set but gemini_api_key is empty; re-ranking disabled")
	}

	return app.New(opts...), nil
}

// newHandler registers the business API and docs routes on one router.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service) http.Handler {
	r := chi.NewRouter()
	apiServer := api.NewServer(svc, svc,
		api.WithMatchLimits(cfg.DefaultMatchLimit, cfg.MaxMatchLimit),
		api.WithLogger(logger.Named("api")),
	)
	apiServer.Register(ctx, r)
	swagger.Register(ctx, r)
	return r
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics refreshes gauges derived from service stats.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()

	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
	if active, ok := stats["activeAllocations"].(int); ok {
		metrics.UpdateActiveAllocations(active)
	}
}
