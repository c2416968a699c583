// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	eventqueue "github.com/okian/staffing/internal/adapters/mq/queue"
	workerpool "github.com/okian/staffing/internal/adapters/mq/worker"
	"github.com/okian/staffing/internal/adapters/repository/sqlite"
	"github.com/okian/staffing/internal/domain/ledger"
	"github.com/okian/staffing/internal/domain/model"
	"github.com/okian/staffing/internal/domain/ranking"
	"github.com/okian/staffing/internal/domain/rerank"
	"github.com/okian/staffing/internal/domain/scoring"
	"github.com/okian/staffing/internal/seed"
	"github.com/okian/staffing/pkg/logger"
	"github.com/okian/staffing/pkg/metrics"
)

// EmployeeDirectory is the read side of the employee store.
type EmployeeDirectory interface {
	ListEmployees(ctx context.Context, q model.EmployeeQuery) ([]model.Employee, error)
	GetEmployee(ctx context.Context, id string) (model.Employee, error)
}

// ProjectCatalog is the read side of the project store.
type ProjectCatalog interface {
	GetProject(ctx context.Context, id string) (model.Project, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
}

// Service implements the API dependencies for the staffing engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	db          *sqlite.DB
	employees   *sqlite.EmployeeRepository
	projects    *sqlite.ProjectRepository
	allocations *sqlite.AllocationRepository
	audit       *sqlite.AuditRepository
	ranker      *ranking.Ranker
	reranker    *rerank.Adapter
	ledger      *ledger.Ledger
	eventQueue  *eventqueue.InMemoryQueue
	workerPool  *workerpool.Pool

	// Configuration
	dbPath            string
	seedFile          string
	availabilityBonus float64
	rankParallelism   int
	aiClient          rerank.Reranker
	aiTimeout         time.Duration
	aiRetries         int
	aiMaxCandidates   int
	queueSize         int
	workerCount       int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDBPath sets the SQLite database path.
func WithDBPath(path string) Option {
	return func(s *Service) {
		if strings.TrimSpace(path) != "" {
			s.dbPath = path
		}
	}
}

// WithSeedFile loads employees and projects from a YAML file at start.
func WithSeedFile(path string) Option {
	return func(s *Service) {
		s.seedFile = strings.TrimSpace(path)
	}
}

// WithAvailabilityBonus sets the matcher's availability bonus.
func WithAvailabilityBonus(bonus float64) Option {
	return func(s *Service) {
		if bonus >= 0 {
			s.availabilityBonus = bonus
		}
	}
}

// WithRankParallelism bounds the goroutines used to score one request.
func WithRankParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.rankParallelism = n
		}
	}
}

// WithReranker enables the AI re-ranking stage.
func WithReranker(r rerank.Reranker) Option {
	return func(s *Service) {
		s.aiClient = r
	}
}

// WithAITimeout bounds a single re-rank attempt.
func WithAITimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.aiTimeout = d
		}
	}
}

// WithAIRetries sets the number of extra re-rank attempts.
func WithAIRetries(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.aiRetries = n
		}
	}
}

// WithAIMaxCandidates caps how many candidates are sent for re-ranking.
func WithAIMaxCandidates(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.aiMaxCandidates = n
		}
	}
}

// WithQueueSize sets the capacity of the audit event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of audit workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dbPath:            "staffing.db",
		availabilityBonus: scoring.DefaultAvailabilityBonus,
		rankParallelism:   runtime.NumCPU(),
		aiTimeout:         rerank.DefaultTimeout,
		aiRetries:         1,
		aiMaxCandidates:   rerank.DefaultMaxCandidates,
		queueSize:         1024,
		workerCount:       2,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start opens the database, applies the seed file and starts the audit workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting staffing service...", logger.String("db_path", s.dbPath))

	db, err := sqlite.New(s.dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.RunMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("migrate database: %w", err)
	}

	s.db = db
	s.employees = sqlite.NewEmployeeRepository(db)
	s.projects = sqlite.NewProjectRepository(db)
	s.allocations = sqlite.NewAllocationRepository(db)
	s.audit = sqlite.NewAuditRepository(db)

	if s.seedFile != "" {
		f, err := seed.Load(s.seedFile)
		if err != nil {
			_ = db.Close()
			return fmt.Errorf("load seed: %w", err)
		}
		res, err := seed.Apply(ctx, f, s.employees, s.projects)
		if err != nil {
			_ = db.Close()
			return fmt.Errorf("apply seed: %w", err)
		}
		s.logger.Info(ctx, "seed applied",
			logger.String("file", s.seedFile),
			logger.Int("employees", res.Employees),
			logger.Int("projects", res.Projects),
		)
	}

	s.ranker = ranking.NewRanker(
		scoring.NewMatcher(scoring.WithAvailabilityBonus(s.availabilityBonus)),
		ranking.WithParallelism(s.rankParallelism),
	)
	s.reranker = rerank.NewAdapter(s.aiClient,
		rerank.WithTimeout(s.aiTimeout),
		rerank.WithRetries(s.aiRetries),
		rerank.WithMaxCandidates(s.aiMaxCandidates),
	)

	s.eventQueue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.eventQueue, s.audit)
	// Workers run detached from the start context and stop through Stop.
	s.workerPool.Start(context.WithoutCancel(ctx))

	s.ledger = ledger.New(s.allocations, s.employees, s.projects,
		ledger.WithPublisher(s.eventQueue),
	)

	if active, err := s.allocations.CountAllActive(ctx); err == nil {
		metrics.UpdateActiveAllocations(active)
	}

	s.started = true
	s.logger.Info(ctx, "staffing service started",
		logger.Int("workers", s.workerPool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Bool("ai", s.reranker.Enabled()),
	)

	return nil
}

// Stop drains the audit queue and closes the database.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping staffing service...")

	var errs []error
	if err := s.workerPool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}

	s.started = false
	s.logger.Info(ctx, "staffing service stopped")
	return errors.Join(errs...)
}

// Seed writes a parsed seed file through the directory and catalog.
func (s *Service) Seed(ctx context.Context, f *seed.File) (seed.Result, error) {
	if err := s.ready(); err != nil {
		return seed.Result{}, err
	}
	return seed.Apply(ctx, f, s.employees, s.projects)
}

// Match ranks employees for a project and optionally re-ranks the head
// with the AI service. AI failures never surface: the deterministic order
// is returned instead.
func (s *Service) Match(ctx context.Context, req model.MatchRequest) (model.MatchResult, error) {
	if err := s.ready(); err != nil {
		return model.MatchResult{}, err
	}

	start := time.Now()
	res, err := s.match(ctx, req)
	metrics.RecordMatchLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordMatchRequest("error")
		return model.MatchResult{}, err
	}
	metrics.RecordMatchRequest("ok")
	metrics.RecordCandidatesReturned(len(res.Candidates))
	return res, nil
}

func (s *Service) match(ctx context.Context, req model.MatchRequest) (model.MatchResult, error) {
	projectID := strings.TrimSpace(req.ProjectID)
	if projectID == "" {
		return model.MatchResult{}, fmt.Errorf("%w: project_id is required", model.ErrInvalidInput)
	}
	if req.Limit < 1 {
		return model.MatchResult{}, fmt.Errorf("%w: limit must be positive", model.ErrInvalidInput)
	}

	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return model.MatchResult{}, err
	}

	pool, err := s.employees.ListEmployees(ctx, req.Filter)
	if err != nil {
		return model.MatchResult{}, fmt.Errorf("list employees: %w", err)
	}
	metrics.UpdatePoolSize(len(pool))

	candidates, err := s.ranker.Rank(project, pool, req.Limit)
	if err != nil {
		return model.MatchResult{}, err
	}

	result := rerank.Deterministic(candidates)
	if req.UseAI {
		result = s.reranker.Reorder(ctx, project, candidates)
		if result.Err != nil && !errors.Is(result.Err, rerank.ErrDisabled) {
			s.logger.Warn(ctx, "ai re-rank degraded, returning deterministic order",
				logger.String("project_id", project.ID),
				logger.Error(result.Err),
			)
		}
	}

	return model.MatchResult{
		Project:    project,
		Candidates: result.Candidates,
		AIApplied:  result.Outcome == rerank.RankedWithAI,
	}, nil
}

// Allocate assigns an employee to a project.
func (s *Service) Allocate(ctx context.Context, employeeID, projectID string) (model.Allocation, error) {
	if err := s.ready(); err != nil {
		return model.Allocation{}, err
	}
	return s.ledger.Allocate(ctx, employeeID, projectID)
}

// RemoveAllocation cancels an active allocation.
func (s *Service) RemoveAllocation(ctx context.Context, id string) (model.Allocation, error) {
	if err := s.ready(); err != nil {
		return model.Allocation{}, err
	}
	return s.ledger.Remove(ctx, id)
}

// GetAllocation returns one allocation.
func (s *Service) GetAllocation(ctx context.Context, id string) (model.Allocation, error) {
	if err := s.ready(); err != nil {
		return model.Allocation{}, err
	}
	return s.ledger.Get(ctx, id)
}

// ListAllocations returns allocations matching the filter, newest first.
func (s *Service) ListAllocations(ctx context.Context, f ledger.Filter) ([]model.Allocation, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.ledger.List(ctx, f)
}

// AllocationHistory returns the audit events of one allocation, oldest
// first. Events are written asynchronously and may lag the mutation.
func (s *Service) AllocationHistory(ctx context.Context, id string) ([]model.AllocationEvent, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if _, err := s.ledger.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.audit.ListByAllocation(ctx, strings.TrimSpace(id))
}

// ListEmployees returns employees matching the query.
func (s *Service) ListEmployees(ctx context.Context, q model.EmployeeQuery) ([]model.Employee, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.employees.ListEmployees(ctx, q)
}

// ListProjects returns all projects, newest first.
func (s *Service) ListProjects(ctx context.Context) ([]model.Project, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.projects.ListProjects(ctx)
}

// AIEnabled reports whether a re-ranker is configured.
func (s *Service) AIEnabled() bool {
	return s.aiClient != nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"aiEnabled":   s.aiClient != nil,
	}

	if s.started {
		queueLen := s.eventQueue.Len(ctx)
		stats["queueLength"] = queueLen

		if n, err := s.employees.Count(ctx); err == nil {
			stats["totalEmployees"] = n
		}
		if ps, err := s.projects.ListProjects(ctx); err == nil {
			stats["totalProjects"] = len(ps)
		}
		if n, err := s.allocations.CountAllActive(ctx); err == nil {
			stats["activeAllocations"] = n
			metrics.UpdateActiveAllocations(n)
		}
	}

	return stats
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}
