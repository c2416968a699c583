// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite database file. ":memory:" keeps everything in-process.
	DBPath string `koanf:"db_path"`

	// SeedFile optionally points at a YAML file of employees and projects
	// loaded at startup.
	SeedFile string `koanf:"seed_file"`

	// DefaultMatchLimit is used when /match has no limit parameter.
	DefaultMatchLimit int `koanf:"default_match_limit"`

	// MaxMatchLimit caps /match?limit.
	MaxMatchLimit int `koanf:"max_match_limit"`

	// AvailabilityBonus is added to the score of matched employees that
	// list availability dates.
	AvailabilityBonus float64 `koanf:"availability_bonus"`

	// RankParallelism bounds the goroutines scoring one match request.
	RankParallelism int `koanf:"rank_parallelism"`

	// AIEnabled turns on the Gemini re-ranking stage.
	AIEnabled bool `koanf:"ai_enabled"`

	// GeminiAPIKey authenticates against the Gemini API.
	GeminiAPIKey string `koanf:"gemini_api_key"`

	// GeminiModel names the model used for re-ranking.
	GeminiModel string `koanf:"gemini_model"`

	// AITimeoutMS bounds a single re-rank attempt.
	AITimeoutMS int `koanf:"ai_timeout_ms"`

	// AIRetries is the number of extra re-rank attempts, 0 or 1.
	AIRetries int `koanf:"ai_retries"`

	// AIMaxCandidates caps how many candidates are sent for re-ranking.
	AIMaxCandidates int `koanf:"ai_max_candidates"`

	// AuditQueueSize bounds the in-memory audit event queue.
	AuditQueueSize int `koanf:"audit_queue_size"`

	// AuditWorkerCount sets the number of audit workers.
	AuditWorkerCount int `koanf:"audit_worker_count"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		DBPath:            "staffing.db",
		DefaultMatchLimit: 5,
		MaxMatchLimit:     50,
		AvailabilityBonus: 0.05,
		RankParallelism:   runtime.NumCPU(),
		GeminiModel:       "gemini-2.5-flash",
		AITimeoutMS:       8000,
		AIRetries:         1,
		AIMaxCandidates:   15,
		AuditQueueSize:    1024,
		AuditWorkerCount:  2,
	}
}

// AITimeout returns AITimeoutMS as a duration.
func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AITimeoutMS) * time.Millisecond
}

// AIActive reports whether re-ranking can run: it is enabled and a key is set.
func (c *Config) AIActive() bool {
	return c.AIEnabled && strings.TrimSpace(c.GeminiAPIKey) != ""
}

// Validate checks value ranges. Every failure wraps ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.DBPath) == "":
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	case c.MaxMatchLimit < 1:
		return fmt.Errorf("%w: max_match_limit must be positive", ErrInvalidConfig)
	case c.DefaultMatchLimit < 1 || c.DefaultMatchLimit > c.MaxMatchLimit:
		return fmt.Errorf("%w: default_match_limit must be between 1 and max_match_limit", ErrInvalidConfig)
	case c.AvailabilityBonus < 0 || c.AvailabilityBonus > 1:
		return fmt.Errorf("%w: availability_bonus must be within [0,1]", ErrInvalidConfig)
	case c.RankParallelism < 1:
		return fmt.Errorf("%w: rank_parallelism must be positive", ErrInvalidConfig)
	case c.AITimeoutMS < 1:
		return fmt.Errorf("%w: ai_timeout_ms must be positive", ErrInvalidConfig)
	case c.AIRetries < 0 || c.AIRetries > 1:
		return fmt.Errorf("%w: ai_retries must be 0 or 1", ErrInvalidConfig)
	case c.AIMaxCandidates < 1:
		return fmt.Errorf("%w: ai_max_candidates must be positive", ErrInvalidConfig)
	case c.AuditQueueSize < 1:
		return fmt.Errorf("%w: audit_queue_size must be positive", ErrInvalidConfig)
	case c.AuditWorkerCount < 1:
		return fmt.Errorf("%w: audit_worker_count must be positive", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	}
	return nil
}
