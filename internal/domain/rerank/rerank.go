// Package rerank applies an optional AI ordering on top of the deterministic
// ranking. The AI stage may reorder candidates and attach reasons but never
// changes scores, and any failure falls back to the deterministic order.
package rerank

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/okian/staffing/internal/domain/model"
	"github.com/okian/staffing/pkg/logger"
	"github.com/okian/staffing/pkg/metrics"
)

// Default adapter configuration constants.
const (
	DefaultTimeout       = 8 * time.Second
	DefaultMaxCandidates = 15
	MaxReasonLength      = 180
	maxRetries           = 1
)

// Outcome tags which pipeline stage produced a Result.
type Outcome int

const (
	// Ranked is the deterministic order from the ranker.
	Ranked Outcome = iota
	// RankedWithAI is the order revised by the AI stage.
	RankedWithAI
)

func (o Outcome) String() string {
	if o == RankedWithAI {
		return "ranked_with_ai"
	}
	return "ranked"
}

// Request is what the AI service sees: the project and the top candidates.
type Request struct {
	Project    model.Project
	Candidates []model.Candidate
}

// Judgement is the AI service's verdict on one candidate. Rank is 1-based;
// zero means the service did not assign one.
type Judgement struct {
	CandidateID string
	Rank        int
	Reason      string
}

// Reranker is the AI re-rank service.
type Reranker interface {
	Rerank(ctx context.Context, req Request) ([]Judgement, error)
}

// Result is the output of Reorder. When Outcome is Ranked, Err explains why
// the AI stage was not applied (nil when it was not requested).
type Result struct {
	Outcome    Outcome
	Candidates []model.Candidate
	Err        error
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithTimeout bounds each call to the AI service.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithRetries sets how many times a failed call is retried. Only 0 and 1
// are accepted.
func WithRetries(n int) Option {
	return func(a *Adapter) {
		if n >= 0 && n <= maxRetries {
			a.retries = n
		}
	}
}

// WithMaxCandidates caps how many leading candidates are sent to the service.
func WithMaxCandidates(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.maxCandidates = n
		}
	}
}

// WithLogger sets the adapter logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// Adapter wraps a Reranker with timeout, retry and fallback policy.
type Adapter struct {
	reranker      Reranker
	timeout       time.Duration
	retries       int
	maxCandidates int
	logger        logger.Logger
}

// NewAdapter creates an adapter. A nil reranker yields an adapter that
// always returns the deterministic order.
func NewAdapter(r Reranker, opts ...Option) *Adapter {
	a := &Adapter{
		reranker:      r,
		timeout:       DefaultTimeout,
		maxCandidates: DefaultMaxCandidates,
		logger:        logger.Get().Named("rerank"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Enabled reports whether an AI service is configured.
func (a *Adapter) Enabled() bool { return a != nil && a.reranker != nil }

// Deterministic wraps a ranked list without consulting the AI service.
func Deterministic(candidates []model.Candidate) Result {
	return Result{Outcome: Ranked, Candidates: candidates}
}

// Reorder asks the AI service to revise the order of candidates. It never
// blocks longer than (retries+1) times the timeout and never fails: on any
// error the input order is returned with Err set.
func (a *Adapter) Reorder(ctx context.Context, p model.Project, candidates []model.Candidate) Result {
	if !a.Enabled() {
		metrics.RecordAIOutcome(metrics.AIOutcomeSkipped, "disabled")
		return a.fallback(candidates, ErrDisabled)
	}
	if len(candidates) == 0 {
		return Deterministic(candidates)
	}

	k := min(a.maxCandidates, len(candidates))
	head := candidates[:k]
	req := Request{Project: p, Candidates: slices.Clone(head)}

	var err error
	for attempt := 0; attempt <= a.retries; attempt++ {
		var judgements []Judgement
		judgements, err = a.call(ctx, req)
		if err == nil {
			err = validate(head, judgements)
		}
		if err == nil {
			metrics.RecordAIOutcome(metrics.AIOutcomeApplied, "ok")
			out := apply(head, judgements)
			out = append(out, candidates[k:]...)
			return Result{Outcome: RankedWithAI, Candidates: out}
		}
		a.logger.Warn(ctx, "ai re-rank attempt failed",
			logger.String("project_id", p.ID),
			logger.Int("attempt", attempt+1),
			logger.Error(err),
		)
		if ctx.Err() != nil {
			break
		}
	}

	metrics.RecordAIOutcome(metrics.AIOutcomeFallback, failureReason(err))
	return a.fallback(candidates, err)
}

func (a *Adapter) call(ctx context.Context, req Request) ([]Judgement, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.RecordAILatency(float64(time.Since(start).Milliseconds()))
	}()

	type reply struct {
		judgements []Judgement
		err        error
	}
	done := make(chan reply, 1)
	go func() {
		j, err := a.reranker.Rerank(callCtx, req)
		done <- reply{j, err}
	}()

	// A reranker that ignores its context must not hold the request.
	select {
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		return r.judgements, nil
	case <-callCtx.Done():
		return nil, fmt.Errorf("ai re-rank: %w", callCtx.Err())
	}
}

func (a *Adapter) fallback(candidates []model.Candidate, err error) Result {
	out := make([]model.Candidate, len(candidates))
	for i, c := range candidates {
		c.AIReason = ""
		out[i] = c
	}
	return Result{
		Outcome:    Ranked,
		Candidates: out,
		Err:        fmt.Errorf("%w: %w", model.ErrExternalServiceDegraded, err),
	}
}

// validate checks that judgements cover exactly the sent candidates.
func validate(sent []model.Candidate, judgements []Judgement) error {
	want := make(map[string]struct{}, len(sent))
	for _, c := range sent {
		want[c.ID] = struct{}{}
	}
	seen := make(map[string]struct{}, len(judgements))
	for _, j := range judgements {
		if _, ok := want[j.CandidateID]; !ok {
			return fmt.Errorf("%w: unknown candidate %q", ErrMalformedResponse, j.CandidateID)
		}
		if _, dup := seen[j.CandidateID]; dup {
			return fmt.Errorf("%w: duplicate candidate %q", ErrMalformedResponse, j.CandidateID)
		}
		if strings.TrimSpace(j.Reason) == "" {
			return fmt.Errorf("%w: empty reason for %q", ErrMalformedResponse, j.CandidateID)
		}
		if j.Rank < 0 {
			return fmt.Errorf("%w: negative rank for %q", ErrMalformedResponse, j.CandidateID)
		}
		seen[j.CandidateID] = struct{}{}
	}
	if len(seen) != len(want) {
		return fmt.Errorf("%w: %d of %d candidates judged", ErrMalformedResponse, len(seen), len(want))
	}
	return nil
}

// apply reorders sent by judgement rank and attaches reasons. A candidate
// without a rank keeps its deterministic position; equal keys keep the
// deterministic order.
func apply(sent []model.Candidate, judgements []Judgement) []model.Candidate {
	byID := make(map[string]Judgement, len(judgements))
	for _, j := range judgements {
		byID[j.CandidateID] = j
	}

	type keyed struct {
		key int
		c   model.Candidate
	}
	items := make([]keyed, len(sent))
	for i, c := range sent {
		j := byID[c.ID]
		key := i + 1
		if j.Rank > 0 {
			key = j.Rank
		}
		c.AIReason = TruncateReason(j.Reason)
		items[i] = keyed{key: key, c: c}
	}
	slices.SortStableFunc(items, func(a, b keyed) int { return a.key - b.key })

	out := make([]model.Candidate, len(items))
	for i, it := range items {
		out[i] = it.c
	}
	return out
}

// TruncateReason collapses whitespace and cuts s to MaxReasonLength runes.
func TruncateReason(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= MaxReasonLength {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:MaxReasonLength-1])) + "…"
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	default:
		return "error"
	}
}
