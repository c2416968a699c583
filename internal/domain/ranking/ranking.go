// Package ranking orders employees by their fit for a project.
package ranking

import (
	"fmt"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/okian/staffing/internal/domain/model"
	"github.com/okian/staffing/internal/domain/scoring"
)

// minChunk is the smallest slice of employees handed to one goroutine.
const minChunk = 256

// Scorer scores one employee against one project.
type Scorer interface {
	Score(e model.Employee, p model.Project) scoring.Result
}

// Option configures a Ranker.
type Option func(*Ranker)

// WithParallelism bounds the number of goroutines used to score a pool.
// Values below 1 are ignored.
func WithParallelism(n int) Option {
	return func(r *Ranker) {
		if n > 0 {
			r.parallelism = n
		}
	}
}

// Ranker runs a Scorer over an employee pool and keeps the best N.
type Ranker struct {
	scorer      Scorer
	parallelism int
}

// NewRanker creates a ranker around the given scorer.
func NewRanker(scorer Scorer, opts ...Option) *Ranker {
	r := &Ranker{
		scorer:      scorer,
		parallelism: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank scores every employee for the project, drops those with no matched
// skill and returns at most topN candidates, best first.
func (r *Ranker) Rank(p model.Project, employees []model.Employee, topN int) ([]model.Candidate, error) {
	if topN < 1 {
		return nil, fmt.Errorf("%w: top N must be at least 1, got %d", model.ErrInvalidInput, topN)
	}

	scored := r.scoreAll(p, employees)

	out := make([]model.Candidate, 0, len(scored))
	for _, c := range scored {
		if len(c.MatchedSkills) > 0 {
			out = append(out, c)
		}
	}

	slices.SortFunc(out, Compare)
	if len(out) > topN {
		out = out[:topN]
	}
	return out, nil
}

// Compare orders candidates by score desc, matched count desc, name asc and
// id asc. It is a total order over distinct ids.
func Compare(a, b model.Candidate) int {
	switch {
	case a.Score > b.Score:
		return -1
	case a.Score < b.Score:
		return 1
	}
	if d := len(b.MatchedSkills) - len(a.MatchedSkills); d != 0 {
		return d
	}
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

func (r *Ranker) scoreAll(p model.Project, employees []model.Employee) []model.Candidate {
	out := make([]model.Candidate, len(employees))
	score := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			res := r.scorer.Score(employees[i], p)
			out[i] = model.NewCandidate(employees[i], res.Score, res.MatchedSkills)
		}
	}

	workers := min(r.parallelism, (len(employees)+minChunk-1)/minChunk)
	if workers <= 1 {
		score(0, len(employees))
		return out
	}

	chunk := (len(employees) + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < len(employees); lo += chunk {
		hi := min(lo+chunk, len(employees))
		wg.Add(1)
		go func() {
			defer wg.Done()
			score(lo, hi)
		}()
	}
	wg.Wait()
	return out
}
