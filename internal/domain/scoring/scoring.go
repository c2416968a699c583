// Package scoring computes the deterministic fit of one employee for one project.
package scoring

import (
	"math"
	"strings"

	"github.com/okian/staffing/internal/domain/model"
)

// Default scoring configuration constants.
const (
	DefaultAvailabilityBonus = 0.05
	maxScoreValue            = 1.0
)

// Option applies a configuration option to the Matcher.
type Option func(*Matcher)

// WithAvailabilityBonus sets the bonus added for employees with at least one
// availability date. Negative values are ignored.
func WithAvailabilityBonus(bonus float64) Option {
	return func(m *Matcher) {
		if bonus >= 0 && !math.IsNaN(bonus) {
			m.availabilityBonus = bonus
		}
	}
}

// Result contains the computed score for one employee.
type Result struct {
	Score         float64
	MatchedSkills []string
}

// Matcher scores employees against project requirements. It holds no mutable
// state and is safe for concurrent use.
type Matcher struct {
	availabilityBonus float64
}

// NewMatcher creates a matcher with configuration options.
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{
		availabilityBonus: DefaultAvailabilityBonus,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AvailabilityBonus returns the configured bonus before capping.
func (m *Matcher) AvailabilityBonus() float64 { return m.availabilityBonus }

// Score returns the coverage of the project's required skills by the
// employee's skills, plus the availability bonus.
//
// Matched skills follow the project's requirement order and use the
// employee's spelling. Projects without requirements score 0.
func (m *Matcher) Score(e model.Employee, p model.Project) Result {
	required := distinctKeys(p.RequiredSkills)
	if len(required) == 0 {
		return Result{Score: 0, MatchedSkills: []string{}}
	}

	have := make(map[string]string, len(e.Skills))
	for _, s := range e.Skills {
		k := model.SkillKey(s)
		if k == "" {
			continue
		}
		if _, ok := have[k]; !ok {
			have[k] = strings.TrimSpace(s)
		}
	}

	matched := make([]string, 0, len(required))
	for _, k := range required {
		if spelled, ok := have[k]; ok {
			matched = append(matched, spelled)
		}
	}

	score := float64(len(matched)) / float64(len(required))
	if len(matched) > 0 && len(e.AvailabilityDates) > 0 {
		// capped below one requirement step so the bonus only breaks ties
		score += math.Min(m.availabilityBonus, 1/(2*float64(len(required))))
	}

	// At full coverage the clamp absorbs the bonus; ties fall to the ranker.
	return Result{
		Score:         math.Max(0, math.Min(maxScoreValue, score)),
		MatchedSkills: matched,
	}
}

func distinctKeys(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		k := model.SkillKey(s)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
