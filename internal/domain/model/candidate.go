package model

// Candidate is an employee scored against one project. Built per matching
// request and never stored.
type Candidate struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Role              string   `json:"role,omitempty"`
	Score             float64  `json:"score"`
	MatchedSkills     []string `json:"matched_skills"`
	Availability      string   `json:"availability,omitempty"`
	AvailabilityDates []Date   `json:"availability_dates"`
	AIReason          string   `json:"ai_reason,omitempty"`
}

// NewCandidate projects an employee into a candidate.
func NewCandidate(e Employee, score float64, matched []string) Candidate {
	dates := e.AvailabilityDates
	if dates == nil {
		dates = []Date{}
	}
	if matched == nil {
		matched = []string{}
	}
	return Candidate{
		ID:                e.ID,
		Name:              e.Name,
		Role:              e.Role,
		Score:             score,
		MatchedSkills:     matched,
		Availability:      e.Availability,
		AvailabilityDates: dates,
	}
}
