package model

// MatchRequest asks for the best employees for one project.
type MatchRequest struct {
	ProjectID string
	Limit     int
	UseAI     bool
	// Filter narrows the employee pool before scoring.
	Filter EmployeeQuery
}

// MatchResult is a ranked candidate list.
type MatchResult struct {
	Project    Project     `json:"project"`
	AIApplied  bool        `json:"ai_applied"`
	Candidates []Candidate `json:"candidates"`
}
