package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/okian/staffing/internal/domain/rerank"
	"github.com/okian/staffing/pkg/logger"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

// Reranker asks Gemini to revise a candidate order.
type Reranker struct {
	generator contentGenerator
	logger    logger.Logger
	maxLogLen int
}

// NewReranker creates a Reranker over the given generator.
func NewReranker(generator contentGenerator, l logger.Logger) *Reranker {
	if l == nil {
		l = logger.Get().Named("gemini")
	}
	return &Reranker{generator: generator, logger: l, maxLogLen: defaultMaxLogLength}
}

type projectPayload struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	RequiredSkills []string `json:"required_skills"`
	Description    string   `json:"description,omitempty"`
	Priority       string   `json:"priority,omitempty"`
	StartDate      string   `json:"start_date,omitempty"`
	EndDate        string   `json:"end_date,omitempty"`
}

type candidatePayload struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Role              string   `json:"role,omitempty"`
	MatchedSkills     []string `json:"matched_skills"`
	AvailabilityDates []string `json:"availability_dates"`
	Availability      string   `json:"availability,omitempty"`
	Score             float64  `json:"score"`
}

type response struct {
	Results []struct {
		ID     json.RawMessage `json:"id"`
		Rank   json.Number     `json:"rank"`
		Reason string          `json:"reason"`
	} `json:"results"`
}

// Rerank implements rerank.Reranker.
func (r *Reranker) Rerank(ctx context.Context, req rerank.Request) ([]rerank.Judgement, error) {
	prompt, err := buildPrompt(req)
	if err != nil {
		return nil, err
	}

	r.logger.Debug(ctx, "gemini generate content request",
		logger.String("project_id", req.Project.ID),
		logger.Int("candidates", len(req.Candidates)),
		logger.Int("prompt_length", utf8.RuneCountInString(prompt)),
	)

	raw, err := r.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	r.logger.Debug(ctx, "gemini generate content response",
		logger.String("project_id", req.Project.ID),
		logger.Int("response_length", utf8.RuneCountInString(raw)),
		logger.String("response_preview", truncateForLog(raw, r.maxLogLen)),
	)

	return parseResponse(raw)
}

func buildPrompt(req rerank.Request) (string, error) {
	p := req.Project
	pp := projectPayload{
		ID:             p.ID,
		Name:           p.Name,
		RequiredSkills: p.RequiredSkills,
		Description:    p.Description,
		Priority:       string(p.Priority),
	}
	if p.StartDate != nil {
		pp.StartDate = p.StartDate.String()
	}
	if p.EndDate != nil {
		pp.EndDate = p.EndDate.String()
	}

	cs := make([]candidatePayload, 0, len(req.Candidates))
	for _, c := range req.Candidates {
		dates := make([]string, 0, len(c.AvailabilityDates))
		for _, d := range c.AvailabilityDates {
			dates = append(dates, d.String())
		}
		cs = append(cs, candidatePayload{
			ID:                c.ID,
			Name:              c.Name,
			Role:              c.Role,
			MatchedSkills:     c.MatchedSkills,
			AvailabilityDates: dates,
			Availability:      c.Availability,
			Score:             c.Score,
		})
	}

	projectJSON, err := json.MarshalIndent(pp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal project payload: %w", err)
	}
	candidatesJSON, err := json.MarshalIndent(cs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal candidates payload: %w", err)
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{PROJECT_JSON}}", string(projectJSON))
	prompt = strings.ReplaceAll(prompt, "{{CANDIDATES_JSON}}", string(candidatesJSON))
	return prompt, nil
}

func parseResponse(raw string) ([]rerank.Judgement, error) {
	cleaned := extractJSON(raw)

	var data response
	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: parse gemini response: %w", rerank.ErrMalformedResponse, err)
	}
	if data.Results == nil {
		return nil, fmt.Errorf("%w: missing results", rerank.ErrMalformedResponse)
	}

	out := make([]rerank.Judgement, 0, len(data.Results))
	for _, item := range data.Results {
		id, err := coerceID(item.ID)
		if err != nil {
			return nil, err
		}
		rank := 0
		if item.Rank != "" {
			n, err := item.Rank.Int64()
			if err != nil {
				return nil, fmt.Errorf("%w: rank %q for %s", rerank.ErrMalformedResponse, item.Rank, id)
			}
			rank = int(n)
		}
		out = append(out, rerank.Judgement{
			CandidateID: id,
			Rank:        rank,
			Reason:      strings.TrimSpace(item.Reason),
		})
	}
	return out, nil
}

// coerceID accepts ids sent back as strings or bare numbers.
func coerceID(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("%w: id %s", rerank.ErrMalformedResponse, string(raw))
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func truncateForLog(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

var _ rerank.Reranker = (*Reranker)(nil)

var _ contentGenerator = (*Generator)(nil)
