package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/staffing/internal/domain/model"
	"github.com/okian/staffing/pkg/logger"
)

// MatchDependencies ranks candidates for a project.
type MatchDependencies interface {
	Match(ctx context.Context, req model.MatchRequest) (model.MatchResult, error)
}

// MatchHandler handles match requests.
type MatchHandler struct {
	deps         MatchDependencies
	defaultLimit int
	maxLimit     int
	logger       logger.Logger
}

// NewMatchHandler creates a new match handler.
func NewMatchHandler(deps MatchDependencies, defaultLimit, maxLimit int, l logger.Logger) *MatchHandler {
	return &MatchHandler{
		deps:         deps,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		logger:       l,
	}
}

// HandleMatch handles GET /match?project_id=&limit=&use_ai= requests.
func (h *MatchHandler) HandleMatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.match"
	q := r.URL.Query()

	projectID := strings.TrimSpace(q.Get("project_id"))
	if projectID == "" {
		writeError(r.Context(), h.logger, w, WrapKind(op, ErrBadRequest, errors.New("missing project_id")))
		return
	}

	limit := h.defaultLimit
	if s := strings.TrimSpace(q.Get("limit")); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(r.Context(), h.logger, w, WrapKind(op, ErrBadRequest, errors.New("limit must be a positive integer")))
			return
		}
		if n > h.maxLimit {
			writeError(r.Context(), h.logger, w, WrapKind(op, ErrLimitExceeded, fmt.Errorf("limit must be at most %d", h.maxLimit)))
			return
		}
		limit = n
	}

	res, err := h.deps.Match(r.Context(), model.MatchRequest{
		ProjectID: projectID,
		Limit:     limit,
		UseAI:     truthy(q.Get("use_ai")),
		Filter: model.EmployeeQuery{
			Query: q.Get("q"),
			Role:  q.Get("role"),
			Skill: q.Get("skill"),
		},
	})
	if err != nil {
		writeError(r.Context(), h.logger, w, Wrap(op, err))
		return
	}
	if res.Candidates == nil {
		res.Candidates = []model.Candidate{}
	}
	writeJSON(w, http.StatusOK, res)
}

// truthy accepts 1, true and yes in any case.
func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
