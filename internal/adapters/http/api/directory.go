package api

import (
	"context"
	"net/http"

	"github.com/okian/staffing/internal/domain/model"
	"github.com/okian/staffing/pkg/logger"
)

// DirectoryDependencies exposes the read-only employee and project listings.
type DirectoryDependencies interface {
	ListEmployees(ctx context.Context, q model.EmployeeQuery) ([]model.Employee, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
}

// DirectoryHandler handles employee and project listings.
type DirectoryHandler struct {
	deps   DirectoryDependencies
	logger logger.Logger
}

// NewDirectoryHandler creates a new directory handler.
func NewDirectoryHandler(deps DirectoryDependencies, l logger.Logger) *DirectoryHandler {
	return &DirectoryHandler{deps: deps, logger: l}
}

// HandleListEmployees handles GET /employees?q=&role=&skill= requests.
func (h *DirectoryHandler) HandleListEmployees(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_employees"
	q := r.URL.Query()
	list, err := h.deps.ListEmployees(r.Context(), model.EmployeeQuery{
		Query: q.Get("q"),
		Role:  q.Get("role"),
		Skill: q.Get("skill"),
	})
	if err != nil {
		writeError(r.Context(), h.logger, w, Wrap(op, err))
		return
	}
	if list == nil {
		list = []model.Employee{}
	}
	writeJSON(w, http.StatusOK, listResponse[model.Employee]{Data: list})
}

// HandleListProjects handles GET /projects requests.
func (h *DirectoryHandler) HandleListProjects(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_projects"
	list, err := h.deps.ListProjects(r.Context())
	if err != nil {
		writeError(r.Context(), h.logger, w, Wrap(op, err))
		return
	}
	if list == nil {
		list = []model.Project{}
	}
	writeJSON(w, http.StatusOK, listResponse[model.Project]{Data: list})
}
