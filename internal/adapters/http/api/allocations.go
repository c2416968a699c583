package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/okian/staffing/internal/domain/ledger"
	"github.com/okian/staffing/internal/domain/model"
	"github.com/okian/staffing/pkg/logger"
)

// AllocationDependencies covers the allocation ledger operations.
type AllocationDependencies interface {
	Allocate(ctx context.Context, employeeID, projectID string) (model.Allocation, error)
	RemoveAllocation(ctx context.Context, id string) (model.Allocation, error)
	GetAllocation(ctx context.Context, id string) (model.Allocation, error)
	ListAllocations(ctx context.Context, f ledger.Filter) ([]model.Allocation, error)
	AllocationHistory(ctx context.Context, id string) ([]model.AllocationEvent, error)
}

// AllocationsHandler handles allocation requests.
type AllocationsHandler struct {
	deps   AllocationDependencies
	logger logger.Logger
}

// NewAllocationsHandler creates a new allocations handler.
func NewAllocationsHandler(deps AllocationDependencies, l logger.Logger) *AllocationsHandler {
	return &AllocationsHandler{deps: deps, logger: l}
}

type allocationRequest struct {
	EmployeeID string `json:"employee_id"`
	ProjectID  string `json:"project_id"`
}

type cancelResponse struct {
	Status     string           `json:"status"`
	Allocation model.Allocation `json:"allocation"`
}

// HandleCreate handles POST /allocations requests.
func (h *AllocationsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_allocation"
	var req allocationRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(r.Context(), h.logger, w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.EmployeeID) == "" || strings.TrimSpace(req.ProjectID) == "" {
		writeError(r.Context(), h.logger, w, WrapKind(op, ErrBadRequest, errors.New("employee_id and project_id are required")))
		return
	}

	a, err := h.deps.Allocate(r.Context(), req.EmployeeID, req.ProjectID)
	if err != nil {
		writeError(r.Context(), h.logger, w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// HandleDelete handles DELETE /allocations/{id} requests.
func (h *AllocationsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_allocation"
	a, err := h.deps.RemoveAllocation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(r.Context(), h.logger, w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, cancelResponse{Status: "cancelled", Allocation: a})
}

// HandleGet handles GET /allocations/{id} requests.
func (h *AllocationsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_allocation"
	a, err := h.deps.GetAllocation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(r.Context(), h.logger, w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HandleList handles GET /allocations?employee_id=&project_id=&status= requests.
func (h *AllocationsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_allocations"
	q := r.URL.Query()
	status, err := model.ParseAllocationStatus(q.Get("status"))
	if err != nil {
		writeError(r.Context(), h.logger, w, Wrap(op, err))
		return
	}
	list, err := h.deps.ListAllocations(r.Context(), ledger.Filter{
		EmployeeID: strings.TrimSpace(q.Get("employee_id")),
		ProjectID:  strings.TrimSpace(q.Get("project_id")),
		Status:     status,
	})
	if err != nil {
		writeError(r.Context(), h.logger, w, Wrap(op, err))
		return
	}
	if list == nil {
		list = []model.Allocation{}
	}
	writeJSON(w, http.StatusOK, listResponse[model.Allocation]{Data: list})
}

// HandleHistory handles GET /allocations/{id}/history requests.
func (h *AllocationsHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.allocation_history"
	events, err := h.deps.AllocationHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(r.Context(), h.logger, w, Wrap(op, err))
		return
	}
	if events == nil {
		events = []model.AllocationEvent{}
	}
	writeJSON(w, http.StatusOK, listResponse[model.AllocationEvent]{Data: events})
}
