package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/opsdeck/timetracker/internal/api/respond"
	"github.com/opsdeck/timetracker/internal/api/validate"
	"github.com/opsdeck/timetracker/internal/model"
	"github.com/opsdeck/timetracker/internal/services"
	"github.com/opsdeck/timetracker/internal/store"
)

// TaskHandler serves the task catalog and the read-side views derived
// from the entry log: per-task summaries, recent entries and the ranked
// tracking-candidate list.
type TaskHandler struct {
	store    store.Store
	summary  *services.SummaryService
	selector *services.SelectorService
}

func NewTaskHandler(s store.Store, summary *services.SummaryService, selector *services.SelectorService) *TaskHandler {
	return &TaskHandler{store: s, summary: summary, selector: selector}
}

// UpsertTask PUT /api/tasks/{taskId}
func (h *TaskHandler) UpsertTask(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskId"]
	if err := validate.TaskID(taskID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	var req struct {
		Title            string `json:"title"`
		EstimatedSeconds *int64 `json:"estimatedSeconds,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.TaskTitle(req.Title); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.Estimate(req.EstimatedSeconds); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	task, err := h.store.Tasks().Upsert(r.Context(), &model.Task{
		TaskID:           taskID,
		Title:            req.Title,
		EstimatedSeconds: req.EstimatedSeconds,
	})
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, task)
}

// ListTasks GET /api/tasks
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.store.Tasks().List(r.Context())
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	if tasks == nil {
		tasks = []*model.Task{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks, "count": len(tasks)})
}

// GetTaskSummary GET /api/tasks/{taskId}/summary
func (h *TaskHandler) GetTaskSummary(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskId"]
	if err := validate.TaskID(taskID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	out, err := h.summary.Summarize(r.Context(), taskID)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// ListUserEntries GET /api/users/{userId}/entries?limit=N
func (h *TaskHandler) ListUserEntries(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if err := validate.UserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			respond.WriteBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := h.store.Entries().ListByUser(r.Context(), userID, limit)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []*model.TimeEntry{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"entries": entries, "count": len(entries)})
}

// ListTrackingCandidates GET /api/users/{userId}/tracking-candidates
func (h *TaskHandler) ListTrackingCandidates(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if err := validate.UserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	out, err := h.selector.Candidates(r.Context(), userID)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	if out == nil {
		out = []*model.TrackingCandidate{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"candidates": out, "count": len(out)})
}
