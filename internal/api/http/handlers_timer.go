package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/opsdeck/timetracker/internal/api/respond"
	"github.com/opsdeck/timetracker/internal/api/validate"
	"github.com/opsdeck/timetracker/internal/services"
)

// TimerHandler exposes the timer state machine over REST. All routes
// are scoped by userId; the timer itself is addressed implicitly since
// a user has at most one.
type TimerHandler struct {
	svc *services.TimerService
}

func NewTimerHandler(svc *services.TimerService) *TimerHandler {
	return &TimerHandler{svc: svc}
}

// StartTimer POST /api/users/{userId}/timer/start
func (h *TimerHandler) StartTimer(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if err := validate.UserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	var req struct {
		TaskID      string  `json:"taskId"`
		Description *string `json:"description,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.TaskID(req.TaskID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.MaxLen("description", req.Description, 500); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	snap, err := h.svc.Start(r.Context(), userID, req.TaskID, req.Description)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, snap)
}

// PauseTimer POST /api/users/{userId}/timer/pause
func (h *TimerHandler) PauseTimer(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if err := validate.UserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.PauseReason(req.Reason); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	snap, err := h.svc.Pause(r.Context(), userID, req.Reason)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, snap)
}

// ResumeTimer POST /api/users/{userId}/timer/resume
func (h *TimerHandler) ResumeTimer(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if err := validate.UserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	snap, err := h.svc.Resume(r.Context(), userID)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, snap)
}

// StopTimer POST /api/users/{userId}/timer/stop
func (h *TimerHandler) StopTimer(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if err := validate.UserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	// Stop takes no body; drain whatever the client sent.
	_, _ = io.Copy(io.Discard, r.Body)

	entry, err := h.svc.Stop(r.Context(), userID)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, entry)
}

// GetTimer GET /api/users/{userId}/timer
func (h *TimerHandler) GetTimer(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if err := validate.UserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	snap, err := h.svc.Snapshot(r.Context(), userID)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, snap)
}
