package http

import (
	"net/http"
	"time"

	"github.com/opsdeck/timetracker/internal/api/respond"
)

// healthReporter is the single method the handler needs from the
// service-level health aggregator.
type healthReporter interface {
	IsHealthy() bool
}

// failureReporter is optionally implemented by aggregators that track
// which dependencies failed the last evaluation.
type failureReporter interface {
	FailingDeps() []string
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	checker healthReporter
}

func NewHealthHandler(checker healthReporter) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// CheckHealth handles GET /api/health
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	if h.checker == nil || h.checker.IsHealthy() {
		respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "UP",
			"message":   "Service is healthy",
			"timestamp": time.Now().Format(time.RFC3339),
		})
		return
	}
	body := map[string]interface{}{
		"status":    "DOWN",
		"message":   "One or more dependencies unavailable",
		"timestamp": time.Now().Format(time.RFC3339),
	}
	// Aggregators that can name the failing dependencies get them echoed.
	if fr, ok := h.checker.(failureReporter); ok {
		if failing := fr.FailingDeps(); len(failing) > 0 {
			body["failing"] = failing
		}
	}
	respond.WriteJSON(w, http.StatusInternalServerError, body)
}
