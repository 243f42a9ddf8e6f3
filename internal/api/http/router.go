package http

import (
	"github.com/gorilla/mux"

	"github.com/opsdeck/timetracker/internal/api/recovery"
	"github.com/opsdeck/timetracker/internal/services"
	"github.com/opsdeck/timetracker/internal/store"
)

// NewRouter wires all HTTP routes to handlers over the given store.
// checker may be nil; the health endpoint then reports UP.
func NewRouter(st store.Store, checker healthReporter) *mux.Router {
	root := mux.NewRouter()
	root.Use(recovery.Middleware)

	// Timer commands
	timer := NewTimerHandler(services.NewTimerService(st))
	root.HandleFunc("/api/users/{userId}/timer/start", timer.StartTimer).Methods("POST")
	root.HandleFunc("/api/users/{userId}/timer/pause", timer.PauseTimer).Methods("POST")
	root.HandleFunc("/api/users/{userId}/timer/resume", timer.ResumeTimer).Methods("POST")
	root.HandleFunc("/api/users/{userId}/timer/stop", timer.StopTimer).Methods("POST")
	root.HandleFunc("/api/users/{userId}/timer", timer.GetTimer).Methods("GET")

	// Tasks and read-side views
	task := NewTaskHandler(st, services.NewSummaryService(st), services.NewSelectorService(st))
	root.HandleFunc("/api/tasks/{taskId}", task.UpsertTask).Methods("PUT")
	root.HandleFunc("/api/tasks/{taskId}/summary", task.GetTaskSummary).Methods("GET")
	root.HandleFunc("/api/tasks", task.ListTasks).Methods("GET")
	root.HandleFunc("/api/users/{userId}/entries", task.ListUserEntries).Methods("GET")
	root.HandleFunc("/api/users/{userId}/tracking-candidates", task.ListTrackingCandidates).Methods("GET")

	// Health
	healthHandler := NewHealthHandler(checker)
	root.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	return root
}
