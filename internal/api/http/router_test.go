package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/opsdeck/timetracker/internal/model"
	"github.com/opsdeck/timetracker/internal/store/sqlite"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := sqlite.New(filepath.Join(t.TempDir(), "tracker.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	srv := httptest.NewServer(NewRouter(st, nil))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func putTask(t *testing.T, srv *httptest.Server, taskID, title string, estimate *int64) {
	t.Helper()
	resp := doJSON(t, http.MethodPut, srv.URL+"/api/tasks/"+taskID, map[string]interface{}{
		"title":            title,
		"estimatedSeconds": estimate,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upsert task %s: status %d", taskID, resp.StatusCode)
	}
}

func TestTimerLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	putTask(t, srv, "OPS-1", "Quarterly invoicing", nil)

	// Start
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/users/alice/timer/start", map[string]interface{}{
		"taskId": "OPS-1",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start: status %d", resp.StatusCode)
	}
	var snap model.TimerSnapshot
	decode(t, resp, &snap)
	if !snap.HasActiveTimer || snap.Timer == nil {
		t.Fatalf("start: expected active timer, got %+v", snap)
	}
	if snap.Timer.TaskTitle != "Quarterly invoicing" {
		t.Fatalf("start: unexpected task title %q", snap.Timer.TaskTitle)
	}

	// A second start is a conflict, never an implicit restart.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/users/alice/timer/start", map[string]interface{}{
		"taskId": "OPS-1",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second start: expected 409, got %d", resp.StatusCode)
	}

	// Pause
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/users/alice/timer/pause", map[string]interface{}{
		"reason": "lunch",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pause: status %d", resp.StatusCode)
	}
	decode(t, resp, &snap)
	if !snap.Timer.IsPaused || snap.Timer.PauseReason == nil || *snap.Timer.PauseReason != "lunch" {
		t.Fatalf("pause: unexpected state %+v", snap.Timer)
	}

	// Resume
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/users/alice/timer/resume", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resume: status %d", resp.StatusCode)
	}
	decode(t, resp, &snap)
	if snap.Timer.IsPaused {
		t.Fatalf("resume: timer still paused")
	}

	// Stop commits an entry.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/users/alice/timer/stop", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stop: status %d", resp.StatusCode)
	}
	var entry model.TimeEntry
	decode(t, resp, &entry)
	if entry.TaskID != "OPS-1" || entry.UserID != "alice" {
		t.Fatalf("stop: unexpected entry %+v", entry)
	}

	// Widget snapshot is now empty.
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/users/alice/timer", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get timer: status %d", resp.StatusCode)
	}
	decode(t, resp, &snap)
	if snap.HasActiveTimer {
		t.Fatalf("expected no active timer after stop")
	}
}

func TestTimerCommandErrorsOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	putTask(t, srv, "OPS-2", "Vendor follow-up", nil)

	// Unknown task
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/users/bob/timer/start", map[string]interface{}{
		"taskId": "NOPE",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("start unknown task: expected 404, got %d", resp.StatusCode)
	}

	// Pause without a timer
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/users/bob/timer/pause", map[string]interface{}{
		"reason": "meeting",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("pause without timer: expected 404, got %d", resp.StatusCode)
	}

	// Blank pause reason is rejected before the service runs.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/users/bob/timer/pause", map[string]interface{}{
		"reason": "   ",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank reason: expected 400, got %d", resp.StatusCode)
	}

	// Stop without a timer
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/users/bob/timer/stop", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("stop without timer: expected 404, got %d", resp.StatusCode)
	}

	// Invalid userId never reaches the service.
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/users/NOT%20VALID/timer", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid user id: expected 400, got %d", resp.StatusCode)
	}

	// Resume while running
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/users/bob/timer/start", map[string]interface{}{"taskId": "OPS-2"})
	resp.Body.Close()
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/users/bob/timer/resume", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("resume while running: expected 409, got %d", resp.StatusCode)
	}
}

func TestTaskViewsOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	est := int64(600)
	putTask(t, srv, "OPS-3", "Payroll run", &est)
	putTask(t, srv, "OPS-4", "Inbox triage", nil)

	// One full session against OPS-3.
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/users/carol/timer/start", map[string]interface{}{"taskId": "OPS-3"})
	resp.Body.Close()
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/users/carol/timer/stop", nil)
	resp.Body.Close()

	// Summary
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/tasks/OPS-3/summary", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary: status %d", resp.StatusCode)
	}
	var summary model.TaskTimeSummary
	decode(t, resp, &summary)
	if summary.SessionCount != 1 {
		t.Fatalf("summary: expected 1 session, got %d", summary.SessionCount)
	}
	if summary.EstimatedSeconds == nil || *summary.EstimatedSeconds != 600 {
		t.Fatalf("summary: estimate not carried: %+v", summary)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/tasks/UNKNOWN/summary", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("summary unknown task: expected 404, got %d", resp.StatusCode)
	}

	// Task catalog
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/tasks", nil)
	var catalog struct {
		Tasks []model.Task `json:"tasks"`
		Count int          `json:"count"`
	}
	decode(t, resp, &catalog)
	if len(catalog.Tasks) != 2 || catalog.Count != 2 {
		t.Fatalf("tasks: expected 2, got %d", len(catalog.Tasks))
	}

	// Entries with limit
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/users/carol/entries?limit=10", nil)
	var entries struct {
		Entries []model.TimeEntry `json:"entries"`
		Count   int               `json:"count"`
	}
	decode(t, resp, &entries)
	if entries.Count != 1 {
		t.Fatalf("entries: expected 1, got %d", entries.Count)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/users/carol/entries?limit=bogus", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad limit: expected 400, got %d", resp.StatusCode)
	}

	// Candidates: tracked task ranks ahead of the untracked one.
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/users/carol/tracking-candidates", nil)
	var cands struct {
		Candidates []model.TrackingCandidate `json:"candidates"`
	}
	decode(t, resp, &cands)
	if len(cands.Candidates) != 2 {
		t.Fatalf("candidates: expected 2, got %d", len(cands.Candidates))
	}
	if cands.Candidates[0].Task.TaskID != "OPS-3" {
		t.Fatalf("candidates: expected OPS-3 first, got %s", cands.Candidates[0].Task.TaskID)
	}
}

func TestTaskUpsertValidation(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/tasks/OPS-9", map[string]interface{}{"title": "  "})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank title: expected 400, got %d", resp.StatusCode)
	}

	neg := int64(-5)
	resp = doJSON(t, http.MethodPut, srv.URL+"/api/tasks/OPS-9", map[string]interface{}{
		"title":            "Filing",
		"estimatedSeconds": neg,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("negative estimate: expected 400, got %d", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	var body map[string]interface{}
	decode(t, resp, &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health: status %d", resp.StatusCode)
	}
	if body["status"] != "UP" {
		t.Fatalf("health: expected UP, got %v", body["status"])
	}
}

func TestHealthEndpointReportsDown(t *testing.T) {
	st, err := sqlite.New(filepath.Join(t.TempDir(), "tracker.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	srv := httptest.NewServer(NewRouter(st, staticHealth(false)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("health: expected 500, got %d", resp.StatusCode)
	}
}

type staticHealth bool

func (s staticHealth) IsHealthy() bool { return bool(s) }

// downWithDeps reports DOWN and names the failing dependencies.
type downWithDeps []string

func (d downWithDeps) IsHealthy() bool       { return false }
func (d downWithDeps) FailingDeps() []string { return d }

func TestHealthEndpointNamesFailingDeps(t *testing.T) {
	st, err := sqlite.New(filepath.Join(t.TempDir(), "tracker.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	srv := httptest.NewServer(NewRouter(st, downWithDeps{"store"}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	var body map[string]interface{}
	decode(t, resp, &body)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("health: expected 500, got %d", resp.StatusCode)
	}
	failing, ok := body["failing"].([]interface{})
	if !ok || len(failing) != 1 || failing[0] != "store" {
		t.Fatalf("health: failing = %v", body["failing"])
	}
}
