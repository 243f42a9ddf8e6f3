package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	apihttp "github.com/opsdeck/timetracker/internal/api/http"
	"github.com/opsdeck/timetracker/internal/store/sqlite"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	st, err := sqlite.New(filepath.Join(t.TempDir(), "tracker.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	srv := httptest.NewServer(apihttp.NewRouter(st, nil))
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

func TestClientTimerRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	if _, err := c.UpsertTask(ctx, "OPS-1", "Expense review", nil); err != nil {
		t.Fatalf("upsert task: %v", err)
	}

	snap, err := c.StartTimer(ctx, "alice", "OPS-1", nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !snap.HasActiveTimer || snap.Timer.TaskTitle != "Expense review" {
		t.Fatalf("start: unexpected snapshot %+v", snap)
	}

	snap, err = c.PauseTimer(ctx, "alice", "meeting")
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if !snap.Timer.IsPaused {
		t.Fatalf("pause: timer not paused")
	}

	if _, err = c.ResumeTimer(ctx, "alice"); err != nil {
		t.Fatalf("resume: %v", err)
	}

	entry, err := c.StopTimer(ctx, "alice")
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if entry.TaskID != "OPS-1" {
		t.Fatalf("stop: unexpected entry %+v", entry)
	}

	entries, err := c.ListEntries(ctx, "alice", 10)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	sum, err := c.TaskSummary(ctx, "OPS-1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.SessionCount != 1 {
		t.Fatalf("summary: expected 1 session, got %d", sum.SessionCount)
	}

	cands, err := c.TrackingCandidates(ctx, "alice")
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(cands) != 1 || cands[0].Task.TaskID != "OPS-1" {
		t.Fatalf("candidates: unexpected %+v", cands)
	}

	if err := c.Health(ctx); err != nil {
		t.Fatalf("health: %v", err)
	}
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, err := c.StartTimer(ctx, "alice", "MISSING", nil)
	if err == nil {
		t.Fatal("expected error for unknown task")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", apiErr.StatusCode)
	}

	if _, err := c.StopTimer(ctx, "alice"); err == nil {
		t.Fatal("expected error stopping without a timer")
	}
}
