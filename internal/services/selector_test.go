package services

import (
	"context"
	"testing"
	"time"
)

func TestSelector_Ranking(t *testing.T) {
	s := newTestStore(t)
	svc := NewSelectorService(s)
	ctx := context.Background()

	// Catalog: an over-budget task, a recently tracked one, an older
	// tracked one and one never touched.
	est := int64(600)
	seedTask(t, s, "over", &est)
	seedTask(t, s, "recent", nil)
	seedTask(t, s, "older", nil)
	seedTask(t, s, "untouched", nil)

	mustEntry(t, s, "alice", "over", t0, t0.Add(20*time.Minute), 1200)
	mustEntry(t, s, "alice", "older", t0.Add(time.Hour), t0.Add(2*time.Hour), 3600)
	mustEntry(t, s, "alice", "recent", t0.Add(3*time.Hour), t0.Add(4*time.Hour), 3600)

	out, err := svc.Candidates(ctx, "alice")
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(out) != 4 {
		t.Fatalf("candidates = %d, want 4", len(out))
	}

	gotOrder := []string{out[0].Task.TaskID, out[1].Task.TaskID, out[2].Task.TaskID, out[3].Task.TaskID}
	wantOrder := []string{"over", "recent", "older", "untouched"}
	for i := range wantOrder {
		if gotOrder[i] != wantOrder[i] {
			t.Fatalf("ranking = %v, want %v", gotOrder, wantOrder)
		}
	}

	if !out[0].IsOvertime {
		t.Fatalf("over-budget task not flagged")
	}
	if out[0].TotalSeconds != 1200 {
		t.Fatalf("over totalSeconds = %d", out[0].TotalSeconds)
	}
	if out[3].LastTrackedAt != nil {
		t.Fatalf("untouched task has lastTrackedAt")
	}
}

func TestSelector_ScopedToUser(t *testing.T) {
	s := newTestStore(t)
	svc := NewSelectorService(s)
	ctx := context.Background()
	seedTask(t, s, "shared", nil)

	mustEntry(t, s, "bob", "shared", t0, t0.Add(time.Hour), 3600)

	out, err := svc.Candidates(ctx, "alice")
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("candidates = %d, want 1", len(out))
	}
	// Another user's tracking history must not leak into alice's ranking.
	if out[0].TotalSeconds != 0 || out[0].LastTrackedAt != nil {
		t.Fatalf("foreign entries leaked: %+v", out[0])
	}
}
