package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/opsdeck/timetracker/internal/model"
	"github.com/opsdeck/timetracker/internal/store"
)

func TestSummary_TotalsAndOvertime(t *testing.T) {
	s := newTestStore(t)
	clock := newFakeClock(t0.Add(3 * time.Hour))
	svc := NewSummaryServiceWithClock(s, clock.Now)
	ctx := context.Background()

	est := int64(1200)
	seedTask(t, s, "t1", &est)

	mustEntry(t, s, "alice", "t1", t0, t0.Add(10*time.Minute), 600)
	mustEntry(t, s, "bob", "t1", t0.Add(time.Hour), t0.Add(time.Hour+15*time.Minute), 900)

	sum, err := svc.Summarize(ctx, "t1")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if sum.TotalSeconds != 1500 {
		t.Fatalf("totalSeconds = %d, want 1500", sum.TotalSeconds)
	}
	if sum.SessionCount != 2 {
		t.Fatalf("sessionCount = %d, want 2", sum.SessionCount)
	}
	if !sum.IsOvertime {
		t.Fatalf("isOvertime = false, want true")
	}
	if sum.ProgressPercentage == nil || *sum.ProgressPercentage != 125 {
		t.Fatalf("progressPercentage = %v, want 125", sum.ProgressPercentage)
	}
	want := t0.Add(time.Hour + 15*time.Minute)
	if sum.LastTrackedAt == nil || !sum.LastTrackedAt.UTC().Equal(want) {
		t.Fatalf("lastTrackedAt = %v, want %v", sum.LastTrackedAt, want)
	}
	if !sum.IsRecentlyTracked {
		t.Fatalf("isRecentlyTracked = false within the window")
	}
}

func TestSummary_NoEstimateNoEntries(t *testing.T) {
	s := newTestStore(t)
	svc := NewSummaryService(s)
	ctx := context.Background()
	seedTask(t, s, "t2", nil)

	sum, err := svc.Summarize(ctx, "t2")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if sum.TotalSeconds != 0 || sum.SessionCount != 0 {
		t.Fatalf("empty summary: %+v", sum)
	}
	if sum.ProgressPercentage != nil || sum.IsOvertime || sum.IsRecentlyTracked || sum.LastTrackedAt != nil {
		t.Fatalf("empty summary flags: %+v", sum)
	}
}

func TestSummary_UnknownTask(t *testing.T) {
	s := newTestStore(t)
	svc := NewSummaryService(s)
	if _, err := svc.Summarize(context.Background(), "nope"); !errors.Is(err, model.ErrTaskNotFound) {
		t.Fatalf("unknown task: err=%v", err)
	}
}

func TestSummary_RunningTimerNotCounted(t *testing.T) {
	s := newTestStore(t)
	clock := newFakeClock(t0)
	timers := NewTimerServiceWithClock(s, clock.Now)
	svc := NewSummaryServiceWithClock(s, clock.Now)
	ctx := context.Background()
	seedTask(t, s, "t3", nil)

	if _, err := timers.Start(ctx, "carol", "t3", nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(45 * time.Minute)

	sum, err := svc.Summarize(ctx, "t3")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if sum.TotalSeconds != 0 || sum.SessionCount != 0 {
		t.Fatalf("in-progress session counted: %+v", sum)
	}

	// Stop commits, and only then does the aggregate move.
	if _, err := timers.Stop(ctx, "carol"); err != nil {
		t.Fatalf("stop: %v", err)
	}
	sum, err = svc.Summarize(ctx, "t3")
	if err != nil {
		t.Fatalf("summarize after stop: %v", err)
	}
	if sum.TotalSeconds != 45*60 || sum.SessionCount != 1 {
		t.Fatalf("summary after stop: %+v", sum)
	}
}

func TestSummary_RecencyWindowExpires(t *testing.T) {
	s := newTestStore(t)
	clock := newFakeClock(t0.Add(48 * time.Hour))
	svc := NewSummaryServiceWithClock(s, clock.Now)
	ctx := context.Background()
	seedTask(t, s, "t4", nil)
	mustEntry(t, s, "dave", "t4", t0, t0.Add(30*time.Minute), 1800)

	sum, err := svc.Summarize(ctx, "t4")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if sum.IsRecentlyTracked {
		t.Fatalf("isRecentlyTracked = true two days later")
	}
}

func mustEntry(t *testing.T, s store.Store, userID, taskID string, started, stopped time.Time, active int64) {
	t.Helper()
	if _, err := s.Entries().Create(context.Background(), &model.TimeEntry{
		UserID:    userID,
		TaskID:    taskID,
		StartedAt: started,
		StoppedAt: stopped,

		ActiveSeconds: active,
	}); err != nil {
		t.Fatalf("create entry: %v", err)
	}
}
