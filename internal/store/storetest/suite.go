package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/opsdeck/timetracker/internal/model"
	"github.com/opsdeck/timetracker/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// Implementations should provide a clean, isolated store from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	userID := "u-" + uuid.New().String()
	taskID := "t-" + uuid.New().String()

	// Tasks
	est := int64(1200)
	task, err := s.Tasks().Upsert(ctx, &model.Task{TaskID: taskID, Title: "api-refactor", EstimatedSeconds: &est})
	if err != nil {
		t.Fatalf("UpsertTask: %v", err)
	}
	if task.CreationTime.IsZero() {
		t.Fatalf("UpsertTask: zero creation time")
	}
	if got, err := s.Tasks().Resolve(ctx, taskID); err != nil || got.Title != "api-refactor" || got.EstimatedSeconds == nil || *got.EstimatedSeconds != est {
		t.Fatalf("ResolveTask: got=%+v err=%v", got, err)
	}
	if _, err := s.Tasks().Resolve(ctx, "missing-task"); !errors.Is(err, model.ErrTaskNotFound) {
		t.Fatalf("ResolveTask missing: err=%v", err)
	}
	// Upsert is idempotent on the key and refreshes mutable fields.
	est2 := int64(1800)
	if _, err := s.Tasks().Upsert(ctx, &model.Task{TaskID: taskID, Title: "api-refactor", EstimatedSeconds: &est2}); err != nil {
		t.Fatalf("UpsertTask again: %v", err)
	}
	if got, _ := s.Tasks().Resolve(ctx, taskID); got == nil || *got.EstimatedSeconds != est2 {
		t.Fatalf("ResolveTask after upsert: got=%+v", got)
	}
	if lst, err := s.Tasks().List(ctx); err != nil || len(lst) == 0 {
		t.Fatalf("ListTasks: n=%d err=%v", len(lst), err)
	}

	// Timers: empty state
	if _, err := s.Timers().Get(ctx, userID); !errors.Is(err, model.ErrNoActiveTimer) {
		t.Fatalf("Get without timer: err=%v", err)
	}

	started := time.Now().UTC().Truncate(time.Second)
	desc := "pairing session"
	created, err := s.Timers().Create(ctx, &model.ActiveTimer{
		UserID:      userID,
		TaskID:      taskID,
		StartedAt:   started,
		Description: &desc,
	})
	if err != nil {
		t.Fatalf("CreateTimer: %v", err)
	}
	if created.Version != 1 {
		t.Fatalf("CreateTimer: version=%d", created.Version)
	}

	// Uniqueness per user
	if _, err := s.Timers().Create(ctx, &model.ActiveTimer{UserID: userID, TaskID: taskID, StartedAt: started}); !errors.Is(err, model.ErrTimerAlreadyActive) {
		t.Fatalf("CreateTimer duplicate: err=%v", err)
	}

	got, err := s.Timers().Get(ctx, userID)
	if err != nil {
		t.Fatalf("GetTimer: %v", err)
	}
	if got.TaskID != taskID || got.IsPaused || got.PausedAt != nil || got.TotalPausedSeconds != 0 {
		t.Fatalf("GetTimer: got=%+v", got)
	}
	if !got.StartedAt.UTC().Equal(started) {
		t.Fatalf("GetTimer startedAt: got=%v want=%v", got.StartedAt, started)
	}
	if got.Description == nil || *got.Description != desc {
		t.Fatalf("GetTimer description: got=%v", got.Description)
	}

	// Version-checked update: stale version must not win.
	pausedAt := started.Add(5 * time.Minute)
	reason := "lunch"
	stale := *got
	stale.Version = got.Version + 7
	stale.IsPaused = true
	stale.PausedAt = &pausedAt
	stale.PauseReason = &reason
	if _, err := s.Timers().Update(ctx, &stale); !errors.Is(err, model.ErrConcurrentModification) {
		t.Fatalf("Update stale: err=%v", err)
	}

	upd := *got
	upd.IsPaused = true
	upd.PausedAt = &pausedAt
	upd.PauseReason = &reason
	updated, err := s.Timers().Update(ctx, &upd)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Version != got.Version+1 {
		t.Fatalf("Update version: got=%d want=%d", updated.Version, got.Version+1)
	}

	got2, err := s.Timers().Get(ctx, userID)
	if err != nil {
		t.Fatalf("GetTimer after update: %v", err)
	}
	if !got2.IsPaused || got2.PausedAt == nil || !got2.PausedAt.UTC().Equal(pausedAt) {
		t.Fatalf("GetTimer after update: got=%+v", got2)
	}
	if got2.PauseReason == nil || *got2.PauseReason != reason {
		t.Fatalf("GetTimer pauseReason: got=%v", got2.PauseReason)
	}

	// Version-checked delete
	if err := s.Timers().Delete(ctx, userID, got2.Version+5); !errors.Is(err, model.ErrConcurrentModification) {
		t.Fatalf("Delete stale: err=%v", err)
	}
	if err := s.Timers().Delete(ctx, userID, got2.Version); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Timers().Delete(ctx, userID, got2.Version); !errors.Is(err, model.ErrNoActiveTimer) {
		t.Fatalf("Delete twice: err=%v", err)
	}

	// Entries
	stopped := started.Add(35 * time.Minute)
	e1, err := s.Entries().Create(ctx, &model.TimeEntry{
		UserID: userID, TaskID: taskID,
		StartedAt: started, StoppedAt: stopped,
		ActiveSeconds: 600, TotalPausedSeconds: 1500,
		Description: &desc,
	})
	if err != nil {
		t.Fatalf("CreateEntry e1: %v", err)
	}
	if e1.EntryID == "" {
		t.Fatalf("CreateEntry: empty id")
	}
	if _, err := s.Entries().Create(ctx, &model.TimeEntry{
		UserID: userID, TaskID: taskID,
		StartedAt: stopped, StoppedAt: stopped.Add(15 * time.Minute),
		ActiveSeconds: 900,
	}); err != nil {
		t.Fatalf("CreateEntry e2: %v", err)
	}

	byTask, err := s.Entries().ListByTask(ctx, taskID)
	if err != nil || len(byTask) != 2 {
		t.Fatalf("ListByTask: n=%d err=%v", len(byTask), err)
	}
	// Newest first
	if byTask[0].ActiveSeconds != 900 || byTask[1].ActiveSeconds != 600 {
		t.Fatalf("ListByTask order: %d, %d", byTask[0].ActiveSeconds, byTask[1].ActiveSeconds)
	}
	if byTask[1].Description == nil || *byTask[1].Description != desc {
		t.Fatalf("ListByTask description: %v", byTask[1].Description)
	}

	byUser, err := s.Entries().ListByUser(ctx, userID, 1)
	if err != nil || len(byUser) != 1 {
		t.Fatalf("ListByUser limit: n=%d err=%v", len(byUser), err)
	}
	if byUser[0].ActiveSeconds != 900 {
		t.Fatalf("ListByUser newest-first: %d", byUser[0].ActiveSeconds)
	}

	// StopSession: the version-checked delete and the entry insert are
	// one transaction.
	stopUser := "u-" + uuid.New().String()
	stopStarted := time.Now().UTC().Truncate(time.Second)
	stopTimer, err := s.Timers().Create(ctx, &model.ActiveTimer{
		UserID:    stopUser,
		TaskID:    taskID,
		StartedAt: stopStarted,
	})
	if err != nil {
		t.Fatalf("CreateTimer for stop: %v", err)
	}

	finalized := &model.TimeEntry{
		UserID: stopUser, TaskID: taskID,
		StartedAt: stopStarted, StoppedAt: stopStarted.Add(10 * time.Minute),
		ActiveSeconds: 600,
	}

	if _, err := s.StopSession(ctx, stopUser, stopTimer.Version+3, finalized); !errors.Is(err, model.ErrConcurrentModification) {
		t.Fatalf("StopSession stale: err=%v", err)
	}

	// A failed insert must roll the delete back: reuse an existing
	// entry id so the insert violates the primary key.
	dup := *finalized
	dup.EntryID = e1.EntryID
	if _, err := s.StopSession(ctx, stopUser, stopTimer.Version, &dup); err == nil {
		t.Fatalf("StopSession duplicate entry id: expected error")
	}
	if _, err := s.Timers().Get(ctx, stopUser); err != nil {
		t.Fatalf("GetTimer after failed stop: timer row lost: %v", err)
	}

	stopped2, err := s.StopSession(ctx, stopUser, stopTimer.Version, finalized)
	if err != nil {
		t.Fatalf("StopSession: %v", err)
	}
	if stopped2.EntryID == "" {
		t.Fatalf("StopSession: empty entry id")
	}
	if _, err := s.Timers().Get(ctx, stopUser); !errors.Is(err, model.ErrNoActiveTimer) {
		t.Fatalf("GetTimer after stop: err=%v", err)
	}
	if _, err := s.StopSession(ctx, stopUser, stopTimer.Version, finalized); !errors.Is(err, model.ErrNoActiveTimer) {
		t.Fatalf("StopSession without timer: err=%v", err)
	}
	if lst, err := s.Entries().ListByUser(ctx, stopUser, 10); err != nil || len(lst) != 1 {
		t.Fatalf("ListByUser after stop: n=%d err=%v", len(lst), err)
	}
}
