package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opsdeck/timetracker/internal/model"
	"github.com/opsdeck/timetracker/internal/store"
)

// TimerService is the state machine behind the per-user active timer.
// Every command is a version-checked read-modify-write against the
// store; on a concurrent-modification conflict the command re-reads
// state and re-validates its preconditions exactly once before giving
// up. All instants come from the injected clock so the service is the
// single trusted time source for timer arithmetic.
type TimerService struct {
	store store.Store
	now   func() time.Time
}

func NewTimerService(s store.Store) *TimerService {
	return &TimerService{store: s, now: time.Now}
}

// NewTimerServiceWithClock wires a custom clock (tests, replay).
func NewTimerServiceWithClock(s store.Store, now func() time.Time) *TimerService {
	return &TimerService{store: s, now: now}
}

// Start creates a running timer for the user. An existing timer is a
// rejection, never an implicit stop-and-restart.
func (s *TimerService) Start(ctx context.Context, userID, taskID string, description *string) (*model.TimerSnapshot, error) {
	task, err := s.store.Tasks().Resolve(ctx, taskID)
	if err != nil {
		return nil, err
	}

	timer := &model.ActiveTimer{
		UserID:      userID,
		TaskID:      taskID,
		StartedAt:   s.now().UTC(),
		Description: description,
	}
	created, err := s.store.Timers().Create(ctx, timer)
	if err != nil {
		return nil, err
	}
	return snapshotOf(created, task), nil
}

// Pause suspends a running timer with a classification reason. The
// reason is an open string; presets are a UI affordance only.
func (s *TimerService) Pause(ctx context.Context, userID, reason string) (*model.TimerSnapshot, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: reason must not be empty", model.ErrInvalidPauseReason)
	}

	return s.withConflictRetry(ctx, userID, func(timer *model.ActiveTimer) error {
		if timer.IsPaused {
			return model.ErrTimerAlreadyPaused
		}
		pausedAt := s.now().UTC()
		timer.IsPaused = true
		timer.PausedAt = &pausedAt
		timer.PauseReason = &reason
		return nil
	})
}

// Resume closes the open pause interval and folds it into the
// cumulative paused total.
func (s *TimerService) Resume(ctx context.Context, userID string) (*model.TimerSnapshot, error) {
	return s.withConflictRetry(ctx, userID, func(timer *model.ActiveTimer) error {
		if !timer.IsPaused {
			return model.ErrTimerNotPaused
		}
		foldOpenPause(timer, s.now().UTC())
		return nil
	})
}

// Stop finalizes the session: a still-open pause is folded in first,
// active time is clamped to zero against clock skew, the timer row is
// removed and the immutable TimeEntry committed. Of two concurrent
// stops exactly one wins the version-checked delete; the loser sees
// ErrNoActiveTimer.
func (s *TimerService) Stop(ctx context.Context, userID string) (*model.TimeEntry, error) {
	entry, err := s.stopOnce(ctx, userID)
	if errors.Is(err, model.ErrConcurrentModification) {
		entry, err = s.stopOnce(ctx, userID)
	}
	return entry, err
}

func (s *TimerService) stopOnce(ctx context.Context, userID string) (*model.TimeEntry, error) {
	timer, err := s.store.Timers().Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	stoppedAt := s.now().UTC()
	if timer.IsPaused {
		foldOpenPause(timer, stoppedAt)
	}

	active := int64(stoppedAt.Sub(timer.StartedAt).Seconds()) - timer.TotalPausedSeconds
	if active < 0 {
		active = 0
	}

	// Winning the version-checked delete is what licenses writing the
	// entry; the store runs both in one transaction, so on any error
	// the timer row survives and the caller can retry.
	return s.store.StopSession(ctx, userID, timer.Version, &model.TimeEntry{
		UserID:             userID,
		TaskID:             timer.TaskID,
		StartedAt:          timer.StartedAt,
		StoppedAt:          stoppedAt,
		ActiveSeconds:      active,
		TotalPausedSeconds: timer.TotalPausedSeconds,
		Description:        timer.Description,
	})
}

// Snapshot returns the widget-facing view of the user's timer state.
func (s *TimerService) Snapshot(ctx context.Context, userID string) (*model.TimerSnapshot, error) {
	timer, err := s.store.Timers().Get(ctx, userID)
	if errors.Is(err, model.ErrNoActiveTimer) {
		return &model.TimerSnapshot{HasActiveTimer: false}, nil
	}
	if err != nil {
		return nil, err
	}
	task, err := s.store.Tasks().Resolve(ctx, timer.TaskID)
	if err != nil {
		return nil, err
	}
	return snapshotOf(timer, task), nil
}

// withConflictRetry runs a read-mutate-update cycle for the user's
// timer, retrying once when the guarded write loses a race. mutate
// re-validates preconditions against the freshly read state each pass.
func (s *TimerService) withConflictRetry(ctx context.Context, userID string, mutate func(*model.ActiveTimer) error) (*model.TimerSnapshot, error) {
	snap, err := s.mutateOnce(ctx, userID, mutate)
	if errors.Is(err, model.ErrConcurrentModification) {
		snap, err = s.mutateOnce(ctx, userID, mutate)
	}
	return snap, err
}

func (s *TimerService) mutateOnce(ctx context.Context, userID string, mutate func(*model.ActiveTimer) error) (*model.TimerSnapshot, error) {
	timer, err := s.store.Timers().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	// Resolve the task before the guarded write. If the catalog row is
	// gone the mutation never commits, so a 404 here leaves the timer
	// untouched.
	task, err := s.store.Tasks().Resolve(ctx, timer.TaskID)
	if err != nil {
		return nil, err
	}
	if err := mutate(timer); err != nil {
		return nil, err
	}
	updated, err := s.store.Timers().Update(ctx, timer)
	if err != nil {
		return nil, err
	}
	return snapshotOf(updated, task), nil
}

// foldOpenPause accumulates the in-progress pause into the cumulative
// total and clears the pause marker. PauseReason stays behind for
// display.
func foldOpenPause(timer *model.ActiveTimer, now time.Time) {
	if timer.PausedAt != nil {
		elapsed := int64(now.Sub(*timer.PausedAt).Seconds())
		if elapsed > 0 {
			timer.TotalPausedSeconds += elapsed
		}
	}
	timer.IsPaused = false
	timer.PausedAt = nil
}

func snapshotOf(timer *model.ActiveTimer, task *model.Task) *model.TimerSnapshot {
	return &model.TimerSnapshot{
		HasActiveTimer: true,
		Timer: &model.TimerDetails{
			TaskID:             timer.TaskID,
			TaskTitle:          task.Title,
			StartedAt:          timer.StartedAt,
			IsPaused:           timer.IsPaused,
			PausedAt:           timer.PausedAt,
			PauseReason:        timer.PauseReason,
			TotalPausedSeconds: timer.TotalPausedSeconds,
			Description:        timer.Description,
		},
	}
}
