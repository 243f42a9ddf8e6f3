package store

import (
	"context"

	"github.com/opsdeck/timetracker/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (postgres, sqlite).
type Store interface {
	Timers() Timers
	Entries() Entries
	Tasks() Tasks

	// StopSession removes the user's timer if version still matches and
	// inserts the finalized entry, both inside one transaction. A failed
	// insert rolls the delete back, so the timer row always survives an
	// error return. Version mismatch behaves like Timers().Delete.
	StopSession(ctx context.Context, userID string, version int64, e *model.TimeEntry) (*model.TimeEntry, error)
}

// Timers is the authoritative record of at most one active timer per
// user. Update and Delete are version-checked: the caller passes the
// version it read and the store rejects the write with
// model.ErrConcurrentModification when the row has moved on.
type Timers interface {
	// Get returns the user's active timer or model.ErrNoActiveTimer.
	Get(ctx context.Context, userID string) (*model.ActiveTimer, error)
	// Create inserts a new timer; a row already present for the user
	// yields model.ErrTimerAlreadyActive.
	Create(ctx context.Context, t *model.ActiveTimer) (*model.ActiveTimer, error)
	// Update writes the timer back if t.Version still matches and
	// returns the row with its version bumped.
	Update(ctx context.Context, t *model.ActiveTimer) (*model.ActiveTimer, error)
	// Delete removes the timer if version still matches.
	Delete(ctx context.Context, userID string, version int64) error
}

// Entries is the append-only log of finalized sessions.
type Entries interface {
	Create(ctx context.Context, e *model.TimeEntry) (*model.TimeEntry, error)
	ListByTask(ctx context.Context, taskID string) ([]*model.TimeEntry, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.TimeEntry, error)
}

// Tasks is the task collaborator surface: a minimal catalog the tracker
// reads for existence checks and estimates.
type Tasks interface {
	// Resolve returns the task or model.ErrTaskNotFound.
	Resolve(ctx context.Context, taskID string) (*model.Task, error)
	Upsert(ctx context.Context, t *model.Task) (*model.Task, error)
	List(ctx context.Context) ([]*model.Task, error)
}
