// Package sqlite provides the local/dev store driver. It bootstraps its
// own schema on open so single-binary setups need no migration step.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/opsdeck/timetracker/internal/model"
	"github.com/opsdeck/timetracker/internal/store"
)

// Open opens (or creates) a SQLite database at the given path and enables WAL journal mode.
func Open(path string) (*sql.DB, error) {
	// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
    task_id           TEXT PRIMARY KEY,
    title             TEXT NOT NULL,
    estimated_seconds INTEGER,
    creation_time     TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS active_timers (
    user_id              TEXT PRIMARY KEY,
    task_id              TEXT NOT NULL,
    started_at           TIMESTAMP NOT NULL,
    is_paused            INTEGER NOT NULL DEFAULT 0,
    paused_at            TIMESTAMP,
    total_paused_seconds INTEGER NOT NULL DEFAULT 0,
    pause_reason         TEXT,
    description          TEXT,
    version              INTEGER NOT NULL DEFAULT 1
);
CREATE TABLE IF NOT EXISTS time_entries (
    entry_id             TEXT PRIMARY KEY,
    user_id              TEXT NOT NULL,
    task_id              TEXT NOT NULL,
    started_at           TIMESTAMP NOT NULL,
    stopped_at           TIMESTAMP NOT NULL,
    active_seconds       INTEGER NOT NULL,
    total_paused_seconds INTEGER NOT NULL DEFAULT 0,
    description          TEXT
);
CREATE INDEX IF NOT EXISTS time_entries_task_idx ON time_entries (task_id, stopped_at DESC);
CREATE INDEX IF NOT EXISTS time_entries_user_idx ON time_entries (user_id, stopped_at DESC);
`

// New opens the database file and bootstraps the schema.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewWithDB(db)
}

// NewWithDB wires an existing connection (used by tests and the factory).
func NewWithDB(db *sql.DB) (store.Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("sqlite schema bootstrap: %w", err)
	}
	return &sqliteStore{db: db}, nil
}

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) Timers() store.Timers   { return &timers{db: s.db} }
func (s *sqliteStore) Entries() store.Entries { return &entries{db: s.db} }
func (s *sqliteStore) Tasks() store.Tasks     { return &tasks{db: s.db} }

// HealthPing implements health.HealthPinger.
func (s *sqliteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// StopSession deletes the timer and writes the entry in one transaction.
func (s *sqliteStore) StopSession(ctx context.Context, userID string, version int64, e *model.TimeEntry) (*model.TimeEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM active_timers WHERE user_id = ? AND version = ?`, userID, version)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, staleWriteErr(ctx, tx, userID)
	}

	id := e.EntryID
	if id == "" {
		id = uuid.New().String()
	}
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO time_entries (entry_id, user_id, task_id, started_at, stopped_at, active_seconds, total_paused_seconds, description)
        VALUES (?,?,?,?,?,?,?,?)
    `, id, e.UserID, e.TaskID, e.StartedAt.UTC(), e.StoppedAt.UTC(), e.ActiveSeconds, e.TotalPausedSeconds, e.Description); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	out := *e
	out.EntryID = id
	return &out, nil
}

// --- Timers ---

type timers struct{ db *sql.DB }

func (t *timers) Get(ctx context.Context, userID string) (*model.ActiveTimer, error) {
	var out model.ActiveTimer
	out.UserID = userID
	var pausedAt sql.NullTime
	var reason, desc sql.NullString
	row := t.db.QueryRowContext(ctx, `
        SELECT task_id, started_at, is_paused, paused_at, total_paused_seconds, pause_reason, description, version
        FROM active_timers WHERE user_id = ?
    `, userID)
	if err := row.Scan(&out.TaskID, &out.StartedAt, &out.IsPaused, &pausedAt, &out.TotalPausedSeconds, &reason, &desc, &out.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNoActiveTimer
		}
		return nil, err
	}
	if pausedAt.Valid {
		v := pausedAt.Time
		out.PausedAt = &v
	}
	if reason.Valid {
		v := reason.String
		out.PauseReason = &v
	}
	if desc.Valid {
		v := desc.String
		out.Description = &v
	}
	return &out, nil
}

func (t *timers) Create(ctx context.Context, m *model.ActiveTimer) (*model.ActiveTimer, error) {
	res, err := t.db.ExecContext(ctx, `
        INSERT INTO active_timers (user_id, task_id, started_at, is_paused, paused_at, total_paused_seconds, pause_reason, description, version)
        VALUES (?,?,?,?,?,?,?,?,1)
        ON CONFLICT (user_id) DO NOTHING
    `, m.UserID, m.TaskID, m.StartedAt.UTC(), m.IsPaused, timePtr(m.PausedAt), m.TotalPausedSeconds, m.PauseReason, m.Description)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrTimerAlreadyActive
	}
	out := *m
	out.Version = 1
	return &out, nil
}

func (t *timers) Update(ctx context.Context, m *model.ActiveTimer) (*model.ActiveTimer, error) {
	res, err := t.db.ExecContext(ctx, `
        UPDATE active_timers
        SET is_paused = ?, paused_at = ?, total_paused_seconds = ?, pause_reason = ?, version = version + 1
        WHERE user_id = ? AND version = ?
    `, m.IsPaused, timePtr(m.PausedAt), m.TotalPausedSeconds, m.PauseReason, m.UserID, m.Version)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, staleWriteErr(ctx, t.db, m.UserID)
	}
	out := *m
	out.Version = m.Version + 1
	return &out, nil
}

func (t *timers) Delete(ctx context.Context, userID string, version int64) error {
	res, err := t.db.ExecContext(ctx, `DELETE FROM active_timers WHERE user_id = ? AND version = ?`, userID, version)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return staleWriteErr(ctx, t.db, userID)
	}
	return nil
}

// rowQuerier lets staleWriteErr run against the pool or an open tx.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func staleWriteErr(ctx context.Context, q rowQuerier, userID string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM active_timers WHERE user_id = ?`, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNoActiveTimer
	}
	if err != nil {
		return err
	}
	return model.ErrConcurrentModification
}

// --- Entries ---

type entries struct{ db *sql.DB }

func (e *entries) Create(ctx context.Context, m *model.TimeEntry) (*model.TimeEntry, error) {
	id := m.EntryID
	if id == "" {
		id = uuid.New().String()
	}
	if _, err := e.db.ExecContext(ctx, `
        INSERT INTO time_entries (entry_id, user_id, task_id, started_at, stopped_at, active_seconds, total_paused_seconds, description)
        VALUES (?,?,?,?,?,?,?,?)
    `, id, m.UserID, m.TaskID, m.StartedAt.UTC(), m.StoppedAt.UTC(), m.ActiveSeconds, m.TotalPausedSeconds, m.Description); err != nil {
		return nil, err
	}
	out := *m
	out.EntryID = id
	return &out, nil
}

func (e *entries) ListByTask(ctx context.Context, taskID string) ([]*model.TimeEntry, error) {
	rows, err := e.db.QueryContext(ctx, `
        SELECT entry_id, user_id, task_id, started_at, stopped_at, active_seconds, total_paused_seconds, description
        FROM time_entries WHERE task_id = ? ORDER BY stopped_at DESC
    `, taskID)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

func (e *entries) ListByUser(ctx context.Context, userID string, limit int) ([]*model.TimeEntry, error) {
	query := `
        SELECT entry_id, user_id, task_id, started_at, stopped_at, active_seconds, total_paused_seconds, description
        FROM time_entries WHERE user_id = ? ORDER BY stopped_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := e.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]*model.TimeEntry, error) {
	defer func() { _ = rows.Close() }()
	var out []*model.TimeEntry
	for rows.Next() {
		var m model.TimeEntry
		var desc sql.NullString
		if err := rows.Scan(&m.EntryID, &m.UserID, &m.TaskID, &m.StartedAt, &m.StoppedAt, &m.ActiveSeconds, &m.TotalPausedSeconds, &desc); err != nil {
			return nil, err
		}
		if desc.Valid {
			v := desc.String
			m.Description = &v
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// --- Tasks ---

type tasks struct{ db *sql.DB }

func (t *tasks) Resolve(ctx context.Context, taskID string) (*model.Task, error) {
	var out model.Task
	out.TaskID = taskID
	var est sql.NullInt64
	row := t.db.QueryRowContext(ctx, `SELECT title, estimated_seconds, creation_time FROM tasks WHERE task_id = ?`, taskID)
	if err := row.Scan(&out.Title, &est, &out.CreationTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrTaskNotFound
		}
		return nil, err
	}
	if est.Valid {
		v := est.Int64
		out.EstimatedSeconds = &v
	}
	return &out, nil
}

func (t *tasks) Upsert(ctx context.Context, m *model.Task) (*model.Task, error) {
	now := time.Now().UTC()
	if _, err := t.db.ExecContext(ctx, `
        INSERT INTO tasks (task_id, title, estimated_seconds, creation_time)
        VALUES (?,?,?,?)
        ON CONFLICT (task_id) DO UPDATE SET title = excluded.title, estimated_seconds = excluded.estimated_seconds
    `, m.TaskID, m.Title, m.EstimatedSeconds, now); err != nil {
		return nil, err
	}
	return t.Resolve(ctx, m.TaskID)
}

func (t *tasks) List(ctx context.Context) ([]*model.Task, error) {
	rows, err := t.db.QueryContext(ctx, `SELECT task_id, title, estimated_seconds, creation_time FROM tasks ORDER BY creation_time DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Task
	for rows.Next() {
		var m model.Task
		var est sql.NullInt64
		if err := rows.Scan(&m.TaskID, &m.Title, &est, &m.CreationTime); err != nil {
			return nil, err
		}
		if est.Valid {
			v := est.Int64
			m.EstimatedSeconds = &v
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// helpers

func timePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
