package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/opsdeck/timetracker/internal/model"
	"github.com/opsdeck/timetracker/internal/store"
	"github.com/opsdeck/timetracker/internal/store/migrations"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// NewWithDB constructs a native Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Timers() store.Timers   { return &timers{db: s.db} }
func (s *pgStore) Entries() store.Entries { return &entries{db: s.db} }
func (s *pgStore) Tasks() store.Tasks     { return &tasks{db: s.db} }

// HealthPing implements health.HealthPinger for the Postgres-backed store.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// StopSession deletes the timer and writes the entry in one transaction.
func (s *pgStore) StopSession(ctx context.Context, userID string, version int64, e *model.TimeEntry) (*model.TimeEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM active_timers WHERE user_id=$1 AND version=$2`, userID, version)
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
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    `, id, e.UserID, e.TaskID, e.StartedAt, e.StoppedAt, e.ActiveSeconds, e.TotalPausedSeconds, e.Description); err != nil {
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
        FROM active_timers WHERE user_id=$1
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
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,1)
        ON CONFLICT (user_id) DO NOTHING
    `, m.UserID, m.TaskID, m.StartedAt, m.IsPaused, timePtr(m.PausedAt), m.TotalPausedSeconds, m.PauseReason, m.Description)
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
        SET is_paused=$1, paused_at=$2, total_paused_seconds=$3, pause_reason=$4, version=version+1
        WHERE user_id=$5 AND version=$6
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
	res, err := t.db.ExecContext(ctx, `DELETE FROM active_timers WHERE user_id=$1 AND version=$2`, userID, version)
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

// staleWriteErr distinguishes a vanished row from a version conflict
// after a guarded write touched nothing.
func staleWriteErr(ctx context.Context, q rowQuerier, userID string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM active_timers WHERE user_id=$1`, userID).Scan(&one)
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
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    `, id, m.UserID, m.TaskID, m.StartedAt, m.StoppedAt, m.ActiveSeconds, m.TotalPausedSeconds, m.Description); err != nil {
		return nil, err
	}
	out := *m
	out.EntryID = id
	return &out, nil
}

func (e *entries) ListByTask(ctx context.Context, taskID string) ([]*model.TimeEntry, error) {
	rows, err := e.db.QueryContext(ctx, `
        SELECT entry_id, user_id, task_id, started_at, stopped_at, active_seconds, total_paused_seconds, description
        FROM time_entries WHERE task_id=$1 ORDER BY stopped_at DESC
    `, taskID)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

func (e *entries) ListByUser(ctx context.Context, userID string, limit int) ([]*model.TimeEntry, error) {
	query := `
        SELECT entry_id, user_id, task_id, started_at, stopped_at, active_seconds, total_paused_seconds, description
        FROM time_entries WHERE user_id=$1 ORDER BY stopped_at DESC`
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
	row := t.db.QueryRowContext(ctx, `SELECT title, estimated_seconds, creation_time FROM tasks WHERE task_id=$1`, taskID)
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
	var created time.Time
	row := t.db.QueryRowContext(ctx, `
        INSERT INTO tasks (task_id, title, estimated_seconds)
        VALUES ($1,$2,$3)
        ON CONFLICT (task_id) DO UPDATE SET title=EXCLUDED.title, estimated_seconds=EXCLUDED.estimated_seconds
        RETURNING creation_time
    `, m.TaskID, m.Title, m.EstimatedSeconds)
	if err := row.Scan(&created); err != nil {
		return nil, err
	}
	out := *m
	out.CreationTime = created
	return &out, nil
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
	return *t
}
