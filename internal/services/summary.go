package services

import (
	"context"
	"time"

	"github.com/opsdeck/timetracker/internal/model"
	"github.com/opsdeck/timetracker/internal/store"
)

// recencyWindow bounds IsRecentlyTracked; a ranking hint only, not a
// correctness-critical value.
const recencyWindow = 24 * time.Hour

// SummaryService is the read side: it folds the append-only time-entry
// log into per-task totals. A still-running timer is never counted;
// only Stop commits an entry.
type SummaryService struct {
	store store.Store
	now   func() time.Time
}

func NewSummaryService(s store.Store) *SummaryService {
	return &SummaryService{store: s, now: time.Now}
}

func NewSummaryServiceWithClock(s store.Store, now func() time.Time) *SummaryService {
	return &SummaryService{store: s, now: now}
}

// Summarize recomputes the task's aggregate from all of its entries.
func (s *SummaryService) Summarize(ctx context.Context, taskID string) (*model.TaskTimeSummary, error) {
	task, err := s.store.Tasks().Resolve(ctx, taskID)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.Entries().ListByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	out := &model.TaskTimeSummary{
		TaskID:           taskID,
		EstimatedSeconds: task.EstimatedSeconds,
	}
	for _, e := range entries {
		out.TotalSeconds += e.ActiveSeconds
		out.SessionCount++
		if out.LastTrackedAt == nil || e.StoppedAt.After(*out.LastTrackedAt) {
			v := e.StoppedAt
			out.LastTrackedAt = &v
		}
	}

	if task.EstimatedSeconds != nil && *task.EstimatedSeconds > 0 {
		pct := float64(out.TotalSeconds) / float64(*task.EstimatedSeconds) * 100
		out.ProgressPercentage = &pct
		out.IsOvertime = out.TotalSeconds > *task.EstimatedSeconds
	}
	if out.LastTrackedAt != nil {
		out.IsRecentlyTracked = s.now().Sub(*out.LastTrackedAt) <= recencyWindow
	}
	return out, nil
}
