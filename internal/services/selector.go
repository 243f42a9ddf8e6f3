package services

import (
	"context"
	"sort"

	"github.com/opsdeck/timetracker/internal/model"
	"github.com/opsdeck/timetracker/internal/store"
)

// SelectorService ranks tasks for the "pick a tracking target" list.
// It is a read-only consumer of the entry log and the task catalog:
// over-budget tasks come first, then recently tracked ones, then the
// untracked remainder of the catalog.
type SelectorService struct {
	store store.Store
}

func NewSelectorService(s store.Store) *SelectorService {
	return &SelectorService{store: s}
}

// Candidates returns the ranked tracking targets for a user.
func (s *SelectorService) Candidates(ctx context.Context, userID string) ([]*model.TrackingCandidate, error) {
	entries, err := s.store.Entries().ListByUser(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	catalog, err := s.store.Tasks().List(ctx)
	if err != nil {
		return nil, err
	}

	byTask := make(map[string]*model.TrackingCandidate, len(catalog))
	var out []*model.TrackingCandidate
	for _, task := range catalog {
		c := &model.TrackingCandidate{Task: *task}
		byTask[task.TaskID] = c
		out = append(out, c)
	}

	for _, e := range entries {
		c, ok := byTask[e.TaskID]
		if !ok {
			// Entry for a task that left the catalog; nothing to rank.
			continue
		}
		c.TotalSeconds += e.ActiveSeconds
		if c.LastTrackedAt == nil || e.StoppedAt.After(*c.LastTrackedAt) {
			v := e.StoppedAt
			c.LastTrackedAt = &v
		}
	}
	for _, c := range out {
		if c.Task.EstimatedSeconds != nil && *c.Task.EstimatedSeconds > 0 {
			c.IsOvertime = c.TotalSeconds > *c.Task.EstimatedSeconds
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsOvertime != b.IsOvertime {
			return a.IsOvertime
		}
		switch {
		case a.LastTrackedAt == nil && b.LastTrackedAt == nil:
			return a.Task.CreationTime.After(b.Task.CreationTime)
		case a.LastTrackedAt == nil:
			return false
		case b.LastTrackedAt == nil:
			return true
		default:
			return a.LastTrackedAt.After(*b.LastTrackedAt)
		}
	})
	return out, nil
}
