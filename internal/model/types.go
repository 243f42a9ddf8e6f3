package model

import "time"

// Task is the read-only projection of an externally owned task that the
// tracking core needs: identity, a display title and an optional estimate.
type Task struct {
	TaskID           string    `json:"taskId"`
	Title            string    `json:"title"`
	EstimatedSeconds *int64    `json:"estimatedSeconds,omitempty"`
	CreationTime     time.Time `json:"creationTime"`
}

// ActiveTimer is the single in-progress tracking session for a user.
// At most one exists per user at any time; the store enforces the
// uniqueness and Version backs the optimistic read-modify-write.
type ActiveTimer struct {
	UserID             string     `json:"userId"`
	TaskID             string     `json:"taskId"`
	StartedAt          time.Time  `json:"startedAt"`
	IsPaused           bool       `json:"isPaused"`
	PausedAt           *time.Time `json:"pausedAt,omitempty"`
	TotalPausedSeconds int64      `json:"totalPausedSeconds"`
	PauseReason        *string    `json:"pauseReason,omitempty"`
	Description        *string    `json:"description,omitempty"`

	// Version is store-internal; it never crosses the API boundary.
	Version int64 `json:"-"`
}

// TimeEntry is the immutable record of one completed tracking session.
// Created exactly once when Stop succeeds, never mutated afterwards.
type TimeEntry struct {
	EntryID            string    `json:"entryId"`
	UserID             string    `json:"userId"`
	TaskID             string    `json:"taskId"`
	StartedAt          time.Time `json:"startedAt"`
	StoppedAt          time.Time `json:"stoppedAt"`
	ActiveSeconds      int64     `json:"activeSeconds"`
	TotalPausedSeconds int64     `json:"totalPausedSeconds"`
	Description        *string   `json:"description,omitempty"`
}

// TimerSnapshot is the sole contract between the core and the timer
// widget. When HasActiveTimer is false Timer is nil.
type TimerSnapshot struct {
	HasActiveTimer bool          `json:"hasActiveTimer"`
	Timer          *TimerDetails `json:"timer,omitempty"`
}

// TimerDetails carries the widget-facing fields of an ActiveTimer plus
// the resolved task title.
type TimerDetails struct {
	TaskID             string     `json:"taskId"`
	TaskTitle          string     `json:"taskTitle"`
	StartedAt          time.Time  `json:"startedAt"`
	IsPaused           bool       `json:"isPaused"`
	PausedAt           *time.Time `json:"pausedAt,omitempty"`
	PauseReason        *string    `json:"pauseReason,omitempty"`
	TotalPausedSeconds int64      `json:"totalPausedSeconds"`
	Description        *string    `json:"description,omitempty"`
}

// TaskTimeSummary is the derived per-task aggregate. It is recomputed on
// demand and never persisted. ProgressPercentage is stored uncapped;
// display capping is the presentation layer's concern.
type TaskTimeSummary struct {
	TaskID             string     `json:"taskId"`
	TotalSeconds       int64      `json:"totalSeconds"`
	SessionCount       int        `json:"sessionCount"`
	LastTrackedAt      *time.Time `json:"lastTrackedAt,omitempty"`
	EstimatedSeconds   *int64     `json:"estimatedSeconds,omitempty"`
	ProgressPercentage *float64   `json:"progressPercentage,omitempty"`
	IsOvertime         bool       `json:"isOvertime"`
	IsRecentlyTracked  bool       `json:"isRecentlyTracked"`
}

// TrackingCandidate is one ranked row returned by the task selector.
type TrackingCandidate struct {
	Task          Task       `json:"task"`
	TotalSeconds  int64      `json:"totalSeconds"`
	LastTrackedAt *time.Time `json:"lastTrackedAt,omitempty"`
	IsOvertime    bool       `json:"isOvertime"`
}
