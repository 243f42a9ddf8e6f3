package model

import "errors"

// Timer command errors. Handlers map these with errors.Is, so store and
// service layers must wrap rather than replace them.
var (
	ErrTimerAlreadyActive     = errors.New("timer already active")
	ErrNoActiveTimer          = errors.New("no active timer")
	ErrTimerAlreadyPaused     = errors.New("timer already paused")
	ErrTimerNotPaused         = errors.New("timer not paused")
	ErrInvalidPauseReason     = errors.New("invalid pause reason")
	ErrTaskNotFound           = errors.New("task not found")
	ErrConcurrentModification = errors.New("timer state changed concurrently")
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
)
