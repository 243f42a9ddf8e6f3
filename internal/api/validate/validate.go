package validate

import (
	"fmt"
	"regexp"
	"strings"
)

// userIdRx keeps user ids URL-safe: lowercase letters, digits,
// underscore and hyphen, 1-40 chars.
var userIdRx = regexp.MustCompile(`^[a-z0-9_-]{1,40}$`)

// taskIdRx is deliberately loose; task ids come from the external task
// system and we only require something printable without separators.
var taskIdRx = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,64}$`)

func UserID(v string) error {
	if v == "" {
		return fmt.Errorf("userId is required")
	}
	if !userIdRx.MatchString(v) {
		return fmt.Errorf("userId must match %s", userIdRx.String())
	}
	return nil
}

func TaskID(v string) error {
	if v == "" {
		return fmt.Errorf("taskId is required")
	}
	if !taskIdRx.MatchString(v) {
		return fmt.Errorf("taskId must match %s", taskIdRx.String())
	}
	return nil
}

// PauseReason requires a non-empty classification label. Callers keep
// it an open string; presets are suggestions, not an enum.
func PauseReason(v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("reason must not be empty")
	}
	if len(v) > 200 {
		return fmt.Errorf("reason exceeds 200 characters")
	}
	return nil
}

func TaskTitle(v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("title is required")
	}
	if len(v) > 200 {
		return fmt.Errorf("title exceeds 200 characters")
	}
	return nil
}

func MaxLen(field string, v *string, limit int) error {
	if v == nil {
		return nil
	}
	if len(*v) > limit {
		return fmt.Errorf("%s exceeds %d characters", field, limit)
	}
	return nil
}

// Estimate rejects negative estimates; nil means "no estimate".
func Estimate(v *int64) error {
	if v != nil && *v < 0 {
		return fmt.Errorf("estimatedSeconds must not be negative")
	}
	return nil
}
