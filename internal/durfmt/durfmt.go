// Package durfmt converts whole-second counts to and from the display
// forms used by the timer widget and summary views.
package durfmt

import (
	"fmt"
	"strconv"
	"strings"
)

// Format renders seconds as fixed-width MM:SS, switching to HH:MM:SS at
// one hour. Negative input is treated as zero.
func Format(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// FormatHuman renders seconds in approximate natural language:
// "2h 15m", "45m", "30s". Below a minute it reports seconds; above,
// leftover seconds are dropped.
func FormatHuman(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// Parse reverses Format. It accepts MM:SS and HH:MM:SS and returns the
// represented second count, so Parse(Format(n)) == n for any n >= 0.
func Parse(s string) (int64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("durfmt: malformed duration %q", s)
	}
	var total int64
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("durfmt: malformed duration %q", s)
		}
		total = total*60 + n
	}
	return total, nil
}
