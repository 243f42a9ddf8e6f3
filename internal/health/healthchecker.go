package health

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// HealthChecker is implemented by component-level checkers (store, API
// dependencies). Checkers cache their state so IsHealthy never blocks.
type HealthChecker interface {
	Name() string
	IsHealthy() bool
	Start(ctx context.Context, interval time.Duration)
}

// ServiceHealthChecker aggregates component checkers into a single
// service health flag and remembers which dependencies are failing.
type ServiceHealthChecker struct {
	mu      sync.RWMutex
	healthy bool
	failing []string

	deps []HealthChecker
	log  zerolog.Logger
}

func NewServiceHealthChecker(log zerolog.Logger, deps ...HealthChecker) *ServiceHealthChecker {
	return &ServiceHealthChecker{deps: deps, log: log}
}

// IsHealthy returns cached service health.
func (h *ServiceHealthChecker) IsHealthy() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.healthy
}

// FailingDeps returns the names of dependencies that failed the last
// evaluation, sorted, or nil when the service is healthy.
func (h *ServiceHealthChecker) FailingDeps() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.failing) == 0 {
		return nil
	}
	out := make([]string, len(h.failing))
	copy(out, h.failing)
	return out
}

// Start periodically evaluates dependency health and updates the
// cached flag. Transitions are logged with the failing dependency
// names so operators can tell a store outage from anything else.
func (h *ServiceHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	wasHealthy := false
	eval := func() {
		var failing []string
		for _, c := range h.deps {
			if !c.IsHealthy() {
				failing = append(failing, c.Name())
			}
		}
		sort.Strings(failing)
		healthy := len(failing) == 0

		h.mu.Lock()
		h.healthy = healthy
		h.failing = failing
		h.mu.Unlock()

		if healthy != wasHealthy {
			if healthy {
				h.log.Info().Msg("service health: UP")
			} else {
				h.log.Error().Str("failing", strings.Join(failing, ",")).Msg("service health: DOWN")
			}
			wasHealthy = healthy
		}
	}

	eval()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			eval()
		}
	}
}
