package recorder

import (
	"context"
	"log/slog"
	"time"

	"clip-sync/internal/platform/metrics"
)

// Reaper defaults, overridable via NewReaper.
const (
	DefaultReapInterval = 10 * time.Minute
	DefaultSessionTTL   = 24 * time.Hour
)

// Reaper periodically evicts sessions whose close event never arrived.
// Eviction is per entry by last activity, so sessions still legitimately
// recording survive while abandoned ones are bounded to one TTL of memory.
type Reaper struct {
	svc      *Service
	interval time.Duration
	ttl      time.Duration
	log      *slog.Logger
	metrics  *metrics.Metrics
}

// NewReaper returns a Reaper sweeping svc every interval with the given
// TTL. Non-positive values select the defaults. Metrics may be nil.
func NewReaper(svc *Service, interval, ttl time.Duration, log *slog.Logger, m *metrics.Metrics) *Reaper {
	if interval <= 0 {
		interval = DefaultReapInterval
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Reaper{svc: svc, interval: interval, ttl: ttl, log: log, metrics: m}
}

// Run sweeps on every tick until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			evicted := r.svc.Sweep(r.ttl)
			if len(evicted) == 0 {
				continue
			}
			ids := make([]string, len(evicted))
			for i, id := range evicted {
				ids[i] = string(id)
			}
			r.log.Info("evicted stale sessions",
				slog.Int("count", len(ids)),
				slog.Any("session_ids", ids))
			if r.metrics != nil {
				r.metrics.AddSessionsReaped(len(ids))
			}
		}
	}
}
