package artifact

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Janitor periodically evicts artifacts older than a TTL.
type Janitor struct {
	store    Store
	ttl      time.Duration
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	// OnEvict, when set, is called with the count of every non-empty sweep.
	OnEvict func(int)
}

// NewJanitor creates a janitor for store.
func NewJanitor(store Store, ttl, interval time.Duration, logger *zap.Logger) *Janitor {
	return &Janitor{
		store:    store,
		ttl:      ttl,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Run sweeps every interval until ctx is done.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info("artifact janitor started",
		zap.Duration("ttl", j.ttl),
		zap.Duration("interval", j.interval),
	)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("artifact janitor stopped")
			return
		case <-ticker.C:
			if _, err := j.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				j.logger.Warn("artifact sweep failed", zap.Error(err))
			}
		}
	}
}

// SweepOnce evicts everything older than the TTL.
func (j *Janitor) SweepOnce(ctx context.Context) (int, error) {
	cutoff := j.now().Add(-j.ttl)
	n, err := j.store.Sweep(ctx, cutoff)
	if n > 0 {
		j.logger.Debug("artifacts evicted", zap.Int("count", n), zap.Time("cutoff", cutoff))
		if j.OnEvict != nil {
			j.OnEvict(n)
		}
	}
	return n, err
}
