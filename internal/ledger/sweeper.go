package ledger

import (
	"context"
	"time"

	"github.com/qurbani/share-reservations/internal/obs"
	"go.uber.org/zap"
)

const DefaultSweepInterval = 60 * time.Second

// Sweeper periodically returns the shares of abandoned carts to the pool.
type Sweeper struct {
	ledger   *Ledger
	logger   *zap.Logger
	metrics  *obs.Metrics
	interval time.Duration
}

func NewSweeper(l *Ledger, logger *zap.Logger, metrics *obs.Metrics, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		ledger:   l,
		logger:   logger,
		metrics:  metrics,
		interval: interval,
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	s.SweepOnce()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			s.SweepOnce()
		}
	}
}

func (s *Sweeper) SweepOnce() int {
	start := time.Now()
	removed := s.ledger.SweepExpired()
	remaining := s.ledger.Len()
	s.metrics.RecordSweep(removed, remaining)

	if removed > 0 {
		s.logger.Info("expired holds swept",
			zap.Int("removed", removed),
			zap.Int("remaining", remaining),
			zap.Duration("took", time.Since(start)),
		)
	}
	return removed
}
