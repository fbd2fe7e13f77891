package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/caldog20/tempnet/pkg/keys"
)

const DefaultSweepInterval = time.Minute

// Sweeper periodically evicts expired peers through the Manager.
type Sweeper struct {
	manager   *Manager
	interval  time.Duration
	warnAfter int

	mu       sync.Mutex
	failures map[keys.PublicKey]int
}

// NewSweeper returns a sweeper that runs every interval. A peer whose removal
// fails on warnAfter consecutive sweeps is logged at warn level; zero disables
// the warning.
func NewSweeper(m *Manager, interval time.Duration, warnAfter int) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		manager:   m,
		interval:  interval,
		warnAfter: warnAfter,
		failures:  make(map[keys.PublicKey]int),
	}
}

// Run sweeps on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	t := s.manager.clock.Ticker(s.interval)
	defer t.Stop()

	s.manager.logger.Info("expiry sweeper started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.manager.logger.Info("expiry sweeper stopped")
			return nil
		case <-t.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one sweep immediately.
func (s *Sweeper) Tick(ctx context.Context) SweepResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.manager.Sweep(ctx)

	for _, p := range res.Evicted {
		delete(s.failures, p.PublicKey)
	}
	for _, f := range res.Failed {
		s.failures[f.Peer.PublicKey]++
		n := s.failures[f.Peer.PublicKey]
		if s.warnAfter > 0 && n >= s.warnAfter {
			s.manager.logger.Warn("expired peer still on interface",
				"address", f.Peer.Address,
				"public_key", f.Peer.PublicKey.ShortString(),
				"failed_sweeps", n,
				"error", f.Err,
			)
		}
	}
	for key := range s.failures {
		if _, ok := s.manager.Lookup(key); !ok {
			delete(s.failures, key)
		}
	}

	if len(res.Evicted) > 0 || len(res.Failed) > 0 {
		s.manager.logger.Debug("sweep finished", "evicted", len(res.Evicted), "failed", len(res.Failed))
	}
	return res
}

// FailureCount reports how many consecutive sweeps failed to remove key.
func (s *Sweeper) FailureCount(key keys.PublicKey) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[key]
}
