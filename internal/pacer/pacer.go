package pacer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"anitransfer/internal/logging"
	"anitransfer/internal/stats"
)

// Pacer enforces a minimum interval between outbound API requests. It is a
// single logical clock: all callers serialize through one instance so the
// interval holds across the whole process, not per query.
type Pacer struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	logger   *slog.Logger
	stats    *stats.Stats

	now   func() time.Time
	timer func(time.Duration) <-chan time.Time
}

// Option configures a Pacer.
type Option func(*Pacer)

// WithClock overrides the time source and timer, for tests.
func WithClock(now func() time.Time, timer func(time.Duration) <-chan time.Time) Option {
	return func(p *Pacer) {
		if now != nil {
			p.now = now
		}
		if timer != nil {
			p.timer = timer
		}
	}
}

// New creates a pacer with the given minimum interval. A zero or negative
// interval produces a pacer whose Wait never blocks.
func New(interval time.Duration, logger *slog.Logger, st *stats.Stats, opts ...Option) *Pacer {
	p := &Pacer{
		interval: interval,
		logger:   logging.NewComponentLogger(logger, "pacer"),
		stats:    st,
		now:      time.Now,
		timer:    func(d time.Duration) <-chan time.Time { return time.After(d) },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Wait blocks until at least the configured interval has elapsed since the
// previous Wait returned, then records now as the new reference point. The
// first call never blocks. Waiting time is accumulated into the statistics
// aggregate. Wait returns early with the context error on cancellation.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.interval > 0 && !p.last.IsZero() {
		elapsed := p.now().Sub(p.last)
		if remaining := p.interval - elapsed; remaining > 0 {
			p.logger.Debug("throttling request", logging.Duration("wait", remaining))
			select {
			case <-p.timer(remaining):
			case <-ctx.Done():
				return ctx.Err()
			}
			if p.stats != nil {
				p.stats.Add(stats.MillisWaiting, remaining.Milliseconds())
			}
		}
	}

	p.last = p.now()
	return nil
}
