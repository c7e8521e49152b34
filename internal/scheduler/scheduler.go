// Package scheduler implements the background poller. It samples every
// registered cheap collector at a fixed interval and publishes the results
// into the telemetry cache. The poller is the only writer of the cache.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/Guliveer/vitalis/spy/internal/cache"
	"github.com/Guliveer/vitalis/spy/internal/collector"
	"github.com/Guliveer/vitalis/spy/internal/models"
)

// DefaultInterval is used when New is given a non-positive interval.
const DefaultInterval = time.Second

// Poller periodically collects cheap metrics into a cache.Store.
//
// Start must not be called while the poller is already running.
type Poller struct {
	registry *collector.Registry
	store    *cache.Store
	interval time.Duration
	logger   *zap.Logger

	running    atomic.Bool
	iterations atomic.Uint64

	mu     sync.Mutex
	stopCh chan struct{}
	done   chan struct{}
}

// New creates a stopped Poller.
func New(registry *collector.Registry, store *cache.Store, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		registry: registry,
		store:    store,
		interval: interval,
		logger:   logger.Named("poller"),
	}
}

// Start launches the polling loop. The first iteration runs immediately.
// The loop exits when Stop is called or ctx is cancelled.
func (p *Poller) Start(ctx context.Context) {
	stopCh := make(chan struct{})
	done := make(chan struct{})

	p.mu.Lock()
	p.stopCh = stopCh
	p.done = done
	p.mu.Unlock()

	p.running.Store(true)
	p.logger.Info("Poller started", zap.Duration("interval", p.interval))

	go p.loop(ctx, stopCh, done)
}

// Stop clears the running flag and waits for the in-flight iteration to
// finish. No cache writes happen after Stop returns. Stopping a stopped
// poller is a no-op.
func (p *Poller) Stop() {
	p.mu.Lock()
	stopCh, done := p.stopCh, p.done
	p.stopCh, p.done = nil, nil
	p.mu.Unlock()

	if stopCh == nil {
		return
	}
	p.running.Store(false)
	close(stopCh)
	<-done
	p.logger.Info("Poller stopped", zap.Uint64("iterations", p.iterations.Load()))
}

// Running reports whether the loop is active.
func (p *Poller) Running() bool {
	return p.running.Load()
}

// Iterations returns the number of completed poll iterations.
func (p *Poller) Iterations() uint64 {
	return p.iterations.Load()
}

func (p *Poller) loop(ctx context.Context, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer p.running.Store(false)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			if !p.running.Load() {
				return
			}
			p.tick(ctx)
		}
	}
}

// tick samples each registered collector in order. A failing collector
// publishes the default record for its kind and does not affect the others.
func (p *Poller) tick(ctx context.Context) {
	for _, c := range p.registry.Collectors() {
		if !p.running.Load() || ctx.Err() != nil {
			return
		}
		kind := c.Kind()
		rec, err := c.Collect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("Collector failed", zap.String("kind", string(kind)), zap.Error(err))
			rec = models.Default(kind)
		}
		if rec == nil {
			continue
		}
		if err := p.store.Publish(rec); err != nil {
			p.logger.Error("Publish failed", zap.String("kind", string(kind)), zap.Error(err))
		}
	}
	p.iterations.Inc()
}
