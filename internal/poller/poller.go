// Package poller drives a refresh function on a fixed interval.
//
// Ticks are not mutually exclusive: every tick runs in its own goroutine,
// so a slow refresh overlaps the next one and their results may land out
// of order. Consumers decide how to apply them (see console.ApplyPolicy).
package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var ErrRunning = errors.New("poller already running")

// RefreshFunc performs one tick. gen increases by one for every tick the
// poller starts, across restarts. ctx is cancelled by Stop.
type RefreshFunc func(ctx context.Context, gen uint64) error

type Poller struct {
	name   string
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	gen      atomic.Uint64
	alive    atomic.Bool
	inflight sync.WaitGroup
}

func New(name string, logger *slog.Logger) *Poller {
	return &Poller{name: name, logger: logger}
}

// Start invokes fn once immediately and then every interval until Stop is
// called or ctx is done.
func (p *Poller) Start(ctx context.Context, interval time.Duration, fn RefreshFunc) error {
	if interval <= 0 {
		return errors.New("poller interval must be positive")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return ErrRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.alive.Store(true)

	go p.loop(ctx, interval, fn, p.done)
	return nil
}

func (p *Poller) loop(ctx context.Context, interval time.Duration, fn RefreshFunc, done chan struct{}) {
	defer close(done)
	defer p.alive.Store(false)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.tick(ctx, fn)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			p.tick(ctx, fn)
		}
	}
}

func (p *Poller) tick(ctx context.Context, fn RefreshFunc) {
	gen := p.gen.Add(1)
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		if err := fn(ctx, gen); err != nil && ctx.Err() == nil {
			p.logger.Warn("poll tick failed", "poller", p.name, "generation", gen, "error", err)
		}
	}()
}

// Stop cancels the timer. Once it returns no further tick starts; ticks
// already in flight see their context cancelled but are not awaited.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Alive reports whether the poller is between Start and Stop.
func (p *Poller) Alive() bool { return p.alive.Load() }

// Generation is the number of ticks started so far.
func (p *Poller) Generation() uint64 { return p.gen.Load() }

// Wait blocks until every tick started so far has returned.
func (p *Poller) Wait() { p.inflight.Wait() }
