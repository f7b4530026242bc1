package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Task is one run of a periodic job. It returns how many units it handled.
type Task func(ctx context.Context) (int, error)

// Periodic runs a Task once on Start and then every interval until Stop.
// Runs never overlap. A failing or panicking run is logged and the next tick
// proceeds normally.
type Periodic struct {
	name     string
	interval time.Duration
	task     Task
	logger   *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

func NewPeriodic(name string, interval time.Duration, task Task, logger *slog.Logger) *Periodic {
	return &Periodic{
		name:     name,
		interval: interval,
		task:     task,
		logger:   logger.With(slog.String("worker", name)),
	}
}

// Start is a no-op while already running.
func (p *Periodic) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true

	go p.loop(runCtx, p.done)
	p.logger.Info("worker started", slog.Duration("interval", p.interval))
}

// Stop cancels the current run and waits for the loop to exit or ctx to end.
func (p *Periodic) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.cancel()
	done := p.done
	p.running = false
	p.mu.Unlock()

	select {
	case <-done:
		p.logger.Info("worker stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop %s worker: %w", p.name, ctx.Err())
	}
}

func (p *Periodic) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	p.runOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

func (p *Periodic) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker run panicked", slog.Any("panic", r))
		}
	}()

	start := time.Now()
	n, err := p.task(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Error("worker run failed", slog.String("error", err.Error()))
		return
	}
	p.logger.Debug("worker run finished",
		slog.Int("handled", n),
		slog.Duration("elapsed", time.Since(start)),
	)
}
