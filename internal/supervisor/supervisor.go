// Package supervisor runs crawl workers as named sweep loops, decoupling
// what a sweep does from how often it recurs and how failures are retried.
package supervisor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Gustavo-Feijo/league-crawler/internal/telemetry"
)

// Task is one supervised loop: an optional one-time Init, then Sweep
// repeated forever with Idle between successful runs and RestartBackoff
// after failed ones.
type Task struct {
	Name           string
	Init           func(ctx context.Context) error
	Sweep          func(ctx context.Context) error
	Idle           time.Duration
	RestartBackoff time.Duration
}

// Supervisor fans tasks out to goroutines and blocks until all of them
// observe context cancellation.
type Supervisor struct {
	logger *zap.Logger
	tasks  []Task
}

// New creates an empty Supervisor.
func New(logger *zap.Logger) *Supervisor {
	return &Supervisor{logger: logger}
}

// Add registers a task. Must be called before Run.
func (s *Supervisor) Add(t Task) {
	s.tasks = append(s.tasks, t)
}

// Run starts every task and blocks until the context finishes and all
// loops have drained their in-flight sweep.
func (s *Supervisor) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, t := range s.tasks {
		wg.Add(1)
		go func(t Task) {
			defer wg.Done()
			s.runTask(ctx, t)
		}(t)
	}
	wg.Wait()
}

func (s *Supervisor) runTask(ctx context.Context, t Task) {
	log := s.logger.With(zap.String("task", t.Name))
	telemetry.WorkerStarted()
	defer telemetry.WorkerStopped()

	if t.Init != nil {
		if err := t.Init(ctx); err != nil {
			if ctx.Err() == nil {
				log.Error("task init failed, task not started", zap.Error(err))
			}
			return
		}
	}
	log.Info("task started")

	for {
		if ctx.Err() != nil {
			log.Info("task stopped")
			return
		}
		pause := t.Idle
		if err := t.Sweep(ctx); err != nil {
			if ctx.Err() != nil {
				log.Info("task stopped")
				return
			}
			telemetry.SweepFinished(t.Name, "error")
			log.Error("sweep failed", zap.Error(err))
			pause = t.RestartBackoff
		} else {
			telemetry.SweepFinished(t.Name, "ok")
		}
		if pause > 0 {
			if !sleep(ctx, pause) {
				log.Info("task stopped")
				return
			}
		}
	}
}

// sleep pauses for d, returning false when the context finished first.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
