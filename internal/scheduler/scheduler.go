package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Task is periodic work. A task's Run never overlaps with itself: the next
// run is timed from the end of the previous one.
type Task interface {
	Run(ctx context.Context) error
	Interval() time.Duration
	Name() string
}

// Scheduler drives a fixed set of tasks, one goroutine each
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	tasks  []Task
	wg     sync.WaitGroup
}

func New(ctx context.Context) *Scheduler {
	ctx, cancel := context.WithCancel(ctx)
	return &Scheduler{ctx: ctx, cancel: cancel}
}

// AddTask registers task. Tasks registered after Start are ignored.
func (s *Scheduler) AddTask(task Task) {
	s.tasks = append(s.tasks, task)
}

// Start launches every registered task; each runs once right away
func (s *Scheduler) Start() {
	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.loop(task)
	}
	slog.Info("Scheduler running", "tasks", len(s.tasks))
}

// Stop cancels the shared context and blocks until every loop has returned
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	slog.Info("Scheduler stopped")
}

func (s *Scheduler) loop(task Task) {
	defer s.wg.Done()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-timer.C:
			s.runOnce(task)
			timer.Reset(task.Interval())
		}
	}
}

func (s *Scheduler) runOnce(task Task) {
	start := time.Now()
	err := task.Run(s.ctx)
	switch {
	case err == nil:
		slog.Debug("Task completed", "task", task.Name(), "duration", time.Since(start))
	case errors.Is(err, context.Canceled) && s.ctx.Err() != nil:
		// shutting down
	default:
		slog.Error("Task failed", "task", task.Name(), "error", err, "duration", time.Since(start))
	}
}
