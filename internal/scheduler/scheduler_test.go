package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingTask struct {
	runs     atomic.Int32
	interval time.Duration
	err      error
}

func (c *countingTask) Run(ctx context.Context) error {
	c.runs.Add(1)
	return c.err
}

func (c *countingTask) Interval() time.Duration { return c.interval }
func (c *countingTask) Name() string            { return "counting" }

func TestScheduler_RunsImmediately(t *testing.T) {
	task := &countingTask{interval: time.Hour}
	s := New(context.Background())
	s.AddTask(task)

	s.Start()
	assert.Eventually(t, func() bool { return task.runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	s.Stop()

	assert.Equal(t, int32(1), task.runs.Load())
}

func TestScheduler_RunsOnInterval(t *testing.T) {
	task := &countingTask{interval: 10 * time.Millisecond}
	s := New(context.Background())
	s.AddTask(task)

	s.Start()
	assert.Eventually(t, func() bool { return task.runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()

	// No runs after Stop returns
	stopped := task.runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, task.runs.Load())
}

func TestScheduler_ErrorsDoNotStopTask(t *testing.T) {
	task := &countingTask{interval: 10 * time.Millisecond, err: errors.New("boom")}
	s := New(context.Background())
	s.AddTask(task)

	s.Start()
	assert.Eventually(t, func() bool { return task.runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
	s.Stop()
}

func TestScheduler_ParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	task := &countingTask{interval: time.Hour}
	s := New(ctx)
	s.AddTask(task)

	s.Start()
	cancel()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after parent cancel")
	}
}
