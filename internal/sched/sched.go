// Package sched provides the cancellable repeating task used for the
// session's periodic checks. Start and stop are explicit so callers can tie
// a task's lifetime to authentication-state transitions instead of ambient
// lifecycle hooks.
package sched

import (
	"sync"
	"time"
)

// Task is a repeating background job. Stop is idempotent and returns after
// the job goroutine has observed the stop signal; an in-flight run of fn is
// allowed to finish.
type Task struct {
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// Every runs fn on the given interval until Stop is called. The first run
// happens one interval after Every returns, not immediately.
func Every(interval time.Duration, fn func()) *Task {
	t := &Task{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go func() {
		defer close(t.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-t.stop:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()

	return t
}

// Stop cancels the task and waits for its goroutine to exit.
func (t *Task) Stop() {
	t.stopOnce.Do(func() {
		close(t.stop)
	})
	<-t.done
}
