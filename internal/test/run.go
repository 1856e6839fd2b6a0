package test

import (
	"context"
	"errors"
	"testing"
	"time"
)

// TaskRunner launches a task in the background.
type TaskRunner struct {
	t  *testing.T
	fn func(ctx context.Context) error
}

// RunInBackground returns a [TaskRunner] that executes fn in its own goroutine.
func RunInBackground(
	t *testing.T,
	fn func(ctx context.Context) error,
) TaskRunner {
	t.Helper()
	return TaskRunner{t, fn}
}

// UntilStopped executes the task in its own goroutine until the test ends or it
// is stopped explicitly.
//
// A task that is stopped explicitly reports the error it returned, so a server
// that shuts down cleanly reports nil.
func (r TaskRunner) UntilStopped() *Task {
	r.t.Helper()

	ctx, cancel := context.WithCancelCause(context.Background())

	task := &Task{
		t:      r.t,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		task.err = r.fn(ctx)
		close(task.done)
	}()

	r.t.Cleanup(func() {
		r.t.Helper()

		cancel(errStopped)

		select {
		case <-task.done:
		case <-time.After(shutdownTimeout):
			r.t.Errorf("background task's context was canceled but it did not return within %s", shutdownTimeout)
		}
	})

	return task
}

const shutdownTimeout = 10 * time.Second

var errStopped = errors.New("task stopped")

// Task represents a function running in the background.
type Task struct {
	t      TestingT
	cancel context.CancelCauseFunc
	done   chan struct{}
	err    error
}

// Stop cancels the context passed to the function.
func (t *Task) Stop() {
	t.cancel(errStopped)
}

// Done returns a channel that is closed when the function returns.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the error returned by the function.
//
// It fails the test if the function has not yet returned.
func (t *Task) Err() error {
	t.t.Helper()

	select {
	case <-t.done:
	default:
		t.t.Fatal("background task has not returned")
	}

	return t.err
}
