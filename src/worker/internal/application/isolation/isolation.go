// Package isolation runs a task somewhere it can be killed without taking the worker with it.
package isolation

import (
	"context"
	"time"

	"github.com/veedubyou/stemsplit-be/src/worker/internal/lib/cerr"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

type Status string

const (
	Completed Status = "completed"
	Cancelled Status = "cancelled"
	Crashed   Status = "crashed"
	TimedOut  Status = "timed_out"
	// Failed means the task ran to the end and reported an error itself
	Failed Status = "failed"
)

type Outcome struct {
	Status Status
	Result []byte
	// Err explains every status except Completed and Cancelled
	Err error
}

// Task takes and returns msgpack encoded payloads so it can cross a process boundary.
type Task func(ctx context.Context, args []byte) ([]byte, error)

// TaskTable is shared by the parent, which checks names, and the child, which runs them.
type TaskTable map[string]Task

func (t TaskTable) lookup(name string) (Task, error) {
	task, ok := t[name]
	if !ok {
		return nil, cerr.Field("task", name).Error("Unknown isolated task")
	}
	return task, nil
}

//counterfeiter:generate . Isolator
type Isolator interface {
	// Run blocks until the task finishes, ctx is cancelled or timeout passes.
	// A zero timeout waits forever.
	Run(ctx context.Context, task string, args []byte, timeout time.Duration) Outcome
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
