package isolation

import (
	"context"
	"time"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	jobentity "github.com/veedubyou/stemsplit-be/src/shared/job/entity"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/errors/mark"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/lib/cerr"
)

var _ Isolator = GoroutineIsolator{}

// GoroutineIsolator runs tasks in this process. Cancellation returns immediately but the
// task only stops once it checks its context, and a leak in the task is this process's leak.
type GoroutineIsolator struct {
	table TaskTable
}

func NewGoroutineIsolator(table TaskTable) GoroutineIsolator {
	return GoroutineIsolator{table: table}
}

type taskResult struct {
	result   []byte
	err      error
	panicked bool
}

func (g GoroutineIsolator) Run(ctx context.Context, name string, args []byte, timeout time.Duration) Outcome {
	task, err := g.table.lookup(name)
	if err != nil {
		return Outcome{Status: Failed, Err: err}
	}

	logger := log.WithFields(log.Fields{
		"task":    name,
		"timeout": timeout,
	})

	taskCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	finished := make(chan taskResult, 1)
	go func() {
		defer func() {
			if recovered := recover(); recovered != nil {
				finished <- taskResult{err: errors.Newf("panic: %v", recovered), panicked: true}
			}
		}()

		result, err := task(taskCtx, args)
		finished <- taskResult{result: result, err: err}
	}()

	var done taskResult
	select {
	case done = <-finished:
	case <-taskCtx.Done():
	}

	// a task that gave up because of its context reports the interruption, not its own error
	if taskCtx.Err() != nil {
		if ctx.Err() != nil {
			logger.Info("Isolated task was cancelled")
			return Outcome{Status: Cancelled}
		}

		logger.Warn("Isolated task timed out")
		return Outcome{
			Status: TimedOut,
			Err:    mark.Message(jobentity.TimeoutMark, jobentity.TimedOutMessage),
		}
	}

	if done.err == nil {
		return Outcome{Status: Completed, Result: done.result}
	}

	if done.panicked {
		logger.WithError(done.err).Error("Isolated task panicked")
		return Outcome{
			Status: Crashed,
			Err: cerr.Wrap(mark.Wrap(done.err, jobentity.RuntimeMark, "The separation worker crashed")).
				Error("Isolated task panicked"),
		}
	}

	return Outcome{Status: Failed, Err: done.err}
}
