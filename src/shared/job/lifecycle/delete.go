package lifecycle

import (
	"context"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	"github.com/veedubyou/stemsplit-be/src/shared/job/entity"
	"github.com/veedubyou/stemsplit-be/src/shared/job/storage"
)

type cleanupStep struct {
	name string
	run  func(ctx context.Context, job jobentity.Job) error
	// a best effort step logs its failure instead of aborting the delete
	bestEffort bool
}

func (m Machine) deleteSteps() []cleanupStep {
	return []cleanupStep{
		{name: "cancel active worker", run: m.cancelIfActive},
		{name: "delete record", run: m.deleteRecord},
		{name: "purge stored files", run: m.enqueuePurge, bestEffort: true},
	}
}

// Delete runs the cleanup steps in order. The worker is cancelled before the record disappears
// so it can never complete a job that no longer exists.
func (m Machine) Delete(ctx context.Context, jobID string) error {
	job, err := m.store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	logger := log.WithField("job_id", jobID)
	for _, step := range m.deleteSteps() {
		err := step.run(ctx, job)
		if err == nil {
			continue
		}

		if step.bestEffort {
			logger.WithError(err).
				WithField("step", step.name).
				Error("Cleanup step failed")
			continue
		}

		return errors.Wrapf(err, "Failed to %s", step.name)
	}

	logger.Info("Deleted job")
	return nil
}

func (m Machine) cancelIfActive(ctx context.Context, job jobentity.Job) error {
	var err error
	for attempt := 0; attempt < cancelAttempts; attempt++ {
		var cancelled bool
		_, err = m.store.UpdateJob(ctx, job.ID, func(current jobentity.Job) (jobentity.Job, error) {
			cancelled = false
			if !current.Status.IsActive() {
				return current, nil
			}

			cancelled = true
			err := current.Cancel(m.now())
			return current, err
		})

		if err == nil {
			if cancelled {
				m.broadcastCancel(ctx, job.ID)
			}
			return nil
		}

		if !markers.Is(err, jobstorage.StatusChanged) {
			return err
		}
	}

	return err
}

func (m Machine) deleteRecord(ctx context.Context, job jobentity.Job) error {
	return m.store.DeleteJob(ctx, job.ID)
}

func (m Machine) enqueuePurge(ctx context.Context, job jobentity.Job) error {
	return m.dispatcher.EnqueuePurge(ctx, job)
}
