package lifecycle

import (
	"context"
	"time"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	"github.com/veedubyou/stemsplit-be/src/shared/job/entity"
	"github.com/veedubyou/stemsplit-be/src/shared/job/storage"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/errors/mark"
)

var DispatchMark = errors.New("failed to dispatch job message")

const (
	queueFailureMessage = "Failed to queue the separation job"
	cancelAttempts      = 3
)

// Machine owns every status transition of a job. Transitions are applied through the store's
// conditional update, so separate processes can drive the same job safely.
type Machine struct {
	store      jobentity.Store
	dispatcher Dispatcher
	now        func() time.Time
}

func NewMachine(store jobentity.Store, dispatcher Dispatcher) Machine {
	return Machine{
		store:      store,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

func (m Machine) WithClock(now func() time.Time) Machine {
	m.now = now
	return m
}

func (m Machine) Get(ctx context.Context, jobID string) (jobentity.Job, error) {
	return m.store.GetJob(ctx, jobID)
}

func (m Machine) Submit(ctx context.Context, request jobentity.Request, overwrite bool) (jobentity.Job, error) {
	job, err := jobentity.NewJob(request, m.now())
	if err != nil {
		return jobentity.Job{}, err
	}

	logger := log.WithFields(log.Fields{
		"job_id":     job.ID,
		"source_id":  job.SourceID,
		"backend":    job.Backend.Kind,
		"variant":    job.Variant,
		"overwrite":  overwrite,
		"dedupe_key": job.DedupeKey,
	})

	err = m.store.CreateJob(ctx, job)
	if markers.Is(err, jobstorage.JobConflict) {
		err = m.resolveConflict(ctx, job, overwrite)
		if err != nil {
			return jobentity.Job{}, err
		}

		logger.Info("Replaced an equivalent job")
		err = m.store.CreateJob(ctx, job)
	}

	if err != nil {
		return jobentity.Job{}, errors.Wrap(err, "Failed to create the job")
	}

	err = m.dispatcher.EnqueueSeparation(ctx, job)
	if err != nil {
		logger.WithError(err).Error("Failed to publish the separation message")
		_, failErr := m.transition(ctx, job.ID, func(job *jobentity.Job) error {
			return job.Fail(jobentity.RuntimeErrorKind, queueFailureMessage, m.now())
		})
		if failErr != nil {
			logger.WithError(failErr).Error("Failed to mark the unqueued job as failed")
		}

		return jobentity.Job{}, mark.Wrap(err, DispatchMark, queueFailureMessage)
	}

	logger.Info("Submitted job")
	return job, nil
}

// resolveConflict clears the way for job when overwrite allows it. An equivalent job that
// is running is never replaced.
func (m Machine) resolveConflict(ctx context.Context, job jobentity.Job, overwrite bool) error {
	existing, err := m.store.FindJobsByKey(ctx, job.DedupeKey)
	if err != nil {
		return errors.Wrap(err, "Failed to look up equivalent jobs")
	}

	live := []jobentity.Job{}
	for _, other := range existing {
		if other.Status.HoldsKey() {
			live = append(live, other)
		}
	}

	if !overwrite {
		return mark.Message(jobstorage.JobConflict, "An equivalent job already exists")
	}

	for _, other := range live {
		if other.Status == jobentity.InProgressStatus {
			return mark.Message(jobstorage.JobConflict, "An equivalent job is already in progress")
		}
	}

	for _, other := range live {
		err := m.Delete(ctx, other.ID)
		if err != nil && !markers.Is(err, jobstorage.JobNotFound) {
			return errors.Wrapf(err, "Failed to delete the equivalent job %s", other.ID)
		}
	}

	return nil
}

func (m Machine) transition(ctx context.Context, jobID string, transition func(job *jobentity.Job) error) (jobentity.Job, error) {
	return m.store.UpdateJob(ctx, jobID, func(job jobentity.Job) (jobentity.Job, error) {
		err := transition(&job)
		return job, err
	})
}

// Claim hands the job to exactly one worker. Any other caller sees InvalidTransitionMark or StatusChanged.
func (m Machine) Claim(ctx context.Context, jobID string) (jobentity.Job, error) {
	return m.transition(ctx, jobID, func(job *jobentity.Job) error {
		return job.Claim(m.now())
	})
}

func (m Machine) Complete(ctx context.Context, jobID string, outputs []jobentity.OutputRef) (jobentity.Job, error) {
	return m.transition(ctx, jobID, func(job *jobentity.Job) error {
		return job.Complete(outputs, m.now())
	})
}

func (m Machine) Fail(ctx context.Context, jobID string, cause error) (jobentity.Job, error) {
	return m.transition(ctx, jobID, func(job *jobentity.Job) error {
		return job.FailWithError(cause, m.now())
	})
}

func (m Machine) TimeOut(ctx context.Context, jobID string) (jobentity.Job, error) {
	job, err := m.transition(ctx, jobID, func(job *jobentity.Job) error {
		return job.TimeOut(m.now())
	})
	if err != nil {
		return jobentity.Job{}, err
	}

	m.broadcastCancel(ctx, jobID)
	return job, nil
}

func (m Machine) Cancel(ctx context.Context, jobID string) (jobentity.Job, error) {
	job, err := m.transition(ctx, jobID, func(job *jobentity.Job) error {
		return job.Cancel(m.now())
	})
	if err != nil {
		return jobentity.Job{}, err
	}

	m.broadcastCancel(ctx, jobID)
	return job, nil
}

// broadcastCancel is best effort. A worker that misses it still cannot complete the job,
// since the job has already left InProgress.
func (m Machine) broadcastCancel(ctx context.Context, jobID string) {
	err := m.dispatcher.BroadcastCancel(ctx, jobID)
	if err != nil {
		log.WithError(err).
			WithField("job_id", jobID).
			Error("Failed to broadcast job cancellation")
	}
}
