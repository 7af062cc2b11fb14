package dummy

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/veedubyou/stemsplit-be/src/shared/job/entity"
	"github.com/veedubyou/stemsplit-be/src/shared/job/storage"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/errors/mark"
)

var _ jobentity.Store = &JobStore{}

func NewDummyJobStore() *JobStore {
	return &JobStore{
		Unavailable: false,
		State:       make(map[string]jobentity.Job),
	}
}

// JobStore mirrors the conditional write semantics of the real stores in memory.
type JobStore struct {
	Unavailable bool
	// FailUpdates makes the next n updates fail as if the store were unreachable
	FailUpdates int
	State       map[string]jobentity.Job
	mutex       sync.RWMutex
}

func (j *JobStore) CreateJob(_ context.Context, job jobentity.Job) error {
	if j.Unavailable {
		return NetworkFailure
	}

	j.mutex.Lock()
	defer j.mutex.Unlock()

	if _, exists := j.State[job.ID]; exists {
		return mark.Message(jobstorage.JobConflict, "A job with this ID already exists")
	}

	if job.Status.HoldsKey() {
		for _, existing := range j.State {
			if existing.DedupeKey == job.DedupeKey && existing.Status.HoldsKey() {
				return mark.Message(jobstorage.JobConflict, "An equivalent job already exists")
			}
		}
	}

	j.State[job.ID] = job
	return nil
}

func (j *JobStore) GetJob(_ context.Context, jobID string) (jobentity.Job, error) {
	if j.Unavailable {
		return jobentity.Job{}, NetworkFailure
	}

	j.mutex.RLock()
	defer j.mutex.RUnlock()

	job, ok := j.State[jobID]
	if !ok {
		return jobentity.Job{}, errors.Mark(NotFound, jobstorage.JobNotFound)
	}

	return job, nil
}

func (j *JobStore) FindJobsByKey(_ context.Context, dedupeKey string) ([]jobentity.Job, error) {
	return j.filter(func(job jobentity.Job) bool {
		return job.DedupeKey == dedupeKey
	})
}

func (j *JobStore) FindStaleJobs(_ context.Context, activeBefore time.Time) ([]jobentity.Job, error) {
	return j.filter(func(job jobentity.Job) bool {
		switch job.Status {
		case jobentity.QueuedStatus:
			return !job.CreatedAt.After(activeBefore)
		case jobentity.InProgressStatus:
			return job.StartedAt != nil && !job.StartedAt.After(activeBefore)
		default:
			return false
		}
	})
}

func (j *JobStore) filter(predicate func(job jobentity.Job) bool) ([]jobentity.Job, error) {
	if j.Unavailable {
		return nil, NetworkFailure
	}

	j.mutex.RLock()
	defer j.mutex.RUnlock()

	jobs := []jobentity.Job{}
	for _, job := range j.State {
		if predicate(job) {
			jobs = append(jobs, job)
		}
	}

	slices.SortFunc(jobs, func(a, b jobentity.Job) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return jobs, nil
}

func (j *JobStore) UpdateJob(ctx context.Context, jobID string, updater jobentity.JobUpdater) (jobentity.Job, error) {
	if j.failUpdate() {
		return jobentity.Job{}, NetworkFailure
	}

	job, err := j.GetJob(ctx, jobID)
	if err != nil {
		return jobentity.Job{}, err
	}

	updatedJob, err := updater(job)
	if err != nil {
		return jobentity.Job{}, errors.Wrap(err, "The updater failed to make changes to the job")
	}

	j.mutex.Lock()
	defer j.mutex.Unlock()

	current, ok := j.State[jobID]
	if !ok || current.Status != job.Status {
		return jobentity.Job{}, mark.Message(jobstorage.StatusChanged, "The job changed status before the update was written")
	}

	j.State[jobID] = updatedJob
	return updatedJob, nil
}

func (j *JobStore) failUpdate() bool {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	if j.FailUpdates <= 0 {
		return false
	}
	j.FailUpdates--
	return true
}

func (j *JobStore) DeleteJob(_ context.Context, jobID string) error {
	if j.Unavailable {
		return NetworkFailure
	}

	j.mutex.Lock()
	defer j.mutex.Unlock()

	if _, ok := j.State[jobID]; !ok {
		return errors.Mark(NotFound, jobstorage.JobNotFound)
	}

	delete(j.State, jobID)
	return nil
}
