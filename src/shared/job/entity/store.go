package jobentity

import (
	"context"
	"time"
)

// JobUpdater applies a transition to a freshly read job. The store only persists the
// result if the job's status has not changed since the read.
type JobUpdater func(job Job) (Job, error)

type Store interface {
	CreateJob(ctx context.Context, job Job) error
	GetJob(ctx context.Context, jobID string) (Job, error)
	FindJobsByKey(ctx context.Context, dedupeKey string) ([]Job, error)
	UpdateJob(ctx context.Context, jobID string, updater JobUpdater) (Job, error)
	DeleteJob(ctx context.Context, jobID string) error
	// FindStaleJobs lists queued jobs created and in progress jobs started at or before activeBefore.
	FindStaleJobs(ctx context.Context, activeBefore time.Time) ([]Job, error)
}
