// Package reaper fails jobs that stayed queued or in progress far longer than any separation takes.
// It bounds what a crashed worker or a lost message leaves behind, cancellation does not go through here.
package reaper

import (
	"context"
	"time"

	"github.com/apex/log"
	"github.com/cockroachdb/errors/markers"
	jobentity "github.com/veedubyou/stemsplit-be/src/shared/job/entity"
	"github.com/veedubyou/stemsplit-be/src/shared/job/lifecycle"
	"github.com/veedubyou/stemsplit-be/src/shared/job/storage"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/lib/cerr"
)

const (
	DefaultThreshold = 60 * time.Minute
	DefaultInterval  = 30 * time.Minute
)

type Reaper struct {
	store     jobentity.Store
	machine   lifecycle.Machine
	threshold time.Duration
	interval  time.Duration
	now       func() time.Time
}

func NewReaper(store jobentity.Store, machine lifecycle.Machine, threshold time.Duration, interval time.Duration) Reaper {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	return Reaper{
		store:     store,
		machine:   machine,
		threshold: threshold,
		interval:  interval,
		now:       time.Now,
	}
}

func (r Reaper) WithClock(now func() time.Time) Reaper {
	r.now = now
	return r
}

// Sweep times out every active job older than the threshold and returns how many it failed.
// A queued job counts from its creation, an in progress one from its claim.
// A job that moved on between the read and the write is skipped.
func (r Reaper) Sweep(ctx context.Context) (int, error) {
	cutoff := r.now().Add(-r.threshold)
	stale, err := r.store.FindStaleJobs(ctx, cutoff)
	if err != nil {
		return 0, cerr.Field("cutoff", cutoff).Wrap(err).Error("Failed to find stale jobs")
	}

	reaped := 0
	for _, job := range stale {
		logger := log.WithFields(log.Fields{
			"job_id":     job.ID,
			"status":     job.Status,
			"created_at": job.CreatedAt,
			"started_at": job.StartedAt,
		})

		_, err := r.machine.TimeOut(ctx, job.ID)
		switch {
		case err == nil:
			reaped++
			logger.Warn("Timed out stale job")
		case markers.Is(err, jobentity.InvalidTransitionMark),
			markers.Is(err, jobstorage.StatusChanged),
			markers.Is(err, jobstorage.JobNotFound):
			logger.Info("Stale job finished before it could be timed out")
		default:
			return reaped, cerr.Field("job_id", job.ID).Wrap(err).Error("Failed to time out stale job")
		}
	}

	return reaped, nil
}

// Run sweeps right away and then on every interval until ctx is done.
func (r Reaper) Run(ctx context.Context) {
	logger := log.WithFields(log.Fields{
		"threshold": r.threshold,
		"interval":  r.interval,
	})
	logger.Info("Starting reaper")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		reaped, err := r.Sweep(ctx)
		if err != nil {
			cerr.Log(err)
		} else if reaped > 0 {
			logger.WithField("reaped", reaped).Info("Reaper sweep finished")
		}

		select {
		case <-ctx.Done():
			logger.Info("Stopping reaper")
			return
		case <-ticker.C:
		}
	}
}
