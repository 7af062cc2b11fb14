package separate

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	"github.com/veedubyou/stemsplit-be/src/shared/job/dispatch"
	jobentity "github.com/veedubyou/stemsplit-be/src/shared/job/entity"
	"github.com/veedubyou/stemsplit-be/src/shared/job/lifecycle"
	"github.com/veedubyou/stemsplit-be/src/shared/job/storage"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/errors/mark"
	"github.com/veedubyou/stemsplit-be/src/shared/source"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/devices"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/handoff"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/isolation"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/jobs/cancel"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/separation"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/worker"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/lib/cerr"
	"github.com/vmihailenco/msgpack/v5"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

const JobType string = dispatch.SeparateJobType

const (
	StoppedMessage = "The worker stopped before the job finished"
	unknownArtist  = "Unknown Artist"
	unknownTitle   = "Unknown Title"
)

var errCancelled = errors.New("separation was cancelled")

//counterfeiter:generate . SeparateJobHandler
type SeparateJobHandler interface {
	HandleSeparateJob(ctx context.Context, message []byte) error
}

const claimAttempts = 3

type Config struct {
	// Timeout bounds one isolated run, zero waits forever
	Timeout time.Duration
	// Attempts is how often a run that failed with a retryable error is tried in total
	Attempts int
	// ClaimRetryInterval is the first wait between claim attempts while the job store is failing
	ClaimRetryInterval time.Duration
}

type JobHandler struct {
	machine  lifecycle.Machine
	sources  source.Store
	isolator isolation.Isolator
	handoff  handoff.Handoff
	devices  *devices.Pool
	registry *cancel.Registry
	config   Config
}

func NewJobHandler(
	machine lifecycle.Machine,
	sources source.Store,
	isolator isolation.Isolator,
	handoff handoff.Handoff,
	devices *devices.Pool,
	registry *cancel.Registry,
	config Config,
) JobHandler {
	if config.Attempts < 1 {
		config.Attempts = 1
	}
	if config.ClaimRetryInterval <= 0 {
		config.ClaimRetryInterval = time.Second
	}

	return JobHandler{
		machine:  machine,
		sources:  sources,
		isolator: isolator,
		handoff:  handoff,
		devices:  devices,
		registry: registry,
		config:   config,
	}
}

// HandleSeparateJob runs one queued job to a terminal status. Separation failures are recorded on
// the job and are not returned, an error here means the job could not even be claimed or settled.
// A claim that keeps failing is marked for redelivery since the job is still queued.
func (h JobHandler) HandleSeparateJob(ctx context.Context, message []byte) error {
	params := dispatch.SeparateJobParams{}
	if err := json.Unmarshal(message, &params); err != nil {
		return cerr.Wrap(err).Error("Failed to unmarshal message JSON")
	}

	if params.JobID == "" {
		return cerr.Field("job_params", params).Error("Missing job ID")
	}

	errctx := cerr.Field("job_id", params.JobID)
	logger := log.WithField("job_id", params.JobID)

	// tracked before the claim so a cancellation right after it is not missed
	jobCtx, release := h.registry.Track(ctx, params.JobID)
	defer release()

	job, err := h.claim(ctx, logger, params.JobID)
	if err != nil {
		if lostJob(err) {
			logger.WithError(err).Info("Job is no longer queued, dropping the message")
			return nil
		}
		return errors.Mark(errctx.Wrap(err).Error("Failed to claim job"), worker.RequeueMark)
	}

	logger = logger.WithFields(log.Fields{
		"backend": job.Backend.Kind,
		"variant": job.Variant,
		"device":  job.Device,
	})
	logger.Info("Claimed job")

	refs, err := h.separate(jobCtx, logger, job)

	// the outcome is recorded even when the worker is shutting down
	settleCtx := context.WithoutCancel(ctx)

	if errors.Is(err, errCancelled) {
		h.handoff.Discard(settleCtx, job.ID, nil)
		if ctx.Err() == nil {
			logger.Info("Job was cancelled")
			return nil
		}

		h.fail(settleCtx, logger, job, mark.Message(jobentity.CancelledMark, StoppedMessage))
		return nil
	}

	if err != nil {
		h.fail(settleCtx, logger, job, err)
		h.handoff.Discard(settleCtx, job.ID, nil)
		return nil
	}

	_, err = h.machine.Complete(settleCtx, job.ID, refs)
	if err != nil {
		if lostJob(err) {
			logger.WithError(err).Warn("Job left in progress before it completed, discarding its outputs")
			h.handoff.Discard(settleCtx, job.ID, refs)
			return nil
		}
		return errctx.Wrap(err).Error("Failed to complete job")
	}

	logger.WithField("outputs", len(refs)).Info("Completed job")
	return nil
}

func (h JobHandler) separate(ctx context.Context, logger log.Interface, job jobentity.Job) ([]jobentity.OutputRef, error) {
	errctx := cerr.Fields(cerr.F{
		"job_id":    job.ID,
		"source_id": job.SourceID,
	})

	sourceAudio, err := h.sources.GetSource(ctx, job.SourceID)
	if err != nil {
		return nil, errctx.Wrap(err).Error("Failed to load the source audio")
	}

	contents, err := h.sources.GetAudio(ctx, sourceAudio)
	if err != nil {
		return nil, errctx.Wrap(err).Error("Failed to load the source audio")
	}

	scratchDir := h.handoff.ScratchDir(job.ID)
	if err := os.MkdirAll(scratchDir, os.ModePerm); err != nil {
		return nil, errctx.Wrap(err).Error("Failed to create the scratch directory")
	}

	inputPath := filepath.Join(scratchDir, "source"+sourceAudio.AudioExt())
	if err := os.WriteFile(inputPath, contents, 0o644); err != nil {
		return nil, errctx.Wrap(err).Error("Failed to write the source audio")
	}
	defer func() {
		_ = os.Remove(inputPath)
	}()

	lease, err := h.devices.Acquire(ctx, job.Device)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errCancelled
		}
		return nil, errctx.Wrap(err).Error("Failed to lease a device")
	}
	defer lease.Release()

	request := separation.Request{
		JobID:      job.ID,
		InputPath:  inputPath,
		OutputDir:  filepath.Join(scratchDir, "outputs"),
		Config:     job.Backend,
		Variant:    job.Variant,
		Stems:      job.Stems,
		Device:     job.Device,
		DeviceSlot: lease.Slot,
		FileNames:  FileNames(job, sourceAudio),
	}

	args, err := msgpack.Marshal(request)
	if err != nil {
		return nil, errctx.Wrap(err).Error("Failed to encode separation request")
	}

	outcome := h.run(ctx, logger, args)
	switch outcome.Status {
	case isolation.Completed:
		result := separation.Result{}
		if err := msgpack.Unmarshal(outcome.Result, &result); err != nil {
			return nil, errctx.Wrap(err).Error("Failed to decode separation result")
		}
		refs, err := h.handoff.Persist(ctx, job.ID, result.Outputs)
		if err != nil && ctx.Err() != nil {
			return nil, errCancelled
		}
		return refs, err

	case isolation.Cancelled:
		return nil, errCancelled

	default:
		logger.WithField("status", outcome.Status).Error("Separation did not complete")
		return nil, outcome.Err
	}
}

// claim retries store failures, a lost race is final.
func (h JobHandler) claim(ctx context.Context, logger log.Interface, jobID string) (jobentity.Job, error) {
	attempt := 0
	operation := func() (jobentity.Job, error) {
		attempt++

		job, err := h.machine.Claim(ctx, jobID)
		if err != nil {
			if lostJob(err) {
				return jobentity.Job{}, backoff.Permanent(err)
			}

			logger.WithError(err).WithField("attempt", attempt).Warn("Failed to claim job")
			return jobentity.Job{}, err
		}

		return job, nil
	}

	policy := backoff.NewExponentialBackOff(backoff.WithInitialInterval(h.config.ClaimRetryInterval))
	return backoff.RetryWithData(operation, backoff.WithContext(backoff.WithMaxRetries(policy, claimAttempts-1), ctx))
}

// run retries the whole isolated separation while the failure is one a retry can fix.
func (h JobHandler) run(ctx context.Context, logger log.Interface, args []byte) isolation.Outcome {
	var outcome isolation.Outcome
	for attempt := 1; ; attempt++ {
		outcome = h.isolator.Run(ctx, separation.TaskName, args, h.config.Timeout)

		retryable := outcome.Status == isolation.Failed &&
			jobentity.ClassifyError(outcome.Err).IsRetryable()
		if !retryable || attempt >= h.config.Attempts {
			return outcome
		}

		logger.WithError(outcome.Err).
			WithField("attempt", attempt).
			Warn("Separation failed with a retryable error, trying again")
	}
}

func (h JobHandler) fail(ctx context.Context, logger log.Interface, job jobentity.Job, cause error) {
	cerr.Log(cause)

	_, err := h.machine.Fail(ctx, job.ID, cause)
	if err == nil {
		logger.WithField("error_kind", jobentity.ClassifyError(cause)).Info("Recorded job failure")
		return
	}

	if lostJob(err) {
		logger.WithError(err).Info("Job already left in progress, failure not recorded")
		return
	}

	logger.WithError(err).Error("Failed to record job failure")
}

// FileNames names every output the job will produce, keyed by the output's stem label.
func FileNames(job jobentity.Job, sourceAudio source.SourceAudio) map[string]string {
	artist := sourceAudio.Artist
	if artist == "" {
		artist = unknownArtist
	}

	title := sourceAudio.Title
	if title == "" {
		title = unknownTitle
	}

	if job.Variant == jobentity.StaticVariant {
		return map[string]string{
			job.StaticOutputStem(): job.OutputFileName(artist, title, ""),
		}
	}

	names := map[string]string{}
	for _, stem := range job.Stems {
		names[stem] = job.OutputFileName(artist, title, stem)
	}
	return names
}

func lostJob(err error) bool {
	return markers.Is(err, jobentity.InvalidTransitionMark) ||
		markers.Is(err, jobstorage.StatusChanged) ||
		markers.Is(err, jobstorage.JobNotFound)
}
