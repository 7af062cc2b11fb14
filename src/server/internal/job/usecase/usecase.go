package jobusecase

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors/markers"
	"github.com/pkg/errors"
	"github.com/veedubyou/stemsplit-be/src/server/internal/errors/api"
	joberrors "github.com/veedubyou/stemsplit-be/src/server/internal/job/errors"
	sourceerrors "github.com/veedubyou/stemsplit-be/src/server/internal/source/errors"
	"github.com/veedubyou/stemsplit-be/src/shared/backend"
	jobentity "github.com/veedubyou/stemsplit-be/src/shared/job/entity"
	"github.com/veedubyou/stemsplit-be/src/shared/job/lifecycle"
	jobstorage "github.com/veedubyou/stemsplit-be/src/shared/job/storage"
	"github.com/veedubyou/stemsplit-be/src/shared/source"
)

// SubmitRequest is the body of a job submission.
type SubmitRequest struct {
	SourceAudioID  string         `json:"sourceAudioId"`
	BackendKind    string         `json:"backendKind"`
	BackendParams  map[string]any `json:"backendParams"`
	RequestedStems []string       `json:"requestedStems"`
	Variant        string         `json:"variant"`
	Overwrite      bool           `json:"overwrite"`
	Device         string         `json:"device"`
}

type Usecase struct {
	machine lifecycle.Machine
	sources source.Store
}

func NewUsecase(machine lifecycle.Machine, sources source.Store) Usecase {
	return Usecase{
		machine: machine,
		sources: sources,
	}
}

func (u Usecase) SubmitJob(ctx context.Context, request SubmitRequest) (jobentity.Job, *api.Error) {
	if request.SourceAudioID == "" {
		return jobentity.Job{}, api.CommitError(
			errors.New("Source audio ID is empty"),
			joberrors.InvalidJobRequestCode,
			"A source audio id is required")
	}

	config, err := backend.Parse(request.BackendKind, request.BackendParams)
	if err != nil {
		return jobentity.Job{}, api.CommitError(
			errors.Wrap(err, "Failed to parse the backend config"),
			joberrors.InvalidJobRequestCode,
			userMessage(err, "The backend parameters are invalid"))
	}

	_, err = u.sources.GetSource(ctx, request.SourceAudioID)
	if err != nil {
		err = errors.Wrap(err, "Failed to get the source audio")

		if markers.Is(err, source.SourceNotFound) {
			return jobentity.Job{}, api.CommitError(err,
				sourceerrors.SourceNotFoundCode,
				fmt.Sprintf("The source audio %s can't be found", request.SourceAudioID))
		}

		return jobentity.Job{}, api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: Failed to look up the source audio")
	}

	job, err := u.machine.Submit(ctx, jobentity.Request{
		SourceID: request.SourceAudioID,
		Backend:  config,
		Variant:  jobentity.Variant(request.Variant),
		Stems:    request.RequestedStems,
		Device:   jobentity.Device(request.Device),
	}, request.Overwrite)
	if err != nil {
		err = errors.Wrap(err, "Failed to submit the job")

		switch {
		case markers.Is(err, jobentity.ValidationMark):
			return jobentity.Job{}, api.CommitError(err,
				joberrors.InvalidJobRequestCode,
				userMessage(err, "The job request is invalid"))

		case markers.Is(err, jobstorage.JobConflict):
			return jobentity.Job{}, api.CommitError(err,
				joberrors.JobConflictCode,
				userMessage(err, "An equivalent job already exists"))

		case markers.Is(err, lifecycle.DispatchMark):
			return jobentity.Job{}, api.CommitError(err,
				joberrors.QueueUnavailableCode,
				"The job was created but could not be queued, please try again")

		default:
			return jobentity.Job{}, api.CommitError(err,
				api.DefaultErrorCode,
				"Unknown error: Failed to submit the job")
		}
	}

	return job, nil
}

func (u Usecase) GetJob(ctx context.Context, jobID string) (jobentity.Job, *api.Error) {
	job, err := u.machine.Get(ctx, jobID)
	if err != nil {
		return jobentity.Job{}, jobLookupError(err, "Failed to get the job")
	}

	return job, nil
}

func (u Usecase) CancelJob(ctx context.Context, jobID string) (jobentity.Job, *api.Error) {
	job, err := u.machine.Cancel(ctx, jobID)
	if err != nil {
		if markers.Is(err, jobentity.InvalidTransitionMark) || markers.Is(err, jobstorage.StatusChanged) {
			return jobentity.Job{}, api.CommitError(
				errors.Wrap(err, "Failed to cancel the job"),
				joberrors.JobNotCancellableCode,
				"The job has already finished and can't be cancelled")
		}

		return jobentity.Job{}, jobLookupError(err, "Failed to cancel the job")
	}

	return job, nil
}

func (u Usecase) DeleteJob(ctx context.Context, jobID string) *api.Error {
	err := u.machine.Delete(ctx, jobID)
	if err != nil {
		return jobLookupError(err, "Failed to delete the job")
	}

	return nil
}

func jobLookupError(err error, msg string) *api.Error {
	err = errors.Wrap(err, msg)

	if markers.Is(err, jobstorage.JobNotFound) {
		return api.CommitError(err,
			joberrors.JobNotFoundCode,
			"The job can't be found")
	}

	return api.CommitError(err,
		api.DefaultErrorCode,
		"Unknown error: "+msg)
}

// userMessage surfaces the innermost message, which is written for the submitter.
func userMessage(err error, fallback string) string {
	cause := errors.Cause(err)
	if cause == nil || cause.Error() == "" {
		return fallback
	}
	return cause.Error()
}
