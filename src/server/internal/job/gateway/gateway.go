package jobgateway

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/veedubyou/stemsplit-be/src/server/internal/errors/api"
	"github.com/veedubyou/stemsplit-be/src/server/internal/errors/gateway"
	"github.com/veedubyou/stemsplit-be/src/server/internal/job/errors"
	"github.com/veedubyou/stemsplit-be/src/server/internal/job/usecase"
	"github.com/veedubyou/stemsplit-be/src/server/internal/lib/request"
	"github.com/veedubyou/stemsplit-be/src/shared/job/entity"
)

// JobResponse is the public shape of a job.
type JobResponse struct {
	ID             string                `json:"id"`
	SourceAudioID  string                `json:"sourceAudioId"`
	Status         jobentity.Status      `json:"status"`
	ErrorKind      jobentity.ErrorKind   `json:"errorKind,omitempty"`
	ErrorMessage   string                `json:"errorMessage"`
	OutputRefs     []jobentity.OutputRef `json:"outputRefs"`
	Variant        jobentity.Variant     `json:"variant"`
	RequestedStems []string              `json:"requestedStems"`
	BackendKind    string                `json:"backendKind"`
	Device         jobentity.Device      `json:"device"`
	CreatedAt      time.Time             `json:"createdAt"`
	StartedAt      *time.Time            `json:"startedAt,omitempty"`
	FinishedAt     *time.Time            `json:"finishedAt,omitempty"`
}

func NewJobResponse(job jobentity.Job) JobResponse {
	outputRefs := job.OutputRefs
	if outputRefs == nil {
		outputRefs = []jobentity.OutputRef{}
	}

	return JobResponse{
		ID:             job.ID,
		SourceAudioID:  job.SourceID,
		Status:         job.Status,
		ErrorKind:      job.ErrorKind,
		ErrorMessage:   job.ErrorMessage,
		OutputRefs:     outputRefs,
		Variant:        job.Variant,
		RequestedStems: job.Stems,
		BackendKind:    string(job.Backend.Kind),
		Device:         job.Device,
		CreatedAt:      job.CreatedAt,
		StartedAt:      job.StartedAt,
		FinishedAt:     job.FinishedAt,
	}
}

type Gateway struct {
	usecase jobusecase.Usecase
}

func NewGateway(usecase jobusecase.Usecase) Gateway {
	return Gateway{
		usecase: usecase,
	}
}

func (g Gateway) SubmitJob(c echo.Context) error {
	ctx := request.Context(c)

	submitRequest := jobusecase.SubmitRequest{}
	err := c.Bind(&submitRequest)
	if err != nil {
		err = errors.Wrap(err, "Failed to bind request body to job request")
		apiErr := api.CommitError(err,
			joberrors.BadJobDataCode,
			"The job request received was malformed")
		return gateway.ErrorResponse(c, apiErr)
	}

	job, apiErr := g.usecase.SubmitJob(ctx, submitRequest)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusCreated, NewJobResponse(job))
}

func (g Gateway) GetJob(c echo.Context, jobID string) error {
	ctx := request.Context(c)

	job, apiErr := g.usecase.GetJob(ctx, jobID)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, NewJobResponse(job))
}

func (g Gateway) CancelJob(c echo.Context, jobID string) error {
	ctx := request.Context(c)

	job, apiErr := g.usecase.CancelJob(ctx, jobID)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, NewJobResponse(job))
}

func (g Gateway) DeleteJob(c echo.Context, jobID string) error {
	ctx := request.Context(c)

	apiErr := g.usecase.DeleteJob(ctx, jobID)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.NoContent(http.StatusOK)
}
