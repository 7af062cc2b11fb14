package purge

import (
	"context"
	"encoding/json"

	"github.com/apex/log"
	"github.com/veedubyou/stemsplit-be/src/shared/job/dispatch"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/lib/cerr"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

const JobType string = dispatch.PurgeJobFilesType

//counterfeiter:generate . PurgeJobFilesHandler
type PurgeJobFilesHandler interface {
	HandlePurgeJobFiles(ctx context.Context, message []byte) error
}

type Purger interface {
	Purge(ctx context.Context, jobID string, keys []string) error
}

func NewJobHandler(purger Purger) JobHandler {
	return JobHandler{
		purger: purger,
	}
}

type JobHandler struct {
	purger Purger
}

// HandlePurgeJobFiles runs after the job record is deleted, so everything it needs is in the message.
func (h JobHandler) HandlePurgeJobFiles(ctx context.Context, message []byte) error {
	params := dispatch.PurgeJobFilesParams{}
	if err := json.Unmarshal(message, &params); err != nil {
		return cerr.Wrap(err).Error("Failed to unmarshal message JSON")
	}

	if params.JobID == "" {
		return cerr.Field("job_params", params).Error("Missing job ID")
	}

	if err := h.purger.Purge(ctx, params.JobID, params.OutputKeys); err != nil {
		return cerr.Field("job_id", params.JobID).Wrap(err).Error("Failed to purge job files")
	}

	log.WithFields(log.Fields{
		"job_id": params.JobID,
		"files":  len(params.OutputKeys),
	}).Info("Purged job files")
	return nil
}
