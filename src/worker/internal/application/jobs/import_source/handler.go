package import_source

import (
	"context"
	"encoding/json"

	"github.com/apex/log"
	"github.com/veedubyou/stemsplit-be/src/shared/job/dispatch"
	"github.com/veedubyou/stemsplit-be/src/shared/source"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/lib/cerr"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

const JobType string = dispatch.ImportSourceType

//counterfeiter:generate . ImportSourceHandler
type ImportSourceHandler interface {
	HandleImportSource(ctx context.Context, message []byte) error
}

//counterfeiter:generate . Importer
type Importer interface {
	Import(ctx context.Context, params dispatch.ImportSourceParams) (source.SourceAudio, error)
}

func NewJobHandler(importer Importer) JobHandler {
	return JobHandler{
		importer: importer,
	}
}

type JobHandler struct {
	importer Importer
}

func (h JobHandler) HandleImportSource(ctx context.Context, message []byte) error {
	params, err := unmarshalMessage(message)
	if err != nil {
		return cerr.Wrap(err).Error("Failed to unmarshal message JSON")
	}

	sourceAudio, err := h.importer.Import(ctx, params)
	if err != nil {
		return cerr.Field("source_id", params.SourceID).Wrap(err).Error("Failed to import source audio")
	}

	log.WithFields(log.Fields{
		"source_id": sourceAudio.ID,
		"duration":  sourceAudio.DurationSeconds,
	}).Info("Imported source audio")
	return nil
}

func unmarshalMessage(message []byte) (dispatch.ImportSourceParams, error) {
	params := dispatch.ImportSourceParams{}
	err := json.Unmarshal(message, &params)
	if err != nil {
		return dispatch.ImportSourceParams{}, cerr.Wrap(err).Error("Failed to unmarshal message JSON")
	}

	errctx := cerr.Field("job_params", params)

	if params.SourceID == "" {
		return dispatch.ImportSourceParams{}, errctx.Error("Missing source ID")
	}

	if params.URL == "" {
		return dispatch.ImportSourceParams{}, errctx.Error("Missing source URL")
	}

	return params, nil
}
