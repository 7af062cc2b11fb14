package sourceusecase

import (
	"context"
	"net/url"

	"github.com/cockroachdb/errors/markers"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/veedubyou/stemsplit-be/src/server/internal/errors/api"
	sourceerrors "github.com/veedubyou/stemsplit-be/src/server/internal/source/errors"
	"github.com/veedubyou/stemsplit-be/src/shared/job/dispatch"
	"github.com/veedubyou/stemsplit-be/src/shared/source"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

//counterfeiter:generate . ImportQueue
type ImportQueue interface {
	EnqueueImport(ctx context.Context, params dispatch.ImportSourceParams) error
}

type ImportRequest struct {
	URL    string `json:"url"`
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

// ImportResponse carries the id the source audio will be stored under once the worker
// has fetched it.
type ImportResponse struct {
	SourceAudioID string `json:"sourceAudioId"`
}

type Usecase struct {
	sources source.Store
	queue   ImportQueue
}

func NewUsecase(sources source.Store, queue ImportQueue) Usecase {
	return Usecase{
		sources: sources,
		queue:   queue,
	}
}

func (u Usecase) ImportSource(ctx context.Context, request ImportRequest) (ImportResponse, *api.Error) {
	parsed, err := url.Parse(request.URL)
	if err != nil || request.URL == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		if err == nil {
			err = errors.Errorf("Unsupported source URL %q", request.URL)
		}
		return ImportResponse{}, api.CommitError(
			errors.Wrap(err, "Invalid source URL"),
			sourceerrors.BadSourceDataCode,
			"The source audio needs an http or https URL")
	}

	params := dispatch.ImportSourceParams{
		SourceID: uuid.New().String(),
		URL:      request.URL,
		Artist:   request.Artist,
		Title:    request.Title,
	}

	err = u.queue.EnqueueImport(ctx, params)
	if err != nil {
		return ImportResponse{}, api.CommitError(
			errors.Wrap(err, "Failed to enqueue the source import"),
			api.DefaultErrorCode,
			"Unknown error: Failed to start importing the source audio")
	}

	return ImportResponse{SourceAudioID: params.SourceID}, nil
}

func (u Usecase) GetSource(ctx context.Context, sourceID string) (source.SourceAudio, *api.Error) {
	sourceAudio, err := u.sources.GetSource(ctx, sourceID)
	if err != nil {
		err = errors.Wrap(err, "Failed to get the source audio")

		if markers.Is(err, source.SourceNotFound) {
			return source.SourceAudio{}, api.CommitError(err,
				sourceerrors.SourceNotFoundCode,
				"The source audio can't be found, it may still be importing")
		}

		return source.SourceAudio{}, api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: Failed to fetch the source audio")
	}

	return sourceAudio, nil
}
