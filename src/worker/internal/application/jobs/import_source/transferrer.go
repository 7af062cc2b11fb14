package import_source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/apex/log"
	"github.com/cenkalti/backoff/v4"
	"github.com/dustin/go-humanize"
	"github.com/veedubyou/stemsplit-be/src/shared/job/dispatch"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/storagepath"
	"github.com/veedubyou/stemsplit-be/src/shared/source"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/audio"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/lib/cerr"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/lib/working_dir"
)

const (
	downloadAttempts = 3
	defaultExt       = ".audio"
)

type Option func(*SourceTransferrer)

func WithHTTPClient(client *http.Client) Option {
	return func(t *SourceTransferrer) {
		t.client = client
	}
}

func WithRetryInterval(interval time.Duration) Option {
	return func(t *SourceTransferrer) {
		t.retryInterval = interval
	}
}

func NewSourceTransferrer(codec audio.Codec, sources source.Store, workingDir working_dir.WorkingDir, opts ...Option) SourceTransferrer {
	t := SourceTransferrer{
		client:        http.DefaultClient,
		retryInterval: time.Second,
		codec:         codec,
		sources:       sources,
		workingDir:    workingDir,
	}

	for _, opt := range opts {
		opt(&t)
	}

	return t
}

// SourceTransferrer copies audio from a URL into the blob store and records its metadata.
type SourceTransferrer struct {
	client        *http.Client
	retryInterval time.Duration
	codec         audio.Codec
	sources       source.Store
	workingDir    working_dir.WorkingDir
}

func (t SourceTransferrer) Import(ctx context.Context, params dispatch.ImportSourceParams) (source.SourceAudio, error) {
	errctx := cerr.Fields(cerr.F{
		"source_id": params.SourceID,
		"url":       params.URL,
	})

	sourceAudio := source.SourceAudio{
		ID:       params.SourceID,
		AudioKey: storagepath.SourceAudioKey(params.SourceID, "original"+extFromURL(params.URL)),
		Artist:   params.Artist,
		Title:    params.Title,
	}

	tempFilePath, cleanUpTempDir, err := t.makeTempOutFilePath(sourceAudio.AudioExt())
	if err != nil {
		return source.SourceAudio{}, errctx.Wrap(err).Error("Failed to make a temp file path")
	}
	defer cleanUpTempDir()

	if err := t.download(ctx, params.URL, tempFilePath); err != nil {
		return source.SourceAudio{}, errctx.Wrap(err).Error("Failed to download source audio")
	}

	signal, err := t.codec.Decode(ctx, tempFilePath)
	if err != nil {
		return source.SourceAudio{}, errctx.Wrap(err).Error("Downloaded file is not readable audio")
	}
	sourceAudio.DurationSeconds = float64(signal.Len()) / audio.SampleRate

	log.Info("Reading downloaded file to memory")
	fileContent, err := os.ReadFile(tempFilePath)
	if err != nil {
		return source.SourceAudio{}, errctx.Wrap(err).Error("Failed to read downloaded file")
	}

	log.Info("Writing file to remote file store")
	if err := t.sources.PutAudio(ctx, sourceAudio, fileContent); err != nil {
		return source.SourceAudio{}, errctx.Wrap(err).Error("Failed to write source audio")
	}

	if err := t.sources.PutSource(ctx, sourceAudio); err != nil {
		return source.SourceAudio{}, errctx.Wrap(err).Error("Failed to write source metadata")
	}

	return sourceAudio, nil
}

func (t SourceTransferrer) download(ctx context.Context, sourceURL string, outputPath string) error {
	logger := log.WithField("url", sourceURL)

	attempt := 0
	operation := func() error {
		attempt++

		written, err := t.downloadOnce(ctx, sourceURL, outputPath)
		if err != nil {
			logger.WithField("attempt", attempt).WithError(err).Warn("Source download attempt failed")
			return err
		}

		logger.WithField("size", humanize.Bytes(uint64(written))).Info("Downloaded source audio")
		return nil
	}

	policy := backoff.NewExponentialBackOff(backoff.WithInitialInterval(t.retryInterval))
	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, downloadAttempts-1), ctx))
}

func (t SourceTransferrer) downloadOnce(ctx context.Context, sourceURL string, outputPath string) (int64, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return 0, backoff.Permanent(cerr.Field("url", sourceURL).Wrap(err).Error("Invalid source url"))
	}

	response, err := t.client.Do(request)
	if err != nil {
		return 0, cerr.Field("url", sourceURL).Wrap(err).Error("Source request failed")
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		err := cerr.Fields(cerr.F{"url": sourceURL, "status": response.StatusCode}).
			Error(fmt.Sprintf("Source host responded with %s", response.Status))

		if response.StatusCode >= 400 && response.StatusCode < 500 {
			return 0, backoff.Permanent(err)
		}
		return 0, err
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return 0, backoff.Permanent(cerr.Field("path", outputPath).Wrap(err).Error("Failed to create download file"))
	}
	defer file.Close()

	return io.Copy(file, response.Body)
}

func (t SourceTransferrer) makeTempOutFilePath(ext string) (string, func(), error) {
	log.Info("Creating temp dir to store downloaded source file temporarily")
	tempDir, err := os.MkdirTemp(t.workingDir.TempDir(), "import-*")
	if err != nil {
		return "", nil, cerr.Field("temp_dir", t.workingDir.TempDir()).
			Wrap(err).Error("Failed to create temp dir to download to")
	}

	outputPath := filepath.Join(tempDir, "original"+ext)

	return outputPath, func() { os.RemoveAll(tempDir) }, nil
}

func extFromURL(sourceURL string) string {
	parsed, err := url.Parse(sourceURL)
	if err != nil {
		return defaultExt
	}

	ext := path.Ext(parsed.Path)
	if ext == "" || len(ext) > 6 {
		return defaultExt
	}
	return ext
}
