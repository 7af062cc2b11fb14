package modelcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/cenkalti/backoff/v4"
	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/veedubyou/stemsplit-be/src/shared/backend"
	jobentity "github.com/veedubyou/stemsplit-be/src/shared/job/entity"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/errors/mark"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/lib/cerr"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

const (
	downloadAttempts  = 3
	lockRetryInterval = 250 * time.Millisecond
	partialSuffix     = ".partial"
)

type Option func(*Cache)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Cache) {
		c.client = client
	}
}

func WithRetryInterval(interval time.Duration) Option {
	return func(c *Cache) {
		c.retryInterval = interval
	}
}

// Cache keeps model assets on disk. The file lock serializes downloads across processes,
// the mutex guards the models already loaded by this one.
type Cache struct {
	dir           string
	client        *http.Client
	retryInterval time.Duration

	loadedLock sync.Mutex
	loaded     map[string]*Model
}

func NewCache(dir string, opts ...Option) (*Cache, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, cerr.Field("model_dir", dir).Wrap(err).Error("Failed to create the model cache dir")
	}

	cache := &Cache{
		dir:           dir,
		client:        http.DefaultClient,
		retryInterval: 500 * time.Millisecond,
		loaded:        map[string]*Model{},
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache, nil
}

func (c *Cache) Dir() string {
	return c.dir
}

// Get returns the model for entry, downloading and verifying whatever is missing.
func (c *Cache) Get(ctx context.Context, entry Entry) (*Model, error) {
	c.loadedLock.Lock()
	model, ok := c.loaded[entry.Name]
	c.loadedLock.Unlock()
	if ok {
		return model, nil
	}

	errctx := cerr.Field("model", entry.Name)

	lock := flock.New(filepath.Join(c.dir, entry.Name+".lock"))
	locked, err := lock.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return nil, errctx.Wrap(mark.Wrap(err, jobentity.DownloadMark, "Failed to lock the model cache")).
			Error("Model cache is busy")
	}

	if !locked {
		return nil, errctx.Wrap(mark.Message(jobentity.DownloadMark, "Gave up waiting for the model cache lock")).
			Error("Model cache is busy")
	}
	defer func() {
		_ = lock.Unlock()
	}()

	weightsPath, err := c.fetch(ctx, entry.WeightsURL, entry.WeightsSHA256, entry.Name+".weights", BuiltinWeights)
	if err != nil {
		return nil, errctx.Wrap(err).Error("Failed to fetch model weights")
	}

	configPath, err := c.fetch(ctx, entry.ConfigURL, entry.ConfigSHA256, entry.Name+".yaml", BuiltinConfig)
	if err != nil {
		return nil, errctx.Wrap(err).Error("Failed to fetch model config")
	}

	model, err = load(entry, weightsPath, configPath)
	if err != nil {
		return nil, errctx.Wrap(err).Error("Failed to load model")
	}

	c.loadedLock.Lock()
	c.loaded[entry.Name] = model
	c.loadedLock.Unlock()

	return model, nil
}

// Forget drops a loaded model so the next Get reads it from disk again.
func (c *Cache) Forget(name string) {
	c.loadedLock.Lock()
	defer c.loadedLock.Unlock()
	delete(c.loaded, name)
}

func load(entry Entry, weightsPath string, configPath string) (*Model, error) {
	weightsBytes, err := os.ReadFile(weightsPath)
	if err != nil {
		return nil, cerr.Field("path", weightsPath).Wrap(err).Error("Failed to read weights")
	}

	weights := Weights{}
	if err := msgpack.Unmarshal(weightsBytes, &weights); err != nil {
		return nil, cerr.Field("path", weightsPath).
			Wrap(mark.Wrap(err, jobentity.ChecksumMismatchMark, "Weights file is corrupt")).
			Error("Failed to decode weights")
	}

	if err := weights.Validate(); err != nil {
		return nil, cerr.Field("path", weightsPath).Wrap(err).Error("Weights are invalid")
	}

	configBytes, err := os.ReadFile(configPath)
	if err != nil {
		return nil, cerr.Field("path", configPath).Wrap(err).Error("Failed to read inference config")
	}

	config := InferenceConfig{}
	if err := yaml.Unmarshal(configBytes, &config); err != nil {
		return nil, cerr.Field("path", configPath).Wrap(err).Error("Failed to decode inference config")
	}

	if err := config.Inference.Validate(); err != nil {
		return nil, cerr.Field("path", configPath).Wrap(err).Error("Inference config is invalid")
	}

	return &Model{
		Entry:   entry,
		Weights: weights,
		Config:  config,
	}, nil
}

type generator func(kind backend.Kind) ([]byte, error)

func (c *Cache) fetch(ctx context.Context, url string, checksum string, fileName string, generate generator) (string, error) {
	path := filepath.Join(c.dir, fileName)
	logger := log.WithFields(log.Fields{
		"url":  url,
		"path": path,
	})

	if _, err := os.Stat(path); err == nil {
		matches, err := verifyChecksum(path, checksum)
		if err != nil {
			return "", cerr.Field("path", path).Wrap(err).Error("Failed to checksum the cached file")
		}

		if matches {
			return path, nil
		}

		logger.Warn("Cached model file does not match its checksum, fetching it again")
		if err := os.Remove(path); err != nil {
			return "", cerr.Field("path", path).Wrap(err).Error("Failed to remove the corrupt cached file")
		}
	}

	if strings.HasPrefix(url, BuiltinScheme) {
		if err := writeBuiltin(url, path, generate); err != nil {
			return "", err
		}
	} else {
		if err := c.download(ctx, url, path); err != nil {
			return "", err
		}
	}

	matches, err := verifyChecksum(path, checksum)
	if err != nil {
		return "", cerr.Field("path", path).Wrap(err).Error("Failed to checksum the fetched file")
	}

	if !matches {
		_ = os.Remove(path)
		return "", cerr.Fields(cerr.F{"url": url, "expected_sha256": checksum}).
			Wrap(mark.Message(jobentity.ChecksumMismatchMark, "The downloaded model file does not match its checksum")).
			Error("Model checksum mismatch")
	}

	return path, nil
}

func writeBuiltin(url string, path string, generate generator) error {
	kind, err := builtinKind(url)
	if err != nil {
		return mark.Wrap(err, jobentity.DownloadMark, "Unknown builtin model")
	}

	contents, err := generate(kind)
	if err != nil {
		return cerr.Field("url", url).Wrap(err).Error("Failed to generate builtin model file")
	}

	return writeAtomically(path, func(file *os.File) error {
		_, err := file.Write(contents)
		return err
	})
}

func (c *Cache) download(ctx context.Context, url string, path string) error {
	logger := log.WithFields(log.Fields{
		"url":  url,
		"path": path,
	})

	attempt := 0
	operation := func() error {
		attempt++
		logger.WithField("attempt", attempt).Info("Downloading model file")

		written, err := c.downloadOnce(ctx, url, path)
		if err != nil {
			logger.WithField("attempt", attempt).WithError(err).Warn("Model download attempt failed")
			return err
		}

		logger.WithField("size", humanize.Bytes(uint64(written))).Info("Downloaded model file")
		return nil
	}

	policy := backoff.NewExponentialBackOff(backoff.WithInitialInterval(c.retryInterval))
	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, downloadAttempts-1), ctx))
	if err != nil {
		return cerr.Fields(cerr.F{"url": url, "attempts": attempt}).
			Wrap(mark.Wrap(err, jobentity.DownloadMark, "The model file could not be downloaded")).
			Error("Model download failed")
	}

	return nil
}

func (c *Cache) downloadOnce(ctx context.Context, url string, path string) (int64, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, backoff.Permanent(cerr.Field("url", url).Wrap(err).Error("Invalid model url"))
	}

	response, err := c.client.Do(request)
	if err != nil {
		return 0, cerr.Field("url", url).Wrap(err).Error("Model request failed")
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		err := cerr.Fields(cerr.F{"url": url, "status": response.StatusCode}).
			Error(fmt.Sprintf("Model host responded with %s", response.Status))

		if response.StatusCode >= 400 && response.StatusCode < 500 {
			return 0, backoff.Permanent(err)
		}
		return 0, err
	}

	var written int64
	err = writeAtomically(path, func(file *os.File) error {
		written, err = io.Copy(file, response.Body)
		return err
	})

	return written, err
}

// writeAtomically never leaves a partial file at path.
func writeAtomically(path string, write func(file *os.File) error) error {
	partialPath := path + partialSuffix

	file, err := os.Create(partialPath)
	if err != nil {
		return cerr.Field("path", partialPath).Wrap(err).Error("Failed to create file")
	}

	err = write(file)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(partialPath)
		return cerr.Field("path", partialPath).Wrap(err).Error("Failed to write file")
	}

	if err := os.Rename(partialPath, path); err != nil {
		_ = os.Remove(partialPath)
		return cerr.Field("path", path).Wrap(err).Error("Failed to move file into place")
	}

	return nil
}

// verifyChecksum treats an empty expected checksum as unpinned.
func verifyChecksum(path string, expected string) (bool, error) {
	if expected == "" {
		return true, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return false, err
	}

	return hex.EncodeToString(hash.Sum(nil)) == strings.ToLower(expected), nil
}
