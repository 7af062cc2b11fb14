package workerconfig

import (
	"bytes"
	_ "embed"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/modelcache"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/lib/cerr"
)

//go:embed defaults.toml
var defaultsTOML []byte

type IsolationMode string

const (
	ProcessIsolation   IsolationMode = "process"
	GoroutineIsolation IsolationMode = "goroutine"
)

type Queues struct {
	SeparationConsumers int `toml:"separation_consumers"`
	FastConsumers       int `toml:"fast_consumers"`
}

type Devices struct {
	Accelerators int `toml:"accelerators"`
}

type Separation struct {
	Isolation IsolationMode `toml:"isolation"`
	Timeout   int           `toml:"timeout"`
	Attempts  int           `toml:"attempts"`
}

type Reaper struct {
	Enabled          bool `toml:"enabled"`
	ThresholdMinutes int  `toml:"threshold_minutes"`
	IntervalMinutes  int  `toml:"interval_minutes"`
}

type Models struct {
	Dir           string             `toml:"dir"`
	RetryInterval int                `toml:"retry_interval"`
	Catalog       []modelcache.Entry `toml:"catalog"`
}

// Config is the worker's tuning. Deployment wiring such as broker urls and stores comes
// from the environment instead.
type Config struct {
	Queues     Queues     `toml:"queues"`
	Devices    Devices    `toml:"devices"`
	Separation Separation `toml:"separation"`
	Reaper     Reaper     `toml:"reaper"`
	Models     Models     `toml:"models"`
}

// Default decodes the embedded defaults, which are known to be valid.
func Default() Config {
	cfg := Config{}
	if err := toml.NewDecoder(bytes.NewReader(defaultsTOML)).Decode(&cfg); err != nil {
		panic(err)
	}
	return cfg
}

// Load decodes path over the defaults. An empty path loads just the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return Config{}, cerr.Field("path", path).Wrap(err).Error("Failed to open worker config")
		}
		defer file.Close()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return Config{}, cerr.Field("path", path).Wrap(err).Error("Failed to parse worker config")
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, cerr.Field("path", path).Wrap(err).Error("Invalid worker config")
	}

	return cfg, nil
}

func (c Config) SeparationTimeout() time.Duration {
	return time.Duration(c.Separation.Timeout) * time.Second
}

func (c Config) ReaperThreshold() time.Duration {
	return time.Duration(c.Reaper.ThresholdMinutes) * time.Minute
}

func (c Config) ReaperInterval() time.Duration {
	return time.Duration(c.Reaper.IntervalMinutes) * time.Minute
}

func (c Config) ModelRetryInterval() time.Duration {
	return time.Duration(c.Models.RetryInterval) * time.Second
}

func (c Config) ModelsDir(workingDir string) string {
	if c.Models.Dir != "" {
		return c.Models.Dir
	}
	return filepath.Join(workingDir, "models")
}

// Catalog serves every backend from the builtin assets unless the file names a model for it.
func (c Config) Catalog() modelcache.Catalog {
	catalog := modelcache.Catalog{}
	for _, builtin := range modelcache.BuiltinCatalog() {
		entry, ok := modelcache.Catalog(c.Models.Catalog).Lookup(builtin.Kind)
		if !ok {
			entry = builtin
		}
		catalog = append(catalog, entry)
	}
	return catalog
}
