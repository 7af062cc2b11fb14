package modelcache

import (
	"fmt"
	"slices"

	"github.com/veedubyou/stemsplit-be/src/shared/backend"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/inference"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/lib/cerr"
)

const BuiltinScheme = "builtin:"

// Entry describes where the assets of one backend's model live.
type Entry struct {
	Kind          backend.Kind `toml:"kind"`
	Name          string       `toml:"name"`
	WeightsURL    string       `toml:"weights_url"`
	WeightsSHA256 string       `toml:"weights_sha256"`
	ConfigURL     string       `toml:"config_url"`
	ConfigSHA256  string       `toml:"config_sha256"`
}

type Catalog []Entry

func (c Catalog) Lookup(kind backend.Kind) (Entry, bool) {
	for _, entry := range c {
		if entry.Kind == kind {
			return entry, true
		}
	}

	return Entry{}, false
}

// Weights hold a gain per stem for each frequency band, Gains[stem][band].
type Weights struct {
	Stems []string    `msgpack:"stems"`
	Bands int         `msgpack:"bands"`
	Gains [][]float64 `msgpack:"gains"`
}

func (w Weights) Validate() error {
	if w.Bands < 1 {
		return cerr.Field("bands", w.Bands).Error("Weights need at least one band")
	}

	if len(w.Gains) != len(w.Stems) {
		return cerr.Fields(cerr.F{
			"stems": len(w.Stems),
			"gains": len(w.Gains),
		}).Error("Weights must have one gain table per stem")
	}

	for i, gains := range w.Gains {
		if len(gains) != w.Bands {
			return cerr.Field("stem", w.Stems[i]).Error(fmt.Sprintf("Expected %d band gains, found %d", w.Bands, len(gains)))
		}

		for _, gain := range gains {
			if gain < 0 {
				return cerr.Field("stem", w.Stems[i]).Error("Band gains cannot be negative")
			}
		}
	}

	return nil
}

func (w Weights) StemGains(stem string) ([]float64, bool) {
	index := slices.Index(w.Stems, stem)
	if index < 0 {
		return nil, false
	}

	return w.Gains[index], true
}

type InferenceConfig struct {
	SampleRate int              `yaml:"sample_rate"`
	Inference  inference.Params `yaml:"inference"`
}

type Model struct {
	Entry   Entry
	Weights Weights
	Config  InferenceConfig
}
