package modelcache

import (
	"crypto/sha256"
	"encoding/hex"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/veedubyou/stemsplit-be/src/shared/backend"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/audio"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/inference"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

const builtinBands = 16

// band centers on a 0..1 scale of the spectrum, and how wide each stem spreads
var builtinProfiles = map[string]struct {
	center float64
	width  float64
}{
	backend.Bass:   {center: 0.02, width: 0.05},
	backend.Drums:  {center: 0.35, width: 0.6},
	backend.Vocals: {center: 0.15, width: 0.12},
	backend.Other:  {center: 0.5, width: 1.0},
	backend.Guitar: {center: 0.2, width: 0.15},
	backend.Piano:  {center: 0.1, width: 0.2},
}

var builtinParams = map[backend.Kind]inference.Params{
	backend.BaselineKind:          {SegmentLength: 1 << 17, Overlap: 1, BatchSize: 4},
	backend.WindowedMultibandKind: {SegmentLength: 1 << 17, Overlap: 4, BatchSize: 4},
	backend.IterativeKind:         {SegmentLength: 1 << 17, Overlap: 2, BatchSize: 2},
	backend.EnsembleKind:          {SegmentLength: 1 << 17, Overlap: 2, BatchSize: 4},
}

func builtinKind(url string) (backend.Kind, error) {
	kind, ok := backend.ParseKind(url[len(BuiltinScheme):])
	if !ok {
		return "", errors.Newf("no builtin model named %q", url)
	}
	return kind, nil
}

// BuiltinWeights encodes deterministic band gains for a backend's native stems.
func BuiltinWeights(kind backend.Kind) ([]byte, error) {
	descriptor, ok := backend.Describe(kind)
	if !ok {
		return nil, errors.Newf("unknown backend kind %s", kind)
	}

	weights := Weights{
		Stems: descriptor.NativeStems,
		Bands: builtinBands,
	}

	for _, stem := range descriptor.NativeStems {
		profile := builtinProfiles[stem]
		gains := make([]float64, builtinBands)
		for band := range gains {
			position := (float64(band) + 0.5) / builtinBands
			distance := (position - profile.center) / profile.width
			gains[band] = 0.05 + math.Exp(-distance*distance)
		}
		weights.Gains = append(weights.Gains, gains)
	}

	return msgpack.Marshal(weights)
}

func BuiltinConfig(kind backend.Kind) ([]byte, error) {
	params, ok := builtinParams[kind]
	if !ok {
		return nil, errors.Newf("unknown backend kind %s", kind)
	}

	return yaml.Marshal(InferenceConfig{
		SampleRate: audio.SampleRate,
		Inference:  params,
	})
}

// BuiltinCatalog serves every backend from generated assets, pinned to the digest of what
// this build generates so a cached file that was altered on disk gets regenerated.
func BuiltinCatalog() Catalog {
	catalog := Catalog{}
	for _, kind := range backend.Kinds {
		catalog = append(catalog, Entry{
			Kind:          kind,
			Name:          string(kind) + "-builtin",
			WeightsURL:    BuiltinScheme + string(kind),
			WeightsSHA256: builtinChecksum(BuiltinWeights, kind),
			ConfigURL:     BuiltinScheme + string(kind),
			ConfigSHA256:  builtinChecksum(BuiltinConfig, kind),
		})
	}
	return catalog
}

// builtinChecksum is empty only for a kind without generated assets, which Get then rejects.
func builtinChecksum(generate generator, kind backend.Kind) string {
	contents, err := generate(kind)
	if err != nil {
		return ""
	}

	sum := sha256.Sum256(contents)
	return hex.EncodeToString(sum[:])
}
