package separator

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/apex/log"
	"github.com/veedubyou/stemsplit-be/src/shared/backend"
	jobentity "github.com/veedubyou/stemsplit-be/src/shared/job/entity"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/errors/mark"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/audio"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/inference"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/modelcache"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/lib/cerr"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

//counterfeiter:generate . ModelSource
type ModelSource interface {
	Get(ctx context.Context, entry modelcache.Entry) (*modelcache.Model, error)
}

type Request struct {
	Config backend.Config
	// Stems must be available after the backend's reduction. Separation always
	// produces every native stem, the selection is applied when combining.
	Stems    []string
	Progress inference.ProgressFunc
}

// ModelHandle owns everything a prepared model holds on to. Release must be called
// when the job ends, accelerator buffers are not reclaimed by going out of scope.
type ModelHandle struct {
	Kind   backend.Kind
	Device jobentity.Device
	Model  *modelcache.Model

	predictor *predictor
	released  bool
}

func (h *ModelHandle) Release() {
	if h == nil || h.released {
		return
	}

	h.predictor.release()
	h.predictor = nil
	h.Model = nil
	h.released = true

	log.WithFields(log.Fields{
		"backend": h.Kind,
		"device":  h.Device,
	}).Debug("Released model handle")
}

func (h *ModelHandle) Released() bool {
	return h.released
}

// Backend is one separation strategy. Every backend yields its native stems.
type Backend interface {
	Kind() backend.Kind
	Separate(ctx context.Context, handle *ModelHandle, mix audio.Signal, config backend.Config, progress inference.ProgressFunc) (audio.StemSet, error)
}

type Separator struct {
	models   ModelSource
	catalog  modelcache.Catalog
	backends map[backend.Kind]Backend
}

// NewSeparator builds the dispatch table once. Every backend kind needs a catalog entry.
func NewSeparator(models ModelSource, catalog modelcache.Catalog) (*Separator, error) {
	backends := map[backend.Kind]Backend{}
	for _, b := range []Backend{
		BaselineBackend{},
		MultibandBackend{},
		IterativeBackend{},
		EnsembleBackend{},
	} {
		backends[b.Kind()] = b
	}

	for _, kind := range backend.Kinds {
		if _, ok := backends[kind]; !ok {
			return nil, cerr.Field("backend", kind).Error("No separator backend for kind")
		}

		if _, ok := catalog.Lookup(kind); !ok {
			return nil, cerr.Field("backend", kind).Error("No model configured for backend")
		}
	}

	return &Separator{
		models:   models,
		catalog:  catalog,
		backends: backends,
	}, nil
}

// Prepare is getModel: it fetches the model for config and readies it for device.
func (s *Separator) Prepare(ctx context.Context, config backend.Config, device jobentity.Device) (*ModelHandle, error) {
	errctx := cerr.Fields(cerr.F{
		"backend": config.Kind,
		"device":  device,
	})

	entry, ok := s.catalog.Lookup(config.Kind)
	if !ok {
		return nil, errctx.Error("No model configured for backend")
	}

	model, err := s.models.Get(ctx, entry)
	if err != nil {
		return nil, errctx.Wrap(err).Error("Failed to get model")
	}

	descriptor := config.Descriptor()
	predictor, err := newPredictor(model.Weights, descriptor.NativeStems)
	if err != nil {
		return nil, errctx.Field("model", entry.Name).Wrap(err).Error("Model does not fit its backend")
	}

	log.WithFields(log.Fields{
		"backend": config.Kind,
		"device":  device,
		"model":   entry.Name,
	}).Info("Prepared model")

	return &ModelHandle{
		Kind:      config.Kind,
		Device:    device,
		Model:     model,
		predictor: predictor,
	}, nil
}

func (s *Separator) Separate(ctx context.Context, handle *ModelHandle, mix audio.Signal, request Request) (audio.StemSet, error) {
	errctx := cerr.Fields(cerr.F{
		"backend": request.Config.Kind,
		"samples": mix.Len(),
	})

	if handle == nil || handle.Released() {
		return nil, errctx.Error("Model handle has already been released")
	}

	if handle.Kind != request.Config.Kind {
		return nil, errctx.Field("handle_backend", handle.Kind).Error("Model handle was prepared for another backend")
	}

	if mix.Len() == 0 {
		return nil, errctx.Wrap(mark.Message(jobentity.RuntimeMark, "The source audio is empty")).
			Error("Nothing to separate")
	}

	available := request.Config.AvailableStems()
	for _, stem := range request.Stems {
		if !slices.Contains(available, stem) {
			return nil, errctx.Wrap(mark.Message(jobentity.ValidationMark,
				fmt.Sprintf("Unknown part %q, this backend produces: %s", stem, strings.Join(available, ", ")))).
				Error("Invalid stem selection")
		}
	}

	b := s.backends[request.Config.Kind]
	stems, err := b.Separate(ctx, handle, mix, request.Config, request.Progress)
	if err != nil {
		return nil, errctx.Wrap(err).Error("Separation failed")
	}

	return stems, nil
}

func missingStemError(stem string) error {
	return cerr.Field("stem", stem).Error("Model weights do not cover a stem the backend produces")
}
