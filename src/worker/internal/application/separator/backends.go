package separator

import (
	"context"

	"github.com/apex/log"
	"github.com/veedubyou/stemsplit-be/src/shared/backend"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/audio"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/inference"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/lib/cerr"
)

// maskModel adapts the predictor to the windowed engine
type maskModel struct {
	predictor *predictor
	// refine optionally reworks the initial band masks for a window
	refine func(transformed spectrum, masks [][]float64) [][]float64
}

func (m maskModel) Stems() []string {
	return m.predictor.stems
}

func (m maskModel) Predict(ctx context.Context, windows []audio.Signal) ([]audio.StemSet, error) {
	predictions := make([]audio.StemSet, 0, len(windows))
	for _, window := range windows {
		if ctx.Err() != nil {
			return nil, cerr.Wrap(ctx.Err()).Error("Prediction was interrupted")
		}

		transformed := m.predictor.transform(window)
		masks := m.predictor.bandMasks(window.Len())
		if m.refine != nil {
			masks = m.refine(transformed, masks)
		}

		predictions = append(predictions, m.predictor.predict(window, masks, transformed))
	}

	return predictions, nil
}

var _ Backend = BaselineBackend{}

// BaselineBackend predicts fixed, non-overlapping chunks in a single pass.
type BaselineBackend struct{}

func (BaselineBackend) Kind() backend.Kind {
	return backend.BaselineKind
}

func (BaselineBackend) Separate(ctx context.Context, handle *ModelHandle, mix audio.Signal, _ backend.Config, progress inference.ProgressFunc) (audio.StemSet, error) {
	chunkLength := handle.Model.Config.Inference.SegmentLength
	model := maskModel{predictor: handle.predictor}

	output := make(audio.StemSet, 0, len(model.Stems()))
	for _, name := range model.Stems() {
		output = append(output, audio.Stem{
			Name:   name,
			Signal: audio.NewSignal(mix.Channels(), mix.Len()),
		})
	}

	chunks := (mix.Len() + chunkLength - 1) / chunkLength
	for chunk := 0; chunk < chunks; chunk++ {
		start := chunk * chunkLength
		end := min(start+chunkLength, mix.Len())

		predictions, err := model.Predict(ctx, []audio.Signal{mix.Slice(start, end)})
		if err != nil {
			return nil, cerr.Field("chunk", chunk).Wrap(err).Error("Failed to predict chunk")
		}

		for s := range output {
			predicted := predictions[0][s].Signal
			for c := range predicted {
				copy(output[s].Signal[c][start:end], predicted[c])
			}
		}

		if progress != nil {
			progress(chunk+1, chunks)
		}
	}

	return output, nil
}

var _ Backend = MultibandBackend{}

// MultibandBackend runs the band masks through the windowed engine over all six native stems.
type MultibandBackend struct{}

func (MultibandBackend) Kind() backend.Kind {
	return backend.WindowedMultibandKind
}

func (MultibandBackend) Separate(ctx context.Context, handle *ModelHandle, mix audio.Signal, _ backend.Config, progress inference.ProgressFunc) (audio.StemSet, error) {
	engine := inference.NewEngine(handle.Model.Config.Inference, progress)
	return engine.Run(ctx, maskModel{predictor: handle.predictor}, mix)
}

var _ Backend = IterativeBackend{}

// IterativeBackend sharpens the band masks over several passes.
type IterativeBackend struct{}

func (IterativeBackend) Kind() backend.Kind {
	return backend.IterativeKind
}

func (IterativeBackend) Separate(ctx context.Context, handle *ModelHandle, mix audio.Signal, config backend.Config, progress inference.ProgressFunc) (audio.StemSet, error) {
	model := maskModel{
		predictor: handle.predictor,
		refine: func(transformed spectrum, masks [][]float64) [][]float64 {
			// the first iteration is the plain band estimate
			for i := 1; i < config.Iterations; i++ {
				masks = refineMasks(transformed, masks, config.Softmask, config.Alpha)
			}
			return masks
		},
	}

	engine := inference.NewEngine(handle.Model.Config.Inference, progress)
	return engine.Run(ctx, model, mix)
}

var _ Backend = EnsembleBackend{}

// EnsembleBackend averages reconstructions of the mix shifted by fractions of half a second.
type EnsembleBackend struct{}

const maxShiftSamples = audio.SampleRate / 2

func (EnsembleBackend) Kind() backend.Kind {
	return backend.EnsembleKind
}

func (EnsembleBackend) Separate(ctx context.Context, handle *ModelHandle, mix audio.Signal, config backend.Config, progress inference.ProgressFunc) (audio.StemSet, error) {
	passes := max(config.ShiftCount, 1)
	model := maskModel{predictor: handle.predictor}

	var averaged audio.StemSet
	for pass := 0; pass < passes; pass++ {
		offset := 0
		if config.ShiftCount > 0 {
			offset = pass * maxShiftSamples / passes
		}

		log.WithFields(log.Fields{
			"pass":   pass + 1,
			"passes": passes,
			"offset": offset,
		}).Debug("Running ensemble pass")

		passProgress := progress
		if progress != nil {
			passProgress = func(done int, total int) {
				progress(pass*total+done, passes*total)
			}
		}

		engine := inference.NewEngine(handle.Model.Config.Inference, passProgress)
		shifted, err := engine.Run(ctx, model, shiftRight(mix, offset))
		if err != nil {
			return nil, cerr.Field("pass", pass).Wrap(err).Error("Ensemble pass failed")
		}

		unshifted := make(audio.StemSet, 0, len(shifted))
		for _, stem := range shifted {
			unshifted = append(unshifted, audio.Stem{
				Name:   stem.Name,
				Signal: stem.Signal.Slice(offset, offset+mix.Len()),
			})
		}

		if averaged == nil {
			averaged = unshifted
			continue
		}

		for s := range averaged {
			if err := averaged[s].Signal.Add(unshifted[s].Signal); err != nil {
				return nil, cerr.Wrap(err).Error("Ensemble passes disagree on shape")
			}
		}
	}

	for s := range averaged {
		averaged[s].Signal.Scale(1 / float64(passes))
	}

	return averaged, nil
}

func shiftRight(signal audio.Signal, offset int) audio.Signal {
	if offset == 0 {
		return signal
	}

	shifted := audio.NewSignal(signal.Channels(), signal.Len()+offset)
	for c := range signal {
		copy(shifted[c][offset:], signal[c])
	}
	return shifted
}
