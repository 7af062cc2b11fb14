package inference

import (
	"context"
	"fmt"

	"github.com/apex/log"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/audio"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/lib/cerr"
)

const minWeight = 1e-10

// Model predicts every stem for a batch of fixed length windows.
// The result holds one StemSet per window, in the order of Stems().
type Model interface {
	Stems() []string
	Predict(ctx context.Context, windows []audio.Signal) ([]audio.StemSet, error)
}

type ProgressFunc func(done int, total int)

type Engine struct {
	Params   Params
	Progress ProgressFunc
}

func NewEngine(params Params, progress ProgressFunc) Engine {
	return Engine{
		Params:   params,
		Progress: progress,
	}
}

// Run applies model over mix of any length with crossfaded overlap-add.
// The batch size never changes the result, windows are always accumulated in order.
func (e Engine) Run(ctx context.Context, model Model, mix audio.Signal) (audio.StemSet, error) {
	plan, err := NewPlan(mix.Len(), e.Params)
	if err != nil {
		return nil, cerr.Wrap(err).Error("Failed to plan inference windows")
	}

	logger := log.WithFields(log.Fields{
		"samples":  plan.Length,
		"segment":  plan.Segment,
		"step":     plan.Step,
		"padding":  plan.Pad,
		"windows":  plan.WindowCount(),
		"batch":    e.Params.BatchSize,
		"channels": mix.Channels(),
	})
	logger.Debug("Running windowed inference")

	padded := reflectPad(mix, plan.Pad, plan.Pad)

	stems := model.Stems()
	accum := make([]audio.Signal, len(stems))
	for i := range accum {
		accum[i] = audio.NewSignal(mix.Channels(), plan.PaddedLength())
	}
	weightSum := make([]float64, plan.PaddedLength())

	for batchStart := 0; batchStart < plan.WindowCount(); batchStart += e.Params.BatchSize {
		if ctx.Err() != nil {
			return nil, cerr.Wrap(ctx.Err()).Error("Inference was interrupted")
		}

		batchEnd := min(batchStart+e.Params.BatchSize, plan.WindowCount())
		windows := make([]audio.Signal, 0, batchEnd-batchStart)
		for index := batchStart; index < batchEnd; index++ {
			windows = append(windows, extractWindow(padded, plan, index))
		}

		predictions, err := model.Predict(ctx, windows)
		if err != nil {
			return nil, cerr.Field("window", batchStart).Wrap(err).Error("Model failed to predict a batch")
		}

		if len(predictions) != len(windows) {
			return nil, cerr.Error(fmt.Sprintf("Model returned %d predictions for %d windows", len(predictions), len(windows)))
		}

		for i, prediction := range predictions {
			index := batchStart + i
			if err := accumulate(accum, weightSum, stems, prediction, plan, index); err != nil {
				return nil, cerr.Field("window", index).Wrap(err).Error("Failed to accumulate a prediction")
			}
		}

		if e.Progress != nil {
			e.Progress(batchEnd, plan.WindowCount())
		}
	}

	result := make(audio.StemSet, 0, len(stems))
	for i, name := range stems {
		result = append(result, audio.Stem{
			Name:   name,
			Signal: reconstruct(accum[i], weightSum, plan),
		})
	}

	return result, nil
}

func extractWindow(padded audio.Signal, plan Plan, index int) audio.Signal {
	offset := plan.Offsets[index]
	partLength := plan.PartLength(index)
	part := padded.Slice(offset, offset+partLength)

	missing := plan.Segment - partLength
	if missing == 0 {
		return part
	}

	if partLength > plan.Segment/2+1 {
		return reflectPad(part, 0, missing)
	}

	return zeroPad(part, missing)
}

func accumulate(accum []audio.Signal, weightSum []float64, stems []string, prediction audio.StemSet, plan Plan, index int) error {
	offset := plan.Offsets[index]
	partLength := plan.PartLength(index)
	weights := plan.Weights(index)

	for s, name := range stems {
		predicted, ok := prediction.Get(name)
		if !ok {
			return cerr.Field("stem", name).Error("Prediction is missing a stem")
		}

		if predicted.Channels() != accum[s].Channels() || predicted.Len() < partLength {
			return cerr.Fields(cerr.F{
				"stem":     name,
				"channels": predicted.Channels(),
				"length":   predicted.Len(),
			}).Error("Prediction has the wrong shape")
		}

		for c := range predicted {
			target := accum[s][c][offset : offset+partLength]
			for i := range target {
				target[i] += predicted[c][i] * weights[i]
			}
		}
	}

	for i := 0; i < partLength; i++ {
		weightSum[offset+i] += weights[i]
	}

	return nil
}

func reconstruct(accum audio.Signal, weightSum []float64, plan Plan) audio.Signal {
	output := audio.NewSignal(accum.Channels(), plan.Length)
	for c := range accum {
		for i := range output[c] {
			padded := i + plan.Pad
			output[c][i] = accum[c][padded] / max(weightSum[padded], minWeight)
		}
	}

	return output
}

// reflectPad mirrors the signal around its edges without repeating the edge sample.
func reflectPad(signal audio.Signal, before int, after int) audio.Signal {
	if before == 0 && after == 0 {
		return signal
	}

	length := signal.Len()
	padded := audio.NewSignal(signal.Channels(), length+before+after)
	for c := range signal {
		for i := range padded[c] {
			padded[c][i] = signal[c][reflectIndex(i-before, length)]
		}
	}

	return padded
}

func reflectIndex(i int, length int) int {
	if length == 1 {
		return 0
	}

	period := 2 * (length - 1)
	i %= period
	if i < 0 {
		i += period
	}

	if i >= length {
		i = period - i
	}

	return i
}

func zeroPad(signal audio.Signal, after int) audio.Signal {
	padded := audio.NewSignal(signal.Channels(), signal.Len()+after)
	for c := range signal {
		copy(padded[c], signal[c])
	}

	return padded
}
