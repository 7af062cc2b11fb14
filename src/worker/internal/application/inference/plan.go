package inference

import (
	"fmt"

	"github.com/veedubyou/stemsplit-be/src/worker/internal/lib/cerr"
)

type Params struct {
	// SegmentLength is the fixed number of samples the model sees at once
	SegmentLength int `yaml:"segment_length" toml:"segment_length"`
	// Overlap is how many windows cover any one sample
	Overlap   int `yaml:"overlap" toml:"overlap"`
	BatchSize int `yaml:"batch_size" toml:"batch_size"`
}

func (p Params) Validate() error {
	errctx := cerr.Fields(cerr.F{
		"segment_length": p.SegmentLength,
		"overlap":        p.Overlap,
		"batch_size":     p.BatchSize,
	})

	if p.SegmentLength < 1 {
		return errctx.Error("Segment length must be positive")
	}

	if p.Overlap < 1 {
		return errctx.Error("Overlap must be at least 1")
	}

	if p.SegmentLength/p.Overlap < 1 {
		return errctx.Error(fmt.Sprintf("An overlap of %d leaves no step for segments of %d samples", p.Overlap, p.SegmentLength))
	}

	if p.BatchSize < 1 {
		return errctx.Error("Batch size must be at least 1")
	}

	return nil
}

// Plan lays out the windows for one inference call. Offsets index the padded signal.
type Plan struct {
	Length  int
	Segment int
	Step    int
	Fade    int
	Pad     int
	Offsets []int
}

func NewPlan(length int, params Params) (Plan, error) {
	if err := params.Validate(); err != nil {
		return Plan{}, err
	}

	if length < 1 {
		return Plan{}, cerr.Field("length", length).Error("Cannot plan windows over empty audio")
	}

	segment := params.SegmentLength
	step := segment / params.Overlap
	border := segment - step

	// with no overlap there is nothing to pad and seams may be audible
	pad := 0
	if border > 0 && length > 2*border {
		pad = border
	}

	plan := Plan{
		Length:  length,
		Segment: segment,
		Step:    step,
		Fade:    segment / 10,
		Pad:     pad,
	}

	for offset := 0; offset < plan.PaddedLength(); offset += step {
		plan.Offsets = append(plan.Offsets, offset)
	}

	return plan, nil
}

func (p Plan) PaddedLength() int {
	return p.Length + 2*p.Pad
}

func (p Plan) WindowCount() int {
	return len(p.Offsets)
}

// PartLength is how many real samples the window at index holds. Anything beyond is padding.
func (p Plan) PartLength(index int) int {
	return min(p.Segment, p.PaddedLength()-p.Offsets[index])
}

// Weights is the crossfade curve of the window at index. The first window keeps its
// leading edge and the last window keeps its trailing edge.
func (p Plan) Weights(index int) []float64 {
	weights := make([]float64, p.Segment)
	for i := range weights {
		weights[i] = 1
	}

	isFirst := index == 0
	isLast := index == len(p.Offsets)-1

	if !isFirst {
		copy(weights, FadeIn(p.Fade))
	}

	if !isLast {
		copy(weights[p.Segment-p.Fade:], FadeOut(p.Fade))
	}

	return weights
}

func FadeIn(length int) []float64 {
	return linspace(0, 1, length)
}

func FadeOut(length int) []float64 {
	return linspace(1, 0, length)
}

func linspace(start float64, end float64, count int) []float64 {
	values := make([]float64, count)
	if count == 1 {
		values[0] = start
		return values
	}

	for i := range values {
		values[i] = start + (end-start)*float64(i)/float64(count-1)
	}

	return values
}
