package combine

import (
	"fmt"
	"strings"

	"github.com/veedubyou/stemsplit-be/src/shared/backend"
	jobentity "github.com/veedubyou/stemsplit-be/src/shared/job/entity"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/errors/mark"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/audio"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/lib/cerr"
)

type Request struct {
	Config  backend.Config
	Variant jobentity.Variant
	Stems   []string
}

// StaticStemName labels the single buffer of a static mix.
func StaticStemName(stems []string) string {
	return strings.Join(stems, "+")
}

// Reduce folds the stems named by reduction into its catch-all stem by summing samples.
// The catch-all buffer is copied, the input set is left untouched.
func Reduce(stems audio.StemSet, reduction backend.Reduction) (audio.StemSet, error) {
	if reduction.IsIdentity() {
		return stems, nil
	}

	catchAll, ok := stems.Get(reduction.CatchAll)
	if !ok {
		return nil, cerr.Field("stem", reduction.CatchAll).Error("Stem set has no catch-all stem to fold into")
	}
	catchAll = catchAll.Clone()

	for _, folded := range reduction.Folded {
		signal, ok := stems.Get(folded)
		if !ok {
			return nil, cerr.Field("stem", folded).Error("Stem set is missing a stem to fold")
		}

		if err := catchAll.Add(signal); err != nil {
			return nil, cerr.Field("stem", folded).Wrap(err).Error("Failed to fold stem")
		}
	}

	reduced := audio.StemSet{}
	for _, stem := range stems {
		switch {
		case stem.Name == reduction.CatchAll:
			reduced = append(reduced, audio.Stem{Name: stem.Name, Signal: catchAll})
		case isFolded(reduction, stem.Name):
			continue
		default:
			reduced = append(reduced, stem)
		}
	}

	return reduced, nil
}

func isFolded(reduction backend.Reduction, stem string) bool {
	for _, folded := range reduction.Folded {
		if folded == stem {
			return true
		}
	}
	return false
}

// Combine reduces the backend's stems and then shapes them for the job variant.
// A static job yields one summed buffer, a dynamic job every reduced stem.
func Combine(stems audio.StemSet, request Request) (audio.StemSet, error) {
	errctx := cerr.Fields(cerr.F{
		"backend": request.Config.Kind,
		"variant": request.Variant,
		"stems":   request.Stems,
	})

	reduced, err := Reduce(stems, request.Config.Reduction())
	if err != nil {
		return nil, errctx.Wrap(err).Error("Failed to reduce stems")
	}

	switch request.Variant {
	case jobentity.StaticVariant:
		mixed, err := staticMix(reduced, request)
		if err != nil {
			return nil, errctx.Wrap(err).Error("Failed to mix stems")
		}
		return mixed, nil

	case jobentity.DynamicVariant:
		ordered := audio.StemSet{}
		for _, name := range backend.SortStems(reduced.Names()) {
			signal, _ := reduced.Get(name)
			ordered = append(ordered, audio.Stem{Name: name, Signal: signal})
		}
		return ordered, nil

	default:
		return nil, errctx.Wrap(mark.Message(jobentity.ValidationMark, fmt.Sprintf("Unknown job variant %q", request.Variant))).
			Error("Cannot combine stems")
	}
}

func staticMix(reduced audio.StemSet, request Request) (audio.StemSet, error) {
	selection, err := backend.ValidateStaticSelection(request.Config, request.Stems)
	if err != nil {
		return nil, mark.Wrap(err, jobentity.ValidationMark, "Invalid stem selection")
	}

	var mix audio.Signal
	for _, name := range selection {
		signal, ok := reduced.Get(name)
		if !ok {
			return nil, cerr.Field("stem", name).Error("Separation did not produce a requested stem")
		}

		if mix == nil {
			mix = signal.Clone()
			continue
		}

		if err := mix.Add(signal); err != nil {
			return nil, cerr.Field("stem", name).Wrap(err).Error("Failed to sum stem")
		}
	}

	if request.Config.Descriptor().Normalize {
		mix.Scale(1 / float64(len(selection)))
	}

	return audio.StemSet{{Name: StaticStemName(selection), Signal: mix}}, nil
}
