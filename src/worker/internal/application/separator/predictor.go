package separator

import (
	"math"
	"math/cmplx"

	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/audio"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/modelcache"
	"gonum.org/v1/gonum/dsp/fourier"
)

// predictor splits one window into stems with per band spectral masks.
// Masks across stems sum to one at every frequency, so the stems always add back up to the input.
type predictor struct {
	weights modelcache.Weights
	stems   []string
	gains   [][]float64

	// plans and masks are cached per window length and purged on release
	plans map[int]*fourier.FFT
	masks map[int][][]float64
}

func newPredictor(weights modelcache.Weights, stems []string) (*predictor, error) {
	gains := [][]float64{}
	for _, stem := range stems {
		stemGains, ok := weights.StemGains(stem)
		if !ok {
			return nil, missingStemError(stem)
		}
		gains = append(gains, stemGains)
	}

	return &predictor{
		weights: weights,
		stems:   stems,
		gains:   gains,
		plans:   map[int]*fourier.FFT{},
		masks:   map[int][][]float64{},
	}, nil
}

func (p *predictor) plan(length int) *fourier.FFT {
	fft, ok := p.plans[length]
	if !ok {
		fft = fourier.NewFFT(length)
		p.plans[length] = fft
	}
	return fft
}

func (p *predictor) release() {
	clear(p.plans)
	clear(p.masks)
	p.gains = nil
}

// spectrum is the per channel transform of one window
type spectrum [][]complex128

func (p *predictor) transform(window audio.Signal) spectrum {
	fft := p.plan(window.Len())
	transformed := make(spectrum, window.Channels())
	for c, channel := range window {
		transformed[c] = fft.Coefficients(nil, channel)
	}
	return transformed
}

func (p *predictor) inverse(transformed spectrum, length int) audio.Signal {
	fft := p.plan(length)
	signal := make(audio.Signal, len(transformed))
	scale := 1 / float64(length)
	for c, coefficients := range transformed {
		signal[c] = fft.Sequence(nil, coefficients)
		for i := range signal[c] {
			signal[c][i] *= scale
		}
	}
	return signal
}

// bandMasks are the model's initial estimate, masks[stem][bin].
func (p *predictor) bandMasks(length int) [][]float64 {
	if masks, ok := p.masks[length]; ok {
		return masks
	}

	fft := p.plan(length)
	bins := length/2 + 1

	masks := make([][]float64, len(p.stems))
	for s := range masks {
		masks[s] = make([]float64, bins)
	}

	for bin := 0; bin < bins; bin++ {
		// Freq is in cycles per sample, 0.5 is nyquist
		band := int(fft.Freq(bin) * 2 * float64(p.weights.Bands))
		band = min(band, p.weights.Bands-1)

		total := 0.0
		for s := range p.stems {
			total += p.gains[s][band]
		}

		for s := range p.stems {
			if total == 0 {
				masks[s][bin] = 1 / float64(len(p.stems))
			} else {
				masks[s][bin] = p.gains[s][band] / total
			}
		}
	}

	p.masks[length] = masks
	return masks
}

func applyMask(transformed spectrum, mask []float64) spectrum {
	masked := make(spectrum, len(transformed))
	for c, coefficients := range transformed {
		masked[c] = make([]complex128, len(coefficients))
		for bin, coefficient := range coefficients {
			masked[c][bin] = coefficient * complex(mask[bin], 0)
		}
	}
	return masked
}

// refineMasks re-estimates the masks from the magnitudes the previous masks produced.
// Soft masks weight each stem by magnitude^alpha, hard masks give each bin to the loudest stem.
func refineMasks(transformed spectrum, masks [][]float64, softmask bool, alpha float64) [][]float64 {
	bins := len(masks[0])
	energy := make([][]float64, len(masks))
	for s := range masks {
		energy[s] = make([]float64, bins)
		for bin := 0; bin < bins; bin++ {
			for c := range transformed {
				magnitude := cmplx.Abs(transformed[c][bin]) * masks[s][bin]
				energy[s][bin] += math.Pow(magnitude, alpha)
			}
		}
	}

	refined := make([][]float64, len(masks))
	for s := range refined {
		refined[s] = make([]float64, bins)
	}

	for bin := 0; bin < bins; bin++ {
		total := 0.0
		loudest := 0
		for s := range energy {
			total += energy[s][bin]
			if energy[s][bin] > energy[loudest][bin] {
				loudest = s
			}
		}

		for s := range refined {
			switch {
			case total == 0:
				refined[s][bin] = masks[s][bin]
			case softmask:
				refined[s][bin] = energy[s][bin] / total
			case s == loudest:
				refined[s][bin] = 1
			}
		}
	}

	return refined
}

// predict runs the masks over a window and returns one signal per stem
func (p *predictor) predict(window audio.Signal, masks [][]float64, transformed spectrum) audio.StemSet {
	stems := make(audio.StemSet, 0, len(p.stems))
	for s, name := range p.stems {
		stems = append(stems, audio.Stem{
			Name:   name,
			Signal: p.inverse(applyMask(transformed, masks[s]), window.Len()),
		})
	}
	return stems
}
