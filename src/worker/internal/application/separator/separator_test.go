package separator_test

import (
	"context"
	"math"

	"github.com/cockroachdb/errors/markers"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/stemsplit-be/src/shared/backend"
	jobentity "github.com/veedubyou/stemsplit-be/src/shared/job/entity"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/errors/mark"
	. "github.com/veedubyou/stemsplit-be/src/shared/testing"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/audio"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/inference"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/modelcache"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/separator"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/separator/separatorfakes"
)

const segment = 1024

// lowBandWeights send the lower half of the spectrum to bass and split the rest evenly
func lowBandWeights(stems []string) modelcache.Weights {
	weights := modelcache.Weights{Stems: stems, Bands: 2}
	for _, stem := range stems {
		if stem == backend.Bass {
			weights.Gains = append(weights.Gains, []float64{1, 0})
		} else {
			weights.Gains = append(weights.Gains, []float64{0, 1})
		}
	}
	return weights
}

func testModel(kind backend.Kind) *modelcache.Model {
	descriptor, _ := backend.Describe(kind)
	overlap := 2
	if kind == backend.BaselineKind {
		overlap = 1
	}

	return &modelcache.Model{
		Entry:   modelcache.Entry{Kind: kind, Name: string(kind) + "-test"},
		Weights: lowBandWeights(descriptor.NativeStems),
		Config: modelcache.InferenceConfig{
			SampleRate: audio.SampleRate,
			Inference:  inference.Params{SegmentLength: segment, Overlap: overlap, BatchSize: 3},
		},
	}
}

func noisySignal(length int) audio.Signal {
	signal := audio.NewSignal(2, length)
	for i := 0; i < length; i++ {
		signal[0][i] = math.Sin(float64(i)*0.05) + 0.3*math.Sin(float64(i)*1.9)
		signal[1][i] = 0.5*math.Cos(float64(i)*0.7) + 0.2*math.Sin(float64(i)*0.013)
	}
	return signal
}

// periodicSine completes a whole number of cycles in every segment
func periodicSine(length int, cyclesPerSegment int) audio.Signal {
	signal := audio.NewSignal(2, length)
	for i := 0; i < length; i++ {
		value := math.Sin(2 * math.Pi * float64(cyclesPerSegment) * float64(i) / segment)
		signal[0][i] = value
		signal[1][i] = value
	}
	return signal
}

func expectSumsToMix(stems audio.StemSet, mix audio.Signal) {
	sum := audio.NewSignal(mix.Channels(), mix.Len())
	for _, stem := range stems {
		Expect(sum.Add(stem.Signal)).To(Succeed())
	}

	for c := range mix {
		for i := range mix[c] {
			Expect(sum[c][i]).To(BeNumerically("~", mix[c][i], 1e-9), "channel %d sample %d", c, i)
		}
	}
}

var _ = Describe("Separator", func() {
	var (
		models *separatorfakes.FakeModelSource
		sep    *separator.Separator
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		models = &separatorfakes.FakeModelSource{}
		models.GetCalls(func(_ context.Context, entry modelcache.Entry) (*modelcache.Model, error) {
			return testModel(entry.Kind), nil
		})
		sep = ExpectSuccess(separator.NewSeparator(models, modelcache.BuiltinCatalog()))
	})

	separate := func(config backend.Config, mix audio.Signal) audio.StemSet {
		handle := ExpectSuccess(sep.Prepare(ctx, config, jobentity.CPUDevice))
		defer handle.Release()

		return ExpectSuccess(sep.Separate(ctx, handle, mix, separator.Request{Config: config}))
	}

	DescribeTable("produces native stems that add back up to the mix",
		func(config backend.Config, expectedStems []string) {
			mix := noisySignal(5000)
			stems := separate(config, mix)
			Expect(stems.Names()).To(Equal(expectedStems))
			for _, stem := range stems {
				Expect(stem.Signal.Len()).To(Equal(mix.Len()))
			}
			expectSumsToMix(stems, mix)
		},
		Entry("baseline",
			backend.Config{Kind: backend.BaselineKind, OutputFormat: backend.WAV},
			[]string{"vocals", "drums", "bass", "other"}),
		Entry("windowed multiband",
			backend.Config{Kind: backend.WindowedMultibandKind, OutputFormat: backend.WAV, StemMode: backend.FourStemMode},
			[]string{"vocals", "drums", "bass", "other", "guitar", "piano"}),
		Entry("iterative refinement with soft masks",
			backend.Config{Kind: backend.IterativeKind, OutputFormat: backend.WAV, Iterations: 3, Softmask: true, Alpha: 2},
			[]string{"vocals", "drums", "bass", "other"}),
		Entry("iterative refinement with hard masks",
			backend.Config{Kind: backend.IterativeKind, OutputFormat: backend.WAV, Iterations: 2, Alpha: 1},
			[]string{"vocals", "drums", "bass", "other"}),
		Entry("ensemble without shifts",
			backend.Config{Kind: backend.EnsembleKind, OutputFormat: backend.WAV},
			[]string{"vocals", "drums", "bass", "other"}),
		Entry("ensemble with shifts",
			backend.Config{Kind: backend.EnsembleKind, OutputFormat: backend.WAV, ShiftCount: 3},
			[]string{"vocals", "drums", "bass", "other"}),
	)

	It("routes low frequencies to the bass stem", func() {
		config := backend.Config{Kind: backend.BaselineKind, OutputFormat: backend.WAV}
		mix := periodicSine(4*segment, 4)
		stems := separate(config, mix)

		bass, ok := stems.Get(backend.Bass)
		Expect(ok).To(BeTrue())
		vocals, ok := stems.Get(backend.Vocals)
		Expect(ok).To(BeTrue())

		for i := range mix[0] {
			Expect(bass[0][i]).To(BeNumerically("~", mix[0][i], 1e-9))
			Expect(vocals[0][i]).To(BeNumerically("~", 0, 1e-9))
		}
	})

	It("reports progress", func() {
		config := backend.Config{Kind: backend.WindowedMultibandKind, OutputFormat: backend.WAV, StemMode: backend.SixStemMode}
		handle := ExpectSuccess(sep.Prepare(ctx, config, jobentity.AcceleratorDevice))
		defer handle.Release()

		lastDone, lastTotal := 0, 0
		ExpectSuccess(sep.Separate(ctx, handle, noisySignal(5000), separator.Request{
			Config: config,
			Progress: func(done int, total int) {
				lastDone, lastTotal = done, total
			},
		}))

		Expect(lastTotal).To(BeNumerically(">", 0))
		Expect(lastDone).To(Equal(lastTotal))
	})

	It("reports ensemble progress across every pass", func() {
		config := backend.Config{Kind: backend.EnsembleKind, OutputFormat: backend.WAV, ShiftCount: 2}
		handle := ExpectSuccess(sep.Prepare(ctx, config, jobentity.CPUDevice))
		defer handle.Release()

		reported := [][2]int{}
		ExpectSuccess(sep.Separate(ctx, handle, noisySignal(3000), separator.Request{
			Config: config,
			Progress: func(done int, total int) {
				reported = append(reported, [2]int{done, total})
			},
		}))

		last := reported[len(reported)-1]
		Expect(last[0]).To(Equal(last[1]))
		for i := 1; i < len(reported); i++ {
			Expect(reported[i][0]).To(BeNumerically(">", reported[i-1][0]))
		}
	})

	It("refuses to run on a released handle", func() {
		config := backend.Config{Kind: backend.BaselineKind, OutputFormat: backend.WAV}
		handle := ExpectSuccess(sep.Prepare(ctx, config, jobentity.AcceleratorDevice))
		handle.Release()
		handle.Release()

		Expect(handle.Released()).To(BeTrue())
		Expect(handle.Model).To(BeNil())

		_, err := sep.Separate(ctx, handle, noisySignal(100), separator.Request{Config: config})
		Expect(err).To(HaveOccurred())
	})

	It("refuses a handle prepared for another backend", func() {
		handle := ExpectSuccess(sep.Prepare(ctx, backend.Config{Kind: backend.BaselineKind, OutputFormat: backend.WAV}, jobentity.CPUDevice))
		defer handle.Release()

		config := backend.Config{Kind: backend.EnsembleKind, OutputFormat: backend.WAV}
		_, err := sep.Separate(ctx, handle, noisySignal(100), separator.Request{Config: config})
		Expect(err).To(HaveOccurred())
	})

	It("rejects stems the backend cannot produce", func() {
		config := backend.Config{Kind: backend.WindowedMultibandKind, OutputFormat: backend.WAV, StemMode: backend.FiveGuitarStemMode}
		handle := ExpectSuccess(sep.Prepare(ctx, config, jobentity.CPUDevice))
		defer handle.Release()

		_, err := sep.Separate(ctx, handle, noisySignal(100), separator.Request{Config: config, Stems: []string{backend.Piano}})
		Expect(markers.Is(err, jobentity.ValidationMark)).To(BeTrue())
	})

	It("passes model download failures through", func() {
		models.GetReturns(nil, mark.Message(jobentity.DownloadMark, "host is down"))

		_, err := sep.Prepare(ctx, backend.Config{Kind: backend.BaselineKind, OutputFormat: backend.WAV}, jobentity.CPUDevice)
		Expect(markers.Is(err, jobentity.DownloadMark)).To(BeTrue())
	})

	It("rejects weights that miss a native stem", func() {
		models.GetCalls(func(_ context.Context, entry modelcache.Entry) (*modelcache.Model, error) {
			model := testModel(entry.Kind)
			model.Weights = lowBandWeights([]string{backend.Vocals, backend.Drums})
			return model, nil
		})

		_, err := sep.Prepare(ctx, backend.Config{Kind: backend.BaselineKind, OutputFormat: backend.WAV}, jobentity.CPUDevice)
		Expect(err).To(HaveOccurred())
	})

	It("requires a model for every backend", func() {
		_, err := separator.NewSeparator(models, modelcache.BuiltinCatalog()[:2])
		Expect(err).To(HaveOccurred())
	})
})
