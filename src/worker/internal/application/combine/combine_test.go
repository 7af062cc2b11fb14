package combine_test

import (
	"github.com/cockroachdb/errors/markers"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/stemsplit-be/src/shared/backend"
	jobentity "github.com/veedubyou/stemsplit-be/src/shared/job/entity"
	. "github.com/veedubyou/stemsplit-be/src/shared/testing"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/audio"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/combine"
)

// constantStems gives every stem a distinct constant so sums are easy to read
func constantStems(names []string) audio.StemSet {
	stems := audio.StemSet{}
	for i, name := range names {
		signal := audio.NewSignal(2, 8)
		for c := range signal {
			for s := range signal[c] {
				signal[c][s] = float64(int(1) << i)
			}
		}
		stems = append(stems, audio.Stem{Name: name, Signal: signal})
	}
	return stems
}

func expectConstant(signal audio.Signal, value float64) {
	for c := range signal {
		for _, sample := range signal[c] {
			Expect(sample).To(Equal(value))
		}
	}
}

var fourStems = []string{"vocals", "drums", "bass", "other"}
var sixStems = []string{"vocals", "drums", "bass", "other", "guitar", "piano"}

var _ = Describe("Combine", func() {
	Describe("Reduce", func() {
		DescribeTable("folds extra stems into other",
			func(mode backend.StemMode, expectedNames []string, expectedOther float64) {
				config := backend.Config{Kind: backend.WindowedMultibandKind, OutputFormat: backend.WAV, StemMode: mode}
				stems := constantStems(sixStems)

				reduced := ExpectSuccess(combine.Reduce(stems, config.Reduction()))
				Expect(reduced.Names()).To(Equal(expectedNames))

				other, ok := reduced.Get("other")
				Expect(ok).To(BeTrue())
				expectConstant(other, expectedOther)
			},
			// other=8, guitar=16, piano=32
			Entry("4 stems", backend.FourStemMode, fourStems, 56.0),
			Entry("5 stems with guitar", backend.FiveGuitarStemMode, []string{"vocals", "drums", "bass", "other", "guitar"}, 40.0),
			Entry("5 stems with piano", backend.FivePianoStemMode, []string{"vocals", "drums", "bass", "other", "piano"}, 24.0),
			Entry("6 stems", backend.SixStemMode, sixStems, 8.0),
		)

		It("does not modify the input stems", func() {
			config := backend.Config{Kind: backend.WindowedMultibandKind, OutputFormat: backend.WAV, StemMode: backend.FourStemMode}
			stems := constantStems(sixStems)
			ExpectSuccess(combine.Reduce(stems, config.Reduction()))

			other, _ := stems.Get("other")
			expectConstant(other, 8)
		})

		It("fails when a folded stem is missing", func() {
			config := backend.Config{Kind: backend.WindowedMultibandKind, OutputFormat: backend.WAV, StemMode: backend.FourStemMode}
			_, err := combine.Reduce(constantStems(fourStems), config.Reduction())
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("static mixes", func() {
		It("sums exactly the requested stems", func() {
			config := backend.Config{Kind: backend.EnsembleKind, OutputFormat: backend.MP3_320}
			mixed := ExpectSuccess(combine.Combine(constantStems(fourStems), combine.Request{
				Config:  config,
				Variant: jobentity.StaticVariant,
				Stems:   []string{"drums", "vocals"},
			}))

			Expect(mixed).To(HaveLen(1))
			Expect(mixed[0].Name).To(Equal("vocals+drums"))
			// vocals=1, drums=2
			expectConstant(mixed[0].Signal, 3)
		})

		It("averages when the backend normalizes", func() {
			config := backend.Config{Kind: backend.BaselineKind, OutputFormat: backend.MP3_320}
			mixed := ExpectSuccess(combine.Combine(constantStems(fourStems), combine.Request{
				Config:  config,
				Variant: jobentity.StaticVariant,
				Stems:   []string{"vocals", "drums"},
			}))

			expectConstant(mixed[0].Signal, 1.5)
		})

		It("mixes the reduced catch-all stem", func() {
			config := backend.Config{Kind: backend.WindowedMultibandKind, OutputFormat: backend.WAV, StemMode: backend.FourStemMode}
			mixed := ExpectSuccess(combine.Combine(constantStems(sixStems), combine.Request{
				Config:  config,
				Variant: jobentity.StaticVariant,
				Stems:   []string{"vocals", "other"},
			}))

			expectConstant(mixed[0].Signal, 57)
		})

		DescribeTable("rejects invalid selections",
			func(stems []string) {
				config := backend.Config{Kind: backend.EnsembleKind, OutputFormat: backend.WAV}
				_, err := combine.Combine(constantStems(fourStems), combine.Request{
					Config:  config,
					Variant: jobentity.StaticVariant,
					Stems:   stems,
				})
				Expect(markers.Is(err, jobentity.ValidationMark)).To(BeTrue())
			},
			Entry("nothing", []string{}),
			Entry("everything", fourStems),
			Entry("an unknown stem", []string{"kazoo"}),
		)
	})

	Describe("dynamic outputs", func() {
		It("keeps every reduced stem in canonical order", func() {
			config := backend.Config{Kind: backend.WindowedMultibandKind, OutputFormat: backend.WAV, StemMode: backend.FivePianoStemMode}
			stems := constantStems([]string{"piano", "guitar", "other", "bass", "drums", "vocals"})

			outputs := ExpectSuccess(combine.Combine(stems, combine.Request{
				Config:  config,
				Variant: jobentity.DynamicVariant,
			}))

			Expect(outputs.Names()).To(Equal([]string{"vocals", "drums", "bass", "other", "piano"}))
		})
	})
})
