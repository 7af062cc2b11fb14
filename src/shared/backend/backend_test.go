package backend_test

import (
	"github.com/cockroachdb/errors/markers"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/stemsplit-be/src/shared/backend"
	. "github.com/veedubyou/stemsplit-be/src/shared/testing"
)

var _ = Describe("Backend", func() {
	Describe("Parse", func() {
		It("accepts a baseline config", func() {
			config := ExpectSuccess(backend.Parse("baseline", map[string]any{"outputFormat": "mp3-320"}))
			Expect(config).To(Equal(backend.Config{Kind: backend.BaselineKind, OutputFormat: backend.MP3_320}))
		})

		It("accepts a numeric stem mode", func() {
			config := ExpectSuccess(backend.Parse("windowed-multiband", map[string]any{
				"outputFormat": "flac",
				"stemMode":     float64(4),
			}))
			Expect(config.StemMode).To(Equal(backend.FourStemMode))
		})

		It("accepts iterative refinement params", func() {
			config := ExpectSuccess(backend.Parse("iterative-refinement", map[string]any{
				"outputFormat": "wav",
				"iterations":   float64(2),
				"softmask":     true,
				"alpha":        1.5,
			}))
			Expect(config.Iterations).To(Equal(2))
			Expect(config.Softmask).To(BeTrue())
			Expect(config.Alpha).To(Equal(1.5))
		})

		DescribeTable("rejects invalid params",
			func(kind string, params map[string]any) {
				_, err := backend.Parse(kind, params)
				Expect(err).To(HaveOccurred())
				Expect(markers.Is(err, backend.InvalidConfigMark)).To(BeTrue())
			},
			Entry("unknown kind", "spectral-magic", map[string]any{"outputFormat": "wav"}),
			Entry("missing output format", "baseline", map[string]any{}),
			Entry("unknown output format", "baseline", map[string]any{"outputFormat": "ogg"}),
			Entry("missing stem mode", "windowed-multiband", map[string]any{"outputFormat": "wav"}),
			Entry("bad stem mode", "windowed-multiband", map[string]any{"outputFormat": "wav", "stemMode": "7"}),
			Entry("zero iterations", "iterative-refinement", map[string]any{
				"outputFormat": "wav", "iterations": float64(0), "softmask": true, "alpha": 1.0,
			}),
			Entry("missing alpha", "iterative-refinement", map[string]any{
				"outputFormat": "wav", "iterations": float64(1), "softmask": false,
			}),
			Entry("too many shifts", "ensemble", map[string]any{"outputFormat": "wav", "shiftCount": float64(11)}),
			Entry("fractional shifts", "ensemble", map[string]any{"outputFormat": "wav", "shiftCount": 1.5}),
			Entry("a parameter from another backend", "baseline", map[string]any{"outputFormat": "wav", "shiftCount": float64(1)}),
		)
	})

	Describe("AvailableStems", func() {
		DescribeTable("applies the stem mode reduction",
			func(mode backend.StemMode, expected []string) {
				config := backend.Config{Kind: backend.WindowedMultibandKind, OutputFormat: backend.WAV, StemMode: mode}
				Expect(config.AvailableStems()).To(Equal(expected))
			},
			Entry("4 stems", backend.FourStemMode, []string{"vocals", "drums", "bass", "other"}),
			Entry("5 stems with guitar", backend.FiveGuitarStemMode, []string{"vocals", "drums", "bass", "other", "guitar"}),
			Entry("5 stems with piano", backend.FivePianoStemMode, []string{"vocals", "drums", "bass", "other", "piano"}),
			Entry("6 stems", backend.SixStemMode, []string{"vocals", "drums", "bass", "other", "guitar", "piano"}),
		)
	})

	Describe("ValidateStaticSelection", func() {
		var config backend.Config

		BeforeEach(func() {
			config = backend.Config{Kind: backend.BaselineKind, OutputFormat: backend.MP3_256}
		})

		It("returns the selection in canonical order", func() {
			selection := ExpectSuccess(backend.ValidateStaticSelection(config, []string{"drums", "vocals", "drums"}))
			Expect(selection).To(Equal([]string{"vocals", "drums"}))
		})

		It("rejects an empty selection", func() {
			_, err := backend.ValidateStaticSelection(config, nil)
			Expect(markers.Is(err, backend.InvalidStemsMark)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("You must check at least one part."))
		})

		It("rejects selecting every stem", func() {
			_, err := backend.ValidateStaticSelection(config, []string{"bass", "other", "drums", "vocals"})
			Expect(markers.Is(err, backend.InvalidStemsMark)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("You must leave at least one part unchecked."))
		})

		It("rejects stems the backend does not produce", func() {
			_, err := backend.ValidateStaticSelection(config, []string{"piano"})
			Expect(markers.Is(err, backend.InvalidStemsMark)).To(BeTrue())
		})
	})

	Describe("Label", func() {
		It("describes iterative params", func() {
			config := backend.Config{
				Kind:         backend.IterativeKind,
				OutputFormat: backend.MP3_192,
				Iterations:   3,
				Softmask:     true,
				Alpha:        1.25,
			}
			Expect(config.Label()).To(Equal("iterations 3, softmask, alpha 1.25, mp3-192"))
		})

		It("describes the baseline by its format only", func() {
			config := backend.Config{Kind: backend.BaselineKind, OutputFormat: backend.FLAC}
			Expect(config.Label()).To(Equal("flac"))
		})
	})
})
