package audio_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/audio"
)

var _ = Describe("Signal", func() {
	It("adds signals of the same shape", func() {
		signal := audio.Signal{{1, 2}, {3, 4}}
		Expect(signal.Add(audio.Signal{{1, 1}, {1, 1}})).To(Succeed())
		Expect(signal).To(Equal(audio.Signal{{2, 3}, {4, 5}}))
	})

	It("refuses to add signals of different lengths", func() {
		signal := audio.Signal{{1, 2}, {3, 4}}
		Expect(signal.Add(audio.Signal{{1}, {1}})).NotTo(Succeed())
	})

	It("slices copies", func() {
		signal := audio.Signal{{1, 2, 3}, {4, 5, 6}}
		sliced := signal.Slice(1, 3)
		sliced[0][0] = 100
		Expect(signal[0][1]).To(Equal(2.0))
		Expect(sliced).To(Equal(audio.Signal{{100, 3}, {5, 6}}))
	})

	It("looks stems up by name and releases them", func() {
		stems := audio.StemSet{
			{Name: "vocals", Signal: audio.NewSignal(2, 3)},
			{Name: "drums", Signal: audio.NewSignal(2, 3)},
		}

		Expect(stems.Names()).To(Equal([]string{"vocals", "drums"}))
		_, ok := stems.Get("bass")
		Expect(ok).To(BeFalse())

		stems.Release()
		drums, ok := stems.Get("drums")
		Expect(ok).To(BeTrue())
		Expect(drums).To(BeNil())
	})
})
