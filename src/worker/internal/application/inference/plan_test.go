package inference_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/veedubyou/stemsplit-be/src/shared/testing"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/inference"
)

var _ = Describe("Plan", func() {
	It("fades out and in to a sum of one", func() {
		for length := 1; length <= 64; length++ {
			fadeIn := inference.FadeIn(length)
			fadeOut := inference.FadeOut(length)
			for i := 0; i < length; i++ {
				Expect(fadeOut[i]+fadeIn[i]).To(BeNumerically("~", 1.0, 1e-6), "fade length %d index %d", length, i)
			}
		}
	})

	It("derives the step, fade and padding", func() {
		plan := ExpectSuccess(inference.NewPlan(1000, inference.Params{SegmentLength: 100, Overlap: 4, BatchSize: 1}))
		Expect(plan.Step).To(Equal(25))
		Expect(plan.Fade).To(Equal(10))
		Expect(plan.Pad).To(Equal(75))
		Expect(plan.PaddedLength()).To(Equal(1150))
		Expect(plan.Offsets[0]).To(Equal(0))
		Expect(plan.Offsets[1]).To(Equal(25))
		Expect(plan.Offsets[plan.WindowCount()-1]).To(BeNumerically("<", 1150))
	})

	It("skips pre-padding for short input", func() {
		plan := ExpectSuccess(inference.NewPlan(150, inference.Params{SegmentLength: 100, Overlap: 4, BatchSize: 1}))
		Expect(plan.Pad).To(Equal(0))
	})

	It("skips pre-padding without overlap", func() {
		plan := ExpectSuccess(inference.NewPlan(1000, inference.Params{SegmentLength: 100, Overlap: 1, BatchSize: 1}))
		Expect(plan.Pad).To(Equal(0))
		Expect(plan.Offsets).To(HaveLen(10))
	})

	It("keeps the true start and end of the signal unfaded", func() {
		plan := ExpectSuccess(inference.NewPlan(1000, inference.Params{SegmentLength: 100, Overlap: 2, BatchSize: 1}))
		last := plan.WindowCount() - 1

		first := plan.Weights(0)
		Expect(first[0]).To(Equal(1.0))
		Expect(first[99]).To(Equal(0.0))

		middle := plan.Weights(1)
		Expect(middle[0]).To(Equal(0.0))
		Expect(middle[50]).To(Equal(1.0))
		Expect(middle[99]).To(Equal(0.0))

		final := plan.Weights(last)
		Expect(final[0]).To(Equal(0.0))
		Expect(final[99]).To(Equal(1.0))
	})

	It("does not fade a lone window", func() {
		plan := ExpectSuccess(inference.NewPlan(30, inference.Params{SegmentLength: 100, Overlap: 2, BatchSize: 1}))
		Expect(plan.WindowCount()).To(Equal(1))
		for _, weight := range plan.Weights(0) {
			Expect(weight).To(Equal(1.0))
		}
	})

	It("rejects empty audio", func() {
		_, err := inference.NewPlan(0, inference.Params{SegmentLength: 100, Overlap: 2, BatchSize: 1})
		Expect(err).To(HaveOccurred())
	})
})
