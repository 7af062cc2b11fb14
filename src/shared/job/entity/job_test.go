package jobentity_test

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/stemsplit-be/src/shared/backend"
	"github.com/veedubyou/stemsplit-be/src/shared/job/entity"
	. "github.com/veedubyou/stemsplit-be/src/shared/testing"
)

var _ = Describe("Job", func() {
	var (
		now     time.Time
		request jobentity.Request
	)

	BeforeEach(func() {
		now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		request = jobentity.Request{
			SourceID: "source-1",
			Backend: backend.Config{
				Kind:         backend.BaselineKind,
				OutputFormat: backend.MP3_192,
			},
			Variant: jobentity.StaticVariant,
			Stems:   []string{backend.Drums, backend.Vocals},
		}
	})

	Describe("NewJob", func() {
		It("creates a queued job with stems in canonical order", func() {
			job := ExpectSuccess(jobentity.NewJob(request, now))
			Expect(job.ID).NotTo(BeEmpty())
			Expect(job.Status).To(Equal(jobentity.QueuedStatus))
			Expect(job.Stems).To(Equal([]string{backend.Vocals, backend.Drums}))
			Expect(job.Device).To(Equal(jobentity.CPUDevice))
			Expect(job.DedupeKey).To(HaveLen(64))
		})

		It("rejects a static selection of every stem", func() {
			request.Stems = []string{backend.Vocals, backend.Drums, backend.Bass, backend.Other}
			_, err := jobentity.NewJob(request, now)
			Expect(markers.Is(err, jobentity.ValidationMark)).To(BeTrue())
			Expect(err.Error()).To(Equal("You must leave at least one part unchecked."))
		})

		It("rejects an empty static selection", func() {
			request.Stems = nil
			_, err := jobentity.NewJob(request, now)
			Expect(markers.Is(err, jobentity.ValidationMark)).To(BeTrue())
			Expect(err.Error()).To(Equal("You must check at least one part."))
		})

		It("expands a dynamic job to every available stem", func() {
			request.Variant = jobentity.DynamicVariant
			request.Stems = nil
			job := ExpectSuccess(jobentity.NewJob(request, now))
			Expect(job.Stems).To(Equal([]string{backend.Vocals, backend.Drums, backend.Bass, backend.Other}))
		})

		It("rejects unknown variants and devices", func() {
			request.Variant = "stereo"
			_, err := jobentity.NewJob(request, now)
			Expect(markers.Is(err, jobentity.ValidationMark)).To(BeTrue())

			request.Variant = jobentity.StaticVariant
			request.Device = "tpu"
			_, err = jobentity.NewJob(request, now)
			Expect(markers.Is(err, jobentity.ValidationMark)).To(BeTrue())
		})
	})

	Describe("DedupeKey", func() {
		It("ignores stem order and device", func() {
			first := ExpectSuccess(jobentity.NewJob(request, now))

			request.Stems = []string{backend.Vocals, backend.Drums}
			request.Device = jobentity.AcceleratorDevice
			second := ExpectSuccess(jobentity.NewJob(request, now))

			Expect(first.ID).NotTo(Equal(second.ID))
			Expect(first.DedupeKey).To(Equal(second.DedupeKey))
		})

		It("changes with the backend parameters", func() {
			first := ExpectSuccess(jobentity.NewJob(request, now))

			request.Backend.OutputFormat = backend.FLAC
			second := ExpectSuccess(jobentity.NewJob(request, now))

			Expect(first.DedupeKey).NotTo(Equal(second.DedupeKey))
		})
	})

	Describe("Transitions", func() {
		var job jobentity.Job

		BeforeEach(func() {
			job = ExpectSuccess(jobentity.NewJob(request, now))
		})

		It("claims a queued job once", func() {
			Expect(job.Claim(now)).To(Succeed())
			Expect(job.Status).To(Equal(jobentity.InProgressStatus))
			Expect(*job.StartedAt).To(Equal(now))

			err := job.Claim(now)
			Expect(markers.Is(err, jobentity.InvalidTransitionMark)).To(BeTrue())
		})

		It("only completes an in progress job", func() {
			outputs := []jobentity.OutputRef{{Stem: "vocals+drums", Key: "k", URL: "u"}}
			err := job.Complete(outputs, now)
			Expect(markers.Is(err, jobentity.InvalidTransitionMark)).To(BeTrue())

			Expect(job.Claim(now)).To(Succeed())
			Expect(job.Complete(outputs, now)).To(Succeed())
			Expect(job.Status).To(Equal(jobentity.DoneStatus))
			Expect(job.OutputRefs).To(Equal(outputs))
		})

		It("cancels an active job as an error with the cancelled kind", func() {
			Expect(job.Cancel(now)).To(Succeed())
			Expect(job.Status).To(Equal(jobentity.ErrorStatus))
			Expect(job.ErrorKind).To(Equal(jobentity.CancelledErrorKind))

			err := job.Cancel(now)
			Expect(markers.Is(err, jobentity.InvalidTransitionMark)).To(BeTrue())
		})

		It("does not cancel a done job", func() {
			Expect(job.Claim(now)).To(Succeed())
			Expect(job.Complete(nil, now)).To(Succeed())
			Expect(job.Cancel(now)).NotTo(Succeed())
		})

		It("times out a job that was never claimed", func() {
			Expect(job.TimeOut(now)).To(Succeed())
			Expect(job.Status).To(Equal(jobentity.ErrorStatus))
			Expect(job.ErrorKind).To(Equal(jobentity.TimeoutErrorKind))
			Expect(job.TimeOut(now)).NotTo(Succeed())
		})

		It("times out in progress jobs and clears outputs", func() {
			Expect(job.Claim(now)).To(Succeed())
			job.OutputRefs = []jobentity.OutputRef{{Stem: "stray"}}
			Expect(job.TimeOut(now)).To(Succeed())
			Expect(job.ErrorMessage).To(Equal("Operation timed out"))
			Expect(job.ErrorKind).To(Equal(jobentity.TimeoutErrorKind))
			Expect(job.OutputRefs).To(BeNil())
		})

		It("classifies marked failures", func() {
			Expect(job.Claim(now)).To(Succeed())
			err := errors.Mark(errors.New("ffmpeg not found"), jobentity.CodecMissingMark)
			Expect(job.FailWithError(err, now)).To(Succeed())
			Expect(job.ErrorKind).To(Equal(jobentity.CodecMissingErrorKind))
			Expect(job.ErrorMessage).To(Equal("ffmpeg not found"))
		})
	})

	Describe("ClassifyError", func() {
		It("defaults to runtime", func() {
			Expect(jobentity.ClassifyError(errors.New("boom"))).To(Equal(jobentity.RuntimeErrorKind))
		})

		It("round trips through MarkFor", func() {
			for _, kind := range []jobentity.ErrorKind{
				jobentity.DownloadErrorKind,
				jobentity.ChecksumMismatchErrorKind,
				jobentity.ResourceExhaustedErrorKind,
				jobentity.TimeoutErrorKind,
			} {
				err := errors.Mark(errors.New("x"), jobentity.MarkFor(kind))
				Expect(jobentity.ClassifyError(err)).To(Equal(kind))
			}
		})
	})

	Describe("OutputFileName", func() {
		It("names a static mix with its stems and parameters", func() {
			job := ExpectSuccess(jobentity.NewJob(request, now))
			Expect(job.OutputFileName("AC/DC", "T.N.T?", "")).
				To(Equal("ACDC - T.N.T (vocals, drums) [mp3-192].mp3"))
		})

		It("names dynamic outputs per stem with the backend kind", func() {
			request.Variant = jobentity.DynamicVariant
			request.Backend = backend.Config{
				Kind:         backend.EnsembleKind,
				OutputFormat: backend.FLAC,
				ShiftCount:   2,
			}
			job := ExpectSuccess(jobentity.NewJob(request, now))
			Expect(job.OutputFileName("Artist", "Song", backend.Bass)).
				To(Equal("Artist - Song (bass) [ensemble, shifts 2, flac].flac"))
		})
	})
})
