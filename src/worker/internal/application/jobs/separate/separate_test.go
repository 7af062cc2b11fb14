package separate_test

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors/markers"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/stemsplit-be/src/shared/backend"
	"github.com/veedubyou/stemsplit-be/src/shared/job/dispatch"
	jobentity "github.com/veedubyou/stemsplit-be/src/shared/job/entity"
	"github.com/veedubyou/stemsplit-be/src/shared/job/lifecycle"
	"github.com/veedubyou/stemsplit-be/src/shared/job/lifecycle/lifecyclefakes"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/errors/mark"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/storagepath"
	"github.com/veedubyou/stemsplit-be/src/shared/source"
	. "github.com/veedubyou/stemsplit-be/src/shared/testing"
	"github.com/veedubyou/stemsplit-be/src/shared/testing/dummy"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/audio"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/devices"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/handoff"
	integrationdummy "github.com/veedubyou/stemsplit-be/src/worker/internal/application/integration_test/dummy"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/isolation"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/isolation/isolationfakes"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/jobs/cancel"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/jobs/separate"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/modelcache"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/separation"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/separator"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/worker"
	"github.com/vmihailenco/msgpack/v5"
)

func rawMix(length int) []byte {
	mix := audio.NewSignal(audio.Channels, length)
	for i := 0; i < length; i++ {
		mix[0][i] = 0.4 * math.Sin(float64(i)*0.02)
		mix[1][i] = 0.3 * math.Cos(float64(i)*0.45)
	}
	return audio.EncodePCM(mix)
}

var _ = Describe("Separate handler", func() {
	var (
		ctx        context.Context
		tempDir    string
		jobStore   *dummy.JobStore
		fileStore  *dummy.FileStore
		dispatcher *lifecyclefakes.FakeDispatcher
		machine    lifecycle.Machine
		registry   *cancel.Registry
		subject    handoff.Handoff
		pool       *devices.Pool
		config     separate.Config

		isolator isolation.Isolator
		handler  separate.JobHandler

		request jobentity.Request
		job     jobentity.Job
		message []byte
	)

	storedJob := func() jobentity.Job {
		return ExpectSuccess(machine.Get(context.Background(), job.ID))
	}

	BeforeEach(func() {
		ctx = context.Background()
		tempDir = GinkgoT().TempDir()
		jobStore = dummy.NewDummyJobStore()
		fileStore = dummy.NewDummyFileStore()
		dispatcher = &lifecyclefakes.FakeDispatcher{}
		machine = lifecycle.NewMachine(jobStore, dispatcher)
		registry = cancel.NewRegistry()
		subject = ExpectSuccess(handoff.NewHandoff(fileStore, filepath.Join(tempDir, "scratch")))
		pool = devices.NewPool(1)
		config = separate.Config{Timeout: time.Minute, Attempts: 2, ClaimRetryInterval: time.Millisecond}

		By("Storing the source audio", func() {
			sources := source.NewStore(fileStore)
			sourceAudio := source.SourceAudio{
				ID:       "source-1",
				AudioKey: "sources/source-1/original.raw",
				Artist:   "Artist",
				Title:    "Title",
			}
			Expect(sources.PutAudio(ctx, sourceAudio, rawMix(3000))).To(Succeed())
			Expect(sources.PutSource(ctx, sourceAudio)).To(Succeed())
		})

		request = jobentity.Request{
			SourceID: "source-1",
			Backend:  backend.Config{Kind: backend.BaselineKind, OutputFormat: backend.MP3_256},
			Variant:  jobentity.DynamicVariant,
		}
	})

	JustBeforeEach(func() {
		handler = separate.NewJobHandler(machine, source.NewStore(fileStore), isolator, subject, pool, registry, config)

		job = ExpectSuccess(machine.Submit(ctx, request, false))
		message = ExpectSuccess(json.Marshal(dispatch.SeparateJobParams{JobID: job.ID}))
	})

	Describe("With the real pipeline", func() {
		BeforeEach(func() {
			cache := ExpectSuccess(modelcache.NewCache(filepath.Join(tempDir, "models")))
			sep := ExpectSuccess(separator.NewSeparator(cache, modelcache.BuiltinCatalog()))
			pipeline := separation.NewPipeline(audio.NewCodec("ffmpeg", integrationdummy.NewDummyFFmpegExecutor()), sep)
			isolator = isolation.NewGoroutineIsolator(pipeline.Tasks())
		})

		It("separates the job and uploads its outputs", func() {
			Expect(handler.HandleSeparateJob(ctx, message)).To(Succeed())

			done := storedJob()
			Expect(done.Status).To(Equal(jobentity.DoneStatus))
			Expect(done.OutputRefs).To(HaveLen(4))
			Expect(done.OutputRefs[0].Stem).To(Equal(backend.Vocals))
			Expect(done.OutputRefs[0].Key).To(Equal("jobs/" + job.ID + "/Artist - Title (vocals) [baseline, mp3-256].mp3"))

			for _, ref := range done.OutputRefs {
				Expect(fileStore.Files).To(HaveKey(ref.Key))
			}
			Expect(subject.ScratchDir(job.ID)).NotTo(BeADirectory())
		})

		Describe("Static job", func() {
			BeforeEach(func() {
				request.Variant = jobentity.StaticVariant
				request.Stems = []string{backend.Drums, backend.Vocals}
			})

			It("uploads a single mix", func() {
				Expect(handler.HandleSeparateJob(ctx, message)).To(Succeed())

				done := storedJob()
				Expect(done.Status).To(Equal(jobentity.DoneStatus))
				Expect(done.OutputRefs).To(HaveLen(1))
				Expect(done.OutputRefs[0].Stem).To(Equal("vocals+drums"))
				Expect(done.OutputRefs[0].Key).To(HaveSuffix("Artist - Title (vocals, drums) [mp3-256].mp3"))
			})
		})

		It("drops a redelivered message for a job that was already claimed", func() {
			Expect(handler.HandleSeparateJob(ctx, message)).To(Succeed())
			keys := fileStore.Keys()

			Expect(handler.HandleSeparateJob(ctx, message)).To(Succeed())
			Expect(storedJob().Status).To(Equal(jobentity.DoneStatus))
			Expect(fileStore.Keys()).To(Equal(keys))
		})
	})

	Describe("With a controlled isolator", func() {
		var fake *isolationfakes.FakeIsolator

		BeforeEach(func() {
			fake = &isolationfakes.FakeIsolator{}
			isolator = fake
		})

		It("records a failure on the job", func() {
			fake.RunReturns(isolation.Outcome{
				Status: isolation.Crashed,
				Err:    mark.Message(jobentity.ResourceExhaustedMark, isolation.KilledMessage),
			})

			Expect(handler.HandleSeparateJob(ctx, message)).To(Succeed())

			failed := storedJob()
			Expect(failed.Status).To(Equal(jobentity.ErrorStatus))
			Expect(failed.ErrorKind).To(Equal(jobentity.ResourceExhaustedErrorKind))
			Expect(failed.ErrorMessage).To(Equal(isolation.KilledMessage))
			Expect(fake.RunCallCount()).To(Equal(1))
		})

		It("retries retryable failures", func() {
			fake.RunReturns(isolation.Outcome{
				Status: isolation.Failed,
				Err:    mark.Message(jobentity.DownloadMark, "The model host is unreachable"),
			})

			Expect(handler.HandleSeparateJob(ctx, message)).To(Succeed())
			Expect(fake.RunCallCount()).To(Equal(2))
			Expect(storedJob().ErrorKind).To(Equal(jobentity.DownloadErrorKind))
		})

		It("passes the timeout and a decodable request", func() {
			fake.RunReturns(isolation.Outcome{Status: isolation.TimedOut, Err: mark.Message(jobentity.TimeoutMark, jobentity.TimedOutMessage)})
			Expect(handler.HandleSeparateJob(ctx, message)).To(Succeed())

			_, task, args, timeout := fake.RunArgsForCall(0)
			Expect(task).To(Equal(separation.TaskName))
			Expect(timeout).To(Equal(time.Minute))

			sent := separation.Request{}
			Expect(msgpack.Unmarshal(args, &sent)).To(Succeed())
			Expect(sent.JobID).To(Equal(job.ID))
			Expect(sent.DeviceSlot).To(Equal(devices.CPUSlot))
			Expect(sent.FileNames).To(HaveKeyWithValue(backend.Bass, "Artist - Title (bass) [baseline, mp3-256].mp3"))

			Expect(storedJob().ErrorMessage).To(Equal("Operation timed out"))
		})

		It("leaves a cancelled job cancelled", func() {
			fake.RunStub = func(_ context.Context, _ string, _ []byte, _ time.Duration) isolation.Outcome {
				ExpectSuccess(machine.Cancel(context.Background(), job.ID))
				return isolation.Outcome{Status: isolation.Cancelled}
			}

			Expect(handler.HandleSeparateJob(ctx, message)).To(Succeed())

			cancelled := storedJob()
			Expect(cancelled.Status).To(Equal(jobentity.ErrorStatus))
			Expect(cancelled.ErrorKind).To(Equal(jobentity.CancelledErrorKind))
		})

		It("discards a result that arrives after cancellation", func() {
			fake.RunStub = func(_ context.Context, _ string, args []byte, _ time.Duration) isolation.Outcome {
				ExpectSuccess(machine.Cancel(context.Background(), job.ID))

				sent := separation.Request{}
				Expect(msgpack.Unmarshal(args, &sent)).To(Succeed())
				Expect(os.MkdirAll(sent.OutputDir, os.ModePerm)).To(Succeed())
				outputPath := filepath.Join(sent.OutputDir, "stray.mp3")
				Expect(os.WriteFile(outputPath, []byte("stray"), 0o644)).To(Succeed())

				result := ExpectSuccess(msgpack.Marshal(separation.Result{
					Outputs: []separation.Output{{Stem: backend.Vocals, Path: outputPath}},
				}))
				return isolation.Outcome{Status: isolation.Completed, Result: result}
			}

			Expect(handler.HandleSeparateJob(ctx, message)).To(Succeed())

			Expect(storedJob().Status).To(Equal(jobentity.ErrorStatus))
			Expect(storedJob().OutputRefs).To(BeEmpty())
			Expect(fileStore.Keys()).NotTo(ContainElement(HavePrefix("jobs/")))
		})

		It("stops the isolated run when the job is cancelled", func() {
			fake.RunStub = func(runCtx context.Context, _ string, _ []byte, _ time.Duration) isolation.Outcome {
				registry.Cancel(job.ID)
				Expect(runCtx.Err()).To(HaveOccurred())
				return isolation.Outcome{Status: isolation.Cancelled}
			}

			Expect(handler.HandleSeparateJob(ctx, message)).To(Succeed())
		})

		It("fails the job when the worker stops mid run", func() {
			workerCtx, stop := context.WithCancel(ctx)
			fake.RunStub = func(_ context.Context, _ string, _ []byte, _ time.Duration) isolation.Outcome {
				stop()
				return isolation.Outcome{Status: isolation.Cancelled}
			}

			Expect(handler.HandleSeparateJob(workerCtx, message)).To(Succeed())

			stopped := storedJob()
			Expect(stopped.ErrorKind).To(Equal(jobentity.CancelledErrorKind))
			Expect(stopped.ErrorMessage).To(Equal(separate.StoppedMessage))
		})

		It("fails the job when its source is missing", func() {
			delete(fileStore.Files, storagepath.SourceMetadataKey("source-1"))

			Expect(handler.HandleSeparateJob(ctx, message)).To(Succeed())
			Expect(storedJob().Status).To(Equal(jobentity.ErrorStatus))
			Expect(fake.RunCallCount()).To(Equal(0))
		})

		Describe("Accelerator job on a worker without accelerators", func() {
			BeforeEach(func() {
				pool = devices.NewPool(0)
				request.Device = jobentity.AcceleratorDevice
			})

			It("fails with a resource error", func() {
				Expect(handler.HandleSeparateJob(ctx, message)).To(Succeed())
				Expect(storedJob().ErrorKind).To(Equal(jobentity.ResourceExhaustedErrorKind))
				Expect(fake.RunCallCount()).To(Equal(0))
			})
		})

		It("asks for redelivery when the job store is down", func() {
			jobStore.Unavailable = true

			err := handler.HandleSeparateJob(ctx, message)
			Expect(err).To(HaveOccurred())
			Expect(markers.Is(err, worker.RequeueMark)).To(BeTrue())
			Expect(jobStore.State[job.ID].Status).To(Equal(jobentity.QueuedStatus))
			Expect(fake.RunCallCount()).To(Equal(0))
		})

		It("claims the job once the job store recovers", func() {
			jobStore.FailUpdates = 2
			fake.RunReturns(isolation.Outcome{
				Status: isolation.Crashed,
				Err:    mark.Message(jobentity.ResourceExhaustedMark, isolation.KilledMessage),
			})

			Expect(handler.HandleSeparateJob(ctx, message)).To(Succeed())
			Expect(fake.RunCallCount()).To(Equal(1))
			Expect(storedJob().Status).To(Equal(jobentity.ErrorStatus))
		})

		It("removes uploads when the worker stops during the handoff", func() {
			workerCtx, stop := context.WithCancel(ctx)
			defer stop()
			fileStore.AfterWrite = func(key string) {
				if strings.HasPrefix(key, storagepath.JobOutputPrefix(job.ID)) {
					stop()
				}
			}

			fake.RunStub = func(_ context.Context, _ string, args []byte, _ time.Duration) isolation.Outcome {
				sent := separation.Request{}
				Expect(msgpack.Unmarshal(args, &sent)).To(Succeed())
				Expect(os.MkdirAll(sent.OutputDir, os.ModePerm)).To(Succeed())

				outputs := []separation.Output{}
				for _, stem := range []string{backend.Vocals, backend.Drums} {
					outputPath := filepath.Join(sent.OutputDir, stem+".mp3")
					Expect(os.WriteFile(outputPath, []byte(stem), 0o644)).To(Succeed())
					outputs = append(outputs, separation.Output{Stem: stem, Path: outputPath})
				}

				result := ExpectSuccess(msgpack.Marshal(separation.Result{Outputs: outputs}))
				return isolation.Outcome{Status: isolation.Completed, Result: result}
			}

			Expect(handler.HandleSeparateJob(workerCtx, message)).To(Succeed())

			stopped := storedJob()
			Expect(stopped.ErrorKind).To(Equal(jobentity.CancelledErrorKind))
			Expect(stopped.ErrorMessage).To(Equal(separate.StoppedMessage))
			Expect(fileStore.Keys()).NotTo(ContainElement(HavePrefix(storagepath.JobOutputPrefix(job.ID))))
			Expect(subject.ScratchDir(job.ID)).NotTo(BeADirectory())
		})

		It("rejects a message without a job id", func() {
			Expect(handler.HandleSeparateJob(ctx, []byte(`{}`))).NotTo(Succeed())
		})
	})
})
