package dispatch_test

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/stemsplit-be/src/shared/job/dispatch"
	"github.com/veedubyou/stemsplit-be/src/shared/job/entity"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/rabbitmq/rabbitmqfakes"
)

var _ = Describe("RabbitMQDispatcher", func() {
	var (
		ctx        context.Context
		fast       *rabbitmqfakes.FakePublisher
		slow       *rabbitmqfakes.FakePublisher
		cancels    *rabbitmqfakes.FakePublisher
		dispatcher dispatch.RabbitMQDispatcher
		job        jobentity.Job
	)

	BeforeEach(func() {
		ctx = context.Background()
		fast = &rabbitmqfakes.FakePublisher{}
		slow = &rabbitmqfakes.FakePublisher{}
		cancels = &rabbitmqfakes.FakePublisher{}
		dispatcher = dispatch.NewRabbitMQDispatcher(fast, slow, cancels)
		job = jobentity.Job{
			ID: "job-1",
			OutputRefs: []jobentity.OutputRef{
				{Stem: "vocals", Key: "jobs/job-1/vocals.wav"},
			},
		}
	})

	It("sends separation to the slow queue", func() {
		Expect(dispatcher.EnqueueSeparation(ctx, job)).To(Succeed())
		Expect(slow.PublishCallCount()).To(Equal(1))
		Expect(fast.PublishCallCount()).To(Equal(0))

		message := slow.PublishArgsForCall(0)
		Expect(message.Type).To(Equal(dispatch.SeparateJobType))
		Expect(message.Body).To(MatchJSON(`{"job_id":"job-1"}`))
	})

	It("sends purges with the output keys to the fast queue", func() {
		Expect(dispatcher.EnqueuePurge(ctx, job)).To(Succeed())
		Expect(fast.PublishCallCount()).To(Equal(1))

		message := fast.PublishArgsForCall(0)
		Expect(message.Type).To(Equal(dispatch.PurgeJobFilesType))

		params := dispatch.PurgeJobFilesParams{}
		Expect(json.Unmarshal(message.Body, &params)).To(Succeed())
		Expect(params.OutputKeys).To(Equal([]string{"jobs/job-1/vocals.wav"}))
	})

	It("broadcasts cancellation on the exchange", func() {
		Expect(dispatcher.BroadcastCancel(ctx, "job-1")).To(Succeed())
		Expect(cancels.PublishCallCount()).To(Equal(1))
		Expect(cancels.PublishArgsForCall(0).Type).To(Equal(dispatch.CancelJobType))
	})

	It("surfaces publish failures", func() {
		slow.PublishReturns(errors.New("channel closed"))
		Expect(dispatcher.EnqueueSeparation(ctx, job)).NotTo(Succeed())
	})
})
