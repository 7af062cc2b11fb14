package worker_test

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rabbitmq/amqp091-go"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/integration_test/dummy"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/worker"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/worker/workerfakes"
)

var _ = Describe("QueueWorker", func() {
	var (
		rabbitMQ *dummy.RabbitMQ
		handler  *workerfakes.FakeMessageHandler
		ctx      context.Context
		stop     context.CancelFunc
		finished chan error
	)

	start := func(consumers int) {
		queueWorker := worker.NewQueueWorker(rabbitMQ, "test-queue", handler, consumers)
		go func() {
			defer GinkgoRecover()
			finished <- queueWorker.Start(ctx)
		}()
	}

	publish := func(messageType string) {
		Expect(rabbitMQ.Publish(amqp091.Publishing{Type: messageType})).To(Succeed())
	}

	BeforeEach(func() {
		rabbitMQ = dummy.NewRabbitMQ()
		handler = &workerfakes.FakeMessageHandler{}
		ctx, stop = context.WithCancel(context.Background())
		finished = make(chan error, 1)
		DeferCleanup(stop)
	})

	It("acks handled messages", func() {
		start(1)
		publish("separate_job")
		publish("separate_job")

		Eventually(rabbitMQ.AckCounter).Should(Equal(2))
		Consistently(rabbitMQ.NackCounter).Should(Equal(0))
	})

	It("nacks messages that fail", func() {
		handler.HandleMessageReturnsOnCall(0, errors.New("store down"))
		start(1)
		publish("separate_job")
		publish("purge_job_files")

		Eventually(rabbitMQ.NackCounter).Should(Equal(1))
		Eventually(rabbitMQ.AckCounter).Should(Equal(1))
		Expect(rabbitMQ.RequeueCounter()).To(Equal(0))
	})

	It("requeues messages whose handler asks for another delivery", func() {
		handler.HandleMessageReturnsOnCall(0, errors.Mark(errors.New("job store unreachable"), worker.RequeueMark))
		handler.HandleMessageReturnsOnCall(1, errors.New("malformed message"))
		start(1)
		publish("separate_job")
		publish("separate_job")

		Eventually(rabbitMQ.NackCounter).Should(Equal(2))
		Expect(rabbitMQ.RequeueCounter()).To(Equal(1))
	})

	It("prefetches as many messages as it has consumers", func() {
		start(3)
		Eventually(rabbitMQ.Prefetch).Should(Equal(3))
	})

	It("runs consumers concurrently", func() {
		var running atomic.Int32
		var peak atomic.Int32
		release := make(chan struct{})

		handler.HandleMessageStub = func(context.Context, amqp091.Delivery) error {
			now := running.Add(1)
			for {
				seen := peak.Load()
				if now <= seen || peak.CompareAndSwap(seen, now) {
					break
				}
			}
			<-release
			running.Add(-1)
			return nil
		}

		start(2)
		publish("separate_job")
		publish("separate_job")

		Eventually(peak.Load).Should(BeEquivalentTo(2))
		close(release)
		Eventually(rabbitMQ.AckCounter).Should(Equal(2))
	})

	It("stops when its context ends and lets running handlers see it", func() {
		handlerCtx := make(chan context.Context, 1)
		handler.HandleMessageStub = func(ctx context.Context, _ amqp091.Delivery) error {
			handlerCtx <- ctx
			<-ctx.Done()
			return nil
		}

		start(1)
		publish("separate_job")

		var received context.Context
		Eventually(handlerCtx).Should(Receive(&received))

		stop()
		Eventually(finished, 5*time.Second).Should(Receive(BeNil()))
		Expect(received.Err()).To(HaveOccurred())
		Expect(rabbitMQ.AckCounter()).To(Equal(1))
	})

	It("fails to start when the broker is unreachable", func() {
		rabbitMQ.Unavailable = true
		start(1)
		Eventually(finished).Should(Receive(HaveOccurred()))
	})

	It("cannot be started again once stopped", func() {
		queueWorker := worker.NewQueueWorker(rabbitMQ, "test-queue", handler, 1)
		queueWorker.Stop()
		Expect(queueWorker.Start(ctx)).NotTo(Succeed())
	})
})
