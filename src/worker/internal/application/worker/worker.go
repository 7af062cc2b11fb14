package worker

import (
	"context"
	"sync"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	"github.com/rabbitmq/amqp091-go"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/rabbitmq"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/lib/cerr"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

// RequeueMark flags a handler error worth another delivery. Any other error drops the message.
var RequeueMark = errors.New("message should be redelivered")

type MessageChannel interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp091.Table) (<-chan amqp091.Delivery, error)
	Qos(prefetchCount, prefetchSize int, global bool) error
	Close() error
}

//counterfeiter:generate . MessageHandler
type MessageHandler interface {
	HandleMessage(ctx context.Context, message amqp091.Delivery) error
}

// QueueWorker runs a fixed number of consumers against one queue. The prefetch matches the
// consumer count so the broker never hands this worker more than it can run.
type QueueWorker struct {
	channel     MessageChannel
	channelLock sync.Mutex
	handler     MessageHandler
	queueName   string
	consumers   int
}

func NewQueueWorker(channel MessageChannel, queueName string, handler MessageHandler, consumers int) *QueueWorker {
	if consumers < 1 {
		consumers = 1
	}

	return &QueueWorker{
		channel:   channel,
		queueName: queueName,
		handler:   handler,
		consumers: consumers,
	}
}

func NewQueueWorkerFromConnection(conn *amqp091.Connection, queueName string, handler MessageHandler, consumers int) (*QueueWorker, error) {
	rabbitChannel, err := conn.Channel()
	if err != nil {
		return nil, cerr.Wrap(err).Error("Failed to get channel")
	}

	queue, err := rabbitChannel.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		nil,
	)

	if err != nil {
		_ = rabbitChannel.Close()
		return nil, cerr.Field("queue_name", queueName).Wrap(err).Error("Failed to declare queue")
	}

	return NewQueueWorker(rabbitChannel, queue.Name, handler, consumers), nil
}

// NewBroadcastWorkerFromConnection listens on a fanout exchange through a queue only this
// worker owns, so every worker sees every broadcast.
func NewBroadcastWorkerFromConnection(conn *amqp091.Connection, exchangeName string, handler MessageHandler) (*QueueWorker, error) {
	errctx := cerr.Field("exchange_name", exchangeName)

	rabbitChannel, err := conn.Channel()
	if err != nil {
		return nil, errctx.Wrap(err).Error("Failed to get channel")
	}

	if err := rabbitmq.DeclareFanoutExchange(rabbitChannel, exchangeName); err != nil {
		_ = rabbitChannel.Close()
		return nil, errctx.Wrap(err).Error("Failed to declare exchange")
	}

	queue, err := rabbitChannel.QueueDeclare(
		"",
		false,
		true,
		true,
		false,
		nil,
	)
	if err != nil {
		_ = rabbitChannel.Close()
		return nil, errctx.Wrap(err).Error("Failed to declare broadcast queue")
	}

	err = rabbitChannel.QueueBind(queue.Name, "", exchangeName, false, nil)
	if err != nil {
		_ = rabbitChannel.Close()
		return nil, errctx.Field("queue_name", queue.Name).Wrap(err).Error("Failed to bind broadcast queue")
	}

	return NewQueueWorker(rabbitChannel, queue.Name, handler, 1), nil
}

// Start blocks until the channel closes or ctx ends. Handlers running when ctx ends see the
// cancelled ctx and finish before Start returns. A message is acked when its handler succeeds,
// requeued when the error carries RequeueMark and dropped otherwise.
func (q *QueueWorker) Start(ctx context.Context) error {
	logger := log.WithFields(log.Fields{
		"queue_name": q.queueName,
		"consumers":  q.consumers,
	})
	logger.Info("Starting worker")

	q.channelLock.Lock()
	if q.channel == nil {
		q.channelLock.Unlock()
		return cerr.Error("Worker has been stopped")
	}

	err := q.channel.Qos(q.consumers, 0, false)
	if err != nil {
		q.channelLock.Unlock()
		return cerr.Field("queue_name", q.queueName).
			Wrap(err).Error("Failed to set channel prefetch")
	}

	messageStream, err := q.channel.Consume(
		q.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	q.channelLock.Unlock()

	if err != nil {
		return cerr.Field("queue_name", q.queueName).
			Wrap(err).Error("Failed to start consuming from channel")
	}

	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			logger.Info("Stopping worker")
			q.Stop()
		case <-stopped:
		}
	}()

	wg := sync.WaitGroup{}
	for i := 0; i < q.consumers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for message := range messageStream {
				q.handle(ctx, message)
			}
		}()
	}
	wg.Wait()

	logger.Info("Worker stopped")
	return nil
}

func (q *QueueWorker) handle(ctx context.Context, message amqp091.Delivery) {
	logger := log.WithFields(log.Fields{
		"queue_name":   q.queueName,
		"message_type": message.Type,
	})
	logger.Info("Handling message")

	err := q.handler.HandleMessage(ctx, message)
	if err != nil {
		err = cerr.Field("message_type", message.Type).
			Wrap(err).Error("Failed to process message")

		cerr.Log(err)

		requeue := markers.Is(err, RequeueMark)
		if err = message.Nack(false, requeue); err != nil {
			logger.WithError(err).WithField("requeue", requeue).Error("Failed to nack message")
		}
		return
	}

	logger.Info("Successfully processed message")
	if err = message.Ack(false); err != nil {
		logger.WithError(err).Error("Failed to ack message")
	}
}

func (q *QueueWorker) Stop() {
	q.channelLock.Lock()
	defer q.channelLock.Unlock()

	if q.channel == nil {
		return
	}
	_ = q.channel.Close()
	q.channel = nil
}
