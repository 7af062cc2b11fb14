package dummy

import (
	"sync"

	"github.com/rabbitmq/amqp091-go"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/rabbitmq"
	"github.com/veedubyou/stemsplit-be/src/shared/testing/dummy"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/worker"
)

var _ rabbitmq.Publisher = &RabbitMQ{}
var _ worker.MessageChannel = &RabbitMQ{}
var _ amqp091.Acknowledger = RabbitMQAcknowledger{}

// RabbitMQ is a single in memory queue that is both published to and consumed from.
// Closing it ends the consumer's delivery stream.
type RabbitMQ struct {
	Unavailable    bool
	MessageChannel chan amqp091.Delivery

	mutex       sync.Mutex
	ackCounter  int
	nackCounter int
	requeued    int
	prefetch    int
	published   []amqp091.Publishing
	closed      bool
}

type RabbitMQAcknowledger struct {
	ack  func()
	nack func(requeue bool)
}

func NewRabbitMQ() *RabbitMQ {
	return &RabbitMQ{
		Unavailable:    false,
		MessageChannel: make(chan amqp091.Delivery, 100),
	}
}

func (r *RabbitMQ) AckCounter() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.ackCounter
}

func (r *RabbitMQ) NackCounter() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.nackCounter
}

// RequeueCounter counts the nacks that asked for redelivery. The message is not delivered again.
func (r *RabbitMQ) RequeueCounter() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.requeued
}

func (r *RabbitMQ) Prefetch() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.prefetch
}

// Published lists the message types in publish order.
func (r *RabbitMQ) Published() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	types := []string{}
	for _, msg := range r.published {
		types = append(types, msg.Type)
	}
	return types
}

func (r *RabbitMQ) Publish(msg amqp091.Publishing) error {
	if r.Unavailable {
		return dummy.NetworkFailure
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.closed {
		return amqp091.ErrClosed
	}

	acknowledger := RabbitMQAcknowledger{
		ack: func() {
			r.mutex.Lock()
			r.ackCounter++
			r.mutex.Unlock()
		},
		nack: func(requeue bool) {
			r.mutex.Lock()
			r.nackCounter++
			if requeue {
				r.requeued++
			}
			r.mutex.Unlock()
		},
	}

	r.published = append(r.published, msg)
	r.MessageChannel <- amqp091.Delivery{
		Acknowledger:    acknowledger,
		ContentType:     msg.ContentType,
		ContentEncoding: msg.ContentEncoding,
		DeliveryMode:    msg.DeliveryMode,
		Timestamp:       msg.Timestamp,
		Type:            msg.Type,
		Body:            msg.Body,
	}
	return nil
}

func (r *RabbitMQ) Qos(prefetchCount int, _ int, _ bool) error {
	if r.Unavailable {
		return dummy.NetworkFailure
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.prefetch = prefetchCount
	return nil
}

func (r *RabbitMQ) Consume(_ string, _ string, _ bool, _ bool, _ bool, _ bool, _ amqp091.Table) (<-chan amqp091.Delivery, error) {
	if r.Unavailable {
		return nil, dummy.NetworkFailure
	}

	return r.MessageChannel, nil
}

func (r *RabbitMQ) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.closed {
		r.closed = true
		close(r.MessageChannel)
	}
	return nil
}

func (r RabbitMQAcknowledger) Ack(_ uint64, _ bool) error {
	r.ack()
	return nil
}

func (r RabbitMQAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	r.nack(requeue)
	return nil
}

func (r RabbitMQAcknowledger) Reject(_ uint64, requeue bool) error {
	r.nack(requeue)
	return nil
}
