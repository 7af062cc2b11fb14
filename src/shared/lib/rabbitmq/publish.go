package rabbitmq

import (
	"context"
	"sync"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/rabbitmq/amqp091-go"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

var _ Publisher = &QueuePublisher{}

//counterfeiter:generate . Publisher
type Publisher interface {
	Publish(msg amqp091.Publishing) error
}

// topology declares whatever the publisher routes to and returns the exchange and routing key.
type topology func(channel *amqp091.Channel) (exchange string, routingKey string, err error)

func durableQueue(queueName string) topology {
	return func(channel *amqp091.Channel) (string, string, error) {
		_, err := channel.QueueDeclare(
			queueName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return "", "", errors.Wrap(err, "Failed to declare the queue")
		}

		return "", queueName, nil
	}
}

func fanoutExchange(exchangeName string) topology {
	return func(channel *amqp091.Channel) (string, string, error) {
		err := DeclareFanoutExchange(channel, exchangeName)
		if err != nil {
			return "", "", err
		}

		return exchangeName, "", nil
	}
}

func DeclareFanoutExchange(channel *amqp091.Channel, exchangeName string) error {
	err := channel.ExchangeDeclare(
		exchangeName,
		amqp091.ExchangeFanout,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return errors.Wrap(err, "Failed to declare the exchange")
	}

	return nil
}

func NewQueuePublisher(rabbitMQURL string, queueName string) (*QueuePublisher, error) {
	return newPublisher(rabbitMQURL, queueName, durableQueue(queueName), true)
}

// NewExchangePublisher publishes transient broadcasts to a fanout exchange. Nobody being bound
// to the exchange is not an error.
func NewExchangePublisher(rabbitMQURL string, exchangeName string) (*QueuePublisher, error) {
	return newPublisher(rabbitMQURL, exchangeName, fanoutExchange(exchangeName), false)
}

func newPublisher(rabbitMQURL string, name string, declare topology, persistent bool) (*QueuePublisher, error) {
	publisher := &QueuePublisher{
		rabbitMQURL: rabbitMQURL,
		name:        name,
		declare:     declare,
		persistent:  persistent,
		channel:     nil,
	}

	err := publisher.connectChannel()
	if err != nil {
		return nil, errors.Wrap(err, "Failed to connect to RabbitMQ")
	}

	return publisher, nil
}

type QueuePublisher struct {
	rabbitMQURL string
	name        string
	declare     topology
	persistent  bool

	lock       sync.Mutex
	conn       *amqp091.Connection
	channel    *amqp091.Channel
	exchange   string
	routingKey string
}

func (q *QueuePublisher) connectChannel() error {
	q.channel = nil
	if q.conn != nil {
		_ = q.conn.Close()
		q.conn = nil
	}

	conn, err := amqp091.Dial(q.rabbitMQURL)
	if err != nil {
		return errors.Wrap(err, "Failed to dial rabbitMQURL")
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return errors.Wrap(err, "Failed to create rabbit channel")
	}

	exchange, routingKey, err := q.declare(channel)
	if err != nil {
		_ = conn.Close()
		return err
	}

	q.conn = conn
	q.channel = channel
	q.exchange = exchange
	q.routingKey = routingKey
	return nil
}

func (q *QueuePublisher) publishWithoutRetry(msg amqp091.Publishing) error {
	if q.channel == nil {
		return amqp091.ErrClosed
	}

	msg.ContentType = "application/json"
	if q.persistent {
		msg.DeliveryMode = amqp091.Persistent
	} else {
		msg.DeliveryMode = amqp091.Transient
	}

	return q.channel.PublishWithContext(
		context.Background(),
		q.exchange,
		q.routingKey,
		q.persistent,
		false,
		msg,
	)
}

func (q *QueuePublisher) Publish(msg amqp091.Publishing) error {
	q.lock.Lock()
	defer q.lock.Unlock()

	err := q.publishWithoutRetry(msg)

	if err != nil {
		publishErr := errors.Wrap(err, "Failed to publish message to rabbitMQ channel")
		shouldReset := errors.Is(err, amqp091.ErrClosed)
		if !shouldReset {
			return publishErr
		}

		err = q.connectChannel()
		if err != nil {
			log.WithError(err).
				WithField("destination", q.name).
				Error("Unable to reconnect to rabbitMQ channel")
			return publishErr
		}

		return q.publishWithoutRetry(msg)
	}

	return nil
}

func (q *QueuePublisher) Close() error {
	q.lock.Lock()
	defer q.lock.Unlock()

	q.channel = nil
	if q.conn == nil {
		return nil
	}

	err := q.conn.Close()
	q.conn = nil
	return err
}
