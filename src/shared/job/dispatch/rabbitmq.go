package dispatch

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/rabbitmq/amqp091-go"
	"github.com/veedubyou/stemsplit-be/src/shared/job/entity"
	"github.com/veedubyou/stemsplit-be/src/shared/job/lifecycle"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/rabbitmq"
)

var _ lifecycle.Dispatcher = RabbitMQDispatcher{}

// RabbitMQDispatcher routes separation to the slow queue, short work to the fast queue
// and cancellations to the fanout exchange every worker listens on.
type RabbitMQDispatcher struct {
	fastQueue rabbitmq.Publisher
	slowQueue rabbitmq.Publisher
	cancels   rabbitmq.Publisher
}

func NewRabbitMQDispatcher(fastQueue rabbitmq.Publisher, slowQueue rabbitmq.Publisher, cancels rabbitmq.Publisher) RabbitMQDispatcher {
	return RabbitMQDispatcher{
		fastQueue: fastQueue,
		slowQueue: slowQueue,
		cancels:   cancels,
	}
}

func publish(publisher rabbitmq.Publisher, messageType string, params any) error {
	jsonBytes, err := json.Marshal(params)
	if err != nil {
		return errors.Wrapf(err, "Failed to marshal %s params", messageType)
	}

	err = publisher.Publish(amqp091.Publishing{
		Type: messageType,
		Body: jsonBytes,
	})
	if err != nil {
		return errors.Wrapf(err, "Failed to publish %s message", messageType)
	}

	return nil
}

func (r RabbitMQDispatcher) EnqueueSeparation(_ context.Context, job jobentity.Job) error {
	return publish(r.slowQueue, SeparateJobType, SeparateJobParams{JobID: job.ID})
}

func (r RabbitMQDispatcher) BroadcastCancel(_ context.Context, jobID string) error {
	return publish(r.cancels, CancelJobType, CancelJobParams{JobID: jobID})
}

func (r RabbitMQDispatcher) EnqueuePurge(_ context.Context, job jobentity.Job) error {
	keys := []string{}
	for _, output := range job.OutputRefs {
		keys = append(keys, output.Key)
	}

	return publish(r.fastQueue, PurgeJobFilesType, PurgeJobFilesParams{
		JobID:      job.ID,
		OutputKeys: keys,
	})
}

func (r RabbitMQDispatcher) EnqueueImport(_ context.Context, params ImportSourceParams) error {
	return publish(r.fastQueue, ImportSourceType, params)
}
