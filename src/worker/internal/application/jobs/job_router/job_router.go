package job_router

import (
	"context"

	"github.com/apex/log"
	"github.com/rabbitmq/amqp091-go"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/jobs/cancel"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/jobs/import_source"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/jobs/purge"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/jobs/separate"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/lib/cerr"
)

func NewJobRouter(
	separateHandler separate.SeparateJobHandler,
	importHandler import_source.ImportSourceHandler,
	purgeHandler purge.PurgeJobFilesHandler,
	cancelHandler cancel.CancelJobHandler,
) JobRouter {
	return JobRouter{
		separateHandler: separateHandler,
		importHandler:   importHandler,
		purgeHandler:    purgeHandler,
		cancelHandler:   cancelHandler,
	}
}

// JobRouter hands each delivery to the handler for its message type. Every queue shares one
// router, a queue only ever carries the types that were published to it.
type JobRouter struct {
	separateHandler separate.SeparateJobHandler
	importHandler   import_source.ImportSourceHandler
	purgeHandler    purge.PurgeJobFilesHandler
	cancelHandler   cancel.CancelJobHandler
}

func (j JobRouter) HandleMessage(ctx context.Context, message amqp091.Delivery) error {
	logger := log.WithField("message_type", message.Type)
	errctx := cerr.Field("message_type", message.Type)

	var err error
	switch message.Type {
	case separate.JobType:
		err = j.separateHandler.HandleSeparateJob(ctx, message.Body)

	case import_source.JobType:
		err = j.importHandler.HandleImportSource(ctx, message.Body)

	case purge.JobType:
		err = j.purgeHandler.HandlePurgeJobFiles(ctx, message.Body)

	case cancel.JobType:
		err = j.cancelHandler.HandleCancelJob(ctx, message.Body)

	default:
		return errctx.Error("Unknown message type")
	}

	if err != nil {
		return errctx.Wrap(err).Error("Job handler failed")
	}

	logger.Debug("Routed message")
	return nil
}
