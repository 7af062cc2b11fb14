package lifecycle

import (
	"context"

	"github.com/veedubyou/stemsplit-be/src/shared/job/entity"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

//counterfeiter:generate . Dispatcher
type Dispatcher interface {
	EnqueueSeparation(ctx context.Context, job jobentity.Job) error
	BroadcastCancel(ctx context.Context, jobID string) error
	EnqueuePurge(ctx context.Context, job jobentity.Job) error
}
