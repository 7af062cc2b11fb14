package cancel

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/apex/log"
	"github.com/veedubyou/stemsplit-be/src/shared/job/dispatch"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/lib/cerr"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

const JobType string = dispatch.CancelJobType

// Registry knows how to stop every job running in this worker.
type Registry struct {
	mutex  sync.Mutex
	active map[string]context.CancelFunc
}

func NewRegistry() *Registry {
	return &Registry{
		active: map[string]context.CancelFunc{},
	}
}

// Track returns a context that ends when the job is cancelled. The returned func must be
// called once the job stops running.
func (r *Registry) Track(ctx context.Context, jobID string) (context.Context, func()) {
	jobCtx, cancel := context.WithCancel(ctx)

	r.mutex.Lock()
	r.active[jobID] = cancel
	r.mutex.Unlock()

	return jobCtx, func() {
		r.mutex.Lock()
		delete(r.active, jobID)
		r.mutex.Unlock()
		cancel()
	}
}

// Cancel reports whether the job was running here.
func (r *Registry) Cancel(jobID string) bool {
	r.mutex.Lock()
	cancel, ok := r.active[jobID]
	r.mutex.Unlock()

	if ok {
		cancel()
	}
	return ok
}

//counterfeiter:generate . CancelJobHandler
type CancelJobHandler interface {
	HandleCancelJob(ctx context.Context, message []byte) error
}

type JobHandler struct {
	registry *Registry
}

func NewJobHandler(registry *Registry) JobHandler {
	return JobHandler{registry: registry}
}

func (h JobHandler) HandleCancelJob(_ context.Context, message []byte) error {
	params := dispatch.CancelJobParams{}
	if err := json.Unmarshal(message, &params); err != nil {
		return cerr.Wrap(err).Error("Failed to unmarshal message JSON")
	}

	if params.JobID == "" {
		return cerr.Field("job_params", params).Error("Missing job ID")
	}

	// every worker hears every cancellation, most of them are for jobs running elsewhere
	if h.registry.Cancel(params.JobID) {
		log.WithField("job_id", params.JobID).Info("Cancelled running job")
	}

	return nil
}
