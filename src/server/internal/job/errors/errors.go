package joberrors

import (
	"github.com/veedubyou/stemsplit-be/src/server/internal/errors/api"
)

const (
	JobNotFoundCode       = api.ErrorCode("job_not_found")
	BadJobDataCode        = api.ErrorCode("bad_job_data")
	InvalidJobRequestCode = api.ErrorCode("invalid_job_request")
	JobConflictCode       = api.ErrorCode("job_conflict")
	JobNotCancellableCode = api.ErrorCode("job_not_cancellable")
	QueueUnavailableCode  = api.ErrorCode("queue_unavailable")
)
