package jobstorage

import "github.com/cockroachdb/errors"

var (
	JobNotFound      = errors.New("job not found")
	JobConflict      = errors.New("an equivalent job already exists")
	StatusChanged    = errors.New("job status changed concurrently")
	UnmarshalMark    = errors.New("failed to unmarshal job")
	MarshalMark      = errors.New("failed to marshal job")
	DefaultErrorMark = errors.New("job storage error")
)
