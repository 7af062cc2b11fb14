package jobentity

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
)

type ErrorKind string

const (
	ValidationErrorKind        ErrorKind = "validation"
	DownloadErrorKind          ErrorKind = "download"
	ChecksumMismatchErrorKind  ErrorKind = "checksum_mismatch"
	RuntimeErrorKind           ErrorKind = "runtime"
	CodecMissingErrorKind      ErrorKind = "codec_missing"
	ResourceExhaustedErrorKind ErrorKind = "resource_exhausted"
	TimeoutErrorKind           ErrorKind = "timeout"
	CancelledErrorKind         ErrorKind = "cancelled"
)

var (
	ValidationMark        = errors.New("invalid job request")
	DownloadMark          = errors.New("model download failed")
	ChecksumMismatchMark  = errors.New("model checksum mismatch")
	RuntimeMark           = errors.New("separation runtime error")
	CodecMissingMark      = errors.New("codec tool missing")
	ResourceExhaustedMark = errors.New("resources exhausted")
	TimeoutMark           = errors.New("job timed out")
	CancelledMark         = errors.New("job cancelled")

	InvalidTransitionMark = errors.New("invalid job status transition")
)

const TimedOutMessage = "Operation timed out"

var errorKindMarks = []struct {
	mark error
	kind ErrorKind
}{
	{ValidationMark, ValidationErrorKind},
	{ChecksumMismatchMark, ChecksumMismatchErrorKind},
	{DownloadMark, DownloadErrorKind},
	{CodecMissingMark, CodecMissingErrorKind},
	{ResourceExhaustedMark, ResourceExhaustedErrorKind},
	{TimeoutMark, TimeoutErrorKind},
	{CancelledMark, CancelledErrorKind},
	{RuntimeMark, RuntimeErrorKind},
}

// ClassifyError finds the most specific error kind marked on err. Unmarked errors are runtime errors.
func ClassifyError(err error) ErrorKind {
	for _, candidate := range errorKindMarks {
		if markers.Is(err, candidate.mark) {
			return candidate.kind
		}
	}

	return RuntimeErrorKind
}

// MarkFor is the inverse of ClassifyError, used when an error kind crosses a process boundary.
func MarkFor(kind ErrorKind) error {
	for _, candidate := range errorKindMarks {
		if candidate.kind == kind {
			return candidate.mark
		}
	}

	return RuntimeMark
}

func (k ErrorKind) IsRetryable() bool {
	return k == DownloadErrorKind || k == ChecksumMismatchErrorKind
}
