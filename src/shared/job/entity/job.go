package jobentity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/veedubyou/stemsplit-be/src/shared/backend"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/errors/mark"
)

type OutputRef struct {
	Stem string `json:"stem"`
	// Key addresses the file in the blob store
	Key string `json:"key"`
	URL string `json:"url"`
}

type Job struct {
	ID           string         `json:"id"`
	SourceID     string         `json:"source_id"`
	Backend      backend.Config `json:"backend"`
	Variant      Variant        `json:"variant"`
	Stems        []string       `json:"requested_stems"`
	Device       Device         `json:"device"`
	DedupeKey    string         `json:"dedupe_key"`
	Status       Status         `json:"status"`
	ErrorKind    ErrorKind      `json:"error_kind,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	OutputRefs   []OutputRef    `json:"output_refs"`
	CreatedAt    time.Time      `json:"created_at"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	FinishedAt   *time.Time     `json:"finished_at,omitempty"`
}

type Request struct {
	SourceID string
	Backend  backend.Config
	Variant  Variant
	Stems    []string
	Device   Device
}

// NewJob validates the request and builds a queued job. Nothing is persisted here.
func NewJob(request Request, now time.Time) (Job, error) {
	if request.SourceID == "" {
		return Job{}, mark.Message(ValidationMark, "A source audio id is required")
	}

	if _, ok := ParseDevice(string(request.Device)); !ok {
		return Job{}, mark.Message(ValidationMark, fmt.Sprintf("Unknown device %q", request.Device))
	}

	device := request.Device
	if device == "" {
		device = CPUDevice
	}

	var stems []string
	var err error
	switch request.Variant {
	case StaticVariant:
		stems, err = backend.ValidateStaticSelection(request.Backend, request.Stems)
	case DynamicVariant:
		stems, err = backend.ValidateDynamicSelection(request.Backend, request.Stems)
	default:
		return Job{}, mark.Message(ValidationMark, fmt.Sprintf("Unknown job variant %q", request.Variant))
	}

	if err != nil {
		return Job{}, errors.Mark(err, ValidationMark)
	}

	return Job{
		ID:         uuid.New().String(),
		SourceID:   request.SourceID,
		Backend:    request.Backend,
		Variant:    request.Variant,
		Stems:      stems,
		Device:     device,
		DedupeKey:  DedupeKey(request.SourceID, request.Variant, request.Backend, stems),
		Status:     QueuedStatus,
		OutputRefs: nil,
		CreatedAt:  now.UTC(),
	}, nil
}

// DedupeKey identifies equivalent jobs. The device does not change the result and is left out.
func DedupeKey(sourceID string, variant Variant, config backend.Config, stems []string) string {
	sorted := slices.Clone(stems)
	slices.Sort(sorted)

	canonical := strings.Join([]string{
		sourceID,
		string(variant),
		config.Canonical(),
		strings.Join(sorted, ","),
	}, "|")

	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

func (j Job) transitionError(target Status) error {
	return mark.Message(InvalidTransitionMark,
		fmt.Sprintf("Job %s cannot move from %s to %s", j.ID, j.Status, target))
}

func (j *Job) Claim(now time.Time) error {
	if j.Status != QueuedStatus {
		return j.transitionError(InProgressStatus)
	}

	startedAt := now.UTC()
	j.Status = InProgressStatus
	j.StartedAt = &startedAt
	return nil
}

func (j *Job) Complete(outputs []OutputRef, now time.Time) error {
	if j.Status != InProgressStatus {
		return j.transitionError(DoneStatus)
	}

	finishedAt := now.UTC()
	j.Status = DoneStatus
	j.OutputRefs = slices.Clone(outputs)
	j.ErrorKind = ""
	j.ErrorMessage = ""
	j.FinishedAt = &finishedAt
	return nil
}

func (j *Job) Fail(kind ErrorKind, message string, now time.Time) error {
	if !j.Status.IsActive() {
		return j.transitionError(ErrorStatus)
	}

	finishedAt := now.UTC()
	j.Status = ErrorStatus
	j.ErrorKind = kind
	j.ErrorMessage = message
	j.OutputRefs = nil
	j.FinishedAt = &finishedAt
	return nil
}

// FailWithError records err, using its outermost message as the user facing text.
func (j *Job) FailWithError(err error, now time.Time) error {
	if err == nil {
		return errors.New("a failure requires an error")
	}

	return j.Fail(ClassifyError(err), err.Error(), now)
}

func (j *Job) Cancel(now time.Time) error {
	return j.Fail(CancelledErrorKind, "The job was cancelled", now)
}

// TimeOut gives up on an active job, whether it never got claimed or never finished.
func (j *Job) TimeOut(now time.Time) error {
	return j.Fail(TimeoutErrorKind, TimedOutMessage, now)
}
