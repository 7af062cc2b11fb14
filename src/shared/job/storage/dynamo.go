package jobstorage

import (
	"context"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	"github.com/guregu/dynamo"
	"github.com/veedubyou/stemsplit-be/src/shared/job/entity"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/dynamo"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/errors/mark"
)

const (
	JobsTable    = "SeparationJobs"
	JobKeysTable = "SeparationJobKeys"
)

var _ jobentity.Store = DynamoDB{}

// DynamoDB keeps jobs in one table and enforces the dedupe invariant with a second table
// of key reservations, written with conditional puts.
type DynamoDB struct {
	dynamoDB dynamolib.DynamoDBWrapper
}

func NewDynamoDB(dynamoDB dynamolib.DynamoDBWrapper) DynamoDB {
	return DynamoDB{
		dynamoDB: dynamoDB,
	}
}

func (d DynamoDB) CreateJob(ctx context.Context, job jobentity.Job) error {
	if job.ID == "" {
		return mark.Message(DefaultErrorMark, "Job ID is not defined")
	}

	err := d.reserveKey(ctx, job)
	if err != nil {
		return err
	}

	item, err := jobToItem(job)
	if err != nil {
		d.releaseKey(ctx, job)
		return err
	}

	err = d.dynamoDB.Table(JobsTable).
		Put(item).
		If("attribute_not_exists($)", idKey).
		RunWithContext(ctx)
	if err != nil {
		d.releaseKey(ctx, job)
		if conditionalCheckFailed(err) {
			return mark.Wrap(err, JobConflict, "A job with this ID already exists")
		}
		return mark.Wrap(err, DefaultErrorMark, "Failed to put the job in the DB")
	}

	return nil
}

func (d DynamoDB) reserveKey(ctx context.Context, job jobentity.Job) error {
	if !job.Status.HoldsKey() {
		return nil
	}

	reserve := func() error {
		return d.dynamoDB.DB.Table(JobKeysTable).
			Put(keyReservation{DedupeKey: job.DedupeKey, JobID: job.ID}).
			If("attribute_not_exists($)", dedupeKeyKey).
			RunWithContext(ctx)
	}

	err := reserve()
	if err == nil {
		return nil
	}

	if !conditionalCheckFailed(err) {
		return mark.Wrap(err, DefaultErrorMark, "Failed to reserve the job's dedupe key")
	}

	// a crash between writes can leave a reservation whose job no longer holds the key
	released, releaseErr := d.releaseOrphanedKey(ctx, job.DedupeKey)
	if releaseErr != nil {
		return mark.Wrap(releaseErr, DefaultErrorMark, "Failed to check the existing key reservation")
	}

	if !released {
		return mark.Message(JobConflict, "An equivalent job already exists")
	}

	err = reserve()
	if err != nil {
		if conditionalCheckFailed(err) {
			return mark.Wrap(err, JobConflict, "An equivalent job already exists")
		}
		return mark.Wrap(err, DefaultErrorMark, "Failed to reserve the job's dedupe key")
	}

	return nil
}

func (d DynamoDB) releaseOrphanedKey(ctx context.Context, dedupeKey string) (bool, error) {
	reservation := keyReservation{}
	err := d.dynamoDB.DB.Table(JobKeysTable).
		Get(dedupeKeyKey, dedupeKey).
		OneWithContext(ctx, &reservation)
	if errors.Is(err, dynamo.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	owner, err := d.GetJob(ctx, reservation.JobID)
	switch {
	case markers.Is(err, JobNotFound):
	case err != nil:
		return false, err
	case owner.Status.HoldsKey():
		return false, nil
	}

	err = d.dynamoDB.DB.Table(JobKeysTable).
		Delete(dedupeKeyKey, dedupeKey).
		If("$ = ?", jobIDKey, reservation.JobID).
		RunWithContext(ctx)
	if err != nil && !conditionalCheckFailed(err) {
		return false, err
	}

	return true, nil
}

func (d DynamoDB) releaseKey(ctx context.Context, job jobentity.Job) {
	err := d.dynamoDB.DB.Table(JobKeysTable).
		Delete(dedupeKeyKey, job.DedupeKey).
		If("$ = ?", jobIDKey, job.ID).
		RunWithContext(ctx)

	if err != nil && !conditionalCheckFailed(err) {
		log.WithError(err).
			WithField("jobID", job.ID).
			Error("Failed to release the dedupe key reservation")
	}
}

func (d DynamoDB) GetJob(ctx context.Context, jobID string) (jobentity.Job, error) {
	value := dbJob{}
	err := d.dynamoDB.Table(JobsTable).
		Get(idKey, jobID).
		OneWithContext(ctx, &value)

	if err != nil {
		switch {
		case markers.Is(err, UnmarshalMark):
			return jobentity.Job{}, errors.Wrap(err, "Failed to fetch job")
		case errors.Is(err, dynamo.ErrNotFound):
			return jobentity.Job{}, mark.Wrap(err, JobNotFound, "Job is not found")
		default:
			return jobentity.Job{}, mark.Wrap(err, DefaultErrorMark, "Failed to fetch job")
		}
	}

	return value.toEntity()
}

func (d DynamoDB) FindJobsByKey(ctx context.Context, dedupeKey string) ([]jobentity.Job, error) {
	values := []dbJob{}
	err := d.dynamoDB.Table(JobsTable).
		Get(dedupeKeyKey, dedupeKey).
		Index(dedupeKeyIndex).
		AllWithContext(ctx, &values)
	if err != nil {
		return nil, mark.Wrap(err, DefaultErrorMark, "Failed to query jobs by dedupe key")
	}

	return toEntities(values)
}

func (d DynamoDB) FindStaleJobs(ctx context.Context, activeBefore time.Time) ([]jobentity.Job, error) {
	values := []dbJob{}
	for _, status := range []jobentity.Status{jobentity.QueuedStatus, jobentity.InProgressStatus} {
		found := []dbJob{}
		err := d.dynamoDB.Table(JobsTable).
			Get(statusKey, string(status)).
			Index(statusIndex).
			Range(activeKey, dynamo.LessOrEqual, sortableTime(activeBefore)).
			AllWithContext(ctx, &found)
		if err != nil {
			return nil, mark.Wrap(err, DefaultErrorMark, fmt.Sprintf("Failed to query stale %s jobs", status))
		}
		values = append(values, found...)
	}

	return toEntities(values)
}

func toEntities(values []dbJob) ([]jobentity.Job, error) {
	jobs := []jobentity.Job{}
	for _, value := range values {
		job, err := value.toEntity()
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

func (d DynamoDB) UpdateJob(ctx context.Context, jobID string, updater jobentity.JobUpdater) (jobentity.Job, error) {
	job, err := d.GetJob(ctx, jobID)
	if err != nil {
		return jobentity.Job{}, err
	}

	updatedJob, err := updater(job)
	if err != nil {
		return jobentity.Job{}, errors.Wrap(err, "The updater failed to make changes to the job")
	}

	item, err := jobToItem(updatedJob)
	if err != nil {
		return jobentity.Job{}, err
	}

	err = d.dynamoDB.Table(JobsTable).
		Put(item).
		If("$ = ?", statusKey, string(job.Status)).
		RunWithContext(ctx)
	if err != nil {
		if conditionalCheckFailed(err) {
			return jobentity.Job{}, mark.Wrap(err, StatusChanged, "The job changed status before the update was written")
		}
		return jobentity.Job{}, mark.Wrap(err, DefaultErrorMark, "Failed to update the job")
	}

	if job.Status.HoldsKey() && !updatedJob.Status.HoldsKey() {
		d.releaseKey(ctx, updatedJob)
	}

	return updatedJob, nil
}

func (d DynamoDB) DeleteJob(ctx context.Context, jobID string) error {
	job, err := d.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	err = d.dynamoDB.Table(JobsTable).
		Delete(idKey, jobID).
		RunWithContext(ctx)
	if err != nil {
		return mark.Wrap(err, DefaultErrorMark, "Failed to delete the job")
	}

	d.releaseKey(ctx, job)
	return nil
}

// conditionalCheckFailed matches the typed exception as well as a plain awserr carrying its code.
func conditionalCheckFailed(err error) bool {
	var condErr *dynamodb.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return true
	}

	var awsErr awserr.Error
	return errors.As(err, &awsErr) && awsErr.Code() == dynamodb.ErrCodeConditionalCheckFailedException
}
