package jobstorage

import (
	"time"

	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/guregu/dynamo"
	"github.com/veedubyou/stemsplit-be/src/shared/job/entity"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/dynamo"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/errors/mark"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/jsonlib"
)

const (
	idKey        = "id"
	dedupeKeyKey = "dedupe_key"
	statusKey    = "status"
	activeKey    = "active_since"
	jobIDKey     = "job_id"

	dedupeKeyIndex = "dedupe_key-index"
	statusIndex    = "status-index"
)

// sortableTimeLayout has a fixed width so string comparison orders instants.
const sortableTimeLayout = "2006-01-02T15:04:05.000000000Z"

func sortableTime(t time.Time) string {
	return t.UTC().Format(sortableTimeLayout)
}

var _ dynamo.ItemUnmarshaler = &dbJob{}

type dbJob map[string]any

func (d *dbJob) UnmarshalDynamoItem(dynamoItem map[string]*dynamodb.AttributeValue) error {
	if err := dynamolib.ValidateStringField(dynamoItem, idKey); err != nil {
		return mark.Wrap(err, UnmarshalMark, "Failed to validate id field")
	}

	plainMap := map[string]any{}
	err := dynamo.UnmarshalItem(dynamoItem, &plainMap)
	if err != nil {
		return mark.Wrap(err, UnmarshalMark, "Failed to unmarshal dynamo item")
	}

	*d = plainMap

	return nil
}

func (d dbJob) toEntity() (jobentity.Job, error) {
	job, err := jsonlib.MapToStruct[jobentity.Job](d)
	if err != nil {
		return jobentity.Job{}, mark.Wrap(err, UnmarshalMark, "Failed to transform DB map back to entity job")
	}

	return job, nil
}

func jobToItem(job jobentity.Job) (map[string]any, error) {
	item, err := jsonlib.StructToMap(job)
	if err != nil {
		return nil, mark.Wrap(err, MarshalMark, "Failed to transform entity job to a generic map object")
	}

	// sparse attribute, only active jobs appear in the stale job index
	switch {
	case job.Status == jobentity.QueuedStatus:
		item[activeKey] = sortableTime(job.CreatedAt)
	case job.Status == jobentity.InProgressStatus && job.StartedAt != nil:
		item[activeKey] = sortableTime(*job.StartedAt)
	}

	return item, nil
}

// keyReservation holds a dedupe key for the job that owns it, in a table keyed by the dedupe key.
type keyReservation struct {
	DedupeKey string `dynamo:"dedupe_key,hash"`
	JobID     string `dynamo:"job_id"`
}
