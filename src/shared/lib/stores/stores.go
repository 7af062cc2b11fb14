package stores

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/cockroachdb/errors"
	"github.com/guregu/dynamo"
	"github.com/veedubyou/stemsplit-be/src/shared/cloud_storage/store"
	"github.com/veedubyou/stemsplit-be/src/shared/config"
	jobentity "github.com/veedubyou/stemsplit-be/src/shared/job/entity"
	jobstorage "github.com/veedubyou/stemsplit-be/src/shared/job/storage"
	dynamolib "github.com/veedubyou/stemsplit-be/src/shared/lib/dynamo"
	"google.golang.org/api/option"
)

func NewDynamoDB(dynamoConfig config.Dynamo) dynamolib.DynamoDBWrapper {
	dbSession := session.Must(session.NewSession())

	var dbConfig *aws.Config

	switch t := dynamoConfig.(type) {
	case config.ProdDynamo:
		dbConfig = aws.NewConfig().
			WithCredentials(credentials.NewStaticCredentials(
				t.AccessKeyID,
				t.SecretAccessKey,
				"",
			)).
			WithRegion(t.Region)

	case config.LocalDynamo:
		dbConfig = aws.NewConfig().
			WithCredentials(credentials.NewStaticCredentials(
				t.AccessKeyID,
				t.SecretAccessKey,
				"",
			)).
			WithRegion(t.Region).
			WithEndpoint(t.Host)

	default:
		panic("Unexpected dynamo config type")
	}

	return dynamolib.NewDynamoDBWrapper(dynamo.New(dbSession, dbConfig))
}

// NewJobStore returns the store and a func that releases it.
func NewJobStore(jobStoreConfig config.JobStore) (jobentity.Store, func() error, error) {
	switch t := jobStoreConfig.(type) {
	case config.DynamoJobStore:
		return jobstorage.NewDynamoDB(NewDynamoDB(t.Dynamo)), func() error { return nil }, nil

	case config.SQLiteJobStore:
		db, err := jobstorage.OpenSQLiteDB(t.Path)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "Failed to open the job database at %s", t.Path)
		}
		return db, db.Close, nil

	default:
		return nil, nil, errors.New("Unrecognized job store config")
	}
}

func NewFileStore(storageConfig config.Storage) (store.FileStore, error) {
	switch t := storageConfig.(type) {
	case config.ProdCloudStorage:
		return store.NewGoogleFileStore(
			t.StorageHost,
			t.BucketName,
			option.WithCredentialsJSON([]byte(t.SecretKey)),
		)

	case config.LocalCloudStorage:
		return store.NewGoogleFileStore(
			t.StorageHost,
			t.BucketName,
			option.WithEndpoint(t.HostEndpoint),
			option.WithAPIKey("fake_api_key"),
		)

	case config.S3Storage:
		return store.NewS3FileStore(store.S3Config{
			AccessKeyID:     t.AccessKeyID,
			SecretAccessKey: t.SecretAccessKey,
			Region:          t.Region,
			Bucket:          t.BucketName,
			Endpoint:        t.Endpoint,
			PublicHost:      t.GetStorageHost(),
		}), nil

	case config.DiskStorage:
		return store.NewDiskFileStore(t.Root)

	default:
		return nil, errors.New("Unrecognized storage config")
	}
}
