package config

import (
	"fmt"
	"strings"

	"github.com/veedubyou/stemsplit-be/src/shared/config/envvar"
)

const (
	GoogleStorageBackend = "gcs"
	S3StorageBackend     = "s3"
	DiskStorageBackend   = "disk"

	DynamoJobStoreKind = "dynamo"
	SQLiteJobStoreKind = "sqlite"
)

// StorageFromEnv picks the blob store named by STORAGE_BACKEND. googleStorage is used for
// the default gcs backend, since its credentials differ between environments.
func StorageFromEnv(googleStorage func() CloudStorage) Storage {
	backend := strings.ToLower(envvar.GetOr(envvar.STORAGE_BACKEND, GoogleStorageBackend))

	switch backend {
	case GoogleStorageBackend:
		return googleStorage()

	case S3StorageBackend:
		return S3Storage{
			AccessKeyID:     envvar.MustGet(envvar.AWS_ACCESS_KEY_ID),
			SecretAccessKey: envvar.MustGet(envvar.AWS_SECRET_ACCESS_KEY),
			Region:          envvar.MustGet(envvar.AWS_REGION),
			BucketName:      envvar.MustGet(envvar.S3_BUCKET_NAME),
			Endpoint:        envvar.GetOr(envvar.S3_ENDPOINT, ""),
		}

	case DiskStorageBackend:
		return DiskStorage{
			Root: envvar.MustGet(envvar.DISK_STORAGE_ROOT),
		}

	default:
		panic(fmt.Sprintf("Unknown storage backend %q", backend))
	}
}

// JobStoreFromEnv picks the job store named by JOB_STORE, dynamo by default.
func JobStoreFromEnv(dynamo Dynamo) JobStore {
	kind := strings.ToLower(envvar.GetOr(envvar.JOB_STORE, DynamoJobStoreKind))

	switch kind {
	case DynamoJobStoreKind:
		return DynamoJobStore{Dynamo: dynamo}

	case SQLiteJobStoreKind:
		return SQLiteJobStore{Path: envvar.MustGet(envvar.SQLITE_PATH)}

	default:
		panic(fmt.Sprintf("Unknown job store %q", kind))
	}
}
