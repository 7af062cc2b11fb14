package envvar

import (
	"fmt"
	"os"
)

const (
	ENVIRONMENT                      = "ENVIRONMENT"
	AWS_ACCESS_KEY_ID                = "AWS_ACCESS_KEY_ID"
	AWS_SECRET_ACCESS_KEY            = "AWS_SECRET_ACCESS_KEY"
	AWS_REGION                       = "AWS_REGION"
	RABBITMQ_URL                     = "RABBITMQ_URL"
	RABBITMQ_FAST_QUEUE_NAME         = "RABBITMQ_FAST_QUEUE_NAME"
	RABBITMQ_SLOW_QUEUE_NAME         = "RABBITMQ_SLOW_QUEUE_NAME"
	RABBITMQ_CANCEL_EXCHANGE_NAME    = "RABBITMQ_CANCEL_EXCHANGE_NAME"
	STORAGE_BACKEND                  = "STORAGE_BACKEND"
	GOOGLE_CLOUD_KEY                 = "GOOGLE_CLOUD_KEY"
	GOOGLE_CLOUD_STORAGE_BUCKET_NAME = "GOOGLE_CLOUD_STORAGE_BUCKET_NAME"
	S3_BUCKET_NAME                   = "S3_BUCKET_NAME"
	S3_ENDPOINT                      = "S3_ENDPOINT"
	DISK_STORAGE_ROOT                = "DISK_STORAGE_ROOT"
	JOB_STORE                        = "JOB_STORE"
	SQLITE_PATH                      = "SQLITE_PATH"
	FFMPEG_BIN_PATH                  = "FFMPEG_BIN_PATH"
	WORKING_DIR_PATH                 = "WORKING_DIR_PATH"
	STEMSPLIT_WORKER_CONFIG          = "STEMSPLIT_WORKER_CONFIG"
	PORT                             = "PORT"
	CORS_ALLOWED_ORIGINS             = "CORS_ALLOWED_ORIGINS"
)

func MustGet(key string) string {
	val, isSet := os.LookupEnv(key)
	if !isSet {
		panic(fmt.Sprintf("No env variable found for key %s", key))
	}

	if val == "" {
		panic(fmt.Sprintf("Env variable is empty for key %s", key))
	}

	return val
}

// GetOr returns fallback when the variable is unset or empty.
func GetOr(key string, fallback string) string {
	val, isSet := os.LookupEnv(key)
	if !isSet || val == "" {
		return fallback
	}

	return val
}
