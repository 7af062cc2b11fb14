package dev

import "github.com/veedubyou/stemsplit-be/src/shared/config"

// DynamoDB
const (
	DynamoAccessKeyID     = "local"
	DynamoSecretAccessKey = "local"
	DynamoDBHost          = "http://localhost:8000"
	DynamoDBRegion        = "localhost"
)

var DynamoConfig = config.LocalDynamo{
	AccessKeyID:     DynamoAccessKeyID,
	SecretAccessKey: DynamoSecretAccessKey,
	Region:          DynamoDBRegion,
	Host:            DynamoDBHost,
}

// RabbitMQ
const (
	RabbitMQHost               = "amqp://localhost:5672"
	RabbitMQFastQueueName      = "stemsplit-fast-dev"
	RabbitMQSlowQueueName      = "stemsplit-slow-dev"
	RabbitMQCancelExchangeName = "stemsplit-cancel-dev"
)

// Cloud storage
const (
	FakeGCSHost       = "http://localhost:4443"
	FakeGCSBucketName = "stemsplit-dev"
)

var CloudStorageConfig = config.LocalCloudStorage{
	StorageHost:  FakeGCSHost,
	HostEndpoint: FakeGCSHost + "/storage/v1/",
	BucketName:   FakeGCSBucketName,
}
