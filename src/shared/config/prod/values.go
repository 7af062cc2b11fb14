package prod

const (
	DynamoDBRegion      = "us-east-2"
	GOOGLE_STORAGE_HOST = "https://storage.googleapis.com"
)

// RabbitMQ defaults when the queue names are not overridden
const (
	RabbitMQFastQueueName      = "stemsplit-fast"
	RabbitMQSlowQueueName      = "stemsplit-slow"
	RabbitMQCancelExchangeName = "stemsplit-cancel"
)
