package config

type JobStore interface {
	JobStoreConfig()
}

var _ JobStore = DynamoJobStore{}

type DynamoJobStore struct {
	Dynamo Dynamo
}

func (d DynamoJobStore) JobStoreConfig() {}

var _ JobStore = SQLiteJobStore{}

type SQLiteJobStore struct {
	Path string
}

func (s SQLiteJobStore) JobStoreConfig() {}
