package testing

import (
	"net"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/guregu/dynamo"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/stemsplit-be/src/shared/config/dev"
	"github.com/veedubyou/stemsplit-be/src/shared/job/storage"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/dynamo"
)

const (
	DynamoAccessKeyID     = dev.DynamoAccessKeyID
	DynamoSecretAccessKey = dev.DynamoSecretAccessKey
	DynamoDBHost          = dev.DynamoDBHost
)

type job struct {
	ID        string `dynamo:"id,hash"`
	DedupeKey string `dynamo:"dedupe_key" index:"dedupe_key-index,hash"`
	Status    string `dynamo:"status" index:"status-index,hash"`
	ActiveKey string `dynamo:"active_since" index:"status-index,range"`
}

type jobKey struct {
	DedupeKey string `dynamo:"dedupe_key,hash"`
}

// DynamoAvailable reports whether a local DynamoDB is listening, so suites can skip without one.
func DynamoAvailable() bool {
	host, err := url.Parse(DynamoDBHost)
	if err != nil {
		return false
	}

	conn, err := net.DialTimeout("tcp", host.Host, 200*time.Millisecond)
	if err != nil {
		return false
	}

	_ = conn.Close()
	return true
}

func MakeTestDB(testRegion string) dynamolib.DynamoDBWrapper {
	dbSession := session.Must(session.NewSession())

	config := aws.NewConfig().
		WithCredentials(credentials.NewStaticCredentials(DynamoAccessKeyID, DynamoSecretAccessKey, "")).
		WithEndpoint(DynamoDBHost).
		WithRegion(testRegion)

	db := dynamo.New(dbSession, config)
	return dynamolib.NewDynamoDBWrapper(db)
}

func ResetDB(db dynamolib.DynamoDBWrapper) {
	DeleteAllTables(db)
	CreateAllTables(db)
}

func BeforeSuiteDB(testRegion string) dynamolib.DynamoDBWrapper {
	db := MakeTestDB(testRegion)
	DeleteAllTables(db)
	return db
}

func AfterSuiteDB(db dynamolib.DynamoDBWrapper) {
	DeleteAllTables(db)
}

func CreateAllTables(db dynamolib.DynamoDBWrapper) {
	err := db.CreateTable(jobstorage.JobsTable, job{}).
		Project("dedupe_key-index", dynamo.AllProjection).
		Project("status-index", dynamo.AllProjection).
		Run()
	ExpectWithOffset(1, err).NotTo(HaveOccurred())

	err = db.CreateTable(jobstorage.JobKeysTable, jobKey{}).Run()
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
}

func DeleteAllTables(db dynamolib.DynamoDBWrapper) {
	tableResults := db.ListTables()
	tableNames := ExpectSuccess(tableResults.All())

	for _, tableName := range tableNames {
		err := db.Table(tableName).DeleteTable().Run()
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
	}
}
