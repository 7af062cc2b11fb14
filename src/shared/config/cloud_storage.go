package config

// Storage selects the blob store that holds source audio and separated outputs.
type Storage interface {
	StorageConfig()
}

type CloudStorage interface {
	Storage
	GetStorageHost() string
	GetBucket() string
}

var _ CloudStorage = ProdCloudStorage{}

type ProdCloudStorage struct {
	StorageHost string
	SecretKey   string
	BucketName  string
}

func (p ProdCloudStorage) StorageConfig() {}

func (p ProdCloudStorage) GetStorageHost() string {
	return p.StorageHost
}

func (p ProdCloudStorage) GetBucket() string {
	return p.BucketName
}

var _ CloudStorage = LocalCloudStorage{}

type LocalCloudStorage struct {
	StorageHost  string
	HostEndpoint string
	BucketName   string
}

func (l LocalCloudStorage) StorageConfig() {}

func (l LocalCloudStorage) GetStorageHost() string {
	return l.StorageHost
}

func (l LocalCloudStorage) GetBucket() string {
	return l.BucketName
}

var _ CloudStorage = S3Storage{}

type S3Storage struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	// Endpoint is only set for S3 compatible hosts (minio, R2 and friends)
	Endpoint string
}

func (s S3Storage) StorageConfig() {}

func (s S3Storage) GetStorageHost() string {
	if s.Endpoint != "" {
		return s.Endpoint
	}

	return "https://s3." + s.Region + ".amazonaws.com"
}

func (s S3Storage) GetBucket() string {
	return s.BucketName
}

var _ Storage = DiskStorage{}

// DiskStorage keeps blobs on the local filesystem. When the worker scratch dir lives
// under Root, finished outputs are repointed instead of copied.
type DiskStorage struct {
	Root string
}

func (d DiskStorage) StorageConfig() {}
