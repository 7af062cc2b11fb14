package store

import (
	"bytes"
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/cockroachdb/errors"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/errors/mark"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/storagepath"
)

var _ FileStore = S3FileStore{}

type S3Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	// Endpoint switches to path style addressing against an S3 compatible host
	Endpoint string
	// PublicHost is the base of the URLs recorded on jobs
	PublicHost string
}

type S3FileStore struct {
	client        *s3.Client
	bucket        string
	pathGenerator storagepath.Generator
}

func NewS3FileStore(config S3Config) S3FileStore {
	credentials := aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     config.AccessKeyID,
			SecretAccessKey: config.SecretAccessKey,
			Source:          "stemsplit-config",
		}, nil
	})

	options := s3.Options{
		Region:                     config.Region,
		Credentials:                aws.NewCredentialsCache(credentials),
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
		ResponseChecksumValidation: aws.ResponseChecksumValidationWhenRequired,
	}

	if config.Endpoint != "" {
		options.BaseEndpoint = aws.String(config.Endpoint)
		options.UsePathStyle = true
	}

	return S3FileStore{
		client: s3.New(options),
		bucket: config.Bucket,
		pathGenerator: storagepath.Generator{
			Host:   config.PublicHost,
			Bucket: config.Bucket,
		},
	}
}

func isS3NotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	switch apiErr.ErrorCode() {
	case "NoSuchKey", "NotFound":
		return true
	}

	return false
}

func (s S3FileStore) GetFile(ctx context.Context, key string) ([]byte, error) {
	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, mark.Wrap(err, FileNotFound, "Object does not exist")
		}
		return nil, mark.Wrap(err, DefaultErrorMark, "Failed to get object")
	}
	defer output.Body.Close()

	contents, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, mark.Wrap(err, DefaultErrorMark, "Failed to read object contents")
	}

	return contents, nil
}

func (s S3FileStore) WriteFile(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType(key)),
	})
	if err != nil {
		return mark.Wrap(err, DefaultErrorMark, "Failed to put object")
	}

	return nil
}

// DeleteFile succeeds for missing keys, S3 does not tell them apart.
func (s S3FileStore) DeleteFile(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return mark.Wrap(err, DefaultErrorMark, "Failed to delete object")
	}

	return nil
}

func (s S3FileStore) DeletePrefix(ctx context.Context, prefix string) error {
	if err := checkPrefix(prefix); err != nil {
		return err
	}

	pages := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return mark.Wrap(err, DefaultErrorMark, "Failed to list objects")
		}

		for _, object := range page.Contents {
			if err := s.DeleteFile(ctx, aws.ToString(object.Key)); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s S3FileStore) FileURL(key string) string {
	return s.pathGenerator.GeneratePath(key)
}
