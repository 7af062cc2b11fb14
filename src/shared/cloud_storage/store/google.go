package store

import (
	"bytes"
	"context"
	"io"

	"cloud.google.com/go/storage"
	"github.com/cockroachdb/errors"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/errors/mark"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/storagepath"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

var _ FileStore = GoogleFileStore{}

type GoogleFileStore struct {
	client        *storage.Client
	bucket        string
	pathGenerator storagepath.Generator
}

func NewGoogleFileStore(storageHost string, bucket string, options ...option.ClientOption) (GoogleFileStore, error) {
	client, err := storage.NewClient(context.Background(), options...)
	if err != nil {
		return GoogleFileStore{}, errors.Wrap(err, "Failed to create cloud storage client")
	}

	return NewGoogleFileStoreFromClient(client, storageHost, bucket), nil
}

func NewGoogleFileStoreFromClient(client *storage.Client, storageHost string, bucket string) GoogleFileStore {
	return GoogleFileStore{
		client: client,
		bucket: bucket,
		pathGenerator: storagepath.Generator{
			Host:   storageHost,
			Bucket: bucket,
		},
	}
}

func (g GoogleFileStore) object(key string) *storage.ObjectHandle {
	return g.client.Bucket(g.bucket).Object(key)
}

func (g GoogleFileStore) GetFile(ctx context.Context, key string) ([]byte, error) {
	reader, err := g.object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, mark.Wrap(err, FileNotFound, "Object does not exist")
		}
		return nil, mark.Wrap(err, DefaultErrorMark, "Failed to open object reader")
	}
	defer reader.Close()

	contents, err := io.ReadAll(reader)
	if err != nil {
		return nil, mark.Wrap(err, DefaultErrorMark, "Failed to read object contents")
	}

	return contents, nil
}

func (g GoogleFileStore) WriteFile(ctx context.Context, key string, data []byte) error {
	writer := g.object(key).NewWriter(ctx)
	writer.ContentType = contentType(key)

	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		_ = writer.Close()
		return mark.Wrap(err, DefaultErrorMark, "Failed to write object contents")
	}

	if err := writer.Close(); err != nil {
		return mark.Wrap(err, DefaultErrorMark, "Failed to finalize object upload")
	}

	return nil
}

func (g GoogleFileStore) DeleteFile(ctx context.Context, key string) error {
	err := g.object(key).Delete(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return mark.Wrap(err, FileNotFound, "Object does not exist")
		}
		return mark.Wrap(err, DefaultErrorMark, "Failed to delete object")
	}

	return nil
}

func (g GoogleFileStore) DeletePrefix(ctx context.Context, prefix string) error {
	if err := checkPrefix(prefix); err != nil {
		return err
	}

	objects := g.client.Bucket(g.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := objects.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return mark.Wrap(err, DefaultErrorMark, "Failed to list objects")
		}

		err = g.object(attrs.Name).Delete(ctx)
		if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return mark.Wrap(err, DefaultErrorMark, "Failed to delete object")
		}
	}
}

func (g GoogleFileStore) FileURL(key string) string {
	return g.pathGenerator.GeneratePath(key)
}
