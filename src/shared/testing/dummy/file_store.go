package dummy

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/veedubyou/stemsplit-be/src/shared/cloud_storage/store"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/storagepath"
)

var _ store.FileStore = &FileStore{}

func NewDummyFileStore() *FileStore {
	return &FileStore{
		Unavailable: false,
		Files:       make(map[string][]byte),
	}
}

// FileStore keeps objects in memory. Like the real clients it refuses work on a done context.
type FileStore struct {
	Unavailable bool
	// FailWritesAfter makes every write after the first n fail, when positive
	FailWritesAfter int
	// AfterWrite runs after every successful write
	AfterWrite func(key string)
	Files      map[string][]byte
	writes     int
	mutex      sync.RWMutex
}

func (f *FileStore) GetFile(_ context.Context, key string) ([]byte, error) {
	if f.Unavailable {
		return nil, NetworkFailure
	}

	f.mutex.RLock()
	defer f.mutex.RUnlock()

	contents, ok := f.Files[key]
	if !ok {
		return nil, errors.Mark(NotFound, store.FileNotFound)
	}

	return slices.Clone(contents), nil
}

func (f *FileStore) WriteFile(ctx context.Context, key string, data []byte) error {
	if f.Unavailable {
		return NetworkFailure
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := f.write(key, data); err != nil {
		return err
	}

	if f.AfterWrite != nil {
		f.AfterWrite(key)
	}
	return nil
}

func (f *FileStore) write(key string, data []byte) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.writes++
	if f.FailWritesAfter > 0 && f.writes > f.FailWritesAfter {
		return NetworkFailure
	}

	f.Files[key] = slices.Clone(data)
	return nil
}

func (f *FileStore) DeleteFile(ctx context.Context, key string) error {
	if f.Unavailable {
		return NetworkFailure
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	if _, ok := f.Files[key]; !ok {
		return errors.Mark(NotFound, store.FileNotFound)
	}

	delete(f.Files, key)
	return nil
}

func (f *FileStore) DeletePrefix(ctx context.Context, prefix string) error {
	if f.Unavailable {
		return NetworkFailure
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	for key := range f.Files {
		if strings.HasPrefix(key, prefix) {
			delete(f.Files, key)
		}
	}
	return nil
}

func (f *FileStore) FileURL(key string) string {
	return storagepath.Generator{Host: "https://dummy.storage", Bucket: "bucket"}.GeneratePath(key)
}

func (f *FileStore) Keys() []string {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	keys := []string{}
	for key := range f.Files {
		keys = append(keys, key)
	}

	slices.Sort(keys)
	return keys
}
