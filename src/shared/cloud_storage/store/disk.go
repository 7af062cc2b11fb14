package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/errors/mark"
)

var _ LocalFileStore = DiskFileStore{}

type DiskFileStore struct {
	root string
}

func NewDiskFileStore(root string) (DiskFileStore, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return DiskFileStore{}, errors.Wrap(err, "Failed to resolve the disk store root")
	}

	if err := os.MkdirAll(absRoot, os.ModePerm); err != nil {
		return DiskFileStore{}, errors.Wrap(err, "Failed to create the disk store root")
	}

	return DiskFileStore{root: absRoot}, nil
}

func (d DiskFileStore) Root() string {
	return d.root
}

func (d DiskFileStore) LocalPath(key string) string {
	return filepath.Join(d.root, filepath.FromSlash(key))
}

// KeyFor maps a path under the root back to its key.
func (d DiskFileStore) KeyFor(localPath string) (string, bool) {
	absPath, err := filepath.Abs(localPath)
	if err != nil {
		return "", false
	}

	rel, err := filepath.Rel(d.root, absPath)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}

	return filepath.ToSlash(rel), true
}

func (d DiskFileStore) GetFile(_ context.Context, key string) ([]byte, error) {
	contents, err := os.ReadFile(d.LocalPath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, mark.Wrap(err, FileNotFound, "File does not exist")
		}
		return nil, mark.Wrap(err, DefaultErrorMark, "Failed to read file")
	}

	return contents, nil
}

func (d DiskFileStore) WriteFile(_ context.Context, key string, data []byte) error {
	filePath := d.LocalPath(key)
	if err := os.MkdirAll(filepath.Dir(filePath), os.ModePerm); err != nil {
		return mark.Wrap(err, DefaultErrorMark, "Failed to create the file's directory")
	}

	tempPath := filePath + ".partial"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return mark.Wrap(err, DefaultErrorMark, "Failed to write file")
	}

	if err := os.Rename(tempPath, filePath); err != nil {
		_ = os.Remove(tempPath)
		return mark.Wrap(err, DefaultErrorMark, "Failed to move file into place")
	}

	return nil
}

func (d DiskFileStore) DeleteFile(_ context.Context, key string) error {
	err := os.Remove(d.LocalPath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return mark.Wrap(err, FileNotFound, "File does not exist")
		}
		return mark.Wrap(err, DefaultErrorMark, "Failed to delete file")
	}

	return nil
}

func (d DiskFileStore) DeletePrefix(_ context.Context, prefix string) error {
	if err := checkPrefix(prefix); err != nil {
		return err
	}

	if err := os.RemoveAll(d.LocalPath(strings.TrimSuffix(prefix, "/"))); err != nil {
		return mark.Wrap(err, DefaultErrorMark, "Failed to delete directory")
	}

	return nil
}

// FileURL is a file URL, the disk store has no public host.
func (d DiskFileStore) FileURL(key string) string {
	return "file://" + filepath.ToSlash(d.LocalPath(key))
}
