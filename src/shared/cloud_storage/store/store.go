package store

import (
	"context"
	"mime"
	"path"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	FileNotFound     = errors.New("file not found")
	DefaultErrorMark = errors.New("file store error")
)

// FileStore is an opaque blob store addressed by object keys.
type FileStore interface {
	GetFile(ctx context.Context, key string) ([]byte, error)
	WriteFile(ctx context.Context, key string, data []byte) error
	DeleteFile(ctx context.Context, key string) error
	// DeletePrefix removes every object under a prefix ending in "/". Nothing under it is fine.
	DeletePrefix(ctx context.Context, prefix string) error
	FileURL(key string) string
}

// LocalFileStore is a FileStore backed by the local filesystem, whose objects can be
// addressed by path without copying them.
type LocalFileStore interface {
	FileStore
	LocalPath(key string) string
	KeyFor(localPath string) (string, bool)
}

func checkPrefix(prefix string) error {
	if prefix == "" || !strings.HasSuffix(prefix, "/") || prefix == "/" {
		return errors.Mark(errors.Newf("Prefix %q does not name a directory", prefix), DefaultErrorMark)
	}
	return nil
}

func contentType(key string) string {
	switch path.Ext(key) {
	case ".mp3":
		return "audio/mpeg"
	case ".flac":
		return "audio/flac"
	case ".wav":
		return "audio/wav"
	}

	if t := mime.TypeByExtension(path.Ext(key)); t != "" {
		return t
	}

	return "application/octet-stream"
}
