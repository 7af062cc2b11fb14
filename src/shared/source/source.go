package source

import (
	"context"
	"encoding/json"
	"path"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	"github.com/google/uuid"
	"github.com/veedubyou/stemsplit-be/src/shared/cloud_storage/store"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/errors/mark"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/storagepath"
)

var (
	SourceNotFound   = errors.New("source audio not found")
	InvalidSource    = errors.New("invalid source audio")
	DefaultErrorMark = errors.New("source store error")
)

// SourceAudio is read only to the separation pipeline. Its audio lives next to it in the blob store.
type SourceAudio struct {
	ID              string  `json:"id"`
	AudioKey        string  `json:"audio_key"`
	Artist          string  `json:"artist"`
	Title           string  `json:"title"`
	DurationSeconds float64 `json:"duration_seconds"`
}

func NewSourceAudio(artist string, title string, audioExt string) SourceAudio {
	id := uuid.New().String()
	if audioExt == "" {
		audioExt = ".audio"
	}

	return SourceAudio{
		ID:       id,
		AudioKey: storagepath.SourceAudioKey(id, "original"+audioExt),
		Artist:   artist,
		Title:    title,
	}
}

func (s SourceAudio) AudioExt() string {
	return path.Ext(s.AudioKey)
}

func (s SourceAudio) Validate() error {
	if s.ID == "" {
		return mark.Message(InvalidSource, "Source id is missing")
	}

	if s.AudioKey == "" {
		return mark.Message(InvalidSource, "Source audio key is missing")
	}

	return nil
}

type Store struct {
	fileStore store.FileStore
}

func NewStore(fileStore store.FileStore) Store {
	return Store{fileStore: fileStore}
}

func (s Store) GetSource(ctx context.Context, sourceID string) (SourceAudio, error) {
	contents, err := s.fileStore.GetFile(ctx, storagepath.SourceMetadataKey(sourceID))
	if err != nil {
		if markers.Is(err, store.FileNotFound) {
			return SourceAudio{}, mark.Wrap(err, SourceNotFound, "Source audio is not found")
		}
		return SourceAudio{}, mark.Wrap(err, DefaultErrorMark, "Failed to fetch source metadata")
	}

	sourceAudio := SourceAudio{}
	if err := json.Unmarshal(contents, &sourceAudio); err != nil {
		return SourceAudio{}, mark.Wrap(err, DefaultErrorMark, "Failed to unmarshal source metadata")
	}

	return sourceAudio, nil
}

func (s Store) PutSource(ctx context.Context, sourceAudio SourceAudio) error {
	if err := sourceAudio.Validate(); err != nil {
		return err
	}

	contents, err := json.Marshal(sourceAudio)
	if err != nil {
		return mark.Wrap(err, DefaultErrorMark, "Failed to marshal source metadata")
	}

	err = s.fileStore.WriteFile(ctx, storagepath.SourceMetadataKey(sourceAudio.ID), contents)
	if err != nil {
		return mark.Wrap(err, DefaultErrorMark, "Failed to write source metadata")
	}

	return nil
}

func (s Store) GetAudio(ctx context.Context, sourceAudio SourceAudio) ([]byte, error) {
	contents, err := s.fileStore.GetFile(ctx, sourceAudio.AudioKey)
	if err != nil {
		if markers.Is(err, store.FileNotFound) {
			return nil, mark.Wrap(err, SourceNotFound, "Source audio file is not found")
		}
		return nil, mark.Wrap(err, DefaultErrorMark, "Failed to fetch source audio")
	}

	return contents, nil
}

func (s Store) PutAudio(ctx context.Context, sourceAudio SourceAudio, contents []byte) error {
	err := s.fileStore.WriteFile(ctx, sourceAudio.AudioKey, contents)
	if err != nil {
		return mark.Wrap(err, DefaultErrorMark, "Failed to write source audio")
	}

	return nil
}
