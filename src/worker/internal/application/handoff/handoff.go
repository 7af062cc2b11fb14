// Package handoff moves finished outputs out of a job's scratch directory and into the blob store.
package handoff

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
	"github.com/cockroachdb/errors/markers"
	"github.com/veedubyou/stemsplit-be/src/shared/cloud_storage/store"
	jobentity "github.com/veedubyou/stemsplit-be/src/shared/job/entity"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/storagepath"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/separation"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/lib/cerr"
)

// cleanupTimeout bounds deletes that run after the caller's context is already done.
const cleanupTimeout = 30 * time.Second

type Handoff struct {
	fileStore   store.FileStore
	scratchRoot string
}

func NewHandoff(fileStore store.FileStore, scratchRoot string) (Handoff, error) {
	absRoot, err := filepath.Abs(scratchRoot)
	if err != nil {
		return Handoff{}, cerr.Field("scratch_root", scratchRoot).Wrap(err).Error("Failed to resolve the scratch directory")
	}

	if err := os.MkdirAll(absRoot, os.ModePerm); err != nil {
		return Handoff{}, cerr.Field("scratch_root", absRoot).Wrap(err).Error("Failed to create the scratch directory")
	}

	return Handoff{
		fileStore:   fileStore,
		scratchRoot: absRoot,
	}, nil
}

// ScratchDir is private to one job, concurrent jobs never share paths.
func (h Handoff) ScratchDir(jobID string) string {
	return filepath.Join(h.scratchRoot, jobID)
}

// Persist turns the outputs of a finished separation into output refs. A disk store that
// already contains the scratch directory just points at the files, any other store gets a copy
// and the scratch directory is removed. Nothing is left behind in the store when an upload fails,
// including when ctx ends between uploads.
func (h Handoff) Persist(ctx context.Context, jobID string, outputs []separation.Output) ([]jobentity.OutputRef, error) {
	logger := log.WithFields(log.Fields{
		"job_id":  jobID,
		"outputs": len(outputs),
	})

	if refs, ok := h.repoint(outputs); ok {
		logger.Info("Outputs already live in the store, repointed them")
		return refs, nil
	}

	refs := []jobentity.OutputRef{}
	for _, output := range outputs {
		errctx := cerr.Fields(cerr.F{
			"job_id": jobID,
			"stem":   output.Stem,
			"path":   output.Path,
		})

		contents, err := os.ReadFile(output.Path)
		if err != nil {
			h.rollback(ctx, jobID, refs)
			return nil, errctx.Wrap(err).Error("Failed to read output file")
		}

		key := storagepath.JobOutputKey(jobID, filepath.Base(output.Path))
		if err := h.fileStore.WriteFile(ctx, key, contents); err != nil {
			h.rollback(ctx, jobID, refs)
			return nil, errctx.Field("key", key).Wrap(err).Error("Failed to upload output file")
		}

		refs = append(refs, jobentity.OutputRef{
			Stem: output.Stem,
			Key:  key,
			URL:  h.fileStore.FileURL(key),
		})
	}

	h.removeScratch(jobID)
	logger.Info("Uploaded outputs")
	return refs, nil
}

func (h Handoff) repoint(outputs []separation.Output) ([]jobentity.OutputRef, bool) {
	localStore, ok := h.fileStore.(store.LocalFileStore)
	if !ok {
		return nil, false
	}

	if _, ok := localStore.KeyFor(h.scratchRoot); !ok {
		return nil, false
	}

	refs := []jobentity.OutputRef{}
	for _, output := range outputs {
		key, ok := localStore.KeyFor(output.Path)
		if !ok {
			return nil, false
		}

		refs = append(refs, jobentity.OutputRef{
			Stem: output.Stem,
			Key:  key,
			URL:  localStore.FileURL(key),
		})
	}

	return refs, true
}

// Discard removes the results of a job that was not allowed to complete, including uploads
// nobody recorded a ref for.
func (h Handoff) Discard(ctx context.Context, jobID string, refs []jobentity.OutputRef) {
	h.rollback(ctx, jobID, refs)
	h.removeScratch(jobID)
	log.WithField("job_id", jobID).Info("Discarded stray results")
}

// Purge deletes everything a deleted job left behind. Keys that are already gone are fine.
func (h Handoff) Purge(ctx context.Context, jobID string, keys []string) error {
	var firstErr error
	if err := h.deletePrefix(ctx, jobID); err != nil {
		firstErr = cerr.Field("job_id", jobID).Wrap(err).Error("Failed to delete job outputs")
	}

	for _, key := range keys {
		err := h.fileStore.DeleteFile(ctx, key)
		if err != nil && !markers.Is(err, store.FileNotFound) && firstErr == nil {
			firstErr = cerr.Fields(cerr.F{
				"job_id": jobID,
				"key":    key,
			}).Wrap(err).Error("Failed to delete output file")
		}
	}

	h.removeScratch(jobID)
	return firstErr
}

// rollback deletes under a fresh deadline, the caller's ctx is often the reason for the rollback.
func (h Handoff) rollback(ctx context.Context, jobID string, refs []jobentity.OutputRef) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	h.deleteUploaded(cleanupCtx, refs)
	if err := h.deletePrefix(cleanupCtx, jobID); err != nil {
		log.WithError(err).
			WithField("job_id", jobID).
			Warn("Failed to delete job outputs")
	}
}

func (h Handoff) deletePrefix(ctx context.Context, jobID string) error {
	if jobID == "" {
		return nil
	}
	return h.fileStore.DeletePrefix(ctx, storagepath.JobOutputPrefix(jobID))
}

func (h Handoff) deleteUploaded(ctx context.Context, refs []jobentity.OutputRef) {
	for _, ref := range refs {
		err := h.fileStore.DeleteFile(ctx, ref.Key)
		if err != nil && !markers.Is(err, store.FileNotFound) {
			log.WithError(err).
				WithField("key", ref.Key).
				Warn("Failed to delete output file")
		}
	}
}

func (h Handoff) removeScratch(jobID string) {
	if jobID == "" {
		return
	}

	if err := os.RemoveAll(h.ScratchDir(jobID)); err != nil {
		log.WithError(err).
			WithField("job_id", jobID).
			Warn("Failed to remove scratch directory")
	}
}
