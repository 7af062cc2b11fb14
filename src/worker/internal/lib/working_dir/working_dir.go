package working_dir

import (
	"os"
	"path/filepath"

	"github.com/veedubyou/stemsplit-be/src/worker/internal/lib/cerr"
)

// WorkingDir is the worker's local disk root. Scratch space for running jobs and
// short lived temp files live under it.
type WorkingDir struct {
	root string
}

func NewWorkingDir(root string) (WorkingDir, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return WorkingDir{}, cerr.Field("root", root).Wrap(err).Error("Failed to make the working dir absolute")
	}

	w := WorkingDir{root: root}
	for _, dir := range []string{w.Root(), w.TempDir(), w.ScratchDir(), w.ModelsDir()} {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return WorkingDir{}, cerr.Field("dir", dir).Wrap(err).Error("Failed to create working dir")
		}
	}

	return w, nil
}

func (w WorkingDir) Root() string {
	return w.root
}

func (w WorkingDir) TempDir() string {
	return filepath.Join(w.root, "tmp")
}

func (w WorkingDir) ScratchDir() string {
	return filepath.Join(w.root, "scratch")
}

func (w WorkingDir) ModelsDir() string {
	return filepath.Join(w.root, "models")
}
