// Package separation is the work done inside the isolated worker: decode the source,
// separate it, combine the stems and encode the outputs into the job's scratch directory.
// It never touches the job store, the parent owns every status change.
package separation

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/apex/log"
	"github.com/veedubyou/stemsplit-be/src/shared/backend"
	jobentity "github.com/veedubyou/stemsplit-be/src/shared/job/entity"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/audio"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/combine"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/inference"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/isolation"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/separator"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/lib/cerr"
	"github.com/vmihailenco/msgpack/v5"
)

const TaskName = "separate"

type Request struct {
	JobID     string            `msgpack:"job_id"`
	InputPath string            `msgpack:"input_path"`
	OutputDir string            `msgpack:"output_dir"`
	Config    backend.Config    `msgpack:"config"`
	Variant   jobentity.Variant `msgpack:"variant"`
	Stems     []string          `msgpack:"stems"`
	Device    jobentity.Device  `msgpack:"device"`
	// DeviceSlot is the accelerator slot leased by the parent, -1 on cpu
	DeviceSlot int `msgpack:"device_slot"`
	// FileNames maps each output's stem label to its file name. Missing labels
	// fall back to the label itself.
	FileNames map[string]string `msgpack:"file_names"`
}

type Output struct {
	Stem string `msgpack:"stem"`
	Path string `msgpack:"path"`
}

type Result struct {
	Outputs []Output `msgpack:"outputs"`
}

type Pipeline struct {
	codec     audio.Codec
	separator *separator.Separator
	progress  inference.ProgressFunc
}

func NewPipeline(codec audio.Codec, separator *separator.Separator) Pipeline {
	return Pipeline{
		codec:     codec,
		separator: separator,
	}
}

// WithProgress replaces the default progress logging.
func (p Pipeline) WithProgress(progress inference.ProgressFunc) Pipeline {
	p.progress = progress
	return p
}

// Tasks is the task table shared by the parent and the isolated child.
func (p Pipeline) Tasks() isolation.TaskTable {
	return isolation.TaskTable{
		TaskName: p.task,
	}
}

func (p Pipeline) task(ctx context.Context, args []byte) ([]byte, error) {
	request := Request{}
	if err := msgpack.Unmarshal(args, &request); err != nil {
		return nil, cerr.Wrap(err).Error("Failed to decode separation request")
	}

	result, err := p.Run(ctx, request)
	if err != nil {
		return nil, err
	}

	encoded, err := msgpack.Marshal(result)
	if err != nil {
		return nil, cerr.Wrap(err).Error("Failed to encode separation result")
	}

	return encoded, nil
}

func (p Pipeline) Run(ctx context.Context, request Request) (Result, error) {
	logger := log.WithFields(log.Fields{
		"job_id":      request.JobID,
		"backend":     request.Config.Kind,
		"variant":     request.Variant,
		"device":      request.Device,
		"device_slot": request.DeviceSlot,
	})
	errctx := cerr.Fields(cerr.F{
		"job_id":     request.JobID,
		"input_path": request.InputPath,
	})

	mix, err := p.codec.Decode(ctx, request.InputPath)
	if err != nil {
		return Result{}, errctx.Wrap(err).Error("Failed to decode the source audio")
	}
	logger.WithField("samples", mix.Len()).Info("Decoded source audio")

	stems, err := p.separate(ctx, logger, mix, request)
	if err != nil {
		return Result{}, errctx.Wrap(err).Error("Failed to separate the source audio")
	}
	defer stems.Release()

	combined, err := combine.Combine(stems, combine.Request{
		Config:  request.Config,
		Variant: request.Variant,
		Stems:   request.Stems,
	})
	if err != nil {
		return Result{}, errctx.Wrap(err).Error("Failed to combine stems")
	}

	if err := os.MkdirAll(request.OutputDir, os.ModePerm); err != nil {
		return Result{}, errctx.Field("output_dir", request.OutputDir).Wrap(err).Error("Failed to create the output directory")
	}

	result := Result{}
	for _, stem := range combined {
		fileName, ok := request.FileNames[stem.Name]
		if !ok {
			fileName = stem.Name + "." + request.Config.OutputFormat.Ext()
		}

		outputPath := filepath.Join(request.OutputDir, fileName)
		err := p.codec.Encode(ctx, stem.Signal, request.Config.OutputFormat, outputPath)
		if err != nil {
			return Result{}, errctx.Field("stem", stem.Name).Wrap(err).Error("Failed to encode stem")
		}

		result.Outputs = append(result.Outputs, Output{Stem: stem.Name, Path: outputPath})
	}

	logger.WithField("outputs", len(result.Outputs)).Info("Separation finished")
	return result, nil
}

// separate holds the model only as long as separation needs it.
func (p Pipeline) separate(ctx context.Context, logger log.Interface, mix audio.Signal, request Request) (audio.StemSet, error) {
	handle, err := p.separator.Prepare(ctx, request.Config, request.Device)
	if err != nil {
		return nil, err
	}
	defer handle.Release()

	progress := p.progress
	if progress == nil {
		progress = logProgress(logger)
	}

	return p.separator.Separate(ctx, handle, mix, separator.Request{
		Config:   request.Config,
		Stems:    request.Stems,
		Progress: progress,
	})
}

// logProgress logs at every tenth of the work so long jobs show signs of life.
func logProgress(logger log.Interface) inference.ProgressFunc {
	var mutex sync.Mutex
	lastDecile := -1

	return func(done int, total int) {
		if total <= 0 {
			return
		}

		mutex.Lock()
		defer mutex.Unlock()

		decile := done * 10 / total
		if decile == lastDecile {
			return
		}
		lastDecile = decile

		logger.WithFields(log.Fields{
			"done":  done,
			"total": total,
		}).Info("Separation progress")
	}
}
