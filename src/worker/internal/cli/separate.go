package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/veedubyou/stemsplit-be/src/shared/backend"
	jobentity "github.com/veedubyou/stemsplit-be/src/shared/job/entity"
	"github.com/veedubyou/stemsplit-be/src/shared/source"
	"github.com/veedubyou/stemsplit-be/src/worker/application"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/jobs/separate"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/separation"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/lib/cerr"
)

var nowFunc = time.Now

type separateFlags struct {
	backend   string
	params    string
	variant   string
	stems     []string
	device    string
	outputDir string
	artist    string
	title     string
}

// newSeparateCommand runs one separation in process, without the broker or the job store.
func newSeparateCommand(ctx *commandContext) *cobra.Command {
	flags := separateFlags{}

	cmd := &cobra.Command{
		Use:   "separate <audio file>",
		Short: "Separate a local audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workerConfig, err := ctx.workerConfig()
			if err != nil {
				return err
			}

			inputPath, err := filepath.Abs(args[0])
			if err != nil {
				return cerr.Field("input", args[0]).Wrap(err).Error("Failed to resolve the input path")
			}

			job, err := flags.job(inputPath)
			if err != nil {
				return err
			}

			outputDir := flags.outputDir
			if outputDir == "" {
				outputDir = filepath.Dir(inputPath)
			}

			bar := newProgressBar(cmd.ErrOrStderr(), string(job.Backend.Kind))
			pipeline := application.NewPipeline(ctx.options.Local(workerConfig))
			if isTerminal(cmd.ErrOrStderr()) {
				pipeline = pipeline.WithProgress(bar.Report())
			}

			result, err := pipeline.Run(cmd.Context(), separation.Request{
				JobID:      job.ID,
				InputPath:  inputPath,
				OutputDir:  outputDir,
				Config:     job.Backend,
				Variant:    job.Variant,
				Stems:      job.Stems,
				Device:     job.Device,
				DeviceSlot: -1,
				FileNames:  separate.FileNames(job, flags.sourceAudio(inputPath)),
			})
			bar.Finish()
			if err != nil {
				return err
			}

			for _, output := range result.Outputs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", output.Stem, output.Path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.backend, "backend", "b", string(backend.BaselineKind), "Separation backend")
	cmd.Flags().StringVarP(&flags.params, "params", "p", "{}", "Backend parameters as a JSON object")
	cmd.Flags().StringVar(&flags.variant, "variant", string(jobentity.DynamicVariant), "static or dynamic")
	cmd.Flags().StringSliceVarP(&flags.stems, "stems", "s", nil, "Stems to keep, comma separated")
	cmd.Flags().StringVar(&flags.device, "device", string(jobentity.CPUDevice), "Device to separate on")
	cmd.Flags().StringVarP(&flags.outputDir, "out", "o", "", "Output directory, next to the input by default")
	cmd.Flags().StringVar(&flags.artist, "artist", "", "Artist used in output file names")
	cmd.Flags().StringVar(&flags.title, "title", "", "Title used in output file names, the input file name by default")

	return cmd
}

// job validates the flags the same way a submitted request is validated.
func (f separateFlags) job(inputPath string) (jobentity.Job, error) {
	params := map[string]any{}
	if err := json.Unmarshal([]byte(f.params), &params); err != nil {
		return jobentity.Job{}, cerr.Field("params", f.params).Wrap(err).Error("Backend parameters are not a JSON object")
	}

	if _, ok := params["outputFormat"]; !ok {
		params["outputFormat"] = string(backend.WAV)
	}

	config, err := backend.Parse(f.backend, params)
	if err != nil {
		return jobentity.Job{}, err
	}

	return jobentity.NewJob(jobentity.Request{
		SourceID: filepath.Base(inputPath),
		Backend:  config,
		Variant:  jobentity.Variant(f.variant),
		Stems:    f.stems,
		Device:   jobentity.Device(f.device),
	}, nowFunc())
}

func (f separateFlags) sourceAudio(inputPath string) source.SourceAudio {
	title := f.title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	}

	return source.SourceAudio{
		ID:     filepath.Base(inputPath),
		Artist: f.artist,
		Title:  title,
	}
}
