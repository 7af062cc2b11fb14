package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/veedubyou/stemsplit-be/src/worker/application"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/isolation"
)

// newIsolateCommand is the child side of process isolation. Stdin and stdout carry the
// task frames, so nothing else may write to stdout.
func newIsolateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:    "isolate",
		Short:  "Run one isolated task read from stdin",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			workerConfig, err := ctx.workerConfig()
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
			defer cancel()

			pipeline := application.NewPipeline(ctx.options.Local(workerConfig))
			return isolation.Serve(signalCtx, pipeline.Tasks(), os.Stdin, os.Stdout)
		},
	}
}
