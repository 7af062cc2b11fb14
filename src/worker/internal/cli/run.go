package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/veedubyou/stemsplit-be/src/worker/application"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Consume jobs until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			workerConfig, err := ctx.workerConfig()
			if err != nil {
				return err
			}

			appConfig := ctx.options.Deployment(workerConfig)
			appConfig.IsolateCommand, err = isolateCommand(ctx.configPath)
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			app := application.NewApp(appConfig)
			defer app.Stop()

			return app.Start(signalCtx)
		},
	}
}
