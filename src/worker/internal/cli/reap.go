package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/veedubyou/stemsplit-be/src/worker/application"
)

func newReapCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reap",
		Short: "Time out stale running jobs once",
		RunE: func(cmd *cobra.Command, args []string) error {
			workerConfig, err := ctx.workerConfig()
			if err != nil {
				return err
			}

			jobReaper, closeReaper := application.NewReaper(ctx.options.Deployment(workerConfig))
			defer closeReaper()

			reaped, err := jobReaper.Sweep(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Timed out %d stale job(s)\n", reaped)
			return nil
		},
	}
}
