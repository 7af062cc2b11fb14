package cli

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/veedubyou/stemsplit-be/src/shared/config/envvar"
	"github.com/veedubyou/stemsplit-be/src/worker/application"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/workerconfig"
)

type Options struct {
	// Deployment wires the broker and the stores. It reads the environment and panics
	// when a required variable is missing.
	Deployment func(worker workerconfig.Config) application.Config
	// Local is enough for work that never touches the broker or the job store.
	Local func(worker workerconfig.Config) application.Config
}

type commandContext struct {
	options    Options
	configPath string
}

func (c *commandContext) workerConfig() (workerconfig.Config, error) {
	return workerconfig.Load(c.configPath)
}

func NewRootCommand(options Options) *cobra.Command {
	ctx := &commandContext{options: options}

	rootCmd := &cobra.Command{
		Use:           "stemsplit-worker",
		Short:         "Stem separation worker",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configPath, "config", "c",
		envvar.GetOr(envvar.STEMSPLIT_WORKER_CONFIG, ""), "Worker config file path")

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newIsolateCommand(ctx))
	rootCmd.AddCommand(newSeparateCommand(ctx))
	rootCmd.AddCommand(newReapCommand(ctx))
	rootCmd.AddCommand(newModelsCommand(ctx))

	return rootCmd
}

// isolateCommand is how the worker starts its own isolated children.
func isolateCommand(configPath string) ([]string, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, err
	}

	command := []string{self, "isolate"}
	if configPath != "" {
		command = append(command, "--config", configPath)
	}

	return command, nil
}
