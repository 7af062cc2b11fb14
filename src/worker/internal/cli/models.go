package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/veedubyou/stemsplit-be/src/shared/backend"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/modelcache"
)

func newModelsCommand(ctx *commandContext) *cobra.Command {
	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "Inspect the model catalog",
	}

	modelsCmd.AddCommand(newModelsListCommand(ctx))
	return modelsCmd
}

func newModelsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List the model serving each backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			workerConfig, err := ctx.workerConfig()
			if err != nil {
				return err
			}

			rows := [][]string{}
			for _, entry := range workerConfig.Catalog() {
				rows = append(rows, []string{
					string(entry.Kind),
					entry.Name,
					stemsOf(entry.Kind),
					weightsLabel(entry.WeightsURL),
					pinned(entry.WeightsSHA256),
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Backend", "Model", "Stems", "Weights", "Pinned"},
				rows,
			))
			fmt.Fprintf(cmd.OutOrStdout(), "Cache: %s\n", workerConfig.ModelsDir(ctx.options.Local(workerConfig).WorkingDirPath))
			return nil
		},
	}
}

func stemsOf(kind backend.Kind) string {
	descriptor, ok := backend.Describe(kind)
	if !ok {
		return "-"
	}
	return strings.Join(descriptor.NativeStems, ", ")
}

func weightsLabel(url string) string {
	if strings.HasPrefix(url, modelcache.BuiltinScheme) {
		return "builtin"
	}
	return url
}

func pinned(checksum string) string {
	if checksum == "" {
		return "no"
	}
	return "yes"
}
