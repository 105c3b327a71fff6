// Package directory implements the batch analysis command.
package directory

import (
	"github.com/spf13/cobra"

	"github.com/holterscan/holterscan/internal/analysis"
	"github.com/holterscan/holterscan/internal/conf"
)

// Command creates the directory command for analyzing every recording
// under a directory.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "directory [path]",
		Short: "Analyze all ECG recordings in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings.Input.Path = args[0]
			return analysis.DirectoryAnalysis(cmd.Context(), settings)
		},
	}

	setupFlags(cmd, settings)

	return cmd
}

func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.Flags().BoolVarP(&settings.Input.Recursive, "recursive", "r", false, "Recurse into subdirectories")
	cmd.Flags().StringVarP(&settings.Output.Dir, "output", "o", settings.Output.Dir, "Directory for filtered-signal artifacts")
	cmd.Flags().StringVar(&settings.Dataset.ReferenceDir, "reference", settings.Dataset.ReferenceDir, "Directory holding reference annotation CSV files")
	cmd.Flags().BoolVarP(&settings.Input.Force, "force", "f", false, "Recompute even when cached runs exist")
}
