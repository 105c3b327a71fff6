// Package file implements the single-record analysis command.
package file

import (
	"github.com/spf13/cobra"

	"github.com/holterscan/holterscan/internal/analysis"
	"github.com/holterscan/holterscan/internal/conf"
)

// Command creates the file command for analyzing a single recording.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file [signal file]",
		Short: "Analyze an ECG recording",
		Long: `Analyze a single ECG recording: preprocess the signal, detect QRS
complexes, and label the beats against the record's reference
annotations when present.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings.Input.Path = args[0]
			return analysis.FileAnalysis(cmd.Context(), settings)
		},
	}

	setupFlags(cmd, settings)

	return cmd
}

func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.Flags().StringVarP(&settings.Output.Dir, "output", "o", settings.Output.Dir, "Directory for filtered-signal artifacts")
	cmd.Flags().StringVar(&settings.Dataset.ReferenceDir, "reference", settings.Dataset.ReferenceDir, "Directory holding reference annotation CSV files")
	cmd.Flags().BoolVarP(&settings.Input.Force, "force", "f", false, "Recompute even when a cached run exists")
}
