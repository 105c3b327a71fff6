// Package label implements the re-labeling command.
package label

import (
	"github.com/spf13/cobra"

	"github.com/holterscan/holterscan/internal/analysis"
	"github.com/holterscan/holterscan/internal/conf"
)

// Command creates the label command, which re-labels the most recent
// stored run of a record against its reference annotations without
// repeating the preprocessing pass.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "label [record id]",
		Short: "Re-label a previously analyzed recording",
		Long: `Re-label the beats of the most recent stored analysis run against the
record's reference annotations. Requires the sqlite datastore and a
cached filtered-signal artifact from a previous file analysis.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return analysis.LabelAnalysis(cmd.Context(), settings, args[0])
		},
	}

	cmd.Flags().StringVar(&settings.Dataset.ReferenceDir, "reference", settings.Dataset.ReferenceDir, "Directory holding reference annotation CSV files")

	return cmd
}
