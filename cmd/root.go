// Package cmd assembles the command line interface.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/holterscan/holterscan/cmd/benchmark"
	"github.com/holterscan/holterscan/cmd/config"
	"github.com/holterscan/holterscan/cmd/directory"
	"github.com/holterscan/holterscan/cmd/file"
	"github.com/holterscan/holterscan/cmd/label"
	"github.com/holterscan/holterscan/internal/conf"
	"github.com/holterscan/holterscan/internal/logging"
)

// Version is the build version, injected with -ldflags at build time.
var Version = "dev"

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "holterscan",
		Version: Version,
		Short:   "Long-duration single-lead ECG analysis",
		Long: `holterscan preprocesses long Holter ECG recordings, detects QRS
complexes, and labels the detected beats against reference SPB and PVC
annotations.`,
		SilenceUsage: true,
	}

	if err := setupFlags(rootCmd, settings); err != nil {
		logging.Fatal("failed to set up command line flags", "error", err)
	}

	rootCmd.AddCommand(
		file.Command(settings),
		directory.Command(settings),
		label.Command(settings),
		config.Command(),
		benchmark.Command(settings),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Flags override file values; re-validate the effective config.
		return conf.ValidateSettings(settings)
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line
// interface. Defaults come from the loaded configuration so flags only
// override what the user sets explicitly.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().IntVarP(&settings.ECG.Threads, "threads", "j", viper.GetInt("ecg.threads"), "Worker count for chunked preprocessing, 0 to autodetect")
	rootCmd.PersistentFlags().StringVar(&settings.ECG.Detector, "detector", viper.GetString("ecg.detector"), "QRS detector strategy")
	rootCmd.PersistentFlags().IntVar(&settings.ECG.SampleRate, "samplerate", viper.GetInt("ecg.samplerate"), "Analysis sample rate in Hz; inputs are resampled to this rate")
	rootCmd.PersistentFlags().Float64Var(&settings.Matching.Tolerance, "tolerance", viper.GetFloat64("matching.tolerance"), "Beat-annotation matching tolerance in seconds")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
