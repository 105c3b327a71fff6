// Package config implements the configuration inspection command.
package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/holterscan/holterscan/internal/conf"
)

// Command creates the config command, which shows the active
// configuration file and the effective settings after flag overrides.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the active configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := conf.FindConfigFile()
			if err != nil {
				return err
			}
			cmd.Println("# config file:", path)

			out, err := yaml.Marshal(conf.GetSettings())
			if err != nil {
				return fmt.Errorf("error rendering settings: %w", err)
			}
			cmd.Print(string(out))
			return nil
		},
	}

	cmd.AddCommand(saveCommand())

	return cmd
}

func saveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Write the effective configuration back to the config file",
		Long: `Write the effective configuration, including command line flag
overrides, back to the active configuration file. Comments in the
existing file are not preserved.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return conf.SaveSettings()
		},
	}
}
