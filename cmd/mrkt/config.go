package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pders01/mrkt/internal/config"
	"github.com/pders01/mrkt/internal/validation"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or generate the configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as TOML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := config.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configGenCmd = &cobra.Command{
	Use:   "generate [path]",
	Short: "Write the default configuration file",
	Long: `Write the default configuration file to path, or to
~/.config/mrkt/config.toml when no path is given.`,
	Args:              cobra.MaximumNArgs(1),
	PersistentPreRunE: noSetup,
	RunE: func(_ *cobra.Command, args []string) error {
		path := config.DefaultPath()
		if len(args) > 0 {
			var err error
			if path, err = validation.NewFilePathValidator().ValidateFile(args[0]); err != nil {
				return fmt.Errorf("invalid path: %w", err)
			}
		}
		if err := config.GenerateDefaultConfig(path); err != nil {
			return fmt.Errorf("failed to generate config: %w", err)
		}
		fmt.Printf("Generated default configuration at: %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configGenCmd)
	rootCmd.AddCommand(configCmd)
}
