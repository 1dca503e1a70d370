package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sibyllinesoft/valknut/internal/config"
)

// defaultConfigFileName is the starter file init-config writes, matching
// the name LoadConfig searches for when --config is omitted.
const defaultConfigFileName = ".valknut.yaml"

// NewPrintDefaultConfigCommand prints the built-in configuration defaults
// as YAML, letting an operator see every tunable before writing their own.
func NewPrintDefaultConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "print-default-config",
		Short: "Print the built-in configuration defaults as YAML",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.DefaultConfig()
			if err != nil {
				return fmt.Errorf("load defaults: %w", err)
			}

			enc := yaml.NewEncoder(os.Stdout)
			defer enc.Close()

			return enc.Encode(cfg)
		},
	}
}

// NewInitConfigCommand writes a starter .valknut.yaml containing the
// built-in defaults to the current directory.
func NewInitConfigCommand() *cobra.Command {
	var force bool

	cobraCmd := &cobra.Command{
		Use:   "init-config",
		Short: "Write a starter .valknut.yaml to the current directory",
		RunE: func(_ *cobra.Command, _ []string) error {
			if !force {
				if _, err := os.Stat(defaultConfigFileName); err == nil {
					return fmt.Errorf("%s already exists; rerun with --force to overwrite", defaultConfigFileName)
				}
			}

			cfg, err := config.DefaultConfig()
			if err != nil {
				return fmt.Errorf("load defaults: %w", err)
			}

			f, err := os.Create(defaultConfigFileName) //nolint:gosec // fixed filename in the CWD, not user input
			if err != nil {
				return fmt.Errorf("create %s: %w", defaultConfigFileName, err)
			}
			defer f.Close()

			enc := yaml.NewEncoder(f)
			defer enc.Close()

			if err := enc.Encode(cfg); err != nil {
				return fmt.Errorf("write %s: %w", defaultConfigFileName, err)
			}

			fmt.Printf("wrote %s\n", defaultConfigFileName)

			return nil
		},
	}

	cobraCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	return cobraCmd
}

// NewValidateConfigCommand loads and validates a config file without
// running the analysis pipeline.
func NewValidateConfigCommand() *cobra.Command {
	var configPath string

	cobraCmd := &cobra.Command{
		Use:   "validate-config",
		Short: "Load and validate a config file without analyzing",
		RunE: func(_ *cobra.Command, _ []string) error {
			_, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("config invalid: %w", err)
			}

			fmt.Println("config is valid")

			return nil
		},
	}

	cobraCmd.Flags().StringVar(&configPath, "config", "", "path to .valknut.yaml (default: search CWD and $HOME)")

	return cobraCmd
}
