// Command valknut analyzes Python, JavaScript, TypeScript, Rust, and Go
// source trees for complexity, structural imbalance, dependency
// chokepoints, clone density, and coverage gaps, and reports prioritized
// refactoring candidates.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sibyllinesoft/valknut/cmd/valknut/commands"
	"github.com/sibyllinesoft/valknut/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "valknut",
		Short: "Valknut static code-quality analyzer",
		Long: `Valknut analyzes a source tree across five languages and reports
prioritized refactoring candidates.

Commands:
  analyze               Run the analysis pipeline over a source tree
  list-languages         Show registered language adapters
  print-default-config   Print the built-in configuration defaults as YAML
  init-config            Write a starter .valknut.yaml to the current directory
  validate-config        Load and validate a config file without analyzing`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewAnalyzeCommand())
	rootCmd.AddCommand(commands.NewListLanguagesCommand())
	rootCmd.AddCommand(commands.NewPrintDefaultConfigCommand())
	rootCmd.AddCommand(commands.NewInitConfigCommand())
	rootCmd.AddCommand(commands.NewValidateConfigCommand())
	rootCmd.AddCommand(commands.NewMCPStdioCommand())
	rootCmd.AddCommand(commands.NewMCPManifestCommand())
	rootCmd.AddCommand(commands.NewDocAuditCommand())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "valknut %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
