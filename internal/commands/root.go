package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finledger/internal/buildinfo"
	"github.com/cleared-dev/finledger/internal/config"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "finledger",
		Short:   "Personal finance ledger: statement import, categorisation and cash reconciliation",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", config.FileName, "path to finance.yaml")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newInitCommand(),
		newAdaptCommand(opts),
		newTypesCommand(),
		newInboxCommand(opts),
		newLedgerCommand(opts),
		newReconcileCommand(opts),
	)

	return rootCmd
}
