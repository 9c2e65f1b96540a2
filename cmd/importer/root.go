package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/statement-import/pkg/config"
)

// app carries state shared by every subcommand once the root pre-run has loaded it.
type app struct {
	envFiles []string
	cfg      *config.Config
	logger   *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "importer",
		Short: "Import bank statements into the ledger",
		Long: `importer detects the format of a bank statement (CSV, TSV, Excel, OFX/QFX, QIF or a
text-layer PDF), normalizes and deduplicates its transactions, assigns categories from
merchant rules and writes the batch to the ledger in one transaction.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.envFiles...)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			a.cfg = cfg
			a.logger = cfg.Log.NewLogger()
			return nil
		},
	}

	cmd.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", nil, "env files to read before the environment (default .env)")

	cmd.AddCommand(newRunCmd(a))
	cmd.AddCommand(newRulesCmd(a))
	cmd.AddCommand(newHistoryCmd(a))
	return cmd
}
