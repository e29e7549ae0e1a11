package commands

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/finledger/internal/ledger"
	"github.com/cleared-dev/finledger/internal/model"
	"github.com/cleared-dev/finledger/internal/runlog"
)

// maxReportedErrors caps validation errors printed by ledger load.
const maxReportedErrors = 10

func newLedgerCommand(opts *globalOptions) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger database operations",
	}
	ledgerCmd.AddCommand(newLedgerLoadCommand(opts), newLedgerExportCommand(opts))
	return ledgerCmd
}

func newLedgerLoadCommand(opts *globalOptions) *cobra.Command {
	var ledgerPath, dbPath string
	var replace bool

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load a ledger CSV into the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if ledgerPath == "" {
				ledgerPath = ws.cfg.Ledger
			}
			if dbPath != "" {
				ws.cfg.Database = dbPath
			}

			txns, err := ledger.Read(ledgerPath)
			if err != nil {
				return err
			}
			if err := checkLedger(txns, ws.vocab); err != nil {
				return fmt.Errorf("%s: %w", ledgerPath, err)
			}

			s, err := ws.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			if replace {
				if err := s.Truncate(ctx); err != nil {
					return err
				}
			}
			n, err := s.Load(ctx, txns)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d transactions into %s\n", n, ws.cfg.Database)
			ws.record(runlog.Entry{
				RunID:   uuid.NewString(),
				Command: "ledger load",
				Source:  ledgerPath,
				Written: n,
			})
			return nil
		},
	}

	cmd.Flags().StringVar(&ledgerPath, "ledger", "", "ledger CSV (default: the configured ledger)")
	cmd.Flags().StringVar(&dbPath, "db", "", "database path (default: the configured database)")
	cmd.Flags().BoolVar(&replace, "replace", false, "clear the database before loading")

	return cmd
}

func checkLedger(txns []model.Transaction, vocab *model.Vocabulary) error {
	problems := ledger.Validate(txns, vocab)
	if len(problems) == 0 {
		return nil
	}
	errs := make([]error, 0, maxReportedErrors+1)
	for i, p := range problems {
		if i == maxReportedErrors {
			errs = append(errs, fmt.Errorf("... and %d more", len(problems)-maxReportedErrors))
			break
		}
		errs = append(errs, p)
	}
	return fmt.Errorf("%d invalid rows:\n%w", len(problems), errors.Join(errs...))
}

func newLedgerExportCommand(opts *globalOptions) *cobra.Command {
	var outPath, dbPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the database back out as a ledger CSV, tags included",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if dbPath != "" {
				ws.cfg.Database = dbPath
			}

			s, err := ws.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			entries, err := s.All(cmd.Context())
			if err != nil {
				return err
			}
			txns := make([]model.Transaction, len(entries))
			for i, e := range entries {
				txns[i] = e.Transaction
			}

			out, err := filepath.Abs(outPath)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			if err := ledger.WriteFile(out, txns); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d transactions to %s\n", len(txns), out)
			ws.commit(cmd.Context(), fmt.Sprintf("ledger: export %d transactions", len(txns)), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", "ledger CSV to write")
	_ = cmd.MarkFlagRequired("out")
	cmd.Flags().StringVar(&dbPath, "db", "", "database path (default: the configured database)")

	return cmd
}
