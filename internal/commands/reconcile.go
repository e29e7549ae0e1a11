package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/finledger/internal/model"
	"github.com/cleared-dev/finledger/internal/reconcile"
	"github.com/cleared-dev/finledger/internal/runlog"
)

func newReconcileCommand(opts *globalOptions) *cobra.Command {
	var from, to, tolerance, outputPath, dbPath string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Propose tags linking cash spending to ATM withdrawals",
		Long: "Matches each ATM withdrawal in the range with the cash spending it funded and\n" +
			"writes the proposed tag updates as an SQL change-set. The ledger is not modified;\n" +
			"review the change-set, then run `finledger reconcile apply`.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if dbPath != "" {
				ws.cfg.Database = dbPath
			}

			fromDate, err := time.Parse(model.DateLayout, from)
			if err != nil {
				return fmt.Errorf("parsing --from: %w", err)
			}
			toDate, err := time.Parse(model.DateLayout, to)
			if err != nil {
				return fmt.Errorf("parsing --to: %w", err)
			}
			tol, err := ws.cfg.Tolerance()
			if err != nil {
				return err
			}
			if tolerance != "" {
				if tol, err = decimal.NewFromString(tolerance); err != nil {
					return fmt.Errorf("parsing --tolerance: %w", err)
				}
			}

			s, err := ws.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			report, err := reconcile.NewMatcher(s, ws.logger).Reconcile(cmd.Context(), fromDate, toDate, tol)
			if err != nil {
				return err
			}

			out, err := filepath.Abs(outputPath)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating change-set: %w", err)
			}
			if err := reconcile.WriteChangeSet(f, report, time.Now().UTC()); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("closing change-set: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, report)
			for _, u := range report.Unresolved {
				fmt.Fprintf(w, "  unresolved: withdrawal %d on %s, shortfall %s\n",
					u.WithdrawalID, u.Date.Format(model.DateLayout), u.Shortfall.StringFixed(2))
			}
			fmt.Fprintf(w, "change-set: %s\n", out)

			ws.record(runlog.Entry{
				RunID:   uuid.NewString(),
				Command: "reconcile",
				Source:  from + ".." + to,
				Written: len(report.Updates),
				Manual:  len(report.Unresolved),
			})
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first date of the range (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("from")
	cmd.Flags().StringVar(&to, "to", "", "last date of the range (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("to")
	cmd.Flags().StringVar(&tolerance, "tolerance", "", "allowed difference (default: reconcile.tolerance from config)")
	cmd.Flags().StringVar(&outputPath, "output", "", "change-set file to write")
	_ = cmd.MarkFlagRequired("output")
	cmd.Flags().StringVar(&dbPath, "db", "", "database path (default: the configured database)")

	cmd.AddCommand(newReconcileApplyCommand(opts), newReconcileAuditCommand(opts))

	return cmd
}

func newReconcileApplyCommand(opts *globalOptions) *cobra.Command {
	var changeSet, dbPath string

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a reviewed change-set to the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if dbPath != "" {
				ws.cfg.Database = dbPath
			}

			script, err := os.ReadFile(changeSet)
			if err != nil {
				return fmt.Errorf("reading change-set: %w", err)
			}

			s, err := ws.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.ApplyChangeSet(cmd.Context(), string(script))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tagged %d transactions\n", n)
			ws.record(runlog.Entry{
				RunID:   uuid.NewString(),
				Command: "reconcile apply",
				Source:  changeSet,
				Written: int(n),
			})
			return nil
		},
	}

	cmd.Flags().StringVar(&changeSet, "changeset", "", "change-set written by `finledger reconcile`")
	_ = cmd.MarkFlagRequired("changeset")
	cmd.Flags().StringVar(&dbPath, "db", "", "database path (default: the configured database)")

	return cmd
}

func newReconcileAuditCommand(opts *globalOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List transactions tagged against more than one withdrawal",
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

			findings, err := reconcile.Audit(cmd.Context(), s)
			if err != nil {
				return err
			}
			return reconcile.WriteAudit(cmd.OutOrStdout(), findings)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "database path (default: the configured database)")

	return cmd
}
