package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finledger/internal/importer"
	"github.com/cleared-dev/finledger/internal/runlog"
)

func newAdaptCommand(opts *globalOptions) *cobra.Command {
	var accountType, rawPath, outputPath string
	var archive bool

	cmd := &cobra.Command{
		Use:   "adapt",
		Short: "Convert a raw statement into ledger rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			adapter, err := importer.DefaultRegistry().Lookup(accountType)
			if err != nil {
				return err
			}
			engine, err := ws.engine()
			if err != nil {
				return err
			}
			pdfOpts, err := ws.pdfOptions()
			if err != nil {
				return err
			}

			raw, err := filepath.Abs(rawPath)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			output := outputPath
			switch {
			case output != "":
			case ws.configured:
				output = ws.cfg.Ledger
			default:
				output = importer.OutputPath(raw)
			}

			pipeline := importer.NewPipeline(engine, ws.vocab, ws.logger)
			pipeline.PDF = pdfOpts

			report, err := pipeline.Adapt(cmd.Context(), adapter, raw, output)
			if err != nil {
				return fmt.Errorf("adapting %s: %w", filepath.Base(raw), err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, report)
			fmt.Fprintf(out, "ledger: %s\n", report.Output)
			if report.ManualPath != "" {
				fmt.Fprintf(out, "manual review: %s\n", report.ManualPath)
			}

			if archive {
				moved, err := importer.MarkProcessed(raw)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "archived: %s\n", moved)
			}

			ws.record(runlog.Entry{
				RunID:     report.RunID,
				Command:   "adapt " + adapter.Type(),
				Source:    raw,
				Written:   report.Written,
				Skipped:   report.Skipped,
				Manual:    report.Manual,
				Ambiguous: report.Ambiguous,
			})
			ws.commit(cmd.Context(), fmt.Sprintf("adapt: %s %s (%d rows)", adapter.Type(), filepath.Base(raw), report.Written),
				report.Output, ws.cfg.LogDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&accountType, "type", "", "account type, see `finledger types`")
	_ = cmd.MarkFlagRequired("type")
	cmd.Flags().StringVar(&rawPath, "path", "", "raw statement file")
	_ = cmd.MarkFlagRequired("path")
	cmd.Flags().StringVar(&outputPath, "output", "", "ledger to append to (default: the configured ledger)")
	cmd.Flags().BoolVar(&archive, "archive", false, "move the raw file into processed/ after a successful run")

	return cmd
}

func newTypesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List supported account types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := importer.DefaultRegistry()
			for _, t := range reg.Types() {
				a := reg.Get(t)
				fmt.Fprintf(cmd.OutOrStdout(), "%-28s %-22s %v\n", t, a.Account(), a.Kinds())
			}
			return nil
		},
	}
}

func newInboxCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inbox",
		Short: "List raw statements waiting in import/",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			files, err := importer.Scan(ws.root)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintln(out, "import/ is empty")
				return nil
			}
			for _, f := range files {
				fmt.Fprintf(out, "%s\t%d bytes\n", f.Name, f.Size)
			}
			return nil
		},
	}
}
