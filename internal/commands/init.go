package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finledger/internal/categorize"
	"github.com/cleared-dev/finledger/internal/config"
	"github.com/cleared-dev/finledger/internal/gitops"
	"github.com/cleared-dev/finledger/internal/importer"
)

// starterRules seed config/category_mapping.csv.
var starterRules = []categorize.Rule{
	{Keyword: "salary", Category: "Salary"},
	{Keyword: "interest", Category: "Interest"},
	{Keyword: "atm wdl", Category: "ATM Withdrawal"},
	{Keyword: "atm withdrawal", Category: "ATM Withdrawal"},
	{Keyword: "swiggy", Category: "Food & Dining"},
	{Keyword: "zomato", Category: "Food & Dining"},
	{Keyword: "bigbasket", Category: "Groceries"},
	{Keyword: "amazon", Category: "Shopping"},
	{Keyword: "uber", Category: "Travel"},
	{Keyword: "petrol", Category: "Fuel"},
	{Keyword: "netflix", Category: "Entertainment"},
	{Keyword: "electricity", Category: "Bills"},
}

func newInitCommand() *cobra.Command {
	var useGit bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new finance workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.Context(), cmd.OutOrStdout(), absDir, useGit)
		},
	}

	cmd.Flags().BoolVar(&useGit, "git", false, "initialize a git repository and commit ledger changes automatically")

	return cmd
}

func runInit(ctx context.Context, out io.Writer, dir string, useGit bool) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	dirs := []string{
		"config",
		"ledger",
		"logs",
		importer.ImportDir,
		filepath.Join(importer.ImportDir, "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfg := config.Default()
	cfg.Git.AutoCommit = useGit
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, cfg.Rules))
	if err != nil {
		return fmt.Errorf("writing rules: %w", err)
	}
	if err := categorize.WriteRules(f, starterRules); err != nil {
		f.Close()
		return fmt.Errorf("writing rules: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing rules: %w", err)
	}

	// Raw statements and secrets stay out of version control.
	gitignore := ".env\n*.db\nimport/\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	if useGit {
		if err := gitops.Init(ctx, dir); err != nil {
			return err
		}
		author := gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
		hash, err := gitops.Commit(ctx, dir, "init: finledger workspace", author)
		if err != nil {
			return fmt.Errorf("initial commit: %w", err)
		}
		fmt.Fprintf(out, "Initialized finance workspace at %s (%s)\n", dir, hash)
		return nil
	}

	fmt.Fprintf(out, "Initialized finance workspace at %s\n", dir)
	return nil
}
