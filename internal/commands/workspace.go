package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cleared-dev/finledger/internal/categorize"
	"github.com/cleared-dev/finledger/internal/config"
	"github.com/cleared-dev/finledger/internal/gitops"
	"github.com/cleared-dev/finledger/internal/logging"
	"github.com/cleared-dev/finledger/internal/model"
	"github.com/cleared-dev/finledger/internal/pdftable"
	"github.com/cleared-dev/finledger/internal/runlog"
	"github.com/cleared-dev/finledger/internal/store"
)

// workspace is the loaded configuration plus everything derived from it.
type workspace struct {
	root       string
	configured bool // finance.yaml exists
	cfg        *config.Config
	vocab      *model.Vocabulary
	logger     *log.Logger
}

func loadWorkspace(opts *globalOptions, stderr io.Writer) (*workspace, error) {
	path, err := filepath.Abs(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}
	_, statErr := os.Stat(path)
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	root := filepath.Dir(path)
	cfg.Resolve(root)

	level := cfg.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	return &workspace{
		root:       root,
		configured: statErr == nil,
		cfg:        cfg,
		vocab:      model.NewVocabulary(cfg.Categories...),
		logger:     logging.New(stderr, level),
	}, nil
}

func (w *workspace) engine() (*categorize.Engine, error) {
	rules, err := categorize.LoadRulesFile(w.cfg.Rules, w.vocab)
	if err != nil {
		return nil, err
	}
	mode, err := categorize.ParseMode(w.cfg.MatchMode)
	if err != nil {
		return nil, err
	}
	return categorize.NewEngine(rules, mode, w.logger)
}

// pdfOptions builds extraction options per account type. Passwords are read
// from the environment variable each layout names.
func (w *workspace) pdfOptions() (map[string]pdftable.Options, error) {
	out := make(map[string]pdftable.Options, len(w.cfg.PDF))
	for accountType, layout := range w.cfg.PDF {
		first, err := pdftable.RegionFrom(layout.FirstPage)
		if err != nil {
			return nil, fmt.Errorf("pdf layout %s: %w", accountType, err)
		}
		other, err := pdftable.RegionFrom(layout.OtherPages)
		if err != nil {
			return nil, fmt.Errorf("pdf layout %s: %w", accountType, err)
		}
		opts := pdftable.Options{
			FirstPage:  first,
			OtherPages: other,
			ColumnGap:  layout.ColumnGap,
			Logger:     w.logger,
		}
		if layout.PasswordEnv != "" {
			opts.Password = os.Getenv(layout.PasswordEnv)
		}
		out[accountType] = opts
	}
	return out, nil
}

func (w *workspace) openStore() (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(w.cfg.Database), 0o755); err != nil {
		return nil, fmt.Errorf("creating database dir: %w", err)
	}
	s, err := store.Open(w.cfg.Database)
	if err != nil {
		return nil, err
	}
	s.CashAccount = model.Account(w.cfg.Reconcile.CashAccount)
	s.WithdrawalCategory = w.cfg.Reconcile.WithdrawalCategory
	return s, nil
}

// record appends a run log row. Failures are logged, never fatal.
func (w *workspace) record(e runlog.Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if err := runlog.Append(runlog.Path(w.cfg.LogDir), []runlog.Entry{e}); err != nil {
		w.logger.Warn("failed to write run log", "err", err)
	}
}

// commit records paths in git when auto_commit is on and the workspace is a repository.
func (w *workspace) commit(ctx context.Context, message string, paths ...string) {
	if !w.cfg.Git.AutoCommit || !gitops.IsRepo(w.root) {
		return
	}
	author := gitops.Author{Name: w.cfg.Git.AuthorName, Email: w.cfg.Git.AuthorEmail}
	hash, err := gitops.Commit(ctx, w.root, message, author, paths...)
	switch {
	case errors.Is(err, gitops.ErrNoChanges):
		w.logger.Debug("nothing to commit", "message", message)
	case err != nil:
		w.logger.Warn("git commit failed", "err", err)
	default:
		w.logger.Info("committed", "hash", hash, "message", message)
	}
}
