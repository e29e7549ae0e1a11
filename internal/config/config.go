package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// FileName is the default configuration file name.
const FileName = "finance.yaml"

// Config represents the top-level finance.yaml configuration.
type Config struct {
	Ledger     string               `yaml:"ledger"`
	Rules      string               `yaml:"rules"`
	Database   string               `yaml:"database"`
	LogDir     string               `yaml:"log_dir"`
	LogLevel   string               `yaml:"log_level"`
	MatchMode  string               `yaml:"match_mode"`
	Categories []string             `yaml:"categories,omitempty"`
	Reconcile  ReconcileConfig      `yaml:"reconcile"`
	Git        GitConfig            `yaml:"git"`
	PDF        map[string]PDFLayout `yaml:"pdf,omitempty"`
}

// ReconcileConfig holds defaults for the cash reconciliation job.
type ReconcileConfig struct {
	Tolerance          string `yaml:"tolerance"`
	CashAccount        string `yaml:"cash_account"`
	WithdrawalCategory string `yaml:"withdrawal_category"`
}

// GitConfig controls committing ledger changes when the workspace is a git repository.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// PDFLayout describes where the transaction table sits on a statement page.
// Regions are [top, left, bottom, right] in points measured from the top-left corner.
type PDFLayout struct {
	FirstPage   []float64 `yaml:"first_page"`
	OtherPages  []float64 `yaml:"other_pages"`
	PasswordEnv string    `yaml:"password_env,omitempty"`
	ColumnGap   float64   `yaml:"column_gap,omitempty"`
}

// Load reads a finance.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault reads path, falling back to Default when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Ledger:    filepath.Join("ledger", "transactions.csv"),
		Rules:     filepath.Join("config", "category_mapping.csv"),
		Database:  "finance.db",
		LogDir:    "logs",
		LogLevel:  "info",
		MatchMode: "word",
		Reconcile: ReconcileConfig{
			Tolerance:          "100",
			CashAccount:        "Cash",
			WithdrawalCategory: "ATM Withdrawal",
		},
		Git: GitConfig{
			AuthorName:  "finledger",
			AuthorEmail: "finledger@localhost",
		},
		PDF: map[string]PDFLayout{
			"AXIS_CREDIT_CARD": {
				FirstPage:   []float64{310, 30, 618, 590},
				OtherPages:  []float64{310, 30, 618, 590},
				PasswordEnv: "AXIS_CREDIT_CARD_PASSWORD",
			},
			"HDFC_TATA_NEU_CREDIT_CARD": {
				FirstPage:   []float64{744, 162, 800, 562},
				OtherPages:  []float64{262, 18, 432, 558},
				PasswordEnv: "HDFC_CREDIT_CARD_PASSWORD",
			},
		},
	}
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	switch strings.ToLower(c.MatchMode) {
	case "word", "substring":
	default:
		return fmt.Errorf("invalid match_mode %q: want word or substring", c.MatchMode)
	}
	if _, err := c.Tolerance(); err != nil {
		return err
	}
	for name, layout := range c.PDF {
		if len(layout.FirstPage) != 4 || len(layout.OtherPages) != 4 {
			return fmt.Errorf("pdf layout %s: regions need 4 coordinates", name)
		}
	}
	return nil
}

// Tolerance returns the reconciliation tolerance as a decimal.
func (c *Config) Tolerance() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.Reconcile.Tolerance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing reconcile.tolerance %q: %w", c.Reconcile.Tolerance, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("reconcile.tolerance must not be negative, got %s", d)
	}
	return d, nil
}

// Resolve makes relative paths absolute against baseDir.
func (c *Config) Resolve(baseDir string) {
	for _, p := range []*string{&c.Ledger, &c.Rules, &c.Database, &c.LogDir} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(baseDir, *p)
		}
	}
}

// Layout returns the PDF layout registered for an account type.
func (c *Config) Layout(accountType string) (PDFLayout, bool) {
	l, ok := c.PDF[strings.ToUpper(accountType)]
	return l, ok
}
