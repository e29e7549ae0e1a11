// Package importer turns issuer statement files into canonical ledger rows.
package importer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cleared-dev/finledger/internal/model"
	"github.com/cleared-dev/finledger/internal/pdftable"
)

var (
	// ErrUnsupportedKind is returned when a file's detected kind is not one
	// the adapter reads.
	ErrUnsupportedKind = errors.New("unsupported file kind")
	// ErrMissingColumns is returned when no header row with the required
	// columns is found.
	ErrMissingColumns = errors.New("missing required columns")
	// ErrUnknownType is returned for an account type with no adapter.
	ErrUnknownType = errors.New("unknown account type")
	// ErrNoPages is returned for a PDF without pages.
	ErrNoPages = pdftable.ErrNoPages
)

// Adapter converts one issuer's statement layout into records.
type Adapter interface {
	// Type is the account type key, e.g. HDFC_BANK_ACCOUNT.
	Type() string
	Account() model.Account
	Kinds() []Kind
	// DateLayouts are the issuer's native date layouts, tried in order.
	DateLayouts() []string
	Records(doc *Document) ([]Record, error)
}

// Registry holds adapters keyed by account type.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter. Panics on duplicate type.
func (r *Registry) Register(a Adapter) {
	key := strings.ToUpper(a.Type())
	if _, ok := r.adapters[key]; ok {
		panic("duplicate adapter type: " + key)
	}
	r.adapters[key] = a
}

// Get returns the adapter for an account type, or nil.
func (r *Registry) Get(accountType string) Adapter {
	return r.adapters[strings.ToUpper(strings.TrimSpace(accountType))]
}

// Lookup is Get with an ErrUnknownType error.
func (r *Registry) Lookup(accountType string) (Adapter, error) {
	a := r.Get(accountType)
	if a == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, accountType)
	}
	return a, nil
}

// Types lists registered account types in sorted order.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.adapters))
	for k := range r.adapters {
		types = append(types, k)
	}
	sort.Strings(types)
	return types
}

// DefaultRegistry returns a registry with every built-in adapter.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&HDFCBankAdapter{})
	r.Register(&KotakBankAdapter{})
	r.Register(&SBIBankAdapter{})
	r.Register(&EquitasBankAdapter{})
	r.Register(&IDFCBankAdapter{})
	r.Register(&HDFCCardAdapter{})
	r.Register(&HDFCUPICardAdapter{})
	r.Register(&TataNeuCardAdapter{})
	r.Register(&SBICardAdapter{})
	r.Register(&ICICICardAdapter{})
	r.Register(&KotakCardAdapter{})
	r.Register(&AxisCardAdapter{})
	r.Register(&FastagAdapter{})
	r.Register(&CashAdapter{})
	return r
}

// ImportDir is the inbox for raw statements, relative to the workspace.
const ImportDir = "import"

// processedDir is the archive beside an imported file.
const processedDir = "processed"

// FileInfo describes a statement waiting in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

var statementExts = map[string]bool{".csv": true, ".tsv": true, ".txt": true, ".xls": true, ".xlsx": true, ".pdf": true}

// Scan returns statement files in <root>/import/. Generated side files are
// left out.
func Scan(root string) ([]FileInfo, error) {
	dir := filepath.Join(root, ImportDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !statementExts[strings.ToLower(filepath.Ext(name))] || isSideFile(name) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", name, err)
		}
		files = append(files, FileInfo{
			Name: name,
			Path: filepath.Join(dir, name),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a raw file into the processed/ directory beside it and
// returns the new path.
func MarkProcessed(path string) (string, error) {
	dstDir := filepath.Join(filepath.Dir(path), processedDir)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return "", fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, filepath.Base(path))
	if err := os.Rename(path, dst); err != nil {
		return "", fmt.Errorf("moving %s to processed: %w", filepath.Base(path), err)
	}
	return dst, nil
}
