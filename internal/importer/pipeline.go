package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/cleared-dev/finledger/internal/categorize"
	"github.com/cleared-dev/finledger/internal/ledger"
	"github.com/cleared-dev/finledger/internal/model"
	"github.com/cleared-dev/finledger/internal/pdftable"
)

// Side file suffixes written next to the raw statement.
const (
	ModifiedSuffix = "_modified.csv"
	ManualSuffix   = "_manual.csv"
	AutoSuffix     = "_auto.csv"
	OutputSuffix   = "_output.csv"
)

var (
	modifiedHeader = []string{"line", "date", "description", "debit", "credit", "notes", "category", "tags"}
	manualHeader   = []string{"line", "date", "description", "debit", "credit", "reason"}
)

// Report summarizes one adapter run.
type Report struct {
	RunID     string
	Type      string
	Source    string
	Output    string
	Total     int // records produced by the adapter
	Written   int
	Skipped   int // failed validation
	Manual    int // rows in the manual file
	Unmatched int // written as Others
	Ambiguous int
	Noise     int

	ModifiedPath string
	ManualPath   string
	AutoPath     string
}

// String is the one-line run summary.
func (r *Report) String() string {
	return fmt.Sprintf("%s: written=%d skipped=%d manual=%d unmatched=%d ambiguous=%d noise=%d",
		r.Type, r.Written, r.Skipped, r.Manual, r.Unmatched, r.Ambiguous, r.Noise)
}

// Pipeline runs adapters and writes their output.
type Pipeline struct {
	engine *categorize.Engine
	vocab  *model.Vocabulary
	logger *log.Logger

	// PDF holds extraction options keyed by account type.
	PDF map[string]pdftable.Options
}

// NewPipeline creates a Pipeline classifying with engine.
func NewPipeline(engine *categorize.Engine, vocab *model.Vocabulary, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Pipeline{
		engine: engine,
		vocab:  vocab,
		logger: logger,
		PDF:    make(map[string]pdftable.Options),
	}
}

// OutputPath is the default ledger path for a raw file.
func OutputPath(rawPath string) string {
	return basePath(rawPath) + OutputSuffix
}

func basePath(rawPath string) string {
	return strings.TrimSuffix(rawPath, filepath.Ext(rawPath))
}

func isSideFile(name string) bool {
	for _, s := range []string{ModifiedSuffix, ManualSuffix, AutoSuffix, OutputSuffix} {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// Adapt converts rawPath with adapter and appends the rows to outputPath.
// Row problems are counted and routed to the manual side file; only input
// level problems return an error.
func (p *Pipeline) Adapt(ctx context.Context, adapter Adapter, rawPath, outputPath string) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(rawPath); err != nil {
		return nil, fmt.Errorf("raw file: %w", err)
	}

	kind, err := DetectKind(rawPath)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(adapter.Kinds(), kind) {
		return nil, fmt.Errorf("%w: %s does not read %s files", ErrUnsupportedKind, adapter.Type(), kind)
	}

	opts := p.PDF[adapter.Type()]
	if opts.Logger == nil {
		opts.Logger = p.logger
	}
	doc, err := ReadDocument(ctx, rawPath, kind, opts)
	if err != nil {
		return nil, err
	}

	records, err := adapter.Records(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", adapter.Type(), err)
	}

	report := &Report{
		RunID:  uuid.NewString(),
		Type:   adapter.Type(),
		Source: rawPath,
		Output: outputPath,
		Total:  len(records),
		Noise:  doc.Noise(),
	}
	p.logger.Info("adapting statement", "run", report.RunID, "type", adapter.Type(), "path", rawPath, "kind", kind, "records", len(records))

	var (
		txns   []model.Transaction
		auto   []model.Transaction
		manual [][]string
	)
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		txn, err := ValidateRecord(rec, adapter.Account(), adapter.DateLayouts())
		if err != nil {
			report.Skipped++
			manual = append(manual, manualRow(rec, err.Error()))
			p.logger.Debug("row rejected", "type", adapter.Type(), "err", err)
			continue
		}

		res := p.engine.Classify(rec.Description)

		if rec.Category != "" {
			category, ok := p.vocab.Resolve(rec.Category)
			if !ok {
				report.Skipped++
				manual = append(manual, manualRow(rec, fmt.Sprintf("unknown category %q", rec.Category)))
				continue
			}
			txn.Category = category
			txn.Tags = rec.Tags
			txn.Notes = rec.Notes
			if txn.Notes == "" && res.Matched() {
				txn.Notes = res.Notes
			}
		} else {
			if res.Ambiguous {
				report.Ambiguous++
			}
			txn.Category = res.Category
			txn.Tags = res.Tags
			txn.Notes = joinNotes(rec.Notes, res.Notes)
			if res.Matched() {
				auto = append(auto, txn)
			} else {
				report.Unmatched++
				manual = append(manual, manualRow(rec, "no rule matched"))
			}
		}
		txns = append(txns, txn)
	}
	report.Manual = len(manual)

	if err := p.writeSideFiles(report, records, manual, auto); err != nil {
		return nil, err
	}
	if err := ledger.Append(outputPath, txns); err != nil {
		return nil, fmt.Errorf("writing ledger: %w", err)
	}
	report.Written = len(txns)

	p.logger.Info("statement adapted", "run", report.RunID, "written", report.Written,
		"skipped", report.Skipped, "unmatched", report.Unmatched, "ambiguous", report.Ambiguous)
	return report, nil
}

func joinNotes(extra, classified string) string {
	switch {
	case extra == "":
		return classified
	case classified == "":
		return extra
	}
	return extra + "; " + classified
}

func manualRow(rec Record, reason string) []string {
	return []string{strconv.Itoa(rec.Line), rec.Date, rec.Description, rec.Debit, rec.Credit, reason}
}

func (p *Pipeline) writeSideFiles(report *Report, records []Record, manual [][]string, auto []model.Transaction) error {
	base := basePath(report.Source)

	modified := make([][]string, 0, len(records))
	for _, r := range records {
		modified = append(modified, []string{strconv.Itoa(r.Line), r.Date, r.Description, r.Debit, r.Credit, r.Notes, r.Category, r.Tags})
	}
	report.ModifiedPath = base + ModifiedSuffix
	if err := writeTable(report.ModifiedPath, modifiedHeader, modified); err != nil {
		return err
	}

	if len(manual) > 0 {
		report.ManualPath = base + ManualSuffix
		if err := writeTable(report.ManualPath, manualHeader, manual); err != nil {
			return err
		}
	}

	if len(auto) > 0 {
		report.AutoPath = base + AutoSuffix
		if err := ledger.WriteFile(report.AutoPath, auto); err != nil {
			return fmt.Errorf("writing %s: %w", filepath.Base(report.AutoPath), err)
		}
	}
	return nil
}

func writeTable(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
