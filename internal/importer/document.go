package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"

	"github.com/cleared-dev/finledger/internal/pdftable"
)

// Kind is the physical format of a statement file.
type Kind string

const (
	KindCSV  Kind = "csv" // comma or tab delimited text
	KindXLS  Kind = "xls"
	KindXLSX Kind = "xlsx"
	KindPDF  Kind = "pdf"
)

// DetectKind sniffs the content of path. The extension only breaks ties
// between spreadsheets and the container formats they share.
func DetectKind(path string) (Kind, error) {
	m, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("detecting file kind: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))

	for mt := m; mt != nil; mt = mt.Parent() {
		switch {
		case mt.Is("application/pdf"):
			return KindPDF, nil
		case mt.Is("application/vnd.ms-excel"):
			return KindXLS, nil
		case mt.Is("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"):
			return KindXLSX, nil
		case mt.Is("application/x-ole-storage") && ext == ".xls":
			return KindXLS, nil
		case mt.Is("application/zip") && ext == ".xlsx":
			return KindXLSX, nil
		case mt.Is("text/plain"):
			return KindCSV, nil
		}
	}
	return "", fmt.Errorf("%w: %s is %s", ErrUnsupportedKind, filepath.Base(path), m.String())
}

// Row is one raw row with its 1-based position in the source.
type Row struct {
	Line  int
	Cells []string
}

// Blank reports whether every cell is empty.
func (r Row) Blank() bool {
	for _, c := range r.Cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Cell returns the trimmed cell at i, or "" when the row is short.
func (r Row) Cell(i int) string {
	if i < 0 || i >= len(r.Cells) {
		return ""
	}
	return strings.TrimSpace(r.Cells[i])
}

// NonEmpty returns the trimmed non-empty cells in order.
func (r Row) NonEmpty() []string {
	var out []string
	for _, c := range r.Cells {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// Document is a statement read into rows of text cells.
type Document struct {
	Path  string
	Kind  Kind
	Rows  []Row
	noise int
}

// MarkNoise counts a row an adapter ignored as layout decoration.
func (d *Document) MarkNoise() { d.noise++ }

// Noise returns how many rows were ignored as decoration.
func (d *Document) Noise() int { return d.noise }

// ReadDocument reads path as the given kind. pdfOpts is used only for PDFs.
func ReadDocument(ctx context.Context, path string, kind Kind, pdfOpts pdftable.Options) (*Document, error) {
	var (
		rows []Row
		err  error
	)
	switch kind {
	case KindCSV:
		rows, err = readDelimited(path)
	case KindXLS:
		rows, err = readXLS(path)
	case KindXLSX:
		rows, err = readXLSX(path)
	case KindPDF:
		rows, err = readPDF(ctx, path, pdfOpts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}
	if err != nil {
		return nil, err
	}
	return &Document{Path: path, Kind: kind, Rows: rows}, nil
}

func readDelimited(path string) ([]Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows []Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, Row{Line: line, Cells: rec})
	}
	return rows, nil
}

// sniffDelimiter picks tab when the first lines hold more tabs than commas.
func sniffDelimiter(data []byte) rune {
	sample := data
	if len(sample) > 4096 {
		sample = sample[:4096]
	}
	if bytes.Count(sample, []byte{'\t'}) > bytes.Count(sample, []byte{','}) {
		return '\t'
	}
	return ','
}

func readXLS(path string) ([]Row, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("opening xls %s: %w", filepath.Base(path), err)
	}
	if wb.NumSheets() == 0 {
		return nil, fmt.Errorf("xls %s has no sheets", filepath.Base(path))
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("xls %s: could not read first sheet", filepath.Base(path))
	}

	var rows []Row
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for j := 0; j < row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		rows = append(rows, Row{Line: i + 1, Cells: cells})
	}
	return rows, nil
}

func readXLSX(path string) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening xlsx %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx %s has no sheets", filepath.Base(path))
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading xlsx %s: %w", filepath.Base(path), err)
	}

	rows := make([]Row, 0, len(records))
	for i, rec := range records {
		rows = append(rows, Row{Line: i + 1, Cells: rec})
	}
	return rows, nil
}

func readPDF(ctx context.Context, path string, opts pdftable.Options) ([]Row, error) {
	table, err := pdftable.Extract(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(table))
	for i, cells := range table {
		rows = append(rows, Row{Line: i + 1, Cells: cells})
	}
	return rows, nil
}

// Column names one logical field and the header spellings it accepts.
type Column struct {
	Key      string
	Names    []string
	Optional bool
}

// maxHeaderScan bounds how far into a document a header row is searched.
const maxHeaderScan = 64

// Table addresses the rows below a located header by column key.
type Table struct {
	doc    *Document
	header int
	index  map[string]int
}

// Locate finds the first row holding every required column. Rows above it
// are preamble.
func (d *Document) Locate(cols ...Column) (*Table, error) {
	for i, row := range d.Rows {
		if i >= maxHeaderScan {
			break
		}
		names := make(map[string]int, len(row.Cells))
		for j, c := range row.Cells {
			n := normalizeHeader(c)
			if _, dup := names[n]; !dup && n != "" {
				names[n] = j
			}
		}

		index := make(map[string]int)
		complete := true
		for _, col := range cols {
			pos, ok := findColumn(names, col.Names)
			if ok {
				index[col.Key] = pos
			} else if !col.Optional {
				complete = false
				break
			}
		}
		if complete {
			return &Table{doc: d, header: i, index: index}, nil
		}
	}

	var want []string
	for _, col := range cols {
		if !col.Optional {
			want = append(want, col.Names[0])
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(want, ", "))
}

func findColumn(names map[string]int, aliases []string) (int, bool) {
	for _, a := range aliases {
		if pos, ok := names[normalizeHeader(a)]; ok {
			return pos, true
		}
	}
	return 0, false
}

func normalizeHeader(s string) string {
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))
	return strings.TrimRight(s, "*: ")
}

// Has reports whether the header held the column.
func (t *Table) Has(key string) bool {
	_, ok := t.index[key]
	return ok
}

// Get returns the trimmed cell of row for the column key.
func (t *Table) Get(r Row, key string) string {
	pos, ok := t.index[key]
	if !ok {
		return ""
	}
	return r.Cell(pos)
}

// Rows returns the rows below the header. Blank rows and rows starting with
// an asterisk (separator and footer lines) are counted as noise and dropped.
func (t *Table) Rows() []Row {
	var out []Row
	for _, r := range t.doc.Rows[t.header+1:] {
		if isDecoration(r) {
			t.doc.MarkNoise()
			continue
		}
		out = append(out, r)
	}
	return out
}

func isDecoration(r Row) bool {
	cells := r.NonEmpty()
	return len(cells) == 0 || strings.HasPrefix(cells[0], "*")
}
