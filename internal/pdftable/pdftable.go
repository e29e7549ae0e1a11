// Package pdftable reconstructs table rows from positioned PDF text.
//
// A page is read as a flat list of glyphs. Glyphs inside the configured
// region are grouped into rows by their vertical position, ordered left to
// right, and split into cells wherever the horizontal gap between two glyphs
// exceeds the column gap.
package pdftable

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ledongthuc/pdf"
)

// ErrNoPages is returned when a document has no readable pages.
var ErrNoPages = errors.New("pdf has no pages")

const (
	// DefaultColumnGap is the horizontal gap, in points, that starts a new cell.
	DefaultColumnGap = 8.0
	defaultPageHeight = 842.0 // A4
	rowTolerance      = 2.0
)

// Region is a rectangle in points measured from the top-left corner of the
// page. The zero Region covers the whole page.
type Region struct {
	Top, Left, Bottom, Right float64
}

// RegionFrom converts a [top, left, bottom, right] slice.
func RegionFrom(v []float64) (Region, error) {
	if len(v) == 0 {
		return Region{}, nil
	}
	if len(v) != 4 {
		return Region{}, fmt.Errorf("region needs 4 values, got %d", len(v))
	}
	r := Region{Top: v[0], Left: v[1], Bottom: v[2], Right: v[3]}
	if r.Bottom <= r.Top || r.Right <= r.Left {
		return Region{}, fmt.Errorf("region %v is empty", v)
	}
	return r, nil
}

// IsZero reports whether r is the whole-page region.
func (r Region) IsZero() bool {
	return r == Region{}
}

// Contains reports whether the point lies inside r.
func (r Region) Contains(x, y float64) bool {
	if r.IsZero() {
		return true
	}
	return x >= r.Left && x <= r.Right && y >= r.Top && y <= r.Bottom
}

// Glyph is one run of text with its top-based position.
type Glyph struct {
	X, Y     float64
	W        float64
	FontSize float64
	S        string
}

// Options configures Extract.
type Options struct {
	FirstPage  Region
	OtherPages Region
	ColumnGap  float64
	Password   string
	Logger     *log.Logger
}

// Extract opens the PDF at path and returns the table rows of every page in
// order. Pages that fail to parse are logged and skipped.
func Extract(ctx context.Context, path string, opts Options) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat pdf: %w", err)
	}

	r, err := pdf.NewReaderEncrypted(f, info.Size(), passwordOnce(opts.Password))
	if err != nil {
		return nil, fmt.Errorf("reading pdf %s: %w", path, err)
	}

	n := r.NumPage()
	if n == 0 {
		return nil, ErrNoPages
	}

	gap := opts.ColumnGap
	if gap <= 0 {
		gap = DefaultColumnGap
	}

	var rows [][]string
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		region := opts.OtherPages
		if i == 1 {
			region = opts.FirstPage
		}
		glyphs, err := pageGlyphs(r, i)
		if err != nil {
			if opts.Logger != nil {
				opts.Logger.Warn("skipping pdf page", "path", path, "page", i, "err", err)
			}
			continue
		}
		rows = append(rows, Group(glyphs, region, gap)...)
	}
	return rows, nil
}

func passwordOnce(pw string) func() string {
	used := false
	return func() string {
		if used {
			return ""
		}
		used = true
		return pw
	}
}

// pageGlyphs reads the text of one page, converting y to a top-based
// coordinate. The pdf library panics on some malformed content streams.
func pageGlyphs(r *pdf.Reader, num int) (glyphs []Glyph, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("page %d: %v", num, rec)
		}
	}()

	page := r.Page(num)
	if page.V.IsNull() {
		return nil, fmt.Errorf("page %d: missing", num)
	}

	height := defaultPageHeight
	if box := page.V.Key("MediaBox"); box.Len() == 4 {
		if h := box.Index(3).Float64() - box.Index(1).Float64(); h > 0 {
			height = h
		}
	}

	for _, t := range page.Content().Text {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		glyphs = append(glyphs, Glyph{
			X:        t.X,
			Y:        height - t.Y,
			W:        t.W,
			FontSize: t.FontSize,
			S:        t.S,
		})
	}
	return glyphs, nil
}

// Group turns glyphs into rows of cells. Only glyphs whose origin lies in
// region are kept. Rows are ordered top to bottom.
func Group(glyphs []Glyph, region Region, columnGap float64) [][]string {
	var kept []Glyph
	for _, g := range glyphs {
		if region.Contains(g.X, g.Y) {
			kept = append(kept, g)
		}
	}
	if len(kept) == 0 {
		return nil
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Y < kept[j].Y
	})

	var lines [][]Glyph
	lineY := math.Inf(-1)
	for _, g := range kept {
		if g.Y-lineY > rowTolerance {
			lines = append(lines, nil)
			lineY = g.Y
		}
		lines[len(lines)-1] = append(lines[len(lines)-1], g)
	}

	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		if cells := splitCells(line, columnGap); len(cells) > 0 {
			rows = append(rows, cells)
		}
	}
	return rows
}

func splitCells(line []Glyph, columnGap float64) []string {
	sort.SliceStable(line, func(i, j int) bool {
		return line[i].X < line[j].X
	})

	var cells []string
	var cur strings.Builder
	flush := func() {
		if s := strings.Join(strings.Fields(cur.String()), " "); s != "" {
			cells = append(cells, s)
		}
		cur.Reset()
	}

	for i, g := range line {
		if i > 0 {
			prev := line[i-1]
			gap := g.X - (prev.X + prev.W)
			switch {
			case gap > columnGap:
				flush()
			case gap > spaceWidth(prev):
				cur.WriteByte(' ')
			}
		}
		cur.WriteString(g.S)
	}
	flush()
	return cells
}

func spaceWidth(g Glyph) float64 {
	if g.FontSize > 0 {
		return g.FontSize * 0.2
	}
	return 1
}
