package importer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cleared-dev/finledger/internal/model"
)

// markerRecords reads tables with one amount column and a Debit / Credit
// marker column. Notes come from the notes column when the table has one.
func markerRecords(doc *Document, cols []Column, notes func(*Table, Row) string) ([]Record, error) {
	t, err := doc.Locate(cols...)
	if err != nil {
		return nil, err
	}
	var recs []Record
	for _, r := range t.Rows() {
		rec := Record{
			Line:        r.Line,
			Date:        t.Get(r, keyDate),
			Description: t.Get(r, keyDesc),
		}
		rec.Debit, rec.Credit, err = SplitMarker(t.Get(r, keyAmount), t.Get(r, keyMarker))
		if err != nil {
			rec.Problem = err.Error()
		}
		if notes != nil {
			rec.Notes = notes(t, r)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func hdfcCardColumns(extra ...Column) []Column {
	return append([]Column{
		col(keyDate, "DATE", "Date"),
		col(keyDesc, "Description"),
		col(keyAmount, "AMT", "Amount"),
		col(keyMarker, "Debit / Credit"),
	}, extra...)
}

// HDFCCardAdapter reads HDFC credit card CSV exports.
type HDFCCardAdapter struct{}

func (a *HDFCCardAdapter) Type() string           { return "HDFC_CREDIT_CARD" }
func (a *HDFCCardAdapter) Account() model.Account { return model.AccountHDFCCard }
func (a *HDFCCardAdapter) Kinds() []Kind          { return []Kind{KindCSV} }
func (a *HDFCCardAdapter) DateLayouts() []string  { return []string{"02/01/2006"} }

func (a *HDFCCardAdapter) Records(doc *Document) ([]Record, error) {
	return markerRecords(doc, hdfcCardColumns(), nil)
}

// HDFCUPICardAdapter reads the HDFC RuPay UPI card export, which adds a
// time of day and NeuCoins earned.
type HDFCUPICardAdapter struct{}

func (a *HDFCUPICardAdapter) Type() string           { return "HDFC_UPI_CREDIT_CARD" }
func (a *HDFCUPICardAdapter) Account() model.Account { return model.AccountHDFCCard }
func (a *HDFCUPICardAdapter) Kinds() []Kind          { return []Kind{KindCSV} }
func (a *HDFCUPICardAdapter) DateLayouts() []string {
	return []string{"02/01/2006 15:04:05", "02/01/2006"}
}

func (a *HDFCUPICardAdapter) Records(doc *Document) ([]Record, error) {
	return markerRecords(doc, hdfcCardColumns(opt(keyNotes, "Base NeuCoins")), neuCoins)
}

func neuCoins(t *Table, r Row) string {
	v := t.Get(r, keyNotes)
	d, ok, err := ParseAmount(v)
	if !ok || err != nil || d.IsZero() {
		return ""
	}
	return "NeuCoins: " + v
}

// TataNeuCardAdapter reads the HDFC Tata Neu card as a CSV export or as the
// monthly PDF statement.
type TataNeuCardAdapter struct{}

func (a *TataNeuCardAdapter) Type() string           { return "HDFC_TATA_NEU_CREDIT_CARD" }
func (a *TataNeuCardAdapter) Account() model.Account { return model.AccountHDFCCard }
func (a *TataNeuCardAdapter) Kinds() []Kind          { return []Kind{KindCSV, KindPDF} }
func (a *TataNeuCardAdapter) DateLayouts() []string {
	return []string{"02/01/2006 15:04", "02/01/2006 15:04:05", "02/01/2006"}
}

func (a *TataNeuCardAdapter) Records(doc *Document) ([]Record, error) {
	if doc.Kind != KindPDF {
		return markerRecords(doc, hdfcCardColumns(opt(keyNotes, "Base NeuCoins", "NeuCoins")), neuCoins)
	}

	var recs []Record
	for _, r := range doc.Rows {
		rec, ok := tataNeuRow(r)
		if !ok {
			doc.MarkNoise()
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

var (
	leadingDigit = regexp.MustCompile(`^\d`)
	timeCell     = regexp.MustCompile(`^\|?\s*\d{1,2}:\d{2}`)
	rupeeGlyph   = regexp.MustCompile(`(?i)\s*c\s*`)
)

// tataNeuRow reads a PDF row laid out as date & time, description,
// optional NeuCoins, amount. A "+" on the amount marks a credit and the
// rupee sign is rendered as a lone C.
func tataNeuRow(r Row) (Record, bool) {
	var cells []string
	for _, c := range r.NonEmpty() {
		if strings.EqualFold(c, "EMI") {
			continue
		}
		cells = append(cells, c)
	}
	if len(cells) < 3 || !leadingDigit.MatchString(cells[0]) {
		return Record{}, false
	}
	if timeCell.MatchString(cells[1]) {
		cells = append([]string{cells[0] + " " + cells[1]}, cells[2:]...)
		if len(cells) < 3 {
			return Record{}, false
		}
	}

	rec := Record{
		Line:        r.Line,
		Date:        cells[0],
		Description: cells[1],
	}
	if len(cells) > 3 {
		if v := strings.Join(strings.Fields(cells[2]), ""); v != "" {
			rec.Notes = "NeuCoins: " + v
		}
	}

	raw := cells[len(cells)-1]
	amount := strings.TrimSpace(strings.ReplaceAll(rupeeGlyph.ReplaceAllString(raw, ""), "+", ""))
	if strings.Contains(raw, "+") {
		rec.Credit = amount
	} else {
		rec.Debit = amount
	}
	return rec, true
}

// SBICardAdapter reads SBI card CSV exports. Forex markup and tax lines are
// printed without a date under the purchase they belong to.
type SBICardAdapter struct{}

func (a *SBICardAdapter) Type() string           { return "SBI_CREDIT_CARD" }
func (a *SBICardAdapter) Account() model.Account { return model.AccountSBICard }
func (a *SBICardAdapter) Kinds() []Kind          { return []Kind{KindCSV} }
func (a *SBICardAdapter) DateLayouts() []string  { return []string{"02 Jan 06", "2 Jan 06", "02 Jan 2006"} }

func (a *SBICardAdapter) Records(doc *Document) ([]Record, error) {
	t, err := doc.Locate(
		col(keyDate, "Date", "Transaction Date"),
		col(keyDesc, "Transaction Details", "Description"),
		col(keyAmount, "Amount", "Amount (Rs.)", "Amount (₹)"),
		col(keyMarker, "Type", "Dr/Cr"),
	)
	if err != nil {
		return nil, err
	}

	var recs []Record
	lastDate := ""
	for _, r := range t.Rows() {
		rec := Record{
			Line:        r.Line,
			Date:        t.Get(r, keyDate),
			Description: t.Get(r, keyDesc),
		}
		if rec.Date == "" {
			if lastDate == "" || !isContinuation(rec.Description) {
				doc.MarkNoise()
				continue
			}
			rec.Date = lastDate
		}
		lastDate = rec.Date

		rec.Debit, rec.Credit, err = SplitMarker(t.Get(r, keyAmount), t.Get(r, keyMarker))
		if err != nil {
			rec.Problem = err.Error()
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func isContinuation(desc string) bool {
	d := strings.ToLower(desc)
	return strings.Contains(d, "markup") || strings.Contains(d, "forgn") || strings.Contains(d, "igst")
}

// suffixRecords reads tables whose amount carries a trailing Dr or Cr.
func suffixRecords(doc *Document, cols []Column, notes func(*Table, Row) string) ([]Record, error) {
	t, err := doc.Locate(cols...)
	if err != nil {
		return nil, err
	}
	var recs []Record
	for _, r := range t.Rows() {
		rec := Record{
			Line:        r.Line,
			Date:        t.Get(r, keyDate),
			Description: t.Get(r, keyDesc),
		}
		rec.Debit, rec.Credit, _ = SplitSuffix(t.Get(r, keyAmount), model.Debit)
		applyOverrides(t, r, &rec)
		if notes != nil && rec.Notes == "" {
			rec.Notes = notes(t, r)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// ICICICardAdapter reads ICICI card CSV exports; credits end in "Cr".
type ICICICardAdapter struct{}

func (a *ICICICardAdapter) Type() string           { return "ICICI_CREDIT_CARD" }
func (a *ICICICardAdapter) Account() model.Account { return model.AccountICICICard }
func (a *ICICICardAdapter) Kinds() []Kind          { return []Kind{KindCSV} }
func (a *ICICICardAdapter) DateLayouts() []string  { return []string{"02/01/2006", "2 Jan 06"} }

func (a *ICICICardAdapter) Records(doc *Document) ([]Record, error) {
	return suffixRecords(doc, withOverrides(
		col(keyDate, "Date", "Transaction Date"),
		col(keyDesc, "Transaction Details", "Details"),
		col(keyAmount, "Amount", "Amount (in Rs.)", "Amount (Rs.)"),
	), nil)
}

// KotakCardAdapter reads Kotak card CSV exports; credits end in "Cr" and
// the spends area is kept in notes.
type KotakCardAdapter struct{}

func (a *KotakCardAdapter) Type() string           { return "KOTAK_CREDIT_CARD" }
func (a *KotakCardAdapter) Account() model.Account { return model.AccountKotakCard }
func (a *KotakCardAdapter) Kinds() []Kind          { return []Kind{KindCSV} }
func (a *KotakCardAdapter) DateLayouts() []string  { return []string{"02/01/2006"} }

func (a *KotakCardAdapter) Records(doc *Document) ([]Record, error) {
	return suffixRecords(doc, []Column{
		col(keyDate, "Date"),
		col(keyDesc, "Transaction details", "Transaction Details"),
		col(keyAmount, "Amount (Rs.)", "Amount"),
		opt("area", "Spends Area"),
	}, func(t *Table, r Row) string {
		if area := t.Get(r, "area"); area != "" {
			return "Spends Area: " + area
		}
		return ""
	})
}

// AxisCardAdapter reads Axis card statements. Both the CSV export and the
// PDF table are read positionally: a dd/mm/yyyy date, the transaction
// details, an optional merchant category, then the amount with Dr or Cr.
type AxisCardAdapter struct{}

func (a *AxisCardAdapter) Type() string           { return "AXIS_CREDIT_CARD" }
func (a *AxisCardAdapter) Account() model.Account { return model.AccountAxisCard }
func (a *AxisCardAdapter) Kinds() []Kind          { return []Kind{KindCSV, KindPDF} }
func (a *AxisCardAdapter) DateLayouts() []string  { return []string{"02/01/2006"} }

var axisDate = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)

func (a *AxisCardAdapter) Records(doc *Document) ([]Record, error) {
	var recs []Record
	for _, r := range doc.Rows {
		cells := r.NonEmpty()
		start := -1
		for i, c := range cells {
			if axisDate.MatchString(c) {
				start = i
				break
			}
		}
		if start < 0 || len(cells)-start < 3 {
			doc.MarkNoise()
			continue
		}
		cells = cells[start:]

		rec := Record{
			Line:        r.Line,
			Date:        cells[0],
			Description: cells[1],
		}
		if len(cells) > 3 {
			rec.Notes = "Merchant Category: " + strings.Join(cells[2:len(cells)-1], " ")
		}
		rec.Debit, rec.Credit, _ = SplitSuffix(cells[len(cells)-1], model.Debit)
		recs = append(recs, rec)
	}
	if len(recs) == 0 && len(doc.Rows) > 0 {
		return nil, fmt.Errorf("%w: no dd/mm/yyyy transaction rows", ErrMissingColumns)
	}
	return recs, nil
}
