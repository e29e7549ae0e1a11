// Package ledger reads and writes the canonical transaction CSV.
package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finledger/internal/model"
)

// Header is the CSV header of the ledger.
const Header = "txn_date,account,txn_type,txn_amount,category,tags,notes"

const (
	numFields   = 7
	colDate     = 0
	colAccount  = 1
	colType     = 2
	colAmount   = 3
	colCategory = 4
	colTags     = 5
	colNotes    = 6
)

// Columns returns the header names in order.
func Columns() []string {
	return strings.Split(Header, ",")
}

// ReadTransactions reads every row of a ledger. The header is required.
func ReadTransactions(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading ledger CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	if !isHeader(records[0]) {
		return nil, fmt.Errorf("missing ledger header, got %q", strings.Join(records[0], ","))
	}

	var txns []model.Transaction
	for i, rec := range records[1:] {
		txn, err := Unmarshal(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

// WriteCSV writes txns to w including the header.
func WriteCSV(w io.Writer, txns []model.Transaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Columns()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, txn := range txns {
		if err := cw.Write(Marshal(txn)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// appendRows writes txns without a header.
func appendRows(w io.Writer, txns []model.Transaction) error {
	cw := csv.NewWriter(w)

	for i, txn := range txns {
		if err := cw.Write(Marshal(txn)); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Marshal converts a transaction to a ledger row.
func Marshal(txn model.Transaction) []string {
	row := make([]string, numFields)
	row[colDate] = txn.DateString()
	row[colAccount] = string(txn.Account)
	row[colType] = string(txn.Type)
	row[colAmount] = txn.Amount.StringFixed(2)
	row[colCategory] = txn.Category
	row[colTags] = txn.Tags
	row[colNotes] = txn.Notes
	return row
}

// Unmarshal parses a ledger row.
func Unmarshal(record []string) (model.Transaction, error) {
	if len(record) != numFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, hasTime, err := ParseDate(record[colDate])
	if err != nil {
		return model.Transaction{}, err
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(record[colAmount]))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing txn_amount %q: %w", record[colAmount], err)
	}

	return model.Transaction{
		Date:     date,
		HasTime:  hasTime,
		Account:  model.Account(strings.TrimSpace(record[colAccount])),
		Type:     model.TxnType(strings.TrimSpace(record[colType])),
		Amount:   amount,
		Category: record[colCategory],
		Tags:     record[colTags],
		Notes:    record[colNotes],
	}, nil
}

// ParseDate parses a canonical txn_date, with or without a time component.
func ParseDate(s string) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(model.DateLayout, s); err == nil {
		return t, false, nil
	}
	t, err := time.Parse(model.DateTimeLayout, s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parsing txn_date %q: %w", s, err)
	}
	return t, true, nil
}

// isHeader compares a record to the canonical header ignoring case and
// surrounding space.
func isHeader(rec []string) bool {
	want := Columns()
	if len(rec) != len(want) {
		return false
	}
	for i, name := range want {
		got := strings.TrimPrefix(rec[i], "\ufeff")
		if !strings.EqualFold(strings.TrimSpace(got), name) {
			return false
		}
	}
	return true
}
