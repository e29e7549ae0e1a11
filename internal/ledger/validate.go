package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finledger/internal/model"
)

// ValidationError describes one invalid ledger row.
type ValidationError struct {
	Row    int
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("row %d %s: %s", e.Row, e.Field, e.Reason)
}

var hundred = decimal.NewFromInt(100)

// Validate checks each transaction against the canonical record rules. Rows
// are numbered as in the file, so the first transaction is row 2.
func Validate(txns []model.Transaction, vocab *model.Vocabulary) []ValidationError {
	var errs []ValidationError
	for i, txn := range txns {
		row := i + 2
		if txn.Date.IsZero() {
			errs = append(errs, ValidationError{Row: row, Field: "txn_date", Reason: "missing"})
		}
		if !txn.Account.Valid() {
			errs = append(errs, ValidationError{Row: row, Field: "account", Reason: fmt.Sprintf("unknown account %q", txn.Account)})
		}
		if !txn.Type.Valid() {
			errs = append(errs, ValidationError{Row: row, Field: "txn_type", Reason: fmt.Sprintf("unknown type %q", txn.Type)})
		}
		if txn.Amount.IsNegative() {
			errs = append(errs, ValidationError{Row: row, Field: "txn_amount", Reason: "negative amount " + txn.Amount.String()})
		}
		if scaled := txn.Amount.Mul(hundred); !scaled.Equal(scaled.Floor()) {
			errs = append(errs, ValidationError{Row: row, Field: "txn_amount", Reason: fmt.Sprintf("%s has more than 2 decimal places", txn.Amount)})
		}
		if vocab != nil {
			if _, ok := vocab.Resolve(txn.Category); !ok {
				errs = append(errs, ValidationError{Row: row, Field: "category", Reason: fmt.Sprintf("unknown category %q", txn.Category)})
			}
		}
	}
	return errs
}
