package importer

import (
	"fmt"
	"strings"

	"github.com/cleared-dev/finledger/internal/model"
)

// FastagAdapter reads the Fastag wallet statement export.
type FastagAdapter struct{}

func (a *FastagAdapter) Type() string           { return "FASTAG_WALLET" }
func (a *FastagAdapter) Account() model.Account { return model.AccountFastag }
func (a *FastagAdapter) Kinds() []Kind          { return []Kind{KindCSV} }
func (a *FastagAdapter) DateLayouts() []string {
	return []string{"01/02/2006 03:04:05 PM", "1/2/2006 3:04:05 PM", "01/02/2006"}
}

func (a *FastagAdapter) Records(doc *Document) ([]Record, error) {
	return debitCreditRecords(doc, []Column{
		col(keyDate, "TXN DATE & TIME", "Transaction Date & Time"),
		col(keyDesc, "DESCRIPTION", "TXN DESCRIPTION", "ACTIVITY", "REMARKS"),
		col(keyDebit, "DEBIT", "DEBIT AMOUNT", "DR"),
		col(keyCredit, "CREDIT", "CREDIT AMOUNT", "CR"),
	})
}

// CashAdapter reads hand-kept cash entries: Date,Amount,Category,Tags,Notes
// with or without that header. Positive amounts are spending, negative
// amounts are cash received. The category column wins over the rule engine.
type CashAdapter struct{}

func (a *CashAdapter) Type() string           { return "CASH" }
func (a *CashAdapter) Account() model.Account { return model.AccountCash }
func (a *CashAdapter) Kinds() []Kind          { return []Kind{KindCSV} }
func (a *CashAdapter) DateLayouts() []string  { return []string{"Jan 2 2006", "2 Jan 2006"} }

const cashFields = 5

func (a *CashAdapter) Records(doc *Document) ([]Record, error) {
	var recs []Record
	for i, r := range doc.Rows {
		if r.Blank() {
			doc.MarkNoise()
			continue
		}
		if i == 0 && strings.EqualFold(r.Cell(0), "date") {
			continue
		}

		rec := Record{
			Line:     r.Line,
			Date:     r.Cell(0),
			Category: r.Cell(2),
			Tags:     r.Cell(3),
			Notes:    r.Cell(4),
		}
		rec.Description = rec.Notes
		if rec.Description == "" {
			rec.Description = rec.Category
		}
		if len(r.Cells) != cashFields {
			rec.Problem = fmt.Sprintf("expected %d fields, got %d", cashFields, len(r.Cells))
		}
		rec.Debit, rec.Credit = SplitSigned(r.Cell(1))
		recs = append(recs, rec)
	}
	return recs, nil
}
