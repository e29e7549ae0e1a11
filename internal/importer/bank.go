package importer

import (
	"fmt"

	"github.com/cleared-dev/finledger/internal/model"
)

// HDFCBankAdapter reads HDFC savings account CSV exports.
type HDFCBankAdapter struct{}

func (a *HDFCBankAdapter) Type() string           { return "HDFC_BANK_ACCOUNT" }
func (a *HDFCBankAdapter) Account() model.Account { return model.AccountHDFCBank }
func (a *HDFCBankAdapter) Kinds() []Kind          { return []Kind{KindCSV} }
func (a *HDFCBankAdapter) DateLayouts() []string  { return []string{"02/01/06", "02/01/2006"} }

// Records maps Withdrawal Amt. and Deposit Amt. to debit and credit.
func (a *HDFCBankAdapter) Records(doc *Document) ([]Record, error) {
	return debitCreditRecords(doc, withOverrides(
		col(keyDate, "Date"),
		col(keyDesc, "Narration"),
		col(keyDebit, "Withdrawal Amt.", "Withdrawal Amount"),
		col(keyCredit, "Deposit Amt.", "Deposit Amount"),
	))
}

// KotakBankAdapter reads Kotak savings account CSV exports, either with
// Debit and Credit columns or with Amount and a Dr / Cr marker.
type KotakBankAdapter struct{}

func (a *KotakBankAdapter) Type() string           { return "KOTAK_BANK_ACCOUNT" }
func (a *KotakBankAdapter) Account() model.Account { return model.AccountKotakBank }
func (a *KotakBankAdapter) Kinds() []Kind          { return []Kind{KindCSV} }
func (a *KotakBankAdapter) DateLayouts() []string  { return []string{"02-01-2006", "02/01/2006"} }

func (a *KotakBankAdapter) Records(doc *Document) ([]Record, error) {
	t, err := doc.Locate(
		col(keyDate, "Transaction Date", "Date"),
		col(keyDesc, "Description", "Narration"),
		opt(keyDebit, "Debit"),
		opt(keyCredit, "Credit"),
		opt(keyAmount, "Amount"),
		opt(keyMarker, "Dr / Cr", "Dr/Cr"),
	)
	if err != nil {
		return nil, err
	}
	split := t.Has(keyDebit) && t.Has(keyCredit)
	if !split && !(t.Has(keyAmount) && t.Has(keyMarker)) {
		return nil, fmt.Errorf("%w: Debit and Credit, or Amount and Dr / Cr", ErrMissingColumns)
	}

	var recs []Record
	for _, r := range t.Rows() {
		rec := Record{
			Line:        r.Line,
			Date:        t.Get(r, keyDate),
			Description: t.Get(r, keyDesc),
		}
		if split {
			rec.Debit, rec.Credit = t.Get(r, keyDebit), t.Get(r, keyCredit)
		} else {
			rec.Debit, rec.Credit, err = SplitMarker(t.Get(r, keyAmount), t.Get(r, keyMarker))
			if err != nil {
				rec.Problem = err.Error()
			}
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// SBIBankAdapter reads SBI account statements. The export carries an
// account preamble above the Txn Date header and comes as tab separated
// text or as a spreadsheet.
type SBIBankAdapter struct{}

func (a *SBIBankAdapter) Type() string           { return "SBI_BANK_ACCOUNT" }
func (a *SBIBankAdapter) Account() model.Account { return model.AccountSBIBank }
func (a *SBIBankAdapter) Kinds() []Kind          { return []Kind{KindCSV, KindXLS, KindXLSX} }
func (a *SBIBankAdapter) DateLayouts() []string {
	return []string{"2 Jan 2006", "2-Jan-2006", "02/01/2006"}
}

func (a *SBIBankAdapter) Records(doc *Document) ([]Record, error) {
	return debitCreditRecords(doc, []Column{
		col(keyDate, "Txn Date"),
		col(keyDesc, "Description"),
		col(keyDebit, "Debit"),
		col(keyCredit, "Credit"),
	})
}

// EquitasBankAdapter reads Equitas savings account CSV exports.
type EquitasBankAdapter struct{}

func (a *EquitasBankAdapter) Type() string           { return "EQUITAS_BANK_ACCOUNT" }
func (a *EquitasBankAdapter) Account() model.Account { return model.AccountEquitasBank }
func (a *EquitasBankAdapter) Kinds() []Kind          { return []Kind{KindCSV} }
func (a *EquitasBankAdapter) DateLayouts() []string  { return []string{"2-Jan-2006", "January 2, 2006"} }

func (a *EquitasBankAdapter) Records(doc *Document) ([]Record, error) {
	return debitCreditRecords(doc, []Column{
		col(keyDate, "Date"),
		col(keyDesc, "Narration"),
		col(keyDebit, "Withdrawal"),
		col(keyCredit, "Deposit"),
	})
}

// IDFCBankAdapter reads IDFC First savings account CSV exports.
type IDFCBankAdapter struct{}

func (a *IDFCBankAdapter) Type() string           { return "IDFC_BANK_ACCOUNT" }
func (a *IDFCBankAdapter) Account() model.Account { return model.AccountIDFCBank }
func (a *IDFCBankAdapter) Kinds() []Kind          { return []Kind{KindCSV} }
func (a *IDFCBankAdapter) DateLayouts() []string  { return []string{"2-Jan-2006", "2 Jan 2006"} }

func (a *IDFCBankAdapter) Records(doc *Document) ([]Record, error) {
	return debitCreditRecords(doc, []Column{
		col(keyDate, "Transaction Date"),
		col(keyDesc, "Particulars", "Narration", "Description"),
		col(keyDebit, "Debit"),
		col(keyCredit, "Credit"),
	})
}
