package importer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/finledger/internal/pdftable"
)

func readFixture(t *testing.T, name string) *Document {
	t.Helper()
	doc, err := ReadDocument(context.Background(), filepath.Join("testdata", name), KindCSV, pdftable.Options{})
	require.NoError(t, err)
	return doc
}

func TestHDFCBankAdapter(t *testing.T) {
	doc := readFixture(t, "hdfc_bank.csv")
	recs, err := (&HDFCBankAdapter{}).Records(doc)
	require.NoError(t, err)

	require.Len(t, recs, 6)
	assert.Equal(t, 1, doc.Noise())
	assert.Equal(t, Record{Line: 3, Date: "01/04/24", Description: "UPI-SWIGGY-ORDER", Debit: "450.00"}, recs[0])
	assert.Equal(t, "50,000.00", recs[1].Credit)
	assert.Empty(t, recs[1].Debit)
}

func TestKotakBankAdapter_Marker(t *testing.T) {
	recs, err := (&KotakBankAdapter{}).Records(readFixture(t, "kotak_bank_marker.csv"))
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, "1,250.50", recs[0].Debit)
	assert.Equal(t, "42.00", recs[1].Credit)
	assert.Contains(t, recs[2].Problem, "unknown debit/credit marker")
}

func TestKotakBankAdapter_Split(t *testing.T) {
	recs, err := (&KotakBankAdapter{}).Records(readFixture(t, "kotak_bank_split.csv"))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "1250.50", recs[0].Debit)
	assert.Equal(t, "99.00", recs[1].Credit)
	assert.Equal(t, "02-04-2024", recs[1].Date)
}

func TestKotakBankAdapter_MissingAmountColumns(t *testing.T) {
	doc := &Document{Kind: KindCSV, Rows: []Row{{Line: 1, Cells: []string{"Transaction Date", "Description", "Balance"}}}}
	_, err := (&KotakBankAdapter{}).Records(doc)
	assert.ErrorIs(t, err, ErrMissingColumns)
}

func TestSBIBankAdapter_TabWithPreamble(t *testing.T) {
	doc := readFixture(t, "sbi_bank.tsv")
	recs, err := (&SBIBankAdapter{}).Records(doc)
	require.NoError(t, err)

	require.Len(t, recs, 2)
	assert.Equal(t, "1 Apr 2024", recs[0].Date)
	assert.Equal(t, "TO TRANSFER-UPI/DR/ZOMATO", recs[0].Description)
	assert.Equal(t, "320.00", recs[0].Debit)
	assert.Equal(t, "40000.00", recs[1].Credit)
	assert.Equal(t, 1, doc.Noise())
}

func TestEquitasBankAdapter(t *testing.T) {
	recs, err := (&EquitasBankAdapter{}).Records(readFixture(t, "equitas_bank.csv"))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "UPI SWIGGY INSTAMART", recs[0].Description)
	assert.Equal(t, "210.00", recs[0].Debit)
	assert.Equal(t, "3.10", recs[1].Credit)
}

func TestIDFCBankAdapter(t *testing.T) {
	recs, err := (&IDFCBankAdapter{}).Records(readFixture(t, "idfc_bank.csv"))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "IMPS ZOMATO LTD", recs[0].Description)
	assert.Equal(t, "25000.00", recs[1].Credit)
}

func TestHDFCCardAdapter(t *testing.T) {
	recs, err := (&HDFCCardAdapter{}).Records(readFixture(t, "hdfc_card.csv"))
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, "1,020.00", recs[0].Debit)
	assert.Equal(t, "120.00", recs[1].Credit)
	assert.NotEmpty(t, recs[2].Problem)
}

func TestHDFCUPICardAdapter(t *testing.T) {
	recs, err := (&HDFCUPICardAdapter{}).Records(readFixture(t, "hdfc_upi_card.csv"))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "02/04/2024 13:45:10", recs[0].Date)
	assert.Equal(t, "NeuCoins: 5", recs[0].Notes)
	assert.Empty(t, recs[1].Notes)
}

func TestTataNeuCardAdapter_PDFRows(t *testing.T) {
	doc := &Document{Kind: KindPDF, Rows: []Row{
		{Line: 1, Cells: []string{"DATE & TIME", "TRANSACTION DESCRIPTION", "BASE NEUCOINS*", "AMOUNT"}},
		{Line: 2, Cells: []string{"12/03/2025 | 10:15", "TATA CLIQ", "+ 12", "C 1,499.00"}},
		{Line: 3, Cells: []string{"13/03/2025", "| 18:40", "PAYMENT RECEIVED", "EMI", "+ C 5,000.00"}},
		{Line: 4, Cells: []string{"Page 2 of 3"}},
	}}

	recs, err := (&TataNeuCardAdapter{}).Records(doc)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 2, doc.Noise())

	assert.Equal(t, Record{Line: 2, Date: "12/03/2025 | 10:15", Description: "TATA CLIQ", Debit: "1,499.00", Notes: "NeuCoins: +12"}, recs[0])
	assert.Equal(t, "13/03/2025 | 18:40", recs[1].Date)
	assert.Equal(t, "PAYMENT RECEIVED", recs[1].Description)
	assert.Equal(t, "5,000.00", recs[1].Credit)
	assert.Empty(t, recs[1].Debit)
}

func TestTataNeuCardAdapter_CSV(t *testing.T) {
	recs, err := (&TataNeuCardAdapter{}).Records(readFixture(t, "hdfc_card.csv"))
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestSBICardAdapter_ContinuationRows(t *testing.T) {
	doc := readFixture(t, "sbi_card.csv")
	recs, err := (&SBICardAdapter{}).Records(doc)
	require.NoError(t, err)

	require.Len(t, recs, 4)
	assert.Equal(t, 1, doc.Noise())
	assert.Equal(t, "05 Apr 24", recs[1].Date)
	assert.Equal(t, "MARKUP FEE ON FORGN TXN", recs[1].Description)
	assert.Equal(t, "05 Apr 24", recs[2].Date)
	assert.Equal(t, "6.30", recs[2].Debit)
	assert.Equal(t, "5,000.00", recs[3].Credit)
}

func TestICICICardAdapter(t *testing.T) {
	recs, err := (&ICICICardAdapter{}).Records(readFixture(t, "icici_card.csv"))
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, "840.00", recs[0].Debit)
	assert.Equal(t, "2,000.00", recs[1].Credit)
	assert.Equal(t, "gro", recs[2].Category)
	assert.Equal(t, "weekly", recs[2].Tags)
	assert.Equal(t, "milk", recs[2].Notes)
}

func TestKotakCardAdapter(t *testing.T) {
	recs, err := (&KotakCardAdapter{}).Records(readFixture(t, "kotak_card.csv"))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "Spends Area: Fuel", recs[0].Notes)
	assert.Equal(t, "2,000.00", recs[0].Debit)
	assert.Equal(t, "25.00", recs[1].Credit)
}

func TestAxisCardAdapter(t *testing.T) {
	doc := readFixture(t, "axis_card.csv")
	recs, err := (&AxisCardAdapter{}).Records(doc)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, 1, doc.Noise())

	assert.Equal(t, Record{Line: 2, Date: "01/04/2024", Description: "SWIGGY LIMITED", Debit: "450.00", Notes: "Merchant Category: FOOD PRODUCTS"}, recs[0])
	assert.Equal(t, "3,000.00", recs[1].Credit)
	assert.Empty(t, recs[1].Notes)
	assert.Equal(t, "230.00", recs[2].Debit)
}

func TestAxisCardAdapter_NoRows(t *testing.T) {
	doc := &Document{Kind: KindPDF, Rows: []Row{{Line: 1, Cells: []string{"Statement Summary"}}}}
	_, err := (&AxisCardAdapter{}).Records(doc)
	assert.ErrorIs(t, err, ErrMissingColumns)
}

func TestFastagAdapter(t *testing.T) {
	recs, err := (&FastagAdapter{}).Records(readFixture(t, "fastag.csv"))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "TOLL PLAZA NH48", recs[0].Description)
	assert.Equal(t, "85.00", recs[0].Debit)
	assert.Equal(t, "500.00", recs[1].Credit)
}

func TestCashAdapter(t *testing.T) {
	recs, err := (&CashAdapter{}).Records(readFixture(t, "cash.csv"))
	require.NoError(t, err)
	require.Len(t, recs, 5)

	assert.Equal(t, Record{Line: 2, Date: "Apr 01 2024", Description: "vegetables market", Debit: "200", Category: "fv", Notes: "vegetables market"}, recs[0])
	assert.Equal(t, "5000", recs[1].Credit)
	assert.Empty(t, recs[2].Category)
	assert.Contains(t, recs[4].Problem, "expected 5 fields")
}

func TestCashAdapter_Headerless(t *testing.T) {
	doc := &Document{Kind: KindCSV, Rows: []Row{{Line: 1, Cells: []string{"Apr 01 2024", "20", "gro", "", "milk"}}}}
	recs, err := (&CashAdapter{}).Records(doc)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "20", recs[0].Debit)
}
