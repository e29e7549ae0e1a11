package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/finledger/internal/model"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		raw     string
		layouts []string
		want    string
		hasTime bool
	}{
		{"01/04/24", []string{"02/01/06"}, "2024-04-01", false},
		{"1 Apr 2024", []string{"2 Jan 2006"}, "2024-04-01", false},
		{"01-Apr-2024", []string{"2-Jan-2006"}, "2024-04-01", false},
		{"12/03/2025 | 10:15", []string{"02/01/2006 15:04"}, "2025-03-12 10:15:00", true},
		{"04/02/2024 06:05:00 PM", []string{"01/02/2006 03:04:05 PM"}, "2024-04-02 18:05:00", true},
		{"Apr 01 2024", []string{"Jan 2 2006"}, "2024-04-01", false},
		{"2024-04-01", nil, "2024-04-01", false},
		{"2024-04-01 10:15:00", nil, "2024-04-01 10:15:00", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, hasTime, err := NormalizeDate(tt.raw, tt.layouts)
			require.NoError(t, err)
			assert.Equal(t, tt.hasTime, hasTime)
			txn := model.Transaction{Date: got, HasTime: hasTime}
			assert.Equal(t, tt.want, txn.DateString())

			// Normalizing the canonical form again is a no-op.
			again, againTime, err := NormalizeDate(txn.DateString(), tt.layouts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, model.Transaction{Date: again, HasTime: againTime}.DateString())
		})
	}
}

func TestNormalizeDate_Errors(t *testing.T) {
	_, _, err := NormalizeDate("", []string{"02/01/06"})
	assert.Error(t, err)

	_, _, err = NormalizeDate("31/02/24", []string{"02/01/06"})
	assert.Error(t, err)

	_, _, err = NormalizeDate("yesterday", []string{"02/01/06"})
	assert.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		present bool
		wantErr bool
	}{
		{"", "0", false, false},
		{" - ", "0", false, false},
		{"1,250.50", "1250.5", true, false},
		{"₹ 1,000", "1000", true, false},
		{"Rs 200", "200", true, false},
		{"Rs.150", "150", true, false},
		{"INR 99.99", "99.99", true, false},
		{"+ 42", "42", true, false},
		{"(300.00)", "-300", true, false},
		{"-75", "-75", true, false},
		{"abc", "0", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, present, err := ParseAmount(tt.in)
			assert.Equal(t, tt.present, present)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestDeriveAmount(t *testing.T) {
	tests := []struct {
		name          string
		debit, credit string
		wantType      model.TxnType
		wantAmount    string
		wantErr       bool
	}{
		{"debit only", "450.00", "", model.Debit, "450", false},
		{"credit only", "", "50,000.00", model.Credit, "50000", false},
		{"zero credit yields", "10", "0.00", model.Debit, "10", false},
		{"zero debit yields", "0", "10", model.Credit, "10", false},
		{"negative made absolute", "-12.5", "", model.Debit, "12.5", false},
		{"both blank", "", "", "", "", true},
		{"both zero", "0.00", "0.00", "", "", true},
		{"zero debit only", "0.00", "", "", "", true},
		{"zero credit only", "", "0", "", "", true},
		{"both present", "1", "2", "", "", true},
		{"both garbage", "x", "y", "", "", true},
		{"garbage and value", "x", "5", model.Credit, "5", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ, amount, err := DeriveAmount(tt.debit, tt.credit)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, typ)
			assert.Equal(t, tt.wantAmount, amount.String())
			assert.False(t, amount.IsNegative())
		})
	}
}

func TestSplitMarker(t *testing.T) {
	d, c, err := SplitMarker("100", " DR ")
	require.NoError(t, err)
	assert.Equal(t, "100", d)
	assert.Empty(t, c)

	d, c, err = SplitMarker("100", "Credit")
	require.NoError(t, err)
	assert.Empty(t, d)
	assert.Equal(t, "100", c)

	d, c, err = SplitMarker("100", "C")
	require.NoError(t, err)
	assert.Equal(t, "100", c)
	assert.Empty(t, d)

	_, _, err = SplitMarker("100", "??")
	assert.Error(t, err)
}

func TestSplitSuffix(t *testing.T) {
	d, c, explicit := SplitSuffix("2,000.00 Cr", model.Debit)
	assert.Empty(t, d)
	assert.Equal(t, "2,000.00", c)
	assert.True(t, explicit)

	d, c, explicit = SplitSuffix("450.00Dr", model.Credit)
	assert.Equal(t, "450.00", d)
	assert.Empty(t, c)
	assert.True(t, explicit)

	d, c, explicit = SplitSuffix("230.00", model.Debit)
	assert.Equal(t, "230.00", d)
	assert.Empty(t, c)
	assert.False(t, explicit)
}

func TestSplitSigned(t *testing.T) {
	d, c := SplitSigned("Rs 200")
	assert.Equal(t, "200", d)
	assert.Empty(t, c)

	d, c = SplitSigned("-5000")
	assert.Empty(t, d)
	assert.Equal(t, "5000", c)

	d, c = SplitSigned("lots")
	assert.Equal(t, "lots", d)
	assert.Empty(t, c)
}

func TestValidateRecord(t *testing.T) {
	layouts := []string{"02/01/06"}

	txn, err := ValidateRecord(Record{Line: 3, Date: "01/04/24", Description: "SWIGGY", Debit: "450.005"}, model.AccountHDFCBank, layouts)
	require.NoError(t, err)
	assert.Equal(t, model.Debit, txn.Type)
	assert.Equal(t, "450.01", txn.Amount.StringFixed(2))
	assert.Equal(t, model.AccountHDFCBank, txn.Account)

	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{"bad date", Record{Line: 4, Date: "31/02/24", Description: "X", Debit: "1"}, "line 4: date"},
		{"empty description", Record{Line: 5, Date: "01/04/24", Description: "  ", Debit: "1"}, "empty description"},
		{"no amount", Record{Line: 6, Date: "01/04/24", Description: "X"}, "no debit or credit"},
		{"adapter problem", Record{Line: 7, Problem: "expected 5 fields"}, "line 7: expected 5 fields"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateRecord(tt.rec, model.AccountHDFCBank, layouts)
			var rowErr *RowError
			require.ErrorAs(t, err, &rowErr)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
