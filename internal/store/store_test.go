package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/finledger/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "finance.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func date(s string) time.Time {
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func txn(day string, account model.Account, typ model.TxnType, amount, category, tags string) model.Transaction {
	return model.Transaction{
		Date:     date(day),
		Account:  account,
		Type:     typ,
		Amount:   decimal.RequireFromString(amount),
		Category: category,
		Tags:     tags,
	}
}

func TestLoadAndAllRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	timed := txn("2024-03-09", model.AccountHDFCCard, model.Debit, "123.45", "Shopping", "online")
	timed.Date = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	timed.HasTime = true
	timed.Notes = "amazon"

	n, err := s.Load(ctx, []model.Transaction{
		txn("2024-03-01", model.AccountHDFCBank, model.Credit, "50000", "Salary", ""),
		timed,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	assert.Equal(t, uint(1), all[0].ID)
	assert.Equal(t, "2024-03-01", all[0].DateString())
	assert.True(t, decimal.NewFromInt(50000).Equal(all[0].Amount))
	assert.Equal(t, model.Credit, all[0].Type)

	assert.Equal(t, uint(2), all[1].ID)
	assert.Equal(t, "2024-03-09 14:05:07", all[1].DateString())
	assert.True(t, all[1].HasTime)
	assert.Equal(t, "123.45", all[1].Amount.StringFixed(2))
	assert.Equal(t, "online", all[1].Tags)
	assert.Equal(t, "amazon", all[1].Notes)
}

func TestLoadEmpty(t *testing.T) {
	s := openTestStore(t)
	n, err := s.Load(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTruncate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, err := s.Load(ctx, []model.Transaction{txn("2024-01-01", model.AccountCash, model.Debit, "10", "Misc", "")})
	require.NoError(t, err)

	require.NoError(t, s.Truncate(ctx))
	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func seedReconcile(t *testing.T, s *Store) {
	t.Helper()
	_, err := s.Load(context.Background(), []model.Transaction{
		txn("2024-01-05", model.AccountHDFCBank, model.Debit, "5000", model.CategoryATMWithdrawal, ""), // 1
		txn("2024-01-06", model.AccountCash, model.Debit, "3000", "Groceries", ""),                    // 2
		txn("2024-01-07", model.AccountCash, model.Debit, "400", "Misc", "#1#"),                       // 3
		txn("2024-01-07", model.AccountCash, model.Debit, "100", model.CategoryOthers, ""),            // 4
		txn("2024-01-08", model.AccountCash, model.Credit, "200", "Refund", ""),                       // 5
		txn("2024-02-10", model.AccountSBIBank, model.Debit, "2000", model.CategoryATMWithdrawal, ""), // 6
		txn("2024-02-11", model.AccountCash, model.Debit, "50", "Fuel", "#11##1#"),                    // 7
		txn("2024-03-01", model.AccountCash, model.Debit, "70", "Fuel", "#11#"),                       // 8
	})
	require.NoError(t, err)
}

func ids(entries []model.Entry) []uint {
	var out []uint
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func TestWithdrawals(t *testing.T) {
	s := openTestStore(t)
	seedReconcile(t, s)
	ctx := context.Background()

	got, err := s.Withdrawals(ctx, date("2024-01-01"), date("2024-12-31"))
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 6}, ids(got))

	got, err = s.Withdrawals(ctx, date("2024-02-01"), date("2024-02-10"))
	require.NoError(t, err)
	assert.Equal(t, []uint{6}, ids(got))
}

func TestTaggedSum(t *testing.T) {
	s := openTestStore(t)
	seedReconcile(t, s)
	ctx := context.Background()

	sum, err := s.TaggedSum(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "450.00", sum.StringFixed(2))

	sum, err = s.TaggedSum(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, "120.00", sum.StringFixed(2))

	sum, err = s.TaggedSum(ctx, 6)
	require.NoError(t, err)
	assert.True(t, sum.IsZero())
}

func TestCashDebits(t *testing.T) {
	s := openTestStore(t)
	seedReconcile(t, s)

	got, err := s.CashDebits(context.Background(), date("2024-01-05"), date("2024-02-28"))
	require.NoError(t, err)
	// Others (4), credits (5) and rows after the range (8) are excluded.
	assert.Equal(t, []uint{2, 3, 7}, ids(got))
}

func TestMultiTagged(t *testing.T) {
	s := openTestStore(t)
	seedReconcile(t, s)

	got, err := s.MultiTagged(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint{7}, ids(got))
}

func TestByIDs(t *testing.T) {
	s := openTestStore(t)
	seedReconcile(t, s)
	ctx := context.Background()

	got, err := s.ByIDs(ctx, []uint{6, 1, 99})
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 6}, ids(got))

	got, err = s.ByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestApplyChangeSet(t *testing.T) {
	s := openTestStore(t)
	seedReconcile(t, s)
	ctx := context.Background()

	script := `-- finledger reconciliation change-set
-- range: 2024-01-01..2024-12-31

UPDATE transactions SET tags = COALESCE(tags, '') || '#1#' WHERE id IN (2);
UPDATE transactions SET tags = COALESCE(tags, '') || '#6#' WHERE id IN (7, 8);
`
	n, err := s.ApplyChangeSet(ctx, script)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	got, err := s.ByIDs(ctx, []uint{2, 7, 8})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "#1#", got[0].Tags)
	assert.Equal(t, "#11##1##6#", got[1].Tags)
	assert.Equal(t, "#11##6#", got[2].Tags)

	sum, err := s.TaggedSum(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "3450.00", sum.StringFixed(2))
}

func TestApplyChangeSetRejectsOtherStatements(t *testing.T) {
	s := openTestStore(t)
	seedReconcile(t, s)
	ctx := context.Background()

	script := `UPDATE transactions SET tags = COALESCE(tags, '') || '#1#' WHERE id IN (2);
DELETE FROM transactions;`
	_, err := s.ApplyChangeSet(ctx, script)
	require.ErrorIs(t, err, ErrInvalidChangeSet)

	got, err := s.ByIDs(ctx, []uint{2})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Tags, "nothing is applied when the set is rejected")
}

func TestApplyChangeSetEmpty(t *testing.T) {
	s := openTestStore(t)
	n, err := s.ApplyChangeSet(context.Background(), "-- nothing to do\n")
	require.NoError(t, err)
	assert.Zero(t, n)
}
