// Package store keeps ledger rows in SQLite so reconciliation can refer to
// them by a stable integer id.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cleared-dev/finledger/internal/model"
	"github.com/cleared-dev/finledger/internal/reftag"
)

const batchSize = 500

// ErrInvalidChangeSet is returned when a change-set contains anything other
// than reference tag updates.
var ErrInvalidChangeSet = errors.New("invalid change-set")

var tagUpdatePattern = regexp.MustCompile(`^UPDATE transactions SET tags = COALESCE\(tags, ''\) \|\| '#\d+#' WHERE id IN \(\d+(, \d+)*\)$`)

// Store is the SQLite-backed ledger.
type Store struct {
	db *gorm.DB

	// CashAccount and WithdrawalCategory select the rows reconciliation works on.
	CashAccount        model.Account
	WithdrawalCategory string
}

// Open connects to the database at path, creating the schema when needed.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&Transaction{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &Store{
		db:                 db,
		CashAccount:        model.AccountCash,
		WithdrawalCategory: model.CategoryATMWithdrawal,
	}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Load inserts txns in order and returns how many rows were written.
func (s *Store) Load(ctx context.Context, txns []model.Transaction) (int, error) {
	if len(txns) == 0 {
		return 0, nil
	}
	rows := make([]Transaction, len(txns))
	for i, t := range txns {
		rows[i] = fromModel(t)
	}
	if err := s.db.WithContext(ctx).CreateInBatches(rows, batchSize).Error; err != nil {
		return 0, fmt.Errorf("failed to load transactions: %w", err)
	}
	return len(rows), nil
}

// Truncate removes every stored transaction.
func (s *Store) Truncate(ctx context.Context) error {
	err := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Transaction{}).Error
	if err != nil {
		return fmt.Errorf("failed to truncate transactions: %w", err)
	}
	return nil
}

// All returns every stored transaction ordered by id.
func (s *Store) All(ctx context.Context) ([]model.Entry, error) {
	var rows []Transaction
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return entries(rows)
}

// ByIDs returns the transactions with the given ids ordered by id.
func (s *Store) ByIDs(ctx context.Context, ids []uint) ([]model.Entry, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []Transaction
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	return entries(rows)
}

// Withdrawals returns rows in the withdrawal category dated within [from, to],
// ordered by date then id.
func (s *Store) Withdrawals(ctx context.Context, from, to time.Time) ([]model.Entry, error) {
	var rows []Transaction
	err := s.db.WithContext(ctx).
		Where("category = ? AND txn_date BETWEEN ? AND ?", s.WithdrawalCategory, day(from), day(to)).
		Order("txn_date, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query withdrawals: %w", err)
	}
	return entries(rows)
}

// TaggedSum totals the cash debits already carrying the reference token for
// withdrawalID.
func (s *Store) TaggedSum(ctx context.Context, withdrawalID uint) (decimal.Decimal, error) {
	var rows []Transaction
	err := s.db.WithContext(ctx).
		Where("account = ? AND txn_type = ? AND tags LIKE ?",
			string(s.CashAccount), string(model.Debit), "%"+reftag.Format(withdrawalID)+"%").
		Find(&rows).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum tagged spending for %d: %w", withdrawalID, err)
	}
	sum := decimal.Zero
	for _, r := range rows {
		if reftag.Has(r.Tags, withdrawalID) {
			sum = sum.Add(r.TxnAmount)
		}
	}
	return sum, nil
}

// CashDebits returns categorised cash spending dated within [from, to],
// ordered by date then id.
func (s *Store) CashDebits(ctx context.Context, from, to time.Time) ([]model.Entry, error) {
	var rows []Transaction
	err := s.db.WithContext(ctx).
		Where("account = ? AND txn_type = ? AND category <> ? AND txn_date BETWEEN ? AND ?",
			string(s.CashAccount), string(model.Debit), model.CategoryOthers, day(from), day(to)).
		Order("txn_date, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query cash spending: %w", err)
	}
	return entries(rows)
}

// MultiTagged returns rows referencing more than one withdrawal.
func (s *Store) MultiTagged(ctx context.Context) ([]model.Entry, error) {
	var rows []Transaction
	err := s.db.WithContext(ctx).
		Where("tags LIKE ?", "%#%#%#%#%").
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query tagged transactions: %w", err)
	}
	var multi []Transaction
	for _, r := range rows {
		if len(reftag.Parse(r.Tags)) > 1 {
			multi = append(multi, r)
		}
	}
	return entries(multi)
}

// ApplyChangeSet runs every statement of a reviewed change-set inside one
// database transaction and returns the number of rows updated. Only reference
// tag updates are accepted; anything else rejects the whole set.
func (s *Store) ApplyChangeSet(ctx context.Context, script string) (int64, error) {
	stmts, err := parseChangeSet(script)
	if err != nil {
		return 0, err
	}
	var affected int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range stmts {
			res := tx.Exec(stmt)
			if res.Error != nil {
				return fmt.Errorf("executing %q: %w", stmt, res.Error)
			}
			affected += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to apply change-set: %w", err)
	}
	return affected, nil
}

func parseChangeSet(script string) ([]string, error) {
	var body strings.Builder
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		body.WriteString(trimmed)
		body.WriteByte(' ')
	}
	var stmts []string
	for _, part := range strings.Split(body.String(), ";") {
		stmt := strings.TrimSpace(part)
		if stmt == "" {
			continue
		}
		if !tagUpdatePattern.MatchString(stmt) {
			return nil, fmt.Errorf("%w: unexpected statement %q", ErrInvalidChangeSet, stmt)
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func day(t time.Time) string {
	return t.Format(model.DateLayout)
}
