package store

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finledger/internal/model"
)

const timeLayout = "15:04:05"

// Transaction is a ledger row as stored. Dates are kept as ISO text so range
// filters compare lexically.
type Transaction struct {
	ID        uint            `gorm:"primaryKey"`
	TxnDate   string          `gorm:"column:txn_date;index;not null"`
	TxnTime   string          `gorm:"column:txn_time"`
	Account   string          `gorm:"index;not null"`
	TxnType   string          `gorm:"column:txn_type;not null"`
	TxnAmount decimal.Decimal `gorm:"column:txn_amount;type:decimal(20,2);not null"`
	Category  string          `gorm:"index"`
	Tags      string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func fromModel(t model.Transaction) Transaction {
	row := Transaction{
		TxnDate:   t.Date.Format(model.DateLayout),
		Account:   string(t.Account),
		TxnType:   string(t.Type),
		TxnAmount: t.Amount,
		Category:  t.Category,
		Tags:      t.Tags,
		Notes:     t.Notes,
	}
	if t.HasTime {
		row.TxnTime = t.Date.Format(timeLayout)
	}
	return row
}

func (r Transaction) entry() (model.Entry, error) {
	date, err := time.Parse(model.DateLayout, r.TxnDate)
	if err != nil {
		return model.Entry{}, fmt.Errorf("transaction %d: parsing txn_date %q: %w", r.ID, r.TxnDate, err)
	}
	hasTime := r.TxnTime != ""
	if hasTime {
		date, err = time.Parse(model.DateTimeLayout, r.TxnDate+" "+r.TxnTime)
		if err != nil {
			return model.Entry{}, fmt.Errorf("transaction %d: parsing txn_time %q: %w", r.ID, r.TxnTime, err)
		}
	}
	return model.Entry{
		ID: r.ID,
		Transaction: model.Transaction{
			Date:     date,
			HasTime:  hasTime,
			Account:  model.Account(r.Account),
			Type:     model.TxnType(r.TxnType),
			Amount:   r.TxnAmount,
			Category: r.Category,
			Tags:     r.Tags,
			Notes:    r.Notes,
		},
	}, nil
}

func entries(rows []Transaction) ([]model.Entry, error) {
	out := make([]model.Entry, 0, len(rows))
	for _, r := range rows {
		e, err := r.entry()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
