package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TxnType is the direction of money movement for a canonical transaction.
type TxnType string

const (
	Debit  TxnType = "Debit"
	Credit TxnType = "Credit"
)

// Valid reports whether t is one of the two known directions.
func (t TxnType) Valid() bool {
	return t == Debit || t == Credit
}

const (
	// DateLayout is the canonical ISO date form.
	DateLayout = "2006-01-02"
	// DateTimeLayout is the canonical form when the issuer reports a time.
	DateTimeLayout = "2006-01-02 15:04:05"
)

// Transaction is one row of the ledger (txn_date,account,txn_type,txn_amount,category,tags,notes).
type Transaction struct {
	Date     time.Time
	HasTime  bool // render txn_date with a time component
	Account  Account
	Type     TxnType
	Amount   decimal.Decimal // never negative; direction lives in Type
	Category string
	Tags     string
	Notes    string
}

// DateString renders the canonical txn_date value.
func (t Transaction) DateString() string {
	if t.HasTime {
		return t.Date.Format(DateTimeLayout)
	}
	return t.Date.Format(DateLayout)
}

// Entry is a transaction with the integer id assigned by the ledger store.
type Entry struct {
	ID uint
	Transaction
}
