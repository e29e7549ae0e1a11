package model

// Account identifies the ledger account a transaction belongs to.
type Account string

const (
	AccountHDFCBank    Account = "HDFC Bank Account"
	AccountKotakBank   Account = "Kotak Bank Account"
	AccountSBIBank     Account = "SBI Bank Account"
	AccountEquitasBank Account = "Equitas Bank Account"
	AccountIDFCBank    Account = "IDFC Bank Account"
	AccountHDFCCard    Account = "HDFC Credit Card"
	AccountSBICard     Account = "SBI Credit Card"
	AccountICICICard   Account = "ICICI Credit Card"
	AccountKotakCard   Account = "Kotak Credit Card"
	AccountAxisCard    Account = "Axis Credit Card"
	AccountPaytm       Account = "Paytm Wallet" // no adapter; rows arrive through ledger load
	AccountFastag      Account = "Fastag Wallet"
	AccountCash        Account = "Cash"
)

// Accounts lists the closed set of account identifiers in display order.
var Accounts = []Account{
	AccountHDFCBank,
	AccountKotakBank,
	AccountSBIBank,
	AccountEquitasBank,
	AccountIDFCBank,
	AccountHDFCCard,
	AccountSBICard,
	AccountICICICard,
	AccountKotakCard,
	AccountAxisCard,
	AccountPaytm,
	AccountFastag,
	AccountCash,
}

// Valid reports whether a is a known account.
func (a Account) Valid() bool {
	for _, known := range Accounts {
		if a == known {
			return true
		}
	}
	return false
}
