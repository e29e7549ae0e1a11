package importer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finledger/internal/ledger"
	"github.com/cleared-dev/finledger/internal/model"
)

// Record is one statement row reduced to strings, before validation.
type Record struct {
	Line        int
	Date        string
	Description string
	Debit       string
	Credit      string
	Notes       string // issuer extras such as merchant category
	Category    string // explicit category; overrides the rule engine
	Tags        string
	Problem     string // set by an adapter that already knows the row is bad
}

// RowError explains why one row was routed to the manual file.
type RowError struct {
	Line   int
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// NormalizeDate parses raw with the issuer layouts. Canonical values parse
// as themselves, so normalizing twice is harmless. The bool reports whether
// the matched layout carries a time of day.
func NormalizeDate(raw string, layouts []string) (time.Time, bool, error) {
	s := strings.Join(strings.Fields(strings.ReplaceAll(raw, "|", " ")), " ")
	if s == "" {
		return time.Time{}, false, errors.New("empty date")
	}
	if t, hasTime, err := ledger.ParseDate(s); err == nil {
		return t, hasTime, nil
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, strings.Contains(layout, ":"), nil
		}
	}
	return time.Time{}, false, fmt.Errorf("date %q matches none of %s", raw, strings.Join(layouts, " | "))
}

var amountNoise = strings.NewReplacer(",", "", " ", "", "₹", "", "inr", "", "rs.", "", "rs", "", "+", "")

// ParseAmount parses a statement amount. Thousands separators, currency
// markers and a leading plus are ignored; parentheses mean negative. The
// bool is false for a blank cell.
func ParseAmount(s string) (decimal.Decimal, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" || strings.EqualFold(s, "nan") {
		return decimal.Zero, false, nil
	}

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	clean := amountNoise.Replace(strings.ToLower(s))
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, true, fmt.Errorf("invalid amount %q", s)
	}
	if neg {
		d = d.Neg()
	}
	return d, true, nil
}

// DeriveAmount reduces a debit/credit pair to a direction and a positive
// amount. Zero counts as absent, so exactly one side must carry a non-zero
// value.
func DeriveAmount(debit, credit string) (model.TxnType, decimal.Decimal, error) {
	d, dok, derr := ParseAmount(debit)
	c, cok, cerr := ParseAmount(credit)
	dok = dok && derr == nil && !d.IsZero()
	cok = cok && cerr == nil && !c.IsZero()

	switch {
	case !dok && !cok:
		if err := errors.Join(derr, cerr); err != nil {
			return "", decimal.Zero, fmt.Errorf("no usable amount: %w", err)
		}
		return "", decimal.Zero, errors.New("no debit or credit amount")
	case dok && cok:
		return "", decimal.Zero, fmt.Errorf("both debit %s and credit %s present", d, c)
	case dok:
		return model.Debit, d.Abs(), nil
	default:
		return model.Credit, c.Abs(), nil
	}
}

// SplitMarker turns an amount plus a Dr/Cr style marker into debit and
// credit cells.
func SplitMarker(amount, marker string) (debit, credit string, err error) {
	m := strings.ToLower(strings.Trim(strings.TrimSpace(marker), "."))
	switch m {
	case "dr", "d", "db", "debit", "withdrawal":
		return amount, "", nil
	case "cr", "c", "credit", "deposit":
		return "", amount, nil
	}
	return "", "", fmt.Errorf("unknown debit/credit marker %q", marker)
}

var suffixMarker = regexp.MustCompile(`(?i)\s*(dr|cr)\.?\s*$`)

// SplitSuffix handles amounts like "1,200.00 Cr". Without a suffix the
// amount goes to the fallback side and explicit is false.
func SplitSuffix(amount string, fallback model.TxnType) (debit, credit string, explicit bool) {
	m := suffixMarker.FindStringSubmatch(amount)
	typ := fallback
	if m != nil {
		amount = amount[:len(amount)-len(m[0])]
		explicit = true
		if strings.EqualFold(m[1], "cr") {
			typ = model.Credit
		} else {
			typ = model.Debit
		}
	}
	if typ == model.Credit {
		return "", amount, explicit
	}
	return amount, "", explicit
}

// SplitSigned treats a positive amount as a debit and a negative one as a
// credit. Unparseable input is left on the debit side for validation to
// reject.
func SplitSigned(amount string) (debit, credit string) {
	d, ok, err := ParseAmount(amount)
	if !ok || err != nil {
		return amount, ""
	}
	if d.IsNegative() {
		return "", d.Abs().String()
	}
	return d.String(), ""
}

// ValidateRecord checks a record and builds its transaction without a
// category. Failures are *RowError.
func ValidateRecord(rec Record, account model.Account, layouts []string) (model.Transaction, error) {
	if rec.Problem != "" {
		return model.Transaction{}, &RowError{Line: rec.Line, Reason: rec.Problem}
	}
	date, hasTime, err := NormalizeDate(rec.Date, layouts)
	if err != nil {
		return model.Transaction{}, &RowError{Line: rec.Line, Reason: err.Error()}
	}
	desc := strings.TrimSpace(rec.Description)
	if desc == "" {
		return model.Transaction{}, &RowError{Line: rec.Line, Reason: "empty description"}
	}
	typ, amount, err := DeriveAmount(rec.Debit, rec.Credit)
	if err != nil {
		return model.Transaction{}, &RowError{Line: rec.Line, Reason: err.Error()}
	}
	return model.Transaction{
		Date:    date,
		HasTime: hasTime,
		Account: account,
		Type:    typ,
		Amount:  amount.Round(2),
	}, nil
}
