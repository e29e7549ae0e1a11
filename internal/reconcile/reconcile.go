// Package reconcile links cash spending back to the ATM withdrawals that
// funded it. It only proposes tag updates; applying them is a separate step.
package reconcile

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finledger/internal/model"
	"github.com/cleared-dev/finledger/internal/reftag"
)

// Source is the read side of the ledger the matcher works against.
type Source interface {
	Withdrawals(ctx context.Context, from, to time.Time) ([]model.Entry, error)
	TaggedSum(ctx context.Context, withdrawalID uint) (decimal.Decimal, error)
	CashDebits(ctx context.Context, from, to time.Time) ([]model.Entry, error)
}

// TagUpdate proposes tagging TxnIDs with the reference token of WithdrawalID.
type TagUpdate struct {
	WithdrawalID uint
	TxnIDs       []uint
	Total        decimal.Decimal
}

// Skipped is a withdrawal whose tagged spending already covers it.
type Skipped struct {
	WithdrawalID uint
	Amount       decimal.Decimal
	Tagged       decimal.Decimal
}

// Unresolved is a withdrawal no combination of candidates could explain.
type Unresolved struct {
	WithdrawalID uint
	Date         time.Time
	Amount       decimal.Decimal
	Shortfall    decimal.Decimal
	Best         decimal.Decimal // closest running sum reached
}

// Report is the outcome of one reconciliation run.
type Report struct {
	From       time.Time
	To         time.Time
	Tolerance  decimal.Decimal
	Updates    []TagUpdate
	Skipped    []Skipped
	Unresolved []Unresolved
}

// String renders a one-line summary.
func (r *Report) String() string {
	return fmt.Sprintf("%s..%s tolerance %s: %d matched, %d already covered, %d unresolved",
		r.From.Format(model.DateLayout), r.To.Format(model.DateLayout), r.Tolerance.StringFixed(2),
		len(r.Updates), len(r.Skipped), len(r.Unresolved))
}

// Matcher runs the withdrawal-to-spending matching.
type Matcher struct {
	src    Source
	logger *log.Logger
}

// NewMatcher returns a matcher reading from src.
func NewMatcher(src Source, logger *log.Logger) *Matcher {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Matcher{src: src, logger: logger}
}

// Reconcile walks the withdrawals dated within [from, to] and proposes the
// cash spending each one funded. A spending row is assigned to at most one
// withdrawal per run, and rows already carrying a reference token are never
// proposed again.
func (m *Matcher) Reconcile(ctx context.Context, from, to time.Time, tolerance decimal.Decimal) (*Report, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("invalid range: %s is before %s",
			to.Format(model.DateLayout), from.Format(model.DateLayout))
	}
	if tolerance.IsNegative() {
		return nil, fmt.Errorf("tolerance must not be negative, got %s", tolerance)
	}

	withdrawals, err := m.src.Withdrawals(ctx, from, to)
	if err != nil {
		return nil, err
	}
	pool, err := m.src.CashDebits(ctx, from, to)
	if err != nil {
		return nil, err
	}

	report := &Report{From: from, To: to, Tolerance: tolerance}
	consumed := make(map[uint]bool)

	for _, w := range withdrawals {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tagged, err := m.src.TaggedSum(ctx, w.ID)
		if err != nil {
			return nil, err
		}
		shortfall := w.Amount.Sub(tagged)
		if shortfall.LessThanOrEqual(tolerance) {
			report.Skipped = append(report.Skipped, Skipped{WithdrawalID: w.ID, Amount: w.Amount, Tagged: tagged})
			m.logger.Debug("withdrawal already covered", "id", w.ID, "amount", w.Amount, "tagged", tagged)
			continue
		}

		picked, sum := pick(candidates(pool, w, consumed), shortfall, tolerance)
		if len(picked) == 0 || shortfall.Sub(sum).Abs().GreaterThan(tolerance) {
			report.Unresolved = append(report.Unresolved, Unresolved{
				WithdrawalID: w.ID,
				Date:         w.Date,
				Amount:       w.Amount,
				Shortfall:    shortfall,
				Best:         sum,
			})
			m.logger.Info("withdrawal unresolved", "id", w.ID, "shortfall", shortfall, "best", sum)
			continue
		}

		ids := make([]uint, len(picked))
		for i, c := range picked {
			ids[i] = c.ID
			consumed[c.ID] = true
		}
		report.Updates = append(report.Updates, TagUpdate{WithdrawalID: w.ID, TxnIDs: ids, Total: sum})
		m.logger.Info("withdrawal matched", "id", w.ID, "shortfall", shortfall, "matched", len(ids), "total", sum)
	}
	return report, nil
}

// candidates returns the untagged, unconsumed spending dated on or after the
// withdrawal, largest first.
func candidates(pool []model.Entry, w model.Entry, consumed map[uint]bool) []model.Entry {
	since := w.Date.Format(model.DateLayout)
	var out []model.Entry
	for _, c := range pool {
		if consumed[c.ID] || reftag.HasAny(c.Tags) {
			continue
		}
		if c.Date.Format(model.DateLayout) < since {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// pick accumulates candidates greedily, skipping any that would overshoot
// target by more than tolerance, and stops once the sum is within tolerance.
func pick(cands []model.Entry, target, tolerance decimal.Decimal) ([]model.Entry, decimal.Decimal) {
	ceiling := target.Add(tolerance)
	sum := decimal.Zero
	var picked []model.Entry
	for _, c := range cands {
		next := sum.Add(c.Amount)
		if next.GreaterThan(ceiling) {
			continue
		}
		sum = next
		picked = append(picked, c)
		if target.Sub(sum).Abs().LessThanOrEqual(tolerance) {
			break
		}
	}
	return picked, sum
}

// Statement renders the SQL that applies u.
func (u TagUpdate) Statement() string {
	ids := make([]string, len(u.TxnIDs))
	for i, id := range u.TxnIDs {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("UPDATE transactions SET tags = COALESCE(tags, '') || '%s' WHERE id IN (%s);",
		reftag.Format(u.WithdrawalID), strings.Join(ids, ", "))
}

// WriteChangeSet writes the report's updates as a reviewable SQL script.
func WriteChangeSet(w io.Writer, r *Report, generated time.Time) error {
	var b strings.Builder
	b.WriteString("-- finledger reconciliation change-set\n")
	fmt.Fprintf(&b, "-- range: %s..%s\n", r.From.Format(model.DateLayout), r.To.Format(model.DateLayout))
	fmt.Fprintf(&b, "-- tolerance: %s\n", r.Tolerance.StringFixed(2))
	fmt.Fprintf(&b, "-- generated: %s\n", generated.Format(time.RFC3339))
	fmt.Fprintf(&b, "-- updates: %d, unresolved: %d\n", len(r.Updates), len(r.Unresolved))
	for _, u := range r.Updates {
		fmt.Fprintf(&b, "\n-- withdrawal %d: %d transaction(s) totalling %s\n", u.WithdrawalID, len(u.TxnIDs), u.Total.StringFixed(2))
		b.WriteString(u.Statement())
		b.WriteByte('\n')
	}
	for _, u := range r.Unresolved {
		fmt.Fprintf(&b, "\n-- unresolved withdrawal %d on %s: shortfall %s, best %s\n",
			u.WithdrawalID, u.Date.Format(model.DateLayout), u.Shortfall.StringFixed(2), u.Best.StringFixed(2))
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("writing change-set: %w", err)
	}
	return nil
}
