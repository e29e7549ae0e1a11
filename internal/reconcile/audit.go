package reconcile

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/finledger/internal/model"
	"github.com/cleared-dev/finledger/internal/reftag"
)

// AuditSource is the read side the audit needs.
type AuditSource interface {
	MultiTagged(ctx context.Context) ([]model.Entry, error)
	ByIDs(ctx context.Context, ids []uint) ([]model.Entry, error)
}

// Finding is a transaction that references more than one withdrawal.
type Finding struct {
	Entry       model.Entry
	Withdrawals []model.Entry
	Missing     []uint // referenced ids with no stored row
}

// Audit lists transactions tagged against several withdrawals, each with the
// withdrawals it references.
func Audit(ctx context.Context, src AuditSource) ([]Finding, error) {
	multi, err := src.MultiTagged(ctx)
	if err != nil {
		return nil, err
	}
	findings := make([]Finding, 0, len(multi))
	for _, e := range multi {
		refs := reftag.Parse(e.Tags)
		found, err := src.ByIDs(ctx, refs)
		if err != nil {
			return nil, err
		}
		byID := make(map[uint]model.Entry, len(found))
		for _, w := range found {
			byID[w.ID] = w
		}
		f := Finding{Entry: e}
		for _, id := range refs {
			if w, ok := byID[id]; ok {
				f.Withdrawals = append(f.Withdrawals, w)
			} else {
				f.Missing = append(f.Missing, id)
			}
		}
		findings = append(findings, f)
	}
	return findings, nil
}

// WriteAudit prints findings in a plain indented layout.
func WriteAudit(w io.Writer, findings []Finding) error {
	var b strings.Builder
	if len(findings) == 0 {
		b.WriteString("no transactions reference more than one withdrawal\n")
	}
	for _, f := range findings {
		fmt.Fprintf(&b, "%d  %s  %s  %s  %s  tags=%s\n",
			f.Entry.ID, f.Entry.DateString(), f.Entry.Account, f.Entry.Amount.StringFixed(2), f.Entry.Category, f.Entry.Tags)
		for _, wd := range f.Withdrawals {
			fmt.Fprintf(&b, "    -> %d  %s  %s  %s\n", wd.ID, wd.DateString(), wd.Account, wd.Amount.StringFixed(2))
		}
		for _, id := range f.Missing {
			fmt.Fprintf(&b, "    -> %d  (missing)\n", id)
		}
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("writing audit: %w", err)
	}
	return nil
}
