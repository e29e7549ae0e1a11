package importer

func col(key string, names ...string) Column {
	return Column{Key: key, Names: names}
}

func opt(key string, names ...string) Column {
	return Column{Key: key, Names: names, Optional: true}
}

const (
	keyDate     = "date"
	keyDesc     = "description"
	keyDebit    = "debit"
	keyCredit   = "credit"
	keyAmount   = "amount"
	keyMarker   = "marker"
	keyCategory = "category"
	keyTags     = "tags"
	keyNotes    = "notes"
)

// overrideColumns are hand-filled columns some exports carry after review.
var overrideColumns = []Column{
	opt(keyCategory, "Category"),
	opt(keyTags, "Tags"),
	opt(keyNotes, "Notes"),
}

func withOverrides(cols ...Column) []Column {
	return append(cols, overrideColumns...)
}

func applyOverrides(t *Table, r Row, rec *Record) {
	rec.Category = t.Get(r, keyCategory)
	rec.Tags = t.Get(r, keyTags)
	if n := t.Get(r, keyNotes); n != "" {
		rec.Notes = n
	}
}

// debitCreditRecords reads tables with separate debit and credit columns.
func debitCreditRecords(doc *Document, cols []Column) ([]Record, error) {
	t, err := doc.Locate(cols...)
	if err != nil {
		return nil, err
	}
	var recs []Record
	for _, r := range t.Rows() {
		rec := Record{
			Line:        r.Line,
			Date:        t.Get(r, keyDate),
			Description: t.Get(r, keyDesc),
			Debit:       t.Get(r, keyDebit),
			Credit:      t.Get(r, keyCredit),
		}
		applyOverrides(t, r, &rec)
		recs = append(recs, rec)
	}
	return recs, nil
}
