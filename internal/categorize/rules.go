package categorize

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cleared-dev/finledger/internal/model"
)

// RulesHeader is the header of the keyword rule table.
const RulesHeader = "keyword,category,tags,notes"

const (
	numFields   = 4
	colKeyword  = 0
	colCategory = 1
	colTags     = 2
	colNotes    = 3
)

// Rule maps a keyword to a category. Notes is an optional template that may
// reference {keyword} and {description}; it defaults to the matched keyword.
type Rule struct {
	Keyword  string
	Category string
	Tags     string
	Notes    string
}

// LoadRulesFile reads a rule table from disk.
func LoadRulesFile(path string, vocab *model.Vocabulary) ([]Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening rules: %w", err)
	}
	defer f.Close()

	rules, err := LoadRules(f, vocab)
	if err != nil {
		return nil, fmt.Errorf("reading rules %s: %w", path, err)
	}
	return rules, nil
}

// LoadRules reads the keyword rule table, preserving row order. Categories are
// resolved through vocab so aliases such as "gro" become "Groceries".
func LoadRules(r io.Reader, vocab *model.Vocabulary) ([]Rule, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading rules CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("rules table is empty")
	}
	if got := strings.ToLower(strings.Join(records[0], ",")); got != RulesHeader {
		return nil, fmt.Errorf("unexpected rules header %q, want %q", strings.Join(records[0], ","), RulesHeader)
	}

	var rules []Rule
	for i, rec := range records[1:] {
		rule, err := unmarshalRule(rec, vocab)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// WriteRules writes a rule table including the header.
func WriteRules(w io.Writer, rules []Rule) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(RulesHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, r := range rules {
		if err := cw.Write([]string{r.Keyword, r.Category, r.Tags, r.Notes}); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func unmarshalRule(rec []string, vocab *model.Vocabulary) (Rule, error) {
	keyword := strings.TrimSpace(rec[colKeyword])
	if keyword == "" {
		return Rule{}, errors.New("empty keyword")
	}
	category, ok := vocab.Resolve(rec[colCategory])
	if !ok {
		return Rule{}, fmt.Errorf("keyword %q: unknown category %q", keyword, rec[colCategory])
	}
	return Rule{
		Keyword:  keyword,
		Category: category,
		Tags:     strings.TrimSpace(rec[colTags]),
		Notes:    strings.TrimSpace(rec[colNotes]),
	}, nil
}
