// Package categorize assigns spending categories to statement descriptions
// using an ordered keyword rule table.
package categorize

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/cleared-dev/finledger/internal/model"
)

// MatchMode controls how a keyword is compared with a description.
type MatchMode string

const (
	// MatchWord requires the keyword to stand on word boundaries.
	MatchWord MatchMode = "word"
	// MatchSubstring accepts the keyword anywhere in the description.
	MatchSubstring MatchMode = "substring"
)

// ParseMode converts a configuration value into a MatchMode.
func ParseMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case MatchWord, "":
		return MatchWord, nil
	case MatchSubstring:
		return MatchSubstring, nil
	default:
		return "", fmt.Errorf("unknown match mode %q", s)
	}
}

// Result is the outcome of classifying one description.
type Result struct {
	Category  string
	Tags      string
	Notes     string
	Matches   []Rule // every rule that matched, in table order
	Ambiguous bool   // matches disagreed on the category
}

// Matched reports whether any rule applied.
func (r Result) Matched() bool {
	return len(r.Matches) > 0
}

type compiledRule struct {
	Rule
	lower   string
	pattern *regexp.Regexp
}

// Engine classifies descriptions. It never mutates its rules and is safe for
// concurrent use.
type Engine struct {
	rules  []compiledRule
	mode   MatchMode
	logger *log.Logger
}

// NewEngine compiles rules for the given match mode.
func NewEngine(rules []Rule, mode MatchMode, logger *log.Logger) (*Engine, error) {
	if mode != MatchWord && mode != MatchSubstring {
		return nil, fmt.Errorf("unknown match mode %q", mode)
	}
	e := &Engine{mode: mode, logger: logger}
	for _, r := range rules {
		lower := strings.ToLower(r.Keyword)
		cr := compiledRule{Rule: r, lower: lower}
		if mode == MatchWord {
			re, err := regexp.Compile(wordPattern(lower))
			if err != nil {
				return nil, fmt.Errorf("compiling keyword %q: %w", r.Keyword, err)
			}
			cr.pattern = re
		}
		e.rules = append(e.rules, cr)
	}
	return e, nil
}

// Len returns the number of rules.
func (e *Engine) Len() int { return len(e.rules) }

// Classify evaluates every rule against description. With no match the result
// is Others with a provenance note; with conflicting matches the longest
// keyword wins and earlier rules win ties.
func (e *Engine) Classify(description string) Result {
	lower := strings.ToLower(description)

	var matches []Rule
	for _, r := range e.rules {
		if e.matches(r, lower) {
			matches = append(matches, r.Rule)
		}
	}

	if len(matches) == 0 {
		return Result{
			Category: model.CategoryOthers,
			Notes:    Provenance(description),
		}
	}

	chosen := matches[0]
	ambiguous := false
	for _, m := range matches[1:] {
		if m.Category != chosen.Category {
			ambiguous = true
		}
	}
	if ambiguous {
		for _, m := range matches[1:] {
			if utf8.RuneCountInString(m.Keyword) > utf8.RuneCountInString(chosen.Keyword) {
				chosen = m
			}
		}
		if e.logger != nil {
			e.logger.Warn("multiple categories matched",
				"description", description,
				"matched", describe(matches),
				"chosen", chosen.Keyword+"="+chosen.Category)
		}
	}

	return Result{
		Category:  chosen.Category,
		Tags:      chosen.Tags,
		Notes:     renderNotes(chosen, description),
		Matches:   matches,
		Ambiguous: ambiguous,
	}
}

// Provenance is the note attached to rows no rule could classify.
func Provenance(description string) string {
	return "Uncategorized: " + strings.TrimSpace(description)
}

func (e *Engine) matches(r compiledRule, lowerDesc string) bool {
	if r.pattern != nil {
		return r.pattern.MatchString(lowerDesc)
	}
	return strings.Contains(lowerDesc, r.lower)
}

// wordPattern anchors the keyword on word boundaries where its edges are word
// characters; punctuation at an edge matches literally.
func wordPattern(keyword string) string {
	p := regexp.QuoteMeta(keyword)
	first, _ := utf8.DecodeRuneInString(keyword)
	last, _ := utf8.DecodeLastRuneInString(keyword)
	if isWordRune(first) {
		p = `\b` + p
	}
	if isWordRune(last) {
		p += `\b`
	}
	return p
}

func isWordRune(r rune) bool {
	return r == '_' || r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

func renderNotes(r Rule, description string) string {
	if r.Notes == "" {
		return r.Keyword
	}
	return strings.NewReplacer(
		"{keyword}", r.Keyword,
		"{description}", strings.TrimSpace(description),
	).Replace(r.Notes)
}

func describe(rules []Rule) string {
	parts := make([]string, len(rules))
	for i, r := range rules {
		parts[i] = r.Keyword + "=" + r.Category
	}
	return strings.Join(parts, ", ")
}
