// Package reftag formats and parses the "#<id>#" reference tokens that link
// cash spending to the ATM withdrawal that funded it.
package reftag

import (
	"fmt"
	"regexp"
	"strconv"
)

var tokenPattern = regexp.MustCompile(`#(\d+)#`)

// Format returns the token for a withdrawal id, e.g. 42 -> "#42#".
func Format(id uint) string {
	return fmt.Sprintf("#%d#", id)
}

// Parse returns every withdrawal id referenced in tags, in order of appearance.
func Parse(tags string) []uint {
	matches := tokenPattern.FindAllStringSubmatch(tags, -1)
	if len(matches) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(n))
	}
	return ids
}

// HasAny reports whether tags already carries a reference token.
func HasAny(tags string) bool {
	return tokenPattern.MatchString(tags)
}

// Has reports whether tags references the given withdrawal id.
func Has(tags string, id uint) bool {
	for _, got := range Parse(tags) {
		if got == id {
			return true
		}
	}
	return false
}

// Append adds the token for id to tags. Existing content is never rewritten.
func Append(tags string, id uint) string {
	return tags + Format(id)
}
