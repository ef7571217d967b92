package memo

import (
	"strings"

	"golang.org/x/text/cases"
)

// fold returns the case-folded form of s used for substring matching.
func fold(s string) string {
	return cases.Fold().String(s)
}

// Matcher reports whether a command contains a query, ignoring case.
// The query is folded once so long scans only fold the commands.
type Matcher struct {
	query string
}

// NewMatcher creates a Matcher for query.
func NewMatcher(query string) Matcher {
	if query == "" {
		return Matcher{}
	}
	return Matcher{query: fold(query)}
}

// Match reports whether cmd contains the matcher's query.
// An empty query matches everything.
func (m Matcher) Match(cmd string) bool {
	if m.query == "" {
		return true
	}
	return strings.Contains(fold(cmd), m.query)
}
