// Package fold implements case-insensitive text matching for ledger search.
//
// Both sides are NFC-normalized and Unicode case-folded before comparison,
// so "ÉTAGE" matches "étage" and composed/decomposed accents compare equal.
// The same function backs the SQL search in the store and the in-memory
// filter, which keeps one-shot search and live filtering in agreement.
package fold

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// String returns the normalized, case-folded form of s.
func String(s string) string {
	// A Caser carries state and must not be shared across goroutines.
	return cases.Fold().String(norm.NFC.String(s))
}

// Contains reports whether substr occurs in s, ignoring case.
// An empty substr matches everything.
func Contains(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(String(s), String(substr))
}
