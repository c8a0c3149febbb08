package domain

import "strings"

// NormalizeToken lowercases, trims, and collapses internal whitespace runs.
// It is used when building cache keys and context fingerprints so equivalent
// inputs hit the same entry.
func NormalizeToken(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
