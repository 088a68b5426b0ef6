// Package core provides the domain types and pure normalization helpers
// shared by the parsing and aggregate-maintenance pipeline.
package core

import "strings"

// NormalizeRecipient lowercases, trims and collapses internal whitespace.
// Recipients are compared and stored in this form everywhere.
func NormalizeRecipient(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// NormalizeLabel trims and lowercases a single label token.
func NormalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// FirstWords returns the first n whitespace-separated words of s joined by a
// single space. Used to fabricate fallback labels from recipient names.
func FirstWords(s string, n int) string {
	fields := strings.Fields(s)
	if len(fields) > n {
		fields = fields[:n]
	}
	return strings.Join(fields, " ")
}
