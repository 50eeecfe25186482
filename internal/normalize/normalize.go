// Package normalize provides the text normalization used by every comparison
// in the reconciliation engine.
//
// All matching, keying and duplicate detection operate on the normalized form
// of free-text fields: trimmed and uppercased. Spreadsheet exports frequently
// differ only in casing and stray whitespace, so normalizing once at the
// boundary keeps every downstream comparison case-insensitive without each
// component re-implementing the rule.
package normalize

import "strings"

// Garbage values that spreadsheet tooling emits for absent cells. They are
// compared against the normalized form.
var absentSentinels = map[string]bool{
	"NAN":  true,
	"N/A":  true,
	"NONE": true,
	"NULL": true,
}

// Text trims leading/trailing whitespace and uppercases s. An absent value
// (empty string) normalizes to the empty string. Pure function.
func Text(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Field normalizes an optional field value, additionally collapsing the
// garbage sentinels ("NAN", "N/A", ...) that loosely-typed exports produce
// for blank cells into the empty string. Use this at the ingestion boundary
// so absent values are represented consistently as "".
func Field(s string) string {
	n := Text(s)
	if absentSentinels[n] {
		return ""
	}
	return n
}

// IsAbsent reports whether the normalized form of s carries no information.
func IsAbsent(s string) bool {
	return Field(s) == ""
}
