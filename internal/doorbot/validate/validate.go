// Package validate holds the syntactic checks applied to tags, member
// names and location names before they reach storage.
package validate

import "regexp"

var (
	tagPattern = regexp.MustCompile(`^[0-9]+$`)

	// Word characters are Unicode-aware: letters, combining marks, digits
	// and underscore. Whitespace covers the ASCII set, the \x1c-\x1f
	// separators, NEL and every Unicode space separator.
	namePattern = regexp.MustCompile(`^[\p{L}\p{M}\p{N}_\s\v\x1c-\x1f\x{85}\p{Z}.\-]+$`)
)

// IsTag reports whether s is one or more ASCII decimal digits.
func IsTag(s string) bool {
	return tagPattern.MatchString(s)
}

// IsName reports whether s is a non-empty run of word characters,
// whitespace, hyphens and periods. Member names and location names share
// this rule.
func IsName(s string) bool {
	return namePattern.MatchString(s)
}
