package core

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// nonWordRegex matches runs that are neither word characters nor
	// whitespace. \s is ASCII-only in RE2, so Unicode separators are named.
	nonWordRegex = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s\p{Z}]+`)

	whitespaceRegex = regexp.MustCompile(`[\s\p{Z}]+`)
)

// Sanitize normalizes a worksheet or column name into a stable identifier:
// punctuation is dropped, whitespace runs become a single underscore and the
// result is lowercased. "Q1 Sales (2024)" becomes "q1_sales_2024".
//
// Sanitize is idempotent, which lets request keys be compared against
// sanitized provider names directly.
func Sanitize(name string) string {
	s := nonWordRegex.ReplaceAllString(name, "")
	s = whitespaceRegex.ReplaceAllString(s, "_")
	return strings.ToLower(s)
}

// SanitizeAll applies Sanitize to every name.
func SanitizeAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = Sanitize(n)
	}
	return out
}

// ColumnIndex converts a spreadsheet column letter to a zero-based index,
// case-insensitively: "A" is 0 and "z" is 25.
//
// Only single-letter columns are supported. References past Z ("AA") are
// rejected with a MalformedRangeError rather than guessed at.
func ColumnIndex(letter string) (int, error) {
	if len(letter) != 1 {
		return 0, &MalformedRangeError{Input: letter, Reason: "column must be a single letter A-Z"}
	}
	c := strings.ToLower(letter)[0]
	if c < 'a' || c > 'z' {
		return 0, &MalformedRangeError{Input: letter, Reason: "column must be a single letter A-Z"}
	}
	return int(c-'a'+1) - 1, nil
}

// ColumnRange is an inclusive range of zero-based column indexes.
type ColumnRange struct {
	Start int
	End   int
}

// Width returns the number of columns the range covers.
func (r ColumnRange) Width() int { return r.End - r.Start + 1 }

// String renders the range back in letter form, e.g. "B:D".
func (r ColumnRange) String() string {
	return fmt.Sprintf("%c:%c", 'A'+r.Start, 'A'+r.End)
}

// ParseColumnRange parses "START:END" where both ends are column letters
// and START is not after END.
func ParseColumnRange(s string) (ColumnRange, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return ColumnRange{}, &MalformedRangeError{Input: s, Reason: `expected "LETTER:LETTER"`}
	}

	start, err := ColumnIndex(strings.TrimSpace(parts[0]))
	if err != nil {
		return ColumnRange{}, &MalformedRangeError{Input: s, Reason: "invalid start column"}
	}
	end, err := ColumnIndex(strings.TrimSpace(parts[1]))
	if err != nil {
		return ColumnRange{}, &MalformedRangeError{Input: s, Reason: "invalid end column"}
	}
	if start > end {
		return ColumnRange{}, &MalformedRangeError{Input: s, Reason: "start column is after end column"}
	}

	return ColumnRange{Start: start, End: end}, nil
}
