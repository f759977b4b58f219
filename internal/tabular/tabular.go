// Package tabular turns raw delimited text into rows of fields. It is
// deliberately more forgiving than encoding/csv: published spreadsheet
// exports contain ragged rows, stray quotes and, for some feeds, a
// semicolon delimiter depending on the publisher's locale.
package tabular

import (
	"iter"
	"strings"
)

// Lines splits raw text into non-empty lines on either line-ending style.
func Lines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// Rows returns the data rows of text as a lazy, restartable sequence.
// The first non-empty line is treated as a header and skipped. A payload
// with fewer than two lines yields nothing.
func Rows(text string, delim rune) iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		lines := Lines(text)
		if len(lines) < 2 {
			return
		}
		for _, line := range lines[1:] {
			if !yield(SplitLine(line, delim)) {
				return
			}
		}
	}
}

// SplitLine splits one line on delim, honoring double quotes: a delimiter
// inside a quoted region does not end the field, and quote characters are
// not part of the field value. Fields are trimmed of surrounding space.
func SplitLine(line string, delim rune) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false

	for _, ch := range line {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == delim && !inQuotes:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(ch)
		}
	}
	fields = append(fields, strings.TrimSpace(cur.String()))
	return fields
}

// DetectDelimiter inspects one line and picks between comma and semicolon
// by counting candidates outside quoted regions. Ties favor the semicolon,
// since a line of comma-free semicolon-separated cells is the common case
// for locales that export with ';'.
func DetectDelimiter(line string) rune {
	commas, semis := 0, 0
	inQuotes := false
	for _, ch := range line {
		switch ch {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				commas++
			}
		case ';':
			if !inQuotes {
				semis++
			}
		}
	}
	if semis >= commas && semis > 0 {
		return ';'
	}
	return ','
}

// LocateColumn finds the first header cell containing any of the candidate
// substrings, case-insensitively. Returns -1 when nothing matches.
func LocateColumn(header []string, candidates ...string) int {
	for i, cell := range header {
		lower := strings.ToLower(cell)
		for _, cand := range candidates {
			if cand == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(cand)) {
				return i
			}
		}
	}
	return -1
}

// Field returns row[i], or "" when the row is too short. Ragged rows are
// normal in hand-maintained sheets.
func Field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
