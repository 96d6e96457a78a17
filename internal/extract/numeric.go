package extract

import (
	"strconv"
	"strings"
	"time"
)

// parseAmount converts a captured amount string to a float64, handling both
// "1,234.56" and "1.234,56" separator conventions. The last separator in the
// string is treated as the decimal point when it is followed by one or two
// digits; all other separators are thousands grouping. Returns false when the
// string does not parse; the caller records the field as absent.
func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, ".,")
	if s == "" {
		return 0, false
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	decimalSep := byte(0)
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			decimalSep = ','
		} else {
			decimalSep = '.'
		}
	case lastComma >= 0:
		if isDecimalTail(s, lastComma) {
			decimalSep = ','
		}
	case lastDot >= 0:
		if isDecimalTail(s, lastDot) {
			decimalSep = '.'
		}
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			b.WriteByte(c)
		case c == decimalSep && i == strings.LastIndexByte(s, decimalSep):
			b.WriteByte('.')
		case c == ',' || c == '.':
			// grouping separator: drop
		default:
			return 0, false
		}
	}

	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// isDecimalTail reports whether the separator at idx is followed by exactly
// one or two digits at the end of the string.
func isDecimalTail(s string, idx int) bool {
	tail := s[idx+1:]
	if len(tail) == 0 || len(tail) > 2 {
		return false
	}
	for i := 0; i < len(tail); i++ {
		if tail[i] < '0' || tail[i] > '9' {
			return false
		}
	}
	return true
}

// dateLayouts are tried in order when parsing a captured date string.
var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"1-2-2006",
	"1/2/06",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
}

// parseDate converts a captured date string to a time.Time. Returns false
// when no known layout matches.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
