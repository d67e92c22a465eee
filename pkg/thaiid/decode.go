package thaiid

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Text on the card is TIS-620 padded with '#'. Windows-874 extends TIS-620 with punctuation
// in 80-A0; those bytes are not TIS-620 characters and decode to U+FFFD like any other
// undefined byte.

// buddhistEraOffset is the difference between Buddhist Era and Gregorian years.
const buddhistEraOffset = 543

// DecodeText converts a raw TIS-620 field into a trimmed UTF-8 string. Every '#' filler
// becomes a space.
func DecodeText(raw []byte) string {
	var sb strings.Builder
	sb.Grow(len(raw))
	for _, b := range raw {
		switch {
		case b == '#':
			sb.WriteByte(' ')
		case b >= 0x80 && b <= 0xA0:
			sb.WriteRune(utf8.RuneError)
		default:
			sb.WriteRune(charmap.Windows874.DecodeByte(b))
		}
	}

	return strings.TrimFunc(sb.String(), func(r rune) bool {
		return unicode.IsSpace(r) || r == 0
	})
}

// FormatBuddhistDate renders a YYYYMMDD card date as DD/MM/YYYY. The year is kept in the
// Buddhist Era. Anything other than exactly 8 ASCII digits is returned unchanged.
func FormatBuddhistDate(s string) string {
	if !isDigits(s, 8) {
		return s
	}
	return s[6:8] + "/" + s[4:6] + "/" + s[0:4]
}

// ParseBuddhistDate converts a YYYYMMDD Buddhist Era date into a Gregorian time.Time (UTC
// midnight). Cards use placeholder values such as "25000000" for unknown days and
// "99999999" for documents without expiry; those report false.
func ParseBuddhistDate(s string) (time.Time, bool) {
	if !isDigits(s, 8) {
		return time.Time{}, false
	}

	year := atoi(s[0:4]) - buddhistEraOffset
	month := atoi(s[4:6])
	day := atoi(s[6:8])
	if year < 1 || month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		// Normalised, e.g. 31 of a 30-day month.
		return time.Time{}, false
	}
	return t, true
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// atoi expects pre-validated ASCII digits.
func atoi(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}
