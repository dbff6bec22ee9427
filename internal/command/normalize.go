package command

import (
	"strings"
	"unicode"
)

// Normalize lower-cases text, strips punctuation and collapses whitespace.
//
// Characters that carry meaning inside numbers and units survive when they sit inside a
// token: the decimal point, the timecode colon, percent, and leading signs ("-3db", "0:10",
// "1.5s", "50%", "fade-in"). Apostrophes are dropped so contractions stay one word.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case r == '\'' || r == '’':
			// drop
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '.', r == ':', r == '%', r == '+', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	fields := strings.Fields(b.String())
	tokens := fields[:0]
	for _, f := range fields {
		f = strings.TrimRight(f, ".:+-")
		if len(f) > 1 && f[0] == '.' && unicode.IsDigit(rune(f[1])) {
			f = "0" + f
		}
		f = strings.TrimLeft(f, ".:")
		if f == "" || f == "-" || f == "+" {
			continue
		}
		tokens = append(tokens, f)
	}
	return strings.Join(tokens, " ")
}
