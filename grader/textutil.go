package grader

import (
	"fmt"
	"strings"
)

// MaxStringLength bounds the size of any string stored in a test result.
// Longer strings have their middle replaced by a snip marker.
const MaxStringLength = 8000

const snipInsert = " ...snip... "

// Clean removes trailing white space from every line and trailing blank
// lines from the string, replacing control characters other than newline
// with printable escapes. A newline terminator is appended unless the
// result is otherwise empty.
func Clean(s string) string {
	var out strings.Builder
	out.Grow(len(s))
	var nls, spaces strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == ' ':
			spaces.WriteByte(c)
		case c == '\n':
			spaces.Reset() // discard spaces before a newline
			nls.WriteByte(c)
		default:
			var esc string
			switch {
			case c == '\r':
				esc = `\r`
			case c == '\t':
				esc = `\t`
			case c < ' ' || c > 0x7e:
				esc = fmt.Sprintf(`\x%02x`, c)
			default:
				esc = string(c)
			}
			out.WriteString(nls.String())
			out.WriteString(spaces.String())
			out.WriteString(esc)
			nls.Reset()
			spaces.Reset()
		}
	}
	if out.Len() > 0 {
		out.WriteByte('\n')
	}
	return out.String()
}

// Snip limits s to MaxStringLength bytes by removing the centre of the
// string and inserting a snip marker in its place.
func Snip(s string) string {
	if len(s) <= MaxStringLength {
		return s
	}
	toRemove := len(s) - MaxStringLength + len(snipInsert)
	partLen := (len(s) - toRemove) / 2
	return s[:partLen] + snipInsert + s[len(s)-partLen:]
}

// Tidy returns a cleaned and snipped copy of s.
func Tidy(s string) string {
	return Snip(Clean(s))
}
