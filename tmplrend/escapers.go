package tmplrend

import "strings"

// EscapePython escapes a string for interpolation into a Python
// double-quoted (or triple-quoted) string literal: backslashes are
// doubled and embedded double quotes escaped. Nothing else is touched.
func EscapePython(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

var javaReplacer = strings.NewReplacer(
	"'", `\'`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
	"\f", `\f`,
	"\b", `\b`,
)

// EscapeJava escapes a string for a Java or C string literal,
// covering both quote characters and the standard single-character
// control escapes.
func EscapeJava(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return javaReplacer.Replace(s)
}

var matlabReplacer = strings.NewReplacer(
	"'", "''",
	"\n", `\n`,
	"\r", "",
	"%", "%%",
)

// EscapeMatlab escapes a string for use as a MATLAB sprintf argument:
// single quotes and percents are doubled, carriage returns stripped,
// newlines turned into \n sequences. Literal backslash-n sequences are
// protected first so they survive the sprintf pass.
func EscapeMatlab(s string) string {
	s = strings.ReplaceAll(s, `\n`, `\\n`)
	return matlabReplacer.Replace(s)
}
