package grader

import (
	"regexp"
	"strings"

	"github.com/programme-lv/grader/outcome"
	"github.com/programme-lv/grader/question"
)

// RegexGrader treats the expected field of the test case as a regular
// expression. Full marks are awarded iff the pattern, compiled with the
// multiline and dot-matches-newline flags, matches anywhere in the
// output. Patterns that should match the entire output need explicit
// ^ and $ anchors.
type RegexGrader struct{}

func (RegexGrader) Name() string { return NameRegex }

func (RegexGrader) Grade(output string, tc *question.TestCase, isError bool) outcome.TestResult {
	if isError {
		return errorResult(output, tc)
	}
	pattern := "(?ms)" + strings.TrimRight(tc.Expected, " \t\n\r")
	re, err := regexp.Compile(pattern)
	if err != nil {
		return errorResult("Bad regular expression in expected output: "+err.Error(), tc)
	}
	isCorrect := re.MatchString(output)
	awarded := 0.0
	if isCorrect {
		awarded = tc.Mark
	}
	return outcome.TestResult{
		TestCode:       Tidy(tc.TestCode),
		Stdin:          Tidy(tc.Stdin),
		Expected:       Tidy(tc.Expected),
		Extra:          Tidy(tc.Extra),
		Got:            Snip(output),
		Mark:           tc.Mark,
		Awarded:        awarded,
		IsCorrect:      isCorrect,
		Display:        tc.Display,
		HideRestIfFail: tc.HideRestIfFail,
	}
}
