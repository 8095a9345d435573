package grader

import (
	"regexp"
	"strings"

	"github.com/programme-lv/grader/outcome"
	"github.com/programme-lv/grader/question"
)

// NearEqualityGrader awards full marks iff the output "nearly matches"
// the expected output: byte for byte identical after trailing white
// space and blank lines are removed, runs of spaces and tabs collapse
// to a single space and all letters are lowercased.
type NearEqualityGrader struct{}

func (NearEqualityGrader) Name() string { return NameNearEquality }

var (
	blankLinesRe = regexp.MustCompile(`\n\n+`)
	spaceRunsRe  = regexp.MustCompile(`[ \t][ \t]+`)
)

func reduce(s string) string {
	r := blankLinesRe.ReplaceAllString(s, "\n")
	r = strings.TrimPrefix(r, "\n")
	r = spaceRunsRe.ReplaceAllString(r, " ")
	return strings.ToLower(r)
}

func (NearEqualityGrader) Grade(output string, tc *question.TestCase, isError bool) outcome.TestResult {
	if isError {
		return errorResult(output, tc)
	}
	cleanedGot := Clean(output)
	cleanedExpected := Clean(tc.Expected)
	isCorrect := reduce(cleanedGot) == reduce(cleanedExpected)
	awarded := 0.0
	if isCorrect {
		awarded = tc.Mark
	}
	return outcome.TestResult{
		TestCode:       Tidy(tc.TestCode),
		Stdin:          Tidy(tc.Stdin),
		Expected:       Snip(cleanedExpected),
		Extra:          Tidy(tc.Extra),
		Got:            Snip(cleanedGot),
		Mark:           tc.Mark,
		Awarded:        awarded,
		IsCorrect:      isCorrect,
		Display:        tc.Display,
		HideRestIfFail: tc.HideRestIfFail,
	}
}
