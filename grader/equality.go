package grader

import (
	"github.com/programme-lv/grader/outcome"
	"github.com/programme-lv/grader/question"
)

// EqualityGrader awards full marks iff the cleaned program output is
// byte for byte identical to the cleaned expected output.
type EqualityGrader struct{}

func (EqualityGrader) Name() string { return NameEquality }

func (EqualityGrader) Grade(output string, tc *question.TestCase, isError bool) outcome.TestResult {
	if isError {
		return errorResult(output, tc)
	}
	cleanedGot := Clean(output)
	cleanedExpected := Clean(tc.Expected)
	isCorrect := cleanedGot == cleanedExpected
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
