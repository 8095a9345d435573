package grader

import (
	"github.com/programme-lv/grader/outcome"
	"github.com/programme-lv/grader/question"
	"github.com/programme-lv/grader/srvcerror"
)

// Grader turns the output of one test run into a graded test result.
// Grade is only meaningful when the run itself succeeded; callers pass
// isError=true when output is an error message rather than program
// output, in which case the result is marked wrong without comparison.
type Grader interface {
	Name() string
	Grade(output string, tc *question.TestCase, isError bool) outcome.TestResult
}

const (
	NameEquality           = "EqualityGrader"
	NameNearEquality       = "NearEqualityGrader"
	NameRegex              = "RegexGrader"
	NameTemplate           = "TemplateGrader"
	NameCombinatorTemplate = "CombinatorTemplateGrader"
)

// New returns the grader registered under the given name. The empty
// name selects the equality grader. CombinatorTemplateGrader has no
// per-test grading behaviour; requesting it here yields an equality
// grader, which serves as the fallback when a combinator-graded
// question degrades to per-test runs.
func New(name string) (Grader, *srvcerror.Error) {
	switch name {
	case "", NameEquality, NameCombinatorTemplate:
		return EqualityGrader{}, nil
	case NameNearEquality:
		return NearEqualityGrader{}, nil
	case NameRegex:
		return RegexGrader{}, nil
	case NameTemplate:
		return TemplateGrader{}, nil
	default:
		return nil, ErrUnknownGrader(name)
	}
}

// errorResult builds the result recorded when the run produced an error
// instead of output. The error text goes in the Got column.
func errorResult(errMsg string, tc *question.TestCase) outcome.TestResult {
	return outcome.TestResult{
		TestCode:       Tidy(tc.TestCode),
		Stdin:          Tidy(tc.Stdin),
		Expected:       Tidy(tc.Expected),
		Extra:          Tidy(tc.Extra),
		Got:            Snip(errMsg),
		Mark:           tc.Mark,
		Awarded:        0,
		IsCorrect:      false,
		Display:        tc.Display,
		HideRestIfFail: tc.HideRestIfFail,
	}
}
