package grader

import (
	"encoding/json"
	"math"

	"github.com/programme-lv/grader/outcome"
	"github.com/programme-lv/grader/question"
)

// TemplateGrader handles per-test runs where the rendered template
// itself grades the student's answer. The run's stdout must be a JSON
// object with a numeric "fraction" field plus optional overrides.
type TemplateGrader struct{}

func (TemplateGrader) Name() string { return NameTemplate }

type templateVerdict struct {
	Fraction *float64 `json:"fraction"`
	Awarded  *float64 `json:"awarded"`
	Got      *string  `json:"got"`
	Abort    bool     `json:"abort"`
}

func (TemplateGrader) Grade(output string, tc *question.TestCase, isError bool) outcome.TestResult {
	if isError {
		return errorResult(output, tc)
	}
	var v templateVerdict
	if err := json.Unmarshal([]byte(output), &v); err != nil {
		msg := "Bad output from grader: " + Snip(output) +
			". Your program execution may have aborted (e.g. a timeout or memory limit exceeded)."
		return errorResult(msg, tc)
	}
	if v.Fraction == nil {
		return errorResult("Bad or missing fraction in output from grader: "+Snip(output), tc)
	}
	isCorrect := math.Abs(*v.Fraction-1.0) < 0.000001
	awarded := tc.Mark * *v.Fraction
	if v.Awarded != nil {
		awarded = *v.Awarded
	}
	got := ""
	if v.Got != nil {
		got = *v.Got
	}
	return outcome.TestResult{
		TestCode:       Tidy(tc.TestCode),
		Stdin:          Tidy(tc.Stdin),
		Expected:       Tidy(tc.Expected),
		Extra:          Tidy(tc.Extra),
		Got:            Snip(got),
		Mark:           tc.Mark,
		Awarded:        awarded,
		IsCorrect:      isCorrect,
		Display:        tc.Display,
		HideRestIfFail: tc.HideRestIfFail,
		Abort:          v.Abort,
	}
}
