package outcome

import "math"

// Status of a grading attempt. All states are terminal: once anything
// other than StatusValid is set, further results are refused, and an
// error status never changes again.
type Status string

const (
	StatusValid            Status = "valid"             // a full set of test results
	StatusSyntaxError      Status = "syntax_error"      // the code did not compile on some test
	StatusBadCombinator    Status = "bad_combinator"    // combinator grader protocol violated
	StatusSandboxError     Status = "sandbox_error"     // the run failed altogether
	StatusCombinatorGraded Status = "combinator_graded" // mark and feedback set directly
)

// Allowable difference between actual and max marks for a correct outcome.
const Tolerance = 0.00001

// TestingOutcome accumulates the complete set of results from running
// the selected tests on one submission.
type TestingOutcome struct {
	Status           Status       `json:"status"`
	ErrorMessage     string       `json:"errormessage,omitempty"`
	ErrorCount       int          `json:"errorcount"`
	MaxPossibleMark  float64      `json:"maxpossmark"`
	ActualMark       float64      `json:"actualmark"`
	NumTestsExpected int          `json:"numtestsexpected"`
	TestResults      []TestResult `json:"testresults"`

	// Set when the question asks for source-run debugging.
	SourceCodeList []string `json:"sourcecodelist,omitempty"`

	// Which backend ran the code, for debugging.
	SandboxInfo map[string]string `json:"sandboxinfo,omitempty"`

	// Combinator-template-grader fields; empty otherwise.
	PrologueHtml    string     `json:"prologuehtml,omitempty"`
	EpilogueHtml    string     `json:"epiloguehtml,omitempty"`
	ResultTable     [][]any    `json:"resulttable,omitempty"` // first row is column headers
	ColumnFormats   []string   `json:"columnformats,omitempty"`
	GraderState     string     `json:"graderstate,omitempty"`
	ShowDifferences bool       `json:"showdifferences,omitempty"`
	OutputOnly      bool       `json:"outputonly,omitempty"`
	Aborted         bool       `json:"aborted,omitempty"` // grader stopped testing early
}

func NewTestingOutcome(maxPossibleMark float64, numTests int) *TestingOutcome {
	return &TestingOutcome{
		Status:           StatusValid,
		MaxPossibleMark:  maxPossibleMark,
		NumTestsExpected: numTests,
		TestResults:      []TestResult{},
	}
}

// SetStatus moves the outcome into a terminal error state. The first
// error wins; later calls are ignored.
func (o *TestingOutcome) SetStatus(status Status, errorMessage string) {
	if o.Status != StatusValid {
		return
	}
	o.Status = status
	o.ErrorMessage = errorMessage
}

// AddTestResult appends one verdict and updates the bookkeeping.
// Results accumulated before an abort are preserved, so refusing
// additions applies only after a terminal error status.
func (o *TestingOutcome) AddTestResult(tr TestResult) {
	if o.Status != StatusValid {
		return
	}
	o.TestResults = append(o.TestResults, tr)
	o.ActualMark += tr.Awarded
	if !tr.IsCorrect {
		o.ErrorCount++
	}
}

func (o *TestingOutcome) AddSandboxInfo(info map[string]string) {
	if len(info) == 0 {
		return
	}
	if o.SandboxInfo == nil {
		o.SandboxInfo = map[string]string{}
	}
	for k, v := range info {
		o.SandboxInfo[k] = v
	}
}

func (o *TestingOutcome) RunFailed() bool {
	return o.Status == StatusSandboxError
}

func (o *TestingOutcome) HasSyntaxError() bool {
	return o.Status == StatusSyntaxError
}

func (o *TestingOutcome) CombinatorError() bool {
	return o.Status == StatusBadCombinator
}

// IsUngradable reports that testing aborted for reasons unrelated to
// the learner's code: a backend outage or a misconfigured question.
func (o *TestingOutcome) IsUngradable() bool {
	return o.RunFailed() || o.CombinatorError()
}

// WasAborted reports that testing stopped before every selected case
// ran, either because a grader said to stop or because fewer results
// than expected were recorded.
func (o *TestingOutcome) WasAborted() bool {
	return o.Aborted || len(o.TestResults) != o.NumTestsExpected
}

// MarkAsFraction returns the mark in [0,1]. A clean run with no errors
// returns exactly 1.0, unaffected by floating rounding.
func (o *TestingOutcome) MarkAsFraction() float64 {
	if o.HasSyntaxError() || o.IsUngradable() {
		return 0
	}
	if o.Status == StatusValid && o.ErrorCount == 0 && !o.WasAborted() {
		return 1.0
	}
	if o.MaxPossibleMark == 0 {
		return 0
	}
	fraction := o.ActualMark / o.MaxPossibleMark
	if math.Abs(fraction-1.0) < Tolerance {
		return 1.0
	}
	return fraction
}

func (o *TestingOutcome) AllCorrect() bool {
	return o.MarkAsFraction() == 1.0
}

// ShouldDisplayResult applies the test case's display policy, without
// the hide-rest-if-fail suppression (see VisibleResults).
func ShouldDisplayResult(tr TestResult) bool {
	switch tr.Display {
	case "", "SHOW": // empty: synthesized result, e.g. broken combinator
		return true
	case "HIDE_IF_FAIL":
		return tr.IsCorrect
	case "HIDE_IF_SUCCEED":
		return !tr.IsCorrect
	default: // HIDE
		return false
	}
}

// VisibleResults returns the results a learner may see: display
// policies applied, and everything after a failed hide-rest-if-fail
// case suppressed.
func (o *TestingOutcome) VisibleResults() []TestResult {
	var visible []TestResult
	hidingRest := false
	for _, tr := range o.TestResults {
		if !hidingRest && ShouldDisplayResult(tr) {
			visible = append(visible, tr)
		}
		if tr.HideRestIfFail && !tr.IsCorrect {
			hidingRest = true
		}
	}
	return visible
}

// CountHiddenErrors counts failing cases the learner can not see, so
// callers can explain a less-than-full mark with no visible failures.
func (o *TestingOutcome) CountHiddenErrors() int {
	count := 0
	hidingRest := false
	for _, tr := range o.TestResults {
		displayed := !hidingRest && ShouldDisplayResult(tr)
		if !displayed && !tr.IsCorrect {
			count++
		}
		if tr.HideRestIfFail && !tr.IsCorrect {
			hidingRest = true
		}
	}
	return count
}
