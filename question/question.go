package question

import (
	"encoding/json"
	"regexp"
)

// How a test case row is shown to the learner in the result table.
const (
	DisplayShow          = "SHOW"
	DisplayHide          = "HIDE"
	DisplayHideIfFail    = "HIDE_IF_FAIL"
	DisplayHideIfSucceed = "HIDE_IF_SUCCEED"
)

// Whether a test case runs on a normal check, a precheck, or both.
const (
	TestTypeNormal       = "NORMAL"
	TestTypePrecheckOnly = "PRECHECK_ONLY"
	TestTypeBoth         = "BOTH"
)

// Which subset of test cases a precheck run executes.
type PrecheckMode string

const (
	PrecheckNone     PrecheckMode = "NONE"
	PrecheckExamples PrecheckMode = "EXAMPLES"
	PrecheckSelected PrecheckMode = "SELECTED"
	PrecheckAll      PrecheckMode = "ALL"
)

// Default regex used to split combinator run output into per-test segments.
const DefaultTestSplitterRe = `#<ab@17943918#@>#\n?`

// TestCase is one author-defined test of a question. Immutable once
// selected for a run.
type TestCase struct {
	TestCode       string  `json:"testcode"` // snippet or program fragment
	Stdin          string  `json:"stdin"`
	Expected       string  `json:"expected"`
	Extra          string  `json:"extra"` // auxiliary text some templates use instead of testcode
	Mark           float64 `json:"mark"`
	UseAsExample   bool    `json:"useasexample"`
	Display        string  `json:"display"`
	HideRestIfFail bool    `json:"hiderestiffail"`
	TestType       string  `json:"testtype"`
	Ordering       int     `json:"ordering"`
}

// ResourceLimits are per-run sandbox limits.
type ResourceLimits struct {
	CpuTimeSecs int `json:"cputimelimitsecs"`
	MemoryMB    int `json:"memlimitmb"`
}

// Question is the template and grading configuration this engine
// consumes. It is owned by the caller; the engine never mutates it.
type Question struct {
	Template            string            `json:"template"` // per-test or combinator template text
	IsCombinator        bool              `json:"iscombinatortemplate"`
	AllowMultipleStdins bool              `json:"allowmultiplestdins"`
	TestSplitterRe      string            `json:"testsplitterre"`
	Language            string            `json:"language"`
	AnswerLanguage      string            `json:"answerlanguage"` // multi-language questions only
	Grader              string            `json:"grader"`
	Limits              ResourceLimits    `json:"limits"`
	SandboxParams       json.RawMessage   `json:"sandboxparams"` // passed through verbatim
	SupportFiles        map[string]string `json:"supportfiles"`  // filename -> contents, uploaded before every run
	TemplateParams      map[string]any    `json:"templateparams"`
	AllOrNothing        bool              `json:"allornothing"`
	PenaltyRegime       string            `json:"penaltyregime"`
	Precheck            PrecheckMode      `json:"precheck"`
	GraderState         string            `json:"graderstate"` // from the previous attempt
	ShowSource          bool              `json:"showsource"`
	TestCases           []TestCase        `json:"testcases"`
}

// SplitterRe returns the compiled output splitter for combinator runs,
// falling back to the default separator when none is configured.
func (q *Question) SplitterRe() (*regexp.Regexp, error) {
	pattern := q.TestSplitterRe
	if pattern == "" {
		pattern = DefaultTestSplitterRe
	}
	return regexp.Compile(pattern)
}

// Validate checks the parts of the question configuration that must be
// caught at authoring time, before any grading run.
func (q *Question) Validate() error {
	if q.Template == "" {
		return ErrNoTemplate()
	}
	if q.Language == "" {
		return ErrNoLanguage()
	}
	if _, err := q.SplitterRe(); err != nil {
		return ErrBadSplitter().SetDebug(err)
	}
	if q.PenaltyRegime != "" {
		if _, err := ParsePenaltyRegime(q.PenaltyRegime); err != nil {
			return err
		}
	}
	for i, tc := range q.TestCases {
		if tc.Mark <= 0 {
			return ErrBadTestCaseMark(i + 1)
		}
	}
	return nil
}
