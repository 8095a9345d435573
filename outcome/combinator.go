package outcome

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Field names a combinator template grader may emit. Anything else is
// a hard error so author typos never pass silently.
var allowedCombinatorFields = map[string]bool{
	"fraction":        true,
	"prologuehtml":    true,
	"epiloguehtml":    true,
	"feedbackhtml":    true,
	"feedback_html":   true, // legacy alias for epiloguehtml
	"testresults":     true,
	"columnformats":   true,
	"showdifferences": true,
	"showoutputonly":  true,
	"graderstate":     true,
	"abort":           true,
}

// Control columns in a grader-supplied result table; they steer display
// and are not counted against columnformats.
func isControlColumn(header any) bool {
	name, ok := header.(string)
	if !ok {
		return false
	}
	name = strings.ToLower(name)
	return name == "iscorrect" || name == "ishidden"
}

// combinatorVerdict is the JSON object a combinator template grader
// prints as its entire stdout.
type combinatorVerdict struct {
	Fraction        *float64 `json:"fraction"`
	PrologueHtml    string   `json:"prologuehtml"`
	EpilogueHtml    string   `json:"epiloguehtml"`
	FeedbackHtml    string   `json:"feedbackhtml"`
	FeedbackHtmlAlt string   `json:"feedback_html"`
	TestResults     [][]any  `json:"testresults"`
	ColumnFormats   []string `json:"columnformats"`
	ShowDifferences bool     `json:"showdifferences"`
	ShowOutputOnly  bool     `json:"showoutputonly"`
	GraderState     string   `json:"graderstate"`
	Abort           bool     `json:"abort"`
}

// GradeCombinatorOutput interprets the stdout of a combinator-template
// grader run as a whole-submission verdict. The returned outcome is
// terminal: StatusCombinatorGraded on success, StatusBadCombinator on
// any protocol violation.
func GradeCombinatorOutput(stdout string) *TestingOutcome {
	o := NewTestingOutcome(1, 0)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stdout), &fields); err != nil {
		o.SetStatus(StatusBadCombinator,
			fmt.Sprintf("Bad JSON output from combinator grader: %q", snippet(stdout)))
		return o
	}
	for name := range fields {
		if !allowedCombinatorFields[name] {
			o.SetStatus(StatusBadCombinator,
				fmt.Sprintf("Unknown field name (%s) in combinator grader output", name))
			return o
		}
	}

	var verdict combinatorVerdict
	if err := json.Unmarshal([]byte(stdout), &verdict); err != nil {
		o.SetStatus(StatusBadCombinator,
			fmt.Sprintf("Bad JSON output from combinator grader: %q", snippet(stdout)))
		return o
	}

	if msg := validateTableFormats(verdict.TestResults, verdict.ColumnFormats); msg != "" {
		o.SetStatus(StatusBadCombinator, msg)
		return o
	}

	if verdict.ShowOutputOnly {
		// Output-only: prologue/epilogue displayed, no verdict, no mark.
		o.Status = StatusCombinatorGraded
		o.OutputOnly = true
		o.ActualMark = 1
	} else {
		if verdict.Fraction == nil || *verdict.Fraction < 0.0 || *verdict.Fraction > 1.0 {
			o.SetStatus(StatusBadCombinator,
				fmt.Sprintf("Bad or missing fraction in combinator grader output: %q", snippet(stdout)))
			return o
		}
		o.Status = StatusCombinatorGraded
		o.ActualMark = *verdict.Fraction
	}

	o.PrologueHtml = verdict.PrologueHtml
	o.EpilogueHtml = verdict.EpilogueHtml
	// feedbackhtml is the legacy name for what is now the epilogue.
	if verdict.FeedbackHtml != "" {
		o.EpilogueHtml = verdict.FeedbackHtml
	}
	if verdict.FeedbackHtmlAlt != "" {
		o.EpilogueHtml = verdict.FeedbackHtmlAlt
	}
	o.ResultTable = verdict.TestResults
	o.ColumnFormats = verdict.ColumnFormats
	o.ShowDifferences = verdict.ShowDifferences
	o.GraderState = verdict.GraderState
	// The grader zeroes the marks of rows after the abort point itself;
	// the engine just records that testing stopped early.
	o.Aborted = verdict.Abort
	return o
}

// validateTableFormats checks columnformats against the result table
// header: one format per non-control column, each either %s or %h.
// Returns an error message, or "" when valid.
func validateTableFormats(table [][]any, formats []string) string {
	if len(formats) == 0 || len(table) == 0 {
		return ""
	}
	numCols := 0
	for _, header := range table[0] {
		if !isControlColumn(header) {
			numCols++
		}
	}
	if len(formats) != numCols {
		return fmt.Sprintf(
			"Wrong number of test results column formats. Expected %d, got %d",
			numCols, len(formats))
	}
	for _, format := range formats {
		if format != "%s" && format != "%h" {
			return fmt.Sprintf("Illegal format for combinator grader table column: %s", format)
		}
	}
	return ""
}

func snippet(s string) string {
	const max = 200
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
