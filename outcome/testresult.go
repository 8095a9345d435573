package outcome

// TestResult is the graded verdict for one test case. The fields of the
// originating test case are flattened in so a result row can be shown
// without the question definition at hand.
type TestResult struct {
	TestCode       string  `json:"testcode"`
	Stdin          string  `json:"stdin"`
	Expected       string  `json:"expected"`
	Extra          string  `json:"extra"`
	Got            string  `json:"got"`
	Mark           float64 `json:"mark"`    // maximum awardable
	Awarded        float64 `json:"awarded"` // 0..Mark
	IsCorrect      bool    `json:"iscorrect"`
	Display        string  `json:"display"`
	HideRestIfFail bool    `json:"hiderestiffail"`

	// Abort is a template-grader directive: stop the run after this
	// case. The runner zeroes the awarded mark when set.
	Abort bool `json:"abort,omitempty"`
}
