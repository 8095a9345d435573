package question

import "golang.org/x/exp/slices"

// SelectTestCases returns the subset of the question's test cases to run
// for this attempt, in ordering-key order.
//
// A normal check always runs the NORMAL and BOTH cases, whatever the
// precheck mode. A precheck run depends on the question's precheck mode:
// examples only, the author-selected precheck set, or every case.
func SelectTestCases(q *Question, isPrecheck bool) []TestCase {
	var selected []TestCase
	for _, tc := range q.TestCases {
		if runsOn(tc, q.Precheck, isPrecheck) {
			selected = append(selected, tc)
		}
	}
	slices.SortStableFunc(selected, func(a, b TestCase) int {
		return a.Ordering - b.Ordering
	})
	return selected
}

func runsOn(tc TestCase, mode PrecheckMode, isPrecheck bool) bool {
	if !isPrecheck {
		return tc.TestType != TestTypePrecheckOnly
	}
	switch mode {
	case PrecheckExamples:
		return tc.UseAsExample
	case PrecheckSelected:
		return tc.TestType != TestTypeNormal
	case PrecheckAll:
		return true
	default: // PrecheckNone: degenerate, same set as a normal check
		return tc.TestType != TestTypePrecheckOnly
	}
}
