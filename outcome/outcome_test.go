package outcome

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func passing(code string, mark float64) TestResult {
	return TestResult{TestCode: code, Mark: mark, Awarded: mark, IsCorrect: true, Display: "SHOW"}
}

func failing(code string, mark float64) TestResult {
	return TestResult{TestCode: code, Mark: mark, Awarded: 0, IsCorrect: false, Display: "SHOW"}
}

func TestAllCorrectFullMarks(t *testing.T) {
	o := NewTestingOutcome(3, 3)
	o.AddTestResult(passing("a", 1))
	o.AddTestResult(passing("b", 1))
	o.AddTestResult(passing("c", 1))

	require.Equal(t, StatusValid, o.Status)
	require.True(t, o.AllCorrect())
	require.Equal(t, 1.0, o.MarkAsFraction()) // exactly, not approximately
	require.False(t, o.WasAborted())
}

// Four cases worth 1, 2, 4, 8; only the last one fails.
func TestPartialMarks(t *testing.T) {
	o := NewTestingOutcome(15, 4)
	o.AddTestResult(passing("a", 1))
	o.AddTestResult(passing("b", 2))
	third := passing("c", 4)
	third.HideRestIfFail = true
	o.AddTestResult(third)
	o.AddTestResult(failing("d", 8))

	require.Equal(t, 1, o.ErrorCount)
	require.InDelta(t, 7.0, o.ActualMark, 1e-9)
	require.InDelta(t, 7.0/15.0, o.MarkAsFraction(), 1e-9)
	require.False(t, o.AllCorrect())
	// hideRestIfFail on a passing case has no effect.
	require.Len(t, o.VisibleResults(), 4)
}

func TestHideRestIfFailSuppressesLaterDisplayOnly(t *testing.T) {
	o := NewTestingOutcome(15, 4)
	o.AddTestResult(passing("a", 1))
	o.AddTestResult(passing("b", 2))
	third := failing("c", 4)
	third.HideRestIfFail = true
	o.AddTestResult(third)
	o.AddTestResult(failing("d", 8))

	// Case d ran (it is in TestResults) but is not shown.
	require.Len(t, o.TestResults, 4)
	visible := o.VisibleResults()
	require.Len(t, visible, 3)
	require.Equal(t, "c", visible[2].TestCode)
	// d's failure is hidden from the learner.
	require.Equal(t, 1, o.CountHiddenErrors())
}

func TestDisplayPolicies(t *testing.T) {
	require.True(t, ShouldDisplayResult(TestResult{Display: "SHOW"}))
	require.True(t, ShouldDisplayResult(TestResult{Display: ""}))
	require.False(t, ShouldDisplayResult(TestResult{Display: "HIDE"}))
	require.True(t, ShouldDisplayResult(TestResult{Display: "HIDE_IF_FAIL", IsCorrect: true}))
	require.False(t, ShouldDisplayResult(TestResult{Display: "HIDE_IF_FAIL", IsCorrect: false}))
	require.True(t, ShouldDisplayResult(TestResult{Display: "HIDE_IF_SUCCEED", IsCorrect: false}))
	require.False(t, ShouldDisplayResult(TestResult{Display: "HIDE_IF_SUCCEED", IsCorrect: true}))
}

func TestSyntaxErrorOutcome(t *testing.T) {
	o := NewTestingOutcome(10, 4)
	o.SetStatus(StatusSyntaxError, "line 1: unexpected indent")

	require.True(t, o.HasSyntaxError())
	require.Empty(t, o.TestResults)
	require.Equal(t, 0.0, o.MarkAsFraction())

	// Terminal: no further results accepted, errors do not overwrite.
	o.AddTestResult(passing("a", 1))
	require.Empty(t, o.TestResults)
	o.SetStatus(StatusSandboxError, "later error")
	require.Equal(t, StatusSyntaxError, o.Status)
	require.Equal(t, "line 1: unexpected indent", o.ErrorMessage)
}

func TestSandboxErrorIsUngradable(t *testing.T) {
	o := NewTestingOutcome(10, 4)
	o.SetStatus(StatusSandboxError, "Sandbox is down or unreachable")
	require.True(t, o.RunFailed())
	require.True(t, o.IsUngradable())
	require.Equal(t, 0.0, o.MarkAsFraction())
}

// Partial results before an abort are preserved and reported.
func TestAbortedRunKeepsEarlierResults(t *testing.T) {
	o := NewTestingOutcome(15, 4)
	o.AddTestResult(passing("a", 1))
	o.AddTestResult(failing("b", 2))

	require.True(t, o.WasAborted())
	require.Len(t, o.TestResults, 2)
	require.InDelta(t, 1.0/15.0, o.MarkAsFraction(), 1e-9)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	o := NewTestingOutcome(15, 4)
	o.AddTestResult(passing("a", 1))
	o.AddTestResult(failing("b", 2))
	o.AddSandboxInfo(map[string]string{"jobeserver": "jobe.example.com"})
	o.SourceCodeList = []string{"print(1)"}

	blob, err := Encode(o)
	require.NoError(t, err)

	restored, err := Decode(blob)
	require.NoError(t, err)
	require.Equal(t, o, restored)

	// Identical outcomes encode to identical blobs.
	blob2, err := Encode(restored)
	require.NoError(t, err)
	require.Equal(t, blob, blob2)
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	o := NewTestingOutcome(1, 1)
	blob, err := Encode(o)
	require.NoError(t, err)
	blob[0] = 99
	_, err = Decode(blob)
	require.Error(t, err)

	_, err = Decode(nil)
	require.Error(t, err)
}
