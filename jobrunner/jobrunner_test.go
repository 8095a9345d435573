package jobrunner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/programme-lv/grader/outcome"
	"github.com/programme-lv/grader/question"
	"github.com/programme-lv/grader/sandbox"
)

// scriptedSandbox replays a fixed sequence of execution results and
// records every request it receives.
type scriptedSandbox struct {
	results  []sandbox.ExecutionResult
	requests []sandbox.ExecutionRequest
	closed   int
}

func (s *scriptedSandbox) Name() string { return "scripted" }

func (s *scriptedSandbox) Languages(ctx context.Context) ([]string, error) {
	return []string{"python3"}, nil
}

func (s *scriptedSandbox) Execute(ctx context.Context, req sandbox.ExecutionRequest) (sandbox.ExecutionResult, error) {
	s.requests = append(s.requests, req)
	if len(s.results) == 0 {
		return sandbox.ExecutionResult{}, nil
	}
	res := s.results[0]
	s.results = s.results[1:]
	return res, nil
}

func (s *scriptedSandbox) Close() error {
	s.closed++
	return nil
}

func newRunner(sb sandbox.Sandbox) *Runner {
	reg := sandbox.NewRegistry(sandbox.Entry{Sandbox: sb, Enabled: true})
	return NewRunner(reg, nil)
}

func success(stdout string) sandbox.ExecutionResult {
	return sandbox.ExecutionResult{Status: sandbox.StatusOK, Result: sandbox.ResultSuccess, Stdout: stdout}
}

func combinatorQuestion() *question.Question {
	return &question.Question{
		Template:     "{{.STUDENT_ANSWER}}",
		IsCombinator: true,
		Language:     "python3",
		TestCases: []question.TestCase{
			{TestCode: "print(sqr(2))", Expected: "4", Mark: 1, Display: question.DisplayShow},
			{TestCode: "print(sqr(3))", Expected: "9", Mark: 1, Display: question.DisplayShow},
		},
	}
}

func TestCombinatorRunGradesAllTestsInOneGo(t *testing.T) {
	q := combinatorQuestion()
	sb := &scriptedSandbox{results: []sandbox.ExecutionResult{
		success("4\n#<ab@17943918#@>#\n9\n"),
	}}
	r := newRunner(sb)

	o, err := r.RunTests(context.Background(), q, "def sqr(n): return n*n", q.TestCases, false)
	require.Nil(t, err)
	require.Equal(t, outcome.StatusValid, o.Status)
	require.Len(t, sb.requests, 1)
	require.Len(t, o.TestResults, 2)
	require.True(t, o.AllCorrect())
	require.Equal(t, 1, sb.closed)
}

func TestCombinatorSplitMismatchFallsBackToPerTest(t *testing.T) {
	q := combinatorQuestion()
	sb := &scriptedSandbox{results: []sandbox.ExecutionResult{
		// Combined run produced one segment instead of two; the runner
		// must rerun each test individually.
		success("garbled output, no separator"),
		success("4\n"),
		success("9\n"),
	}}
	r := newRunner(sb)

	o, err := r.RunTests(context.Background(), q, "answer", q.TestCases, false)
	require.Nil(t, err)
	require.Equal(t, outcome.StatusValid, o.Status)
	require.Len(t, sb.requests, 3)
	require.Len(t, o.TestResults, 2)
	require.True(t, o.AllCorrect())
}

func TestCombinatorWithStdinsRunsPerTest(t *testing.T) {
	q := combinatorQuestion()
	q.TestCases[0].Stdin = "7\n"
	sb := &scriptedSandbox{results: []sandbox.ExecutionResult{
		success("4\n"),
		success("9\n"),
	}}
	r := newRunner(sb)

	o, err := r.RunTests(context.Background(), q, "answer", q.TestCases, false)
	require.Nil(t, err)
	require.Len(t, sb.requests, 2)
	require.Equal(t, "7\n", sb.requests[0].Stdin)
	require.True(t, o.AllCorrect())
}

func TestCombinatorStderrFallsBackToPerTest(t *testing.T) {
	q := combinatorQuestion()
	combined := success("4\n#<ab@17943918#@>#\n9\n")
	combined.Stderr = "warning: deprecated API\n"
	sb := &scriptedSandbox{results: []sandbox.ExecutionResult{
		combined,
		success("4\n"),
		success("9\n"),
	}}
	r := newRunner(sb)

	o, err := r.RunTests(context.Background(), q, "answer", q.TestCases, false)
	require.Nil(t, err)
	require.Len(t, sb.requests, 3)
	require.True(t, o.AllCorrect())
}

func TestCompilationErrorIsSyntaxError(t *testing.T) {
	q := combinatorQuestion()
	q.IsCombinator = false
	sb := &scriptedSandbox{results: []sandbox.ExecutionResult{
		{
			Status:  sandbox.StatusOK,
			Result:  sandbox.ResultCompilationError,
			CmpInfo: "SyntaxError: invalid syntax",
		},
	}}
	r := newRunner(sb)

	o, err := r.RunTests(context.Background(), q, "def sqr(n) return n*n", q.TestCases, false)
	require.Nil(t, err)
	require.Equal(t, outcome.StatusSyntaxError, o.Status)
	require.Equal(t, "SyntaxError: invalid syntax", o.ErrorMessage)
	require.Len(t, sb.requests, 1) // no further tests after a compile error
	require.Equal(t, 0.0, o.MarkAsFraction())
}

func TestRuntimeErrorStopsAndGradesAsWrong(t *testing.T) {
	q := combinatorQuestion()
	q.IsCombinator = false
	q.TestCases = append(q.TestCases, question.TestCase{
		TestCode: "print(sqr(4))", Expected: "16", Mark: 1, Display: question.DisplayShow,
	})
	sb := &scriptedSandbox{results: []sandbox.ExecutionResult{
		success("4\n"),
		{
			Status: sandbox.StatusOK,
			Result: sandbox.ResultRuntimeError,
			Stderr: "ZeroDivisionError: division by zero",
			Signal: 0,
		},
	}}
	r := newRunner(sb)

	o, err := r.RunTests(context.Background(), q, "answer", q.TestCases, false)
	require.Nil(t, err)
	require.Equal(t, outcome.StatusValid, o.Status)
	require.Len(t, o.TestResults, 2) // third test never ran
	require.True(t, o.WasAborted())
	require.False(t, o.TestResults[1].IsCorrect)
	require.Contains(t, o.TestResults[1].Got, "***Runtime error***")
	require.Contains(t, o.TestResults[1].Got, "ZeroDivisionError")
	require.InDelta(t, 1.0/3.0, o.MarkAsFraction(), 1e-9) // only the first test earned its mark
}

func TestSandboxTransportFailureIsUngradable(t *testing.T) {
	q := combinatorQuestion()
	q.IsCombinator = false
	sb := &scriptedSandbox{results: []sandbox.ExecutionResult{
		{Status: sandbox.StatusSandboxDown},
	}}
	r := newRunner(sb)

	o, err := r.RunTests(context.Background(), q, "answer", q.TestCases, false)
	require.Nil(t, err)
	require.Equal(t, outcome.StatusSandboxError, o.Status)
	require.True(t, o.IsUngradable())
}

func TestCombinatorTemplateGraderPath(t *testing.T) {
	q := combinatorQuestion()
	q.Grader = "CombinatorTemplateGrader"
	q.TestCases[0].Stdin = "stdin is fine for combinator graders\n"
	sb := &scriptedSandbox{results: []sandbox.ExecutionResult{
		success(`{"fraction": 0.5, "epiloguehtml": "<p>half</p>"}`),
	}}
	r := newRunner(sb)

	o, err := r.RunTests(context.Background(), q, "answer", q.TestCases, false)
	require.Nil(t, err)
	require.Equal(t, outcome.StatusCombinatorGraded, o.Status)
	require.Len(t, sb.requests, 1)
	require.InDelta(t, 0.5, o.MarkAsFraction(), 1e-9)
	require.Equal(t, "<p>half</p>", o.EpilogueHtml)
}

func TestCombinatorTemplateGraderRunFailureIsBadCombinator(t *testing.T) {
	q := combinatorQuestion()
	q.Grader = "CombinatorTemplateGrader"
	sb := &scriptedSandbox{results: []sandbox.ExecutionResult{
		{Status: sandbox.StatusOK, Result: sandbox.ResultTimeLimit, Stdout: "partial"},
	}}
	r := newRunner(sb)

	o, err := r.RunTests(context.Background(), q, "answer", q.TestCases, false)
	require.Nil(t, err)
	require.Equal(t, outcome.StatusBadCombinator, o.Status)
	require.Contains(t, o.ErrorMessage, "Time limit exceeded")
	require.Equal(t, 0.0, o.MarkAsFraction())
}

func TestGraderStateReachesTemplate(t *testing.T) {
	q := combinatorQuestion()
	q.Template = "# state: {{.GRADER_STATE}}\n{{.STUDENT_ANSWER}}"
	q.GraderState = "boomerang"
	sb := &scriptedSandbox{results: []sandbox.ExecutionResult{
		success("4\n#<ab@17943918#@>#\n9\n"),
	}}
	r := newRunner(sb)

	_, err := r.RunTests(context.Background(), q, "answer", q.TestCases, false)
	require.Nil(t, err)
	require.Len(t, sb.requests, 1)
	require.Contains(t, sb.requests[0].SourceCode, "# state: boomerang")

	// Per-test mode renders with the same state.
	q.IsCombinator = false
	sb.results = []sandbox.ExecutionResult{success("4\n"), success("9\n")}
	_, err = r.RunTests(context.Background(), q, "answer", q.TestCases, false)
	require.Nil(t, err)
	require.Contains(t, sb.requests[1].SourceCode, "# state: boomerang")
}

func TestSupportFilesAccompanyEveryRun(t *testing.T) {
	files := map[string]string{"data.txt": "1 2 3\n"}
	q := combinatorQuestion()
	q.SupportFiles = files
	sb := &scriptedSandbox{results: []sandbox.ExecutionResult{
		success("4\n#<ab@17943918#@>#\n9\n"),
	}}
	r := newRunner(sb)

	_, err := r.RunTests(context.Background(), q, "answer", q.TestCases, false)
	require.Nil(t, err)
	require.Len(t, sb.requests, 1)
	require.Equal(t, files, sb.requests[0].Files)

	q.IsCombinator = false
	sb.results = []sandbox.ExecutionResult{success("4\n"), success("9\n")}
	_, err = r.RunTests(context.Background(), q, "answer", q.TestCases, false)
	require.Nil(t, err)
	require.Len(t, sb.requests, 3)
	require.Equal(t, files, sb.requests[1].Files)
	require.Equal(t, files, sb.requests[2].Files)
}

func TestTemplateErrorIsSyntaxError(t *testing.T) {
	q := combinatorQuestion()
	q.Template = "{{.NO_SUCH_VAR}}"
	sb := &scriptedSandbox{}
	r := newRunner(sb)

	o, err := r.RunTests(context.Background(), q, "answer", q.TestCases, false)
	require.Nil(t, err)
	require.Equal(t, outcome.StatusSyntaxError, o.Status)
	require.Contains(t, o.ErrorMessage, "TEMPLATE ERROR")
	require.Empty(t, sb.requests)
}

func TestShowSourceCollectsRenderedPrograms(t *testing.T) {
	q := combinatorQuestion()
	q.IsCombinator = false
	q.ShowSource = true
	sb := &scriptedSandbox{results: []sandbox.ExecutionResult{
		success("4\n"),
		success("9\n"),
	}}
	r := newRunner(sb)

	o, err := r.RunTests(context.Background(), q, "the answer", q.TestCases, false)
	require.Nil(t, err)
	require.Len(t, o.SourceCodeList, 2)
	require.Equal(t, "the answer", o.SourceCodeList[0])
}

func TestTemplateGraderAbortStopsRun(t *testing.T) {
	q := combinatorQuestion()
	q.IsCombinator = false
	q.Grader = "TemplateGrader"
	sb := &scriptedSandbox{results: []sandbox.ExecutionResult{
		success(`{"fraction": 0.9, "abort": true, "got": "prohibited construct"}`),
	}}
	r := newRunner(sb)

	o, err := r.RunTests(context.Background(), q, "answer", q.TestCases, false)
	require.Nil(t, err)
	require.Len(t, o.TestResults, 1)
	require.True(t, o.WasAborted())
	require.False(t, o.TestResults[0].IsCorrect)
	require.Equal(t, 0.0, o.TestResults[0].Awarded)
}
