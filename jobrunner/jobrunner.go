package jobrunner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/programme-lv/grader/grader"
	"github.com/programme-lv/grader/logger"
	"github.com/programme-lv/grader/outcome"
	"github.com/programme-lv/grader/question"
	"github.com/programme-lv/grader/sandbox"
	"github.com/programme-lv/grader/srvcerror"
	"github.com/programme-lv/grader/tmplrend"
)

// Runner drives the two-phase execution strategy: try one combined run
// for combinator templates, fall back to running tests one by one.
type Runner struct {
	registry *sandbox.Registry
	logger   *slog.Logger
}

func NewRunner(registry *sandbox.Registry, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{registry: registry, logger: logger}
}

// log prefers the request-scoped logger (which carries the attempt id)
// over the runner's own.
func (r *Runner) log(ctx context.Context) *slog.Logger {
	if l := logger.FromContext(ctx); l != slog.Default() {
		return l
	}
	return r.logger
}

// job carries the per-grading state so the combinator and per-test
// paths share one set of inputs.
type job struct {
	question   *question.Question
	code       string
	testcases  []question.TestCase
	isPrecheck bool
	grader     grader.Grader
	sandbox    sandbox.Sandbox
	allRuns    []string
}

// RunTests executes the selected test cases for one submission and
// returns the resulting testing outcome. Errors are returned only for
// faults outside the submission itself (no usable backend, unknown
// grader); everything the learner or question author caused is encoded
// in the outcome's status.
func (r *Runner) RunTests(
	ctx context.Context,
	q *question.Question,
	code string,
	testcases []question.TestCase,
	isPrecheck bool,
) (*outcome.TestingOutcome, *srvcerror.Error) {
	g, srvcErr := grader.New(q.Grader)
	if srvcErr != nil {
		return nil, srvcErr
	}
	sb, err := r.registry.BestFor(ctx, q.Language)
	if err != nil {
		var sErr *srvcerror.Error
		if e, ok := err.(*srvcerror.Error); ok {
			sErr = e
		} else {
			sErr = srvcerror.ErrInternalSE().SetDebug(err)
		}
		return nil, sErr
	}
	defer sb.Close()

	j := &job{
		question:   q,
		code:       code,
		testcases:  testcases,
		isPrecheck: isPrecheck,
		grader:     g,
		sandbox:    sb,
	}

	var o *outcome.TestingOutcome
	if q.IsCombinator &&
		(hasNoStdins(testcases) || q.AllowMultipleStdins ||
			q.Grader == grader.NameCombinatorTemplate) {
		o = r.runCombinator(ctx, j)
	}

	// A nil outcome here means the combined run was inconclusive (e.g.
	// a runtime error in one test poisoned the shared output), or the
	// template was never a combinator. Run the tests individually.
	if o == nil {
		o = r.runTestsSingly(ctx, j)
	}

	if q.ShowSource {
		o.SourceCodeList = j.allRuns
	}
	return o, nil
}

// runCombinator renders the template once over all test cases and runs
// the result as a single program. Returns nil when testing must fall
// back to per-test runs; any non-nil outcome is final.
func (r *Runner) runCombinator(ctx context.Context, j *job) *outcome.TestingOutcome {
	numTests := len(j.testcases)
	o := outcome.NewTestingOutcome(maxPossibleMark(j.testcases), numTests)

	prog, err := tmplrend.Render(j.question.Template, tmplrend.Vars{
		StudentAnswer:  j.code,
		IsPrecheck:     j.isPrecheck,
		AnswerLanguage: j.question.AnswerLanguage,
		GraderState:    j.question.GraderState,
		QuestionParams: j.question.TemplateParams,
		TestCases:      j.testcases,
	})
	if err != nil {
		o.SetStatus(outcome.StatusSyntaxError, "TEMPLATE ERROR: "+debugText(err))
		return o
	}

	j.allRuns = append(j.allRuns, prog)
	run, execErr := j.sandbox.Execute(ctx, sandbox.ExecutionRequest{
		SourceCode: prog,
		Language:   j.question.Language,
		Files:      j.question.SupportFiles,
		Limits: sandbox.Limits{
			CpuTimeSecs: j.question.Limits.CpuTimeSecs,
			MemoryMB:    j.question.Limits.MemoryMB,
		},
		Params: j.question.SandboxParams,
	})
	if execErr != nil {
		o.SetStatus(outcome.StatusSandboxError, execErr.Error())
		return o
	}
	o.AddSandboxInfo(run.Info)

	switch {
	case run.Failed():
		o.SetStatus(outcome.StatusSandboxError, run.ErrorString())
		return o

	case j.question.Grader == grader.NameCombinatorTemplate:
		co := r.gradeCombinatorRun(run)
		co.AddSandboxInfo(run.Info)
		return co

	case run.Result == sandbox.ResultCompilationError:
		o.SetStatus(outcome.StatusSyntaxError, run.CmpInfo)
		return o

	case run.Result == sandbox.ResultSuccess && run.Stderr == "":
		splitter, reErr := j.question.SplitterRe()
		if reErr != nil {
			o.SetStatus(outcome.StatusSandboxError, reErr.Error())
			return o
		}
		outputs := splitter.Split(run.Stdout, -1)
		if len(outputs) != numTests {
			// Wrong number of output segments: most likely a runtime
			// error in one test corrupted the shared stream. Rerun
			// per-test so the learner sees which test broke.
			r.log(ctx).Info("combinator output split mismatch, falling back",
				slog.Int("expected", numTests), slog.Int("got", len(outputs)))
			return nil
		}
		for i := range j.testcases {
			o.AddTestResult(j.grader.Grade(outputs[i], &j.testcases[i], false))
		}
		return o

	default:
		// Runtime error, time limit, stderr noise etc. Give up on the
		// combined run and test each case individually.
		return nil
	}
}

// gradeCombinatorRun builds the outcome for a combinator template
// grader, whose stdout is the grading verdict itself.
func (r *Runner) gradeCombinatorRun(run sandbox.ExecutionResult) *outcome.TestingOutcome {
	if run.Result != sandbox.ResultSuccess {
		details := merge("\n", []string{
			"Run result: " + run.Result.String(),
			run.CmpInfo,
			run.Stdout,
			run.Stderr,
		})
		o := outcome.NewTestingOutcome(1, 0)
		o.SetStatus(outcome.StatusBadCombinator,
			fmt.Sprintf("Bad output from grader: %s. Your program execution may have aborted (e.g. a timeout or memory limit exceeded).", details))
		return o
	}
	return outcome.GradeCombinatorOutput(run.Stdout)
}

// runTestsSingly renders and runs the template once per test case.
// Compilation errors and transport failures abort the whole run; a
// non-success result grades the failing test and stops there.
func (r *Runner) runTestsSingly(ctx context.Context, j *job) *outcome.TestingOutcome {
	o := outcome.NewTestingOutcome(maxPossibleMark(j.testcases), len(j.testcases))

	for i := range j.testcases {
		tc := &j.testcases[i]
		vars := tmplrend.Vars{
			StudentAnswer:  j.code,
			IsPrecheck:     j.isPrecheck,
			AnswerLanguage: j.question.AnswerLanguage,
			GraderState:    j.question.GraderState,
			QuestionParams: j.question.TemplateParams,
		}
		if j.question.IsCombinator {
			// Combinator template degraded to per-test mode: pass a
			// single-element test case list.
			vars.TestCases = j.testcases[i : i+1]
		} else {
			vars.Test = tc
		}
		prog, err := tmplrend.Render(j.question.Template, vars)
		if err != nil {
			o.SetStatus(outcome.StatusSyntaxError, "TEMPLATE ERROR: "+debugText(err))
			break
		}

		j.allRuns = append(j.allRuns, prog)
		run, execErr := j.sandbox.Execute(ctx, sandbox.ExecutionRequest{
			SourceCode: prog,
			Language:   j.question.Language,
			Stdin:      tc.Stdin,
			Files:      j.question.SupportFiles,
			Limits: sandbox.Limits{
				CpuTimeSecs: j.question.Limits.CpuTimeSecs,
				MemoryMB:    j.question.Limits.MemoryMB,
			},
			Params: j.question.SandboxParams,
		})
		if execErr != nil {
			o.SetStatus(outcome.StatusSandboxError, execErr.Error())
			break
		}
		o.AddSandboxInfo(run.Info)

		if run.Failed() {
			o.SetStatus(outcome.StatusSandboxError, run.ErrorString())
			break
		}
		if run.Result == sandbox.ResultCompilationError {
			o.SetStatus(outcome.StatusSyntaxError, run.CmpInfo)
			break
		}
		if run.Result != sandbox.ResultSuccess {
			o.AddTestResult(j.grader.Grade(makeErrorMessage(run), tc, true))
			break
		}

		tr := j.grader.Grade(run.Stdout, tc, false)
		if tr.Abort { // template grader abort request
			tr.Awarded = 0 // mark it wrong regardless
			tr.IsCorrect = false
			o.AddTestResult(tr)
			break
		}
		o.AddTestResult(tr)
	}
	return o
}

// makeErrorMessage formats a failed run for the result table's Got
// column, e.g. "***Time limit exceeded***".
func makeErrorMessage(run sandbox.ExecutionResult) string {
	err := "***" + run.Result.String() + "***"
	if run.Result == sandbox.ResultRuntimeError && run.Signal != 0 {
		err += fmt.Sprintf(" (signal %d)", run.Signal)
	}
	return merge("\n", []string{run.CmpInfo, run.Stdout, err, run.Stderr})
}

// merge joins the non-blank elements of strs with sep.
func merge(sep string, strs []string) string {
	var parts []string
	for _, s := range strs {
		if strings.TrimSpace(s) != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, sep)
}

func maxPossibleMark(testcases []question.TestCase) float64 {
	total := 0.0
	for _, tc := range testcases {
		total += tc.Mark
	}
	if total == 0 {
		total = 1 // probably a prototype question with no marked tests
	}
	return total
}

func hasNoStdins(testcases []question.TestCase) bool {
	for _, tc := range testcases {
		if tc.Stdin != "" {
			return false
		}
	}
	return true
}

// debugText prefers the underlying cause over the public message when
// surfacing template failures to the question author.
func debugText(err error) string {
	if se, ok := err.(*srvcerror.Error); ok && se.DebugInfo() != nil {
		return se.DebugInfo().Error()
	}
	return err.Error()
}
