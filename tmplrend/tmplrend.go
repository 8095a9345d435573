package tmplrend

import (
	"bytes"
	"text/template"

	"golang.org/x/exp/rand"

	"github.com/programme-lv/grader/question"
)

// Vars is the variable context available to author templates.
// STUDENT_ANSWER and its escaped variants are always present; TEST is
// set in per-test mode, TESTCASES in combinator mode.
type Vars struct {
	StudentAnswer       string
	IsPrecheck          bool
	AnswerLanguage      string
	GraderState         string // opaque state a grader saved on the previous attempt
	QuestionParams      map[string]any
	Test                *question.TestCase  // per-test mode
	TestCases           []question.TestCase // combinator mode
}

// context converts Vars into the flat map the template executes against.
func (v Vars) context() map[string]any {
	ctx := map[string]any{
		"STUDENT_ANSWER":                v.StudentAnswer,
		"ESCAPED_STUDENT_ANSWER":        EscapePython(v.StudentAnswer),
		"MATLAB_ESCAPED_STUDENT_ANSWER": EscapeMatlab(v.StudentAnswer),
		"IS_PRECHECK":                   v.IsPrecheck,
		"ANSWER_LANGUAGE":               v.AnswerLanguage,
		"GRADER_STATE":                  v.GraderState,
		"QUESTION":                      v.QuestionParams,
	}
	if v.Test != nil {
		ctx["TEST"] = *v.Test
	}
	if v.TestCases != nil {
		ctx["TESTCASES"] = v.TestCases
	}
	return ctx
}

var funcMap = template.FuncMap{
	"escapePython": EscapePython,
	"escapeJava":   EscapeJava,
	"escapeMatlab": EscapeMatlab,
	"random":       seededRandom,
}

// seededRandom returns a deterministic pseudo-random integer in [0, max).
// The seed is explicit so the same seed always yields the same render.
func seededRandom(seed uint64, max int64) int64 {
	rng := rand.New(rand.NewSource(seed))
	return rng.Int63n(max)
}

// Render expands templateText against the given variables into a
// runnable program string. Any parse or execution failure is an author
// error: surfaced immediately, never retried.
func Render(templateText string, vars Vars) (string, error) {
	tmpl, err := template.New("testprog").
		Funcs(funcMap).
		Option("missingkey=error").
		Parse(templateText)
	if err != nil {
		return "", ErrTemplate().SetDebug(err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars.context()); err != nil {
		return "", ErrTemplate().SetDebug(err)
	}
	return buf.String(), nil
}
