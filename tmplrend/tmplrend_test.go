package tmplrend

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/programme-lv/grader/question"
)

func TestRenderStudentAnswerAndTest(t *testing.T) {
	tc := question.TestCase{TestCode: "print(sqr(7))", Expected: "49"}
	got, err := Render(
		"{{.STUDENT_ANSWER}}\n{{.TEST.TestCode}}\n",
		Vars{StudentAnswer: "def sqr(n): return n * n", Test: &tc},
	)
	require.NoError(t, err)
	require.Equal(t, "def sqr(n): return n * n\nprint(sqr(7))\n", got)
}

func TestRenderCombinatorIteratesTestcases(t *testing.T) {
	cases := []question.TestCase{
		{TestCode: "print(1)"},
		{TestCode: "print(2)"},
	}
	got, err := Render(
		"{{range .TESTCASES}}{{.TestCode}};{{end}}",
		Vars{TestCases: cases},
	)
	require.NoError(t, err)
	require.Equal(t, "print(1);print(2);", got)
}

func TestRenderQuestionParamsAndPrecheckFlag(t *testing.T) {
	got, err := Render(
		"{{if .IS_PRECHECK}}pre{{end}} {{.QUESTION.repeats}}",
		Vars{IsPrecheck: true, QuestionParams: map[string]any{"repeats": 3}},
	)
	require.NoError(t, err)
	require.Equal(t, "pre 3", got)
}

func TestRenderGraderStateFromPreviousAttempt(t *testing.T) {
	got, err := Render(
		"state is {{.GRADER_STATE}}",
		Vars{GraderState: "boomerang"},
	)
	require.NoError(t, err)
	require.Equal(t, "state is boomerang", got)
}

func TestRenderBadTemplateIsError(t *testing.T) {
	_, err := Render("{{.STUDENT_ANSWER", Vars{})
	require.Error(t, err)

	_, err = Render("{{.NO_SUCH_VAR}}", Vars{})
	require.Error(t, err)
}

func TestRenderDeterministicWithSeed(t *testing.T) {
	text := `x = {{random 42 1000000}}`
	first, err := Render(text, Vars{})
	require.NoError(t, err)
	second, err := Render(text, Vars{})
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestEscapePython(t *testing.T) {
	require.Equal(t, `say \"hi\"`, EscapePython(`say "hi"`))
	require.Equal(t, `a\\b`, EscapePython(`a\b`))
}

func TestEscapeJava(t *testing.T) {
	require.Equal(t, `line1\nline2`, EscapeJava("line1\nline2"))
	require.Equal(t, `\'q\' \"r\"`, EscapeJava(`'q' "r"`))
	require.Equal(t, `tab\there`, EscapeJava("tab\there"))
}

func TestEscapeMatlab(t *testing.T) {
	require.Equal(t, "it''s 100%%", EscapeMatlab("it's 100%"))
	require.Equal(t, `a\nb`, EscapeMatlab("a\nb"))
	require.Equal(t, "nocr", EscapeMatlab("no\rcr"))
	require.Equal(t, `a\\nb`, EscapeMatlab(`a\nb`))
}
