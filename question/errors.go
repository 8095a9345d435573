package question

import (
	"fmt"
	"net/http"

	"github.com/programme-lv/grader/srvcerror"
)

const ErrCodeNoTemplate = "no_template"

func ErrNoTemplate() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeNoTemplate,
		"Question has no template",
	).SetHttpStatusCode(http.StatusBadRequest).MarkConfigError()
}

const ErrCodeNoLanguage = "no_language"

func ErrNoLanguage() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeNoLanguage,
		"Question has no sandbox language",
	).SetHttpStatusCode(http.StatusBadRequest).MarkConfigError()
}

const ErrCodeBadSplitter = "bad_test_splitter"

func ErrBadSplitter() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeBadSplitter,
		"Test splitter is not a valid regular expression",
	).SetHttpStatusCode(http.StatusBadRequest).MarkConfigError()
}

const ErrCodeBadTestCaseMark = "bad_test_case_mark"

func ErrBadTestCaseMark(n int) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeBadTestCaseMark,
		fmt.Sprintf("Test case %d has a non-positive mark", n),
	).SetHttpStatusCode(http.StatusBadRequest).MarkConfigError()
}

const ErrCodeEmptyPenaltyRegime = "empty_penalty_regime"

func ErrEmptyPenaltyRegime() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeEmptyPenaltyRegime,
		"Penalty regime must not be empty",
	).SetHttpStatusCode(http.StatusBadRequest).MarkConfigError()
}

const ErrCodeBadPenaltyRegime = "bad_penalty_regime"

func ErrBadPenaltyRegime() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeBadPenaltyRegime,
		"Penalty regime is not a list of numbers",
	).SetHttpStatusCode(http.StatusBadRequest).MarkConfigError()
}

const ErrCodeBadDotDotDot = "bad_dotdotdot"

func ErrBadDotDotDot() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeBadDotDotDot,
		"Penalty regime '...' must follow at least two increasing numbers",
	).SetHttpStatusCode(http.StatusBadRequest).MarkConfigError()
}
