package tmplrend

import (
	"net/http"

	"github.com/programme-lv/grader/srvcerror"
)

const ErrCodeTemplate = "template_error"

func ErrTemplate() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeTemplate,
		"Template expansion failed",
	).SetHttpStatusCode(http.StatusBadRequest).MarkConfigError()
}
