package grader

import (
	"fmt"
	"net/http"

	"github.com/programme-lv/grader/srvcerror"
)

const ErrCodeUnknownGrader = "unknown_grader"

func ErrUnknownGrader(name string) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeUnknownGrader,
		fmt.Sprintf("unknown grader: %s", name),
	).SetHttpStatusCode(http.StatusBadRequest).MarkConfigError()
}
