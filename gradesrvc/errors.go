package gradesrvc

import (
	"net/http"

	"github.com/programme-lv/grader/srvcerror"
)

const ErrCodeOutcomeNotFound = "outcome_not_found"

func ErrOutcomeNotFound() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeOutcomeNotFound,
		"outcome not found",
	).SetHttpStatusCode(http.StatusNotFound)
}
