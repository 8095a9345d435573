package sandbox

import (
	"fmt"
	"net/http"

	"github.com/programme-lv/grader/srvcerror"
)

const ErrCodeNoSandboxAvailable = "no_sandbox_available"

func ErrNoSandboxAvailable() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeNoSandboxAvailable,
		"No sandboxes available for running code",
	).SetHttpStatusCode(http.StatusServiceUnavailable)
}

const ErrCodeNoSandboxForLanguage = "no_sandbox_for_language"

func ErrNoSandboxForLanguage(language string) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeNoSandboxForLanguage,
		fmt.Sprintf("No enabled sandbox supports language %q", language),
	).SetHttpStatusCode(http.StatusBadRequest).MarkConfigError()
}
