package srvcerror

import "net/http"

// Error is the service-level error type. It carries a stable error code
// for clients, a message that is safe to show to users, and a private
// debug error for logs.
type Error struct {
	errorCode  string
	msgToUser  string // public
	dbgInfoErr error  // private, for debugging

	httpStatus int // optional, for HTTP responses

	configError bool // question author at fault, not the learner
}

func (e *Error) Error() string {
	return e.msgToUser
}

func (e *Error) ErrorCode() string {
	return e.errorCode
}

func (e *Error) DebugInfo() error {
	return e.dbgInfoErr
}

func (e *Error) SetDebug(err error) *Error {
	e.dbgInfoErr = err
	return e
}

func (e *Error) HttpStatusCode() int {
	if e.httpStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.httpStatus
}

func (e *Error) SetHttpStatusCode(code int) *Error {
	e.httpStatus = code
	return e
}

// MarkConfigError tags the error as a question-configuration fault.
// Callers use this to report "testing aborted due to a configuration
// error" instead of "your answer is wrong".
func (e *Error) MarkConfigError() *Error {
	e.configError = true
	return e
}

func (e *Error) IsConfigError() bool {
	return e.configError
}

func New(errorCode string, msgToUser string) *Error {
	return &Error{
		errorCode: errorCode,
		msgToUser: msgToUser,
	}
}

const ErrCodeInternalServerError = "internal_server_error"

func ErrInternalSE() *Error {
	return New(
		ErrCodeInternalServerError,
		"internal server error",
	).SetHttpStatusCode(http.StatusInternalServerError)
}
