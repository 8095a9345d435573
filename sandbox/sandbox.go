package sandbox

import (
	"context"
	"encoding/json"
	"fmt"
)

// Status is the transport-level result of a sandbox invocation. Any
// value other than StatusOK means the run can not be attributed to the
// submitted code.
type Status int

const (
	StatusOK Status = iota
	StatusAuthError
	StatusSubmissionLimitExceeded
	StatusSandboxDown
	StatusOverload
	StatusServerError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusAuthError:
		return "Sandbox authentication error"
	case StatusSubmissionLimitExceeded:
		return "Sandbox submission limit reached"
	case StatusSandboxDown:
		return "Sandbox is down or unreachable"
	case StatusOverload:
		return "Sandbox server overload"
	default:
		return "Unexpected sandbox error"
	}
}

// RunResult classifies how the submitted program itself behaved.
type RunResult int

const (
	ResultSuccess RunResult = iota
	ResultCompilationError
	ResultRuntimeError
	ResultTimeLimit
	ResultMemoryLimit
	ResultOutputLimit
	ResultIllegalSysCall
	ResultAbnormalTermination
)

func (r RunResult) String() string {
	switch r {
	case ResultSuccess:
		return "Success"
	case ResultCompilationError:
		return "Compilation error"
	case ResultRuntimeError:
		return "Runtime error"
	case ResultTimeLimit:
		return "Time limit exceeded"
	case ResultMemoryLimit:
		return "Memory limit exceeded"
	case ResultOutputLimit:
		return "Output limit exceeded"
	case ResultIllegalSysCall:
		return "Illegal function call"
	default:
		return "Abnormal termination"
	}
}

// Limits are the per-run resource bounds the backend must enforce.
// Timeouts live here, not in the engine: a runaway submission surfaces
// as ResultTimeLimit, never as an unbounded block.
type Limits struct {
	CpuTimeSecs int
	MemoryMB    int
}

// ExecutionRequest is one program run. Constructed per invocation,
// never persisted.
type ExecutionRequest struct {
	SourceCode string
	Language   string
	Stdin      string
	Files      map[string]string // name -> content
	Limits     Limits
	Params     json.RawMessage // backend-specific options, passed through verbatim
}

// ExecutionResult is what a backend reports for one run. No partial
// results: on transport failure only Status (and Stderr diagnostics)
// are meaningful.
type ExecutionResult struct {
	Status  Status
	Result  RunResult
	Stdout  string
	Stderr  string
	CmpInfo string // compiler output, set on compilation errors
	Signal  int
	Info    map[string]string // backend identity, for debugging
}

// Failed reports whether the invocation failed at the transport level.
func (r ExecutionResult) Failed() bool {
	return r.Status != StatusOK
}

// ErrorString describes a transport failure for user-facing messages.
func (r ExecutionResult) ErrorString() string {
	if r.Stderr != "" {
		return fmt.Sprintf("%s: %s", r.Status, r.Stderr)
	}
	return r.Status.String()
}

// Sandbox executes untrusted programs under resource limits. Execute
// must be safe for concurrent use by multiple in-flight gradings.
// Close releases any per-grading scoped resources and must be safe to
// call on every exit path.
type Sandbox interface {
	Name() string
	Languages(ctx context.Context) ([]string, error)
	Execute(ctx context.Context, req ExecutionRequest) (ExecutionResult, error)
	Close() error
}
