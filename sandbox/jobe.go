package sandbox

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// Jobe run outcome codes, as reported by the server.
const (
	jobeOutcomeCompilationError = 11
	jobeOutcomeRuntimeError     = 12
	jobeOutcomeTimeLimit        = 13
	jobeOutcomeSuccess          = 15
	jobeOutcomeMemoryLimit      = 17
	jobeOutcomeIllegalSysCall   = 19
	jobeOutcomeInternalError    = 20
	jobeOutcomeServerOverload   = 21
	jobeOutcomeOutputLimit      = 30
	jobeOutcomeAbnormalTerm     = 31
)

// JobeSandbox talks HTTP+JSON to a Jobe code-execution server.
// The embedded http.Client is safe for concurrent gradings.
type JobeSandbox struct {
	server string // host[:port], no scheme
	apiKey string
	client *http.Client
	logger *slog.Logger
}

func NewJobeSandbox(server string, apiKey string, logger *slog.Logger) *JobeSandbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobeSandbox{
		server: server,
		apiKey: apiKey,
		client: &http.Client{Timeout: 180 * time.Second},
		logger: logger,
	}
}

func (j *JobeSandbox) Name() string {
	return "jobe"
}

func (j *JobeSandbox) url(path string) string {
	return fmt.Sprintf("http://%s/jobe/index.php/restapi/%s", j.server, path)
}

func (j *JobeSandbox) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, j.url(path), reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Accept", "application/json")
	if j.apiKey != "" {
		req.Header.Set("X-API-KEY", j.apiKey)
	}
	resp, err := j.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, respBody, nil
}

// Languages asks the server what it can run.
func (j *JobeSandbox) Languages(ctx context.Context) ([]string, error) {
	code, body, err := j.do(ctx, http.MethodGet, "languages", nil)
	if err != nil {
		return nil, fmt.Errorf("jobe languages request failed: %w", err)
	}
	if code != http.StatusOK {
		return nil, fmt.Errorf("jobe languages request returned HTTP %d", code)
	}
	var pairs [][]string
	if err := json.Unmarshal(body, &pairs); err != nil {
		return nil, fmt.Errorf("jobe languages response is not JSON: %w", err)
	}
	langs := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		if len(pair) > 0 {
			langs = append(langs, pair[0])
		}
	}
	return langs, nil
}

type jobeRunSpec struct {
	LanguageID     string         `json:"language_id"`
	SourceCode     string         `json:"sourcecode"`
	SourceFilename string         `json:"sourcefilename"`
	Input          string         `json:"input"`
	FileList       [][2]string    `json:"file_list"`
	Parameters     map[string]any `json:"parameters,omitempty"`
}

type jobeRunResponse struct {
	Outcome int    `json:"outcome"`
	CmpInfo string `json:"cmpinfo"`
	Stdout  string `json:"stdout"`
	Stderr  string `json:"stderr"`
}

// Execute submits one run. If the server lacks any of the support
// files (HTTP 404) they are uploaded and the run is retried once.
func (j *JobeSandbox) Execute(ctx context.Context, req ExecutionRequest) (ExecutionResult, error) {
	input := req.Stdin
	if input != "" && !strings.HasSuffix(input, "\n") {
		input += "\n" // the server expects newline-terminated stdin
	}

	fileList := make([][2]string, 0, len(req.Files))
	for name, contents := range req.Files {
		id := fmt.Sprintf("%x", md5.Sum([]byte(contents)))
		fileList = append(fileList, [2]string{id, name})
	}

	params := map[string]any{}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return ExecutionResult{}, fmt.Errorf("sandbox params are not a JSON object: %w", err)
		}
	}
	if req.Limits.CpuTimeSecs > 0 {
		params["cputime"] = req.Limits.CpuTimeSecs
	}
	if req.Limits.MemoryMB > 0 {
		params["memorylimit"] = req.Limits.MemoryMB
	}

	language := strings.ToLower(req.Language)
	spec := jobeRunSpec{
		LanguageID:     language,
		SourceCode:     req.SourceCode,
		SourceFilename: progName(req.SourceCode, language),
		Input:          input,
		FileList:       fileList,
		Parameters:     params,
	}

	code, body, err := j.do(ctx, http.MethodPost, "runs", map[string]any{"run_spec": spec})
	if err != nil {
		return ExecutionResult{}, err
	}
	if code == http.StatusNotFound {
		// Server is missing support files; upload them and retry.
		for _, contents := range req.Files {
			if err := j.putFile(ctx, contents); err != nil {
				return ExecutionResult{}, err
			}
		}
		code, body, err = j.do(ctx, http.MethodPost, "runs", map[string]any{"run_spec": spec})
		if err != nil {
			return ExecutionResult{}, err
		}
	}

	info := map[string]string{"jobeserver": j.server}
	if code != http.StatusOK {
		j.logger.Warn("jobe run rejected", "http_status", code, "server", j.server)
		return ExecutionResult{
			Status: statusFromHttp(code),
			Stderr: string(body),
			Info:   info,
		}, nil
	}

	var run jobeRunResponse
	if err := json.Unmarshal(body, &run); err != nil {
		return ExecutionResult{
			Status: StatusServerError,
			Stderr: string(body),
			Info:   info,
		}, nil
	}
	if run.Outcome == jobeOutcomeServerOverload {
		return ExecutionResult{Status: StatusOverload, Info: info}, nil
	}

	result := runResultFromOutcome(run.Outcome)
	// Jobe treats any stderr output as a runtime error.
	if result == ResultSuccess && strings.TrimSpace(run.Stderr) != "" {
		result = ResultRuntimeError
	}
	return ExecutionResult{
		Status:  StatusOK,
		Result:  result,
		Stdout:  run.Stdout,
		Stderr:  run.Stderr,
		CmpInfo: run.CmpInfo,
		Info:    info,
	}, nil
}

// Close releases idle connections. Safe to call per grading; the
// client itself is shared and remains usable.
func (j *JobeSandbox) Close() error {
	j.client.CloseIdleConnections()
	return nil
}

func (j *JobeSandbox) putFile(ctx context.Context, contents string) error {
	id := fmt.Sprintf("%x", md5.Sum([]byte(contents)))
	encoded := base64.StdEncoding.EncodeToString([]byte(contents))
	code, _, err := j.do(ctx, http.MethodPut, "files/"+id,
		map[string]string{"file_contents": encoded})
	if err != nil {
		return err
	}
	if code != http.StatusNoContent {
		return fmt.Errorf("jobe file upload returned HTTP %d", code)
	}
	return nil
}

func statusFromHttp(code int) Status {
	switch code {
	case http.StatusUnauthorized:
		return StatusSubmissionLimitExceeded
	case http.StatusForbidden:
		return StatusAuthError
	case http.StatusBadRequest:
		return StatusServerError
	default:
		return StatusSandboxDown
	}
}

func runResultFromOutcome(outcome int) RunResult {
	switch outcome {
	case jobeOutcomeSuccess:
		return ResultSuccess
	case jobeOutcomeCompilationError:
		return ResultCompilationError
	case jobeOutcomeRuntimeError:
		return ResultRuntimeError
	case jobeOutcomeTimeLimit:
		return ResultTimeLimit
	case jobeOutcomeMemoryLimit:
		return ResultMemoryLimit
	case jobeOutcomeIllegalSysCall:
		return ResultIllegalSysCall
	case jobeOutcomeOutputLimit:
		return ResultOutputLimit
	default:
		return ResultAbnormalTermination
	}
}

var javaMainClassRe = regexp.MustCompile(
	`(?ms)(^|\W)public\s+class\s+(\w+)[^{]*\{.*?(public\s+static|static\s+public)\s+void\s+main\s*\(\s*String`)

// progName picks the source filename sent to the server. Java needs the
// file named after its main class; everything else gets a fixed name.
func progName(sourceCode string, language string) string {
	if language != "java" {
		return "__tester__." + language
	}
	m := javaMainClassRe.FindStringSubmatch(sourceCode)
	if m == nil {
		return "prog.java" // over to the sandbox; will probably fail
	}
	return m[2] + ".java"
}
