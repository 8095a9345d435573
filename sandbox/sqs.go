package sandbox

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

// compress request payloads above this size; SQS caps messages at 256 KiB
const sqsCompressThreshold = 64 * 1024

// sqsApi is the slice of the SQS client this sandbox uses.
type sqsApi interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	ChangeMessageVisibility(ctx context.Context, params *sqs.ChangeMessageVisibilityInput, optFns ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error)
}

// SqsSandbox drives a remote runner through a pair of AWS SQS queues:
// runs go to the submission queue, results come back on the response
// queue, correlated by run id.
type SqsSandbox struct {
	client    sqsApi
	submQUrl  string
	respQUrl  string
	languages []string // statically configured; queue runners are not queryable
	logger    *slog.Logger
}

func NewSqsSandbox(
	client *sqs.Client,
	submQUrl string,
	respQUrl string,
	languages []string,
	logger *slog.Logger,
) *SqsSandbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &SqsSandbox{
		client:    client,
		submQUrl:  submQUrl,
		respQUrl:  respQUrl,
		languages: languages,
		logger:    logger,
	}
}

func (s *SqsSandbox) Name() string {
	return "sqs"
}

func (s *SqsSandbox) Languages(ctx context.Context) ([]string, error) {
	return s.languages, nil
}

type sqsRunRequest struct {
	RunUuid    string            `json:"run_uuid"`
	RespQUrl   string            `json:"resp_q_url"`
	SourceCode string            `json:"sourcecode"`
	Language   string            `json:"language"`
	Stdin      string            `json:"stdin"`
	Files      map[string]string `json:"files,omitempty"`
	CpuSecs    int               `json:"cpu_secs"`
	MemoryMB   int               `json:"memory_mb"`
	Params     json.RawMessage   `json:"params,omitempty"`
}

type sqsRunResponse struct {
	RunUuid string `json:"run_uuid"`
	Result  string `json:"result"` // run result constant name
	Stdout  string `json:"stdout"`
	Stderr  string `json:"stderr"`
	CmpInfo string `json:"cmpinfo"`
	Signal  int    `json:"signal"`
}

type sqsEnvelope struct {
	Compressed bool   `json:"compressed"`
	Payload    string `json:"payload,omitempty"` // base64(zstd(json)) when compressed
	Plain      string `json:"plain,omitempty"`
}

var sqsResultNames = map[string]RunResult{
	"success":           ResultSuccess,
	"compilation_error": ResultCompilationError,
	"runtime_error":     ResultRuntimeError,
	"time_limit":        ResultTimeLimit,
	"memory_limit":      ResultMemoryLimit,
	"output_limit":      ResultOutputLimit,
	"illegal_syscall":   ResultIllegalSysCall,
	"abnormal":          ResultAbnormalTermination,
}

// Execute enqueues the run and blocks until its response arrives or ctx
// is cancelled. Responses for other in-flight runs are released back to
// the queue immediately so their own gradings can pick them up.
func (s *SqsSandbox) Execute(ctx context.Context, req ExecutionRequest) (ExecutionResult, error) {
	runUuid, err := uuid.NewV7()
	if err != nil {
		return ExecutionResult{}, fmt.Errorf("failed to generate run UUID: %w", err)
	}

	body, err := s.encodeRequest(runUuid, req)
	if err != nil {
		return ExecutionResult{}, err
	}

	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.submQUrl),
		MessageBody: aws.String(body),
	})
	if err != nil {
		s.logger.Error("failed to enqueue run", "error", err)
		return ExecutionResult{Status: StatusSandboxDown, Stderr: err.Error()}, nil
	}

	return s.awaitResponse(ctx, runUuid)
}

func (s *SqsSandbox) Close() error {
	return nil // queue clients hold no per-grading resources
}

func (s *SqsSandbox) encodeRequest(runUuid uuid.UUID, req ExecutionRequest) (string, error) {
	jsonReq, err := json.Marshal(sqsRunRequest{
		RunUuid:    runUuid.String(),
		RespQUrl:   s.respQUrl,
		SourceCode: req.SourceCode,
		Language:   req.Language,
		Stdin:      req.Stdin,
		Files:      req.Files,
		CpuSecs:    req.Limits.CpuTimeSecs,
		MemoryMB:   req.Limits.MemoryMB,
		Params:     req.Params,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal run request: %w", err)
	}

	envelope := sqsEnvelope{}
	if len(jsonReq) > sqsCompressThreshold {
		encoder, err := zstd.NewWriter(nil)
		if err != nil {
			return "", fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		compressed := encoder.EncodeAll(jsonReq, nil)
		encoder.Close()
		envelope.Compressed = true
		envelope.Payload = base64.StdEncoding.EncodeToString(compressed)
	} else {
		envelope.Plain = string(jsonReq)
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return "", fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return string(body), nil
}

func (s *SqsSandbox) awaitResponse(ctx context.Context, runUuid uuid.UUID) (ExecutionResult, error) {
	for {
		select {
		case <-ctx.Done():
			return ExecutionResult{}, ctx.Err()
		default:
		}
		output, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(s.respQUrl),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     5,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ExecutionResult{}, ctx.Err()
			}
			s.logger.Error("failed to receive run responses", "error", err)
			return ExecutionResult{Status: StatusSandboxDown, Stderr: err.Error()}, nil
		}
		for _, msg := range output.Messages {
			if msg.Body == nil || msg.ReceiptHandle == nil {
				continue
			}
			var resp sqsRunResponse
			if err := json.Unmarshal([]byte(*msg.Body), &resp); err != nil {
				s.logger.Error("failed to unmarshal run response", "error", err)
				continue
			}
			if resp.RunUuid != runUuid.String() {
				// Someone else's response. Make it visible again right
				// away instead of holding it until the visibility
				// timeout, or we would stall that grading.
				_, err := s.client.ChangeMessageVisibility(ctx, &sqs.ChangeMessageVisibilityInput{
					QueueUrl:          aws.String(s.respQUrl),
					ReceiptHandle:     msg.ReceiptHandle,
					VisibilityTimeout: 0,
				})
				if err != nil {
					s.logger.Error("failed to release run response", "error", err)
				}
				continue
			}
			_, err = s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
				QueueUrl:      aws.String(s.respQUrl),
				ReceiptHandle: msg.ReceiptHandle,
			})
			if err != nil {
				s.logger.Error("failed to delete run response", "error", err)
			}
			result, ok := sqsResultNames[resp.Result]
			if !ok {
				return ExecutionResult{
					Status: StatusServerError,
					Stderr: fmt.Sprintf("unknown run result %q", resp.Result),
				}, nil
			}
			return ExecutionResult{
				Status:  StatusOK,
				Result:  result,
				Stdout:  resp.Stdout,
				Stderr:  resp.Stderr,
				CmpInfo: resp.CmpInfo,
				Signal:  resp.Signal,
				Info:    map[string]string{"queue": s.submQUrl},
			}, nil
		}
	}
}
