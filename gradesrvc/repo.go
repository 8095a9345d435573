package gradesrvc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// OutcomeRepo stores encoded testing outcomes keyed by submission
// hash. Get returns (nil, nil) on a miss.
type OutcomeRepo interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

type InMemOutcomeRepo struct {
	lock     sync.Mutex
	outcomes map[string][]byte
}

func NewInMemOutcomeRepo() *InMemOutcomeRepo {
	return &InMemOutcomeRepo{
		outcomes: make(map[string][]byte),
	}
}

func (m *InMemOutcomeRepo) Get(ctx context.Context, key string) ([]byte, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	data, ok := m.outcomes[key]
	if !ok {
		return nil, nil
	}
	return data, nil
}

func (m *InMemOutcomeRepo) Save(ctx context.Context, key string, data []byte) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.outcomes[key] = data
	return nil
}

type S3OutcomeRepo struct {
	client     *s3.Client
	bucketName string
}

func NewS3OutcomeRepo(client *s3.Client, bucketName string) *S3OutcomeRepo {
	return &S3OutcomeRepo{
		client:     client,
		bucketName: bucketName,
	}
}

func (r *S3OutcomeRepo) Get(ctx context.Context, key string) ([]byte, error) {
	output, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucketName),
		Key:    aws.String(objectKey(key)),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey" {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get outcome from S3: %w", err)
	}
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read outcome data: %w", err)
	}
	return data, nil
}

func (r *S3OutcomeRepo) Save(ctx context.Context, key string, data []byte) error {
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(r.bucketName),
		Key:    aws.String(objectKey(key)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to store outcome in S3: %w", err)
	}
	return nil
}

func objectKey(key string) string {
	return fmt.Sprintf("outcomes/%s.bin", key)
}
