package awsx

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/NeuralTrust/TrailTrigger/pkg/domain/trail"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type s3Store struct {
	client S3API
}

func NewS3Store(client S3API) trail.ObjectStore {
	return &s3Store{client: client}
}

func NewS3Client(cfg aws.Config) *s3.Client {
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		// custom endpoints (localstack, minio) only serve path-style requests
		o.UsePathStyle = cfg.BaseEndpoint != nil
	})
}

func (s *s3Store) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	if out.Body == nil {
		return nil, errors.New("no body on response")
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object body: %w", err)
	}
	return data, nil
}
