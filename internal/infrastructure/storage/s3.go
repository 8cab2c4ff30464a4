package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/quantica-technologies/kafka-replay/internal/repository"
	"github.com/quantica-technologies/kafka-replay/pkg/metrics"
)

// S3Repository implements StorageRepository for AWS S3
type S3Repository struct {
	client *s3.Client
	bucket string
	prefix string
}

func (s *S3Repository) Put(ctx context.Context, key string, data io.Reader, metadata *repository.ObjectMetadata) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
		Body:   data,
	}
	if metadata != nil && len(metadata.CustomMetadata) > 0 {
		input.Metadata = metadata.CustomMetadata
	}

	_, err := s.client.PutObject(ctx, input)
	if err != nil {
		metrics.StorageOperations.WithLabelValues("put", "error").Inc()
		return err
	}

	metrics.StorageOperations.WithLabelValues("put", "ok").Inc()
	return nil
}

func (s *S3Repository) Get(ctx context.Context, key string) (io.ReadCloser, *repository.ObjectMetadata, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
	})
	if err != nil {
		metrics.StorageOperations.WithLabelValues("get", "error").Inc()
		return nil, nil, err
	}

	metadata := &repository.ObjectMetadata{Key: key}
	if result.ContentLength != nil {
		metadata.Size = *result.ContentLength
	}

	metrics.StorageOperations.WithLabelValues("get", "ok").Inc()
	return result.Body, metadata, nil
}

func (s *S3Repository) List(ctx context.Context, prefix string) ([]*repository.ObjectInfo, error) {
	var objects []*repository.ObjectInfo

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.fullKey(prefix)),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			metrics.StorageOperations.WithLabelValues("list", "error").Inc()
			return nil, err
		}
		for _, obj := range page.Contents {
			info := &repository.ObjectInfo{Key: *obj.Key}
			if obj.Size != nil {
				info.Size = *obj.Size
			}
			objects = append(objects, info)
		}
	}

	metrics.StorageOperations.WithLabelValues("list", "ok").Inc()
	return objects, nil
}

func (s *S3Repository) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
	})
	return err
}

func (s *S3Repository) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
	})
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (s *S3Repository) Close() error {
	return nil
}

func (s *S3Repository) HealthCheck(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	return err
}

func (s *S3Repository) fullKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return fmt.Sprintf("%s/%s", s.prefix, key)
}
