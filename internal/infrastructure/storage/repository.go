package storage

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/quantica-technologies/kafka-replay/internal/config"
	"github.com/quantica-technologies/kafka-replay/internal/repository"
)

// NewRepository creates a storage repository based on config
func NewRepository(ctx context.Context, cfg config.StorageConfig) (repository.StorageRepository, error) {
	switch cfg.Type {
	case "s3":
		return NewS3Repository(ctx, cfg)
	case "local":
		return NewLocalRepository(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// NewLocalRepository creates a local filesystem storage repository
func NewLocalRepository(cfg config.StorageConfig) (repository.StorageRepository, error) {
	return &LocalRepository{
		basePath: cfg.Path,
		prefix:   cfg.Prefix,
	}, nil
}

// NewDirRepository exposes a bare directory as a storage repository. The
// catalog uses this to enumerate live recordings without any key prefix.
func NewDirRepository(dir string) repository.StorageRepository {
	return &LocalRepository{basePath: dir}
}

// NewS3Repository creates an S3 storage repository
func NewS3Repository(ctx context.Context, cfg config.StorageConfig) (repository.StorageRepository, error) {
	var optFns []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.S3.AccessKeyID != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = &cfg.S3.Endpoint
		}
		o.UsePathStyle = cfg.S3.UsePathStyle
	})

	return &S3Repository{
		client: client,
		bucket: cfg.Path,
		prefix: cfg.Prefix,
	}, nil
}
