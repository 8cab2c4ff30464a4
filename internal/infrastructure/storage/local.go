package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/quantica-technologies/kafka-replay/internal/repository"
	"github.com/quantica-technologies/kafka-replay/pkg/metrics"
)

// LocalRepository implements StorageRepository for local filesystem
type LocalRepository struct {
	basePath string
	prefix   string
}

func (l *LocalRepository) Put(ctx context.Context, key string, data io.Reader, metadata *repository.ObjectMetadata) error {
	fullPath := l.fullPath(key)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		metrics.StorageOperations.WithLabelValues("put", "error").Inc()
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		metrics.StorageOperations.WithLabelValues("put", "error").Inc()
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, data); err != nil {
		metrics.StorageOperations.WithLabelValues("put", "error").Inc()
		return err
	}

	metrics.StorageOperations.WithLabelValues("put", "ok").Inc()
	return nil
}

func (l *LocalRepository) Get(ctx context.Context, key string) (io.ReadCloser, *repository.ObjectMetadata, error) {
	fullPath := l.fullPath(key)

	file, err := os.Open(fullPath)
	if err != nil {
		metrics.StorageOperations.WithLabelValues("get", "error").Inc()
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("failed to stat file: %w", err)
	}

	metrics.StorageOperations.WithLabelValues("get", "ok").Inc()
	return file, &repository.ObjectMetadata{Key: key, Size: info.Size()}, nil
}

func (l *LocalRepository) List(ctx context.Context, prefix string) ([]*repository.ObjectInfo, error) {
	root := filepath.Join(l.basePath, l.prefix)
	searchPath := filepath.Join(root, prefix)
	var objects []*repository.ObjectInfo

	err := filepath.Walk(searchPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == searchPath {
				// An absent directory is an empty listing, not an error.
				return filepath.SkipAll
			}
			return err
		}
		if !info.IsDir() {
			relPath, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			objects = append(objects, &repository.ObjectInfo{
				Key:  filepath.ToSlash(relPath),
				Size: info.Size(),
			})
		}
		return nil
	})
	if err != nil {
		metrics.StorageOperations.WithLabelValues("list", "error").Inc()
		return nil, err
	}

	metrics.StorageOperations.WithLabelValues("list", "ok").Inc()
	return objects, nil
}

func (l *LocalRepository) Delete(ctx context.Context, key string) error {
	return os.Remove(l.fullPath(key))
}

func (l *LocalRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(l.fullPath(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (l *LocalRepository) Close() error {
	return nil
}

func (l *LocalRepository) HealthCheck(ctx context.Context) error {
	_, err := os.Stat(l.basePath)
	return err
}

func (l *LocalRepository) fullPath(key string) string {
	return filepath.Join(l.basePath, l.prefix, filepath.FromSlash(strings.TrimPrefix(key, "/")))
}
