package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/quantica-technologies/kafka-replay/internal/recording"
	"github.com/quantica-technologies/kafka-replay/internal/repository"
	"github.com/quantica-technologies/kafka-replay/pkg/errors"
	"github.com/quantica-technologies/kafka-replay/pkg/logger"
	"github.com/quantica-technologies/kafka-replay/pkg/utils"
)

// Service moves finished recordings between the local recording directory
// and the configured archive store.
type Service struct {
	store  repository.StorageRepository
	logger logger.Logger
}

// NewService creates a new archive service
func NewService(store repository.StorageRepository, log logger.Logger) *Service {
	return &Service{
		store:  store,
		logger: log,
	}
}

// Push uploads a recording file to the archive store, optionally
// gzip-compressing it in transit. The archive key is the base filename.
func (s *Service) Push(ctx context.Context, file string, compress bool) (string, error) {
	name := filepath.Base(file)
	topic, createdAt, ok := recording.ParseFilename(recording.DefaultPrefix, name)
	if !ok {
		return "", errors.Newf(errors.ErrCodeInvalidArgument, "%s is not a recording filename", name)
	}

	f, err := os.Open(file)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrap(err, errors.ErrCodeNotFound, "recording file not found")
		}
		return "", errors.Wrap(err, errors.ErrCodeInternal, "failed to open recording")
	}
	defer f.Close()

	var body io.Reader = f
	key := name
	if compress && !strings.HasSuffix(name, ".gz") {
		compressed := utils.CompressReader(f)
		defer compressed.Close()
		body = compressed
		key = name + ".gz"
	}

	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeUnavailable, "failed to check archive store")
	}
	if exists {
		return "", errors.Newf(errors.ErrCodeInvalidArgument, "archive %s already exists", key)
	}

	metadata := &repository.ObjectMetadata{
		Key:         key,
		ContentType: "application/x-ndjson",
		CustomMetadata: map[string]string{
			"topic":      topic,
			"created-at": createdAt.Format("20060102_150405"),
		},
	}

	if err := s.store.Put(ctx, key, body, metadata); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeUnavailable, "failed to upload recording")
	}

	s.logger.Info("Recording archived", "file", file, "key", key, "compressed", compress)
	return key, nil
}

// Fetch downloads an archived recording into destDir, decompressing .gz
// archives back to plain recordings.
func (s *Service) Fetch(ctx context.Context, key, destDir string) (string, error) {
	reader, _, err := s.store.Get(ctx, key)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeNotFound, fmt.Sprintf("archive %s not found", key))
	}
	defer reader.Close()

	var src io.Reader = reader
	name := filepath.Base(key)
	if strings.HasSuffix(name, ".gz") {
		gz, err := utils.DecompressReader(reader)
		if err != nil {
			return "", errors.Wrap(err, errors.ErrCodeFormat, "failed to decompress archive")
		}
		defer gz.Close()
		src = gz
		name = strings.TrimSuffix(name, ".gz")
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "failed to create destination directory")
	}

	dest := filepath.Join(destDir, name)
	out, err := os.Create(dest)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "failed to create destination file")
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "failed to write destination file")
	}

	s.logger.Info("Recording fetched", "key", key, "file", dest)
	return dest, nil
}

// Delete removes an archived recording from the store.
func (s *Service) Delete(ctx context.Context, key string) error {
	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeUnavailable, "failed to check archive store")
	}
	if !exists {
		return errors.Newf(errors.ErrCodeNotFound, "archive %s not found", key)
	}

	if err := s.store.Delete(ctx, key); err != nil {
		return errors.Wrap(err, errors.ErrCodeUnavailable, "failed to delete archive")
	}

	s.logger.Info("Archive deleted", "key", key)
	return nil
}
