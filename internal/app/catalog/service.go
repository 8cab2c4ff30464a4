package catalog

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/quantica-technologies/kafka-replay/internal/domain"
	"github.com/quantica-technologies/kafka-replay/internal/recording"
	"github.com/quantica-technologies/kafka-replay/internal/repository"
	"github.com/quantica-technologies/kafka-replay/pkg/logger"
	"github.com/quantica-technologies/kafka-replay/pkg/utils"
)

// Service lists the recordings available in a store. Identity comes from
// filenames alone; the only read of file contents is a line count.
type Service struct {
	store      repository.StorageRepository
	filePrefix string
	logger     logger.Logger
}

// NewService creates a catalog over the given store. filePrefix is the
// recording filename prefix to recognize.
func NewService(store repository.StorageRepository, filePrefix string, log logger.Logger) *Service {
	if filePrefix == "" {
		filePrefix = recording.DefaultPrefix
	}
	return &Service{
		store:      store,
		filePrefix: filePrefix,
		logger:     log,
	}
}

// List returns the recordings in the store, newest first. Files that do not
// follow the recording naming convention are ignored.
func (s *Service) List(ctx context.Context) ([]domain.RecordingInfo, error) {
	objects, err := s.store.List(ctx, "")
	if err != nil {
		return nil, err
	}

	var infos []domain.RecordingInfo
	for _, obj := range objects {
		name := path.Base(obj.Key)
		topic, createdAt, ok := recording.ParseFilename(s.filePrefix, name)
		if !ok {
			continue
		}

		count, err := s.countEntries(ctx, obj.Key)
		if err != nil {
			s.logger.Warn("Failed to count recording entries", "file", name, "error", err)
			continue
		}

		infos = append(infos, domain.RecordingInfo{
			Filename:     name,
			Topic:        topic,
			CreatedAt:    createdAt,
			MessageCount: count,
			SizeBytes:    obj.Size,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].CreatedAt.After(infos[j].CreatedAt)
		}
		return infos[i].Filename > infos[j].Filename
	})

	for i := range infos {
		infos[i].ID = i + 1
	}

	return infos, nil
}

func (s *Service) countEntries(ctx context.Context, key string) (int64, error) {
	reader, _, err := s.store.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	defer reader.Close()

	if strings.HasSuffix(key, ".gz") {
		gz, err := utils.DecompressReader(reader)
		if err != nil {
			return 0, err
		}
		defer gz.Close()
		return recording.CountEntries(gz)
	}

	return recording.CountEntries(reader)
}
