package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantica-technologies/kafka-replay/internal/domain"
	"github.com/quantica-technologies/kafka-replay/internal/infrastructure/storage"
	"github.com/quantica-technologies/kafka-replay/internal/recording"
	"github.com/quantica-technologies/kafka-replay/pkg/logger"
	"github.com/quantica-technologies/kafka-replay/pkg/utils"
)

func writeRecordingFile(t *testing.T, dir, topic string, createdAt time.Time, messages int) string {
	t.Helper()

	w, err := recording.NewWriter(dir, recording.DefaultPrefix, topic, createdAt)
	require.NoError(t, err)
	for i := 0; i < messages; i++ {
		_, err := w.Append(createdAt, &domain.Message{
			Topic: topic,
			Value: []byte(fmt.Sprintf("m-%d", i)),
		})
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return w.Path()
}

func TestListOrdersNewestFirst(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	writeRecordingFile(t, dir, "orders", base, 2)
	writeRecordingFile(t, dir, "payments", base.Add(time.Hour), 3)
	writeRecordingFile(t, dir, "orders", base.Add(2*time.Hour), 1)

	svc := NewService(storage.NewDirRepository(dir), "", logger.NewNop())
	infos, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 3)

	assert.Equal(t, "orders", infos[0].Topic)
	assert.Equal(t, int64(1), infos[0].MessageCount)
	assert.Equal(t, "payments", infos[1].Topic)
	assert.Equal(t, int64(3), infos[1].MessageCount)
	assert.Equal(t, "orders", infos[2].Topic)
	assert.Equal(t, int64(2), infos[2].MessageCount)

	for i, info := range infos {
		assert.Equal(t, i+1, info.ID)
		assert.Greater(t, info.SizeBytes, int64(0))
	}
}

func TestListIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	writeRecordingFile(t, dir, "orders", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), 1)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "backup_orders.jsonl"), []byte("{}\n"), 0o644))

	svc := NewService(storage.NewDirRepository(dir), "", logger.NewNop())
	infos, err := svc.List(context.Background())
	require.NoError(t, err)

	require.Len(t, infos, 1)
	assert.Equal(t, "orders", infos[0].Topic)
}

func TestListCountsCompressedRecordings(t *testing.T) {
	dir := t.TempDir()
	path := writeRecordingFile(t, dir, "orders", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), 4)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	compressed, err := utils.Compress(raw)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path+".gz", compressed, 0o644))
	require.NoError(t, os.Remove(path))

	svc := NewService(storage.NewDirRepository(dir), "", logger.NewNop())
	infos, err := svc.List(context.Background())
	require.NoError(t, err)

	require.Len(t, infos, 1)
	assert.Equal(t, int64(4), infos[0].MessageCount)
}

func TestListEmptyDirectory(t *testing.T) {
	svc := NewService(storage.NewDirRepository(t.TempDir()), "", logger.NewNop())
	infos, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestListCustomPrefix(t *testing.T) {
	dir := t.TempDir()
	w, err := recording.NewWriter(dir, "audit_capture", "events", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = w.Append(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), &domain.Message{Value: []byte("x")})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	defaultSvc := NewService(storage.NewDirRepository(dir), "", logger.NewNop())
	infos, err := defaultSvc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, infos, "default prefix should not match custom-prefixed files")

	customSvc := NewService(storage.NewDirRepository(dir), "audit_capture", logger.NewNop())
	infos, err = customSvc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "events", infos[0].Topic)
}
