package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/farm-market-backend/internal/pkg/apperror"
)

// pngHeader - минимальная сигнатура PNG, которой достаточно для определения типа.
var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

func newTestStorage(t *testing.T, maxMB int64) *ImageStorage {
	t.Helper()
	s, err := NewImageStorage(t.TempDir(), maxMB)
	require.NoError(t, err)
	return s
}

func TestImageStorage_SaveAndDelete(t *testing.T) {
	s := newTestStorage(t, 1)
	owner := uuid.New()

	publicPath, err := s.Save(context.Background(), owner, "../../tomato crop.PNG", bytes.NewReader(pngHeader))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(publicPath, "/uploads/"+owner.String()+"/tomato_crop_"))
	assert.True(t, strings.HasSuffix(publicPath, ".png"))

	onDisk := filepath.Join(s.Root(), owner.String(), filepath.Base(publicPath))
	data, err := os.ReadFile(onDisk)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)

	require.NoError(t, s.Delete(publicPath))
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))

	// повторное удаление не ошибка
	assert.NoError(t, s.Delete(publicPath))
}

func TestImageStorage_RejectsNonImage(t *testing.T) {
	s := newTestStorage(t, 1)

	_, err := s.Save(context.Background(), uuid.New(), "notes.png", strings.NewReader("just some text"))
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	_, err = s.Save(context.Background(), uuid.New(), "empty.png", bytes.NewReader(nil))
	assert.True(t, apperror.IsValidation(err))
}

func TestImageStorage_SizeLimit(t *testing.T) {
	s := newTestStorage(t, 1)
	owner := uuid.New()

	big := append(append([]byte{}, pngHeader...), make([]byte, s.MaxUploadBytes())...)
	_, err := s.Save(context.Background(), owner, "big.png", bytes.NewReader(big))
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	entries, err := os.ReadDir(filepath.Join(s.Root(), owner.String()))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestImageStorage_DeleteOutsideRoot(t *testing.T) {
	s := newTestStorage(t, 1)

	assert.Error(t, s.Delete("/uploads/../../etc/passwd"))
	assert.Error(t, s.Delete(""))
}

func TestImageStorage_CanceledContext(t *testing.T) {
	s := newTestStorage(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Save(ctx, uuid.New(), "a.png", bytes.NewReader(pngHeader))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDetectImage(t *testing.T) {
	ext, err := DetectImage([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0x10, 'J', 'F', 'I', 'F'})
	require.NoError(t, err)
	assert.Equal(t, ".jpg", ext)

	// PDF распознаётся, но не разрешён
	_, err = DetectImage([]byte("%PDF-1.4\n"))
	assert.True(t, apperror.IsValidation(err))
}
