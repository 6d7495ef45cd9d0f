package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/ignatzorin/farm-market-backend/internal/pkg/apperror"
)

// PublicPrefix - URL-префикс, под которым раздаётся каталог загрузок.
const PublicPrefix = "/uploads"

// Разрешённые типы изображений
var allowedMimeTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageStorage хранит фотографии объявлений на диске.
type ImageStorage struct {
	rootPath       string
	maxUploadBytes int64
}

// NewImageStorage создаёт файловое хранилище.
func NewImageStorage(rootPath string, maxUploadMB int64) (*ImageStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}

	return &ImageStorage{
		rootPath:       rootPath,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

func (s *ImageStorage) Root() string {
	return s.rootPath
}

func (s *ImageStorage) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// Save проверяет содержимое по магическим байтам и возвращает публичный путь вида /uploads/<owner>/<file>.
func (s *ImageStorage) Save(ctx context.Context, ownerID uuid.UUID, originalName string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	header := make([]byte, 512)
	n, err := io.ReadFull(r, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("storage: не удалось прочитать файл: %w", err)
	}
	header = header[:n]
	if n == 0 {
		return "", apperror.New(apperror.ErrCodeValidation, "файл не может быть пустым")
	}

	ext, err := DetectImage(header)
	if err != nil {
		return "", err
	}

	fileName := fmt.Sprintf("%s_%s%s", baseName(originalName), uuid.NewString(), ext)
	ownerDir := filepath.Join(s.rootPath, ownerID.String())
	if err := os.MkdirAll(ownerDir, 0o755); err != nil {
		return "", fmt.Errorf("storage: не удалось создать каталог владельца: %w", err)
	}

	targetPath := filepath.Join(ownerDir, fileName)
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return "", fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer f.Close()

	limited := io.LimitedReader{R: io.MultiReader(bytes.NewReader(header), r), N: s.maxUploadBytes + 1}
	written, err := io.Copy(f, &limited)
	if err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("storage: ошибка записи файла: %w", err)
	}

	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return "", apperror.New(apperror.ErrCodeValidation,
			fmt.Sprintf("размер файла превышает лимит %d МБ", s.maxUploadBytes/(1024*1024)))
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("storage: ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	return path.Join(PublicPrefix, ownerID.String(), fileName), nil
}

// Delete удаляет файл по публичному пути. Отсутствующий файл ошибкой не считается.
func (s *ImageStorage) Delete(publicPath string) error {
	target, err := s.resolve(publicPath)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: не удалось удалить файл: %w", err)
	}
	return nil
}

// resolve переводит публичный путь в путь на диске, не выходя за пределы корня.
func (s *ImageStorage) resolve(publicPath string) (string, error) {
	rel := strings.TrimPrefix(path.Clean("/"+publicPath), PublicPrefix+"/")
	if rel == "" || strings.HasPrefix(rel, "/") || strings.Contains(rel, "..") {
		return "", fmt.Errorf("storage: некорректный путь %q", publicPath)
	}
	return filepath.Join(s.rootPath, filepath.FromSlash(rel)), nil
}

// DetectImage определяет тип изображения по первым байтам и возвращает расширение.
func DetectImage(header []byte) (string, error) {
	kind, err := filetype.Match(header)
	if err != nil || kind == filetype.Unknown {
		return "", apperror.New(apperror.ErrCodeValidation, "не удалось определить тип файла. Разрешены только изображения")
	}

	ext, ok := allowedMimeTypes[kind.MIME.Value]
	if !ok {
		return "", apperror.New(apperror.ErrCodeValidation,
			fmt.Sprintf("неподдерживаемый тип файла (%s). Разрешены JPEG, PNG, GIF и WebP", kind.MIME.Value))
	}
	return ext, nil
}

// baseName оставляет от имени файла только безопасную основу без расширения.
func baseName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if len(name) > 40 {
		name = name[:40]
	}
	if name == "" || name == "." || strings.Trim(name, "_") == "" {
		name = "photo"
	}
	return name
}
