package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ignatzorin/spaces-backend/internal/models"
)

// ProgressFunc получает долю переданных байт в [0, 1].
// Значения могут повторяться; монотонность не гарантируется.
type ProgressFunc func(fraction float64)

// QuarantineStorage отвечает за карантинное и публичное файловые хранилища.
// Карантинная область по контракту недоступна на чтение никому, кроме
// модерационного бэкенда; права доступа обеспечиваются снаружи (правами
// на каталоги / политиками бакета), а не этим кодом.
type QuarantineStorage struct {
	quarantineRoot string
	publicRoot     string
	maxUploadBytes int64
}

// NewQuarantineStorage создаёт хранилище и готовит корневые каталоги.
func NewQuarantineStorage(quarantineRoot, publicRoot string, maxUploadMB int64) (*QuarantineStorage, error) {
	for _, root := range []string{quarantineRoot, publicRoot} {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", root, err)
		}
	}

	return &QuarantineStorage{
		quarantineRoot: quarantineRoot,
		publicRoot:     publicRoot,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// ObjectPath детерминированно вычисляет относительный путь карантинного объекта:
// {ownerId}/{mediaId}/original.{ext}. Расширение берётся из заявленного типа
// (image → jpg, video → mp4), а не из имени исходного файла.
func ObjectPath(ownerID, mediaID uuid.UUID, mediaType models.MediaType) string {
	return filepath.ToSlash(filepath.Join(ownerID.String(), mediaID.String(), "original."+mediaType.Ext()))
}

// Save стримит байты в карантинный путь, вызывая progress по мере записи.
// Запись идёт во временный файл с последующим rename, чтобы частично
// переданный объект никогда не выглядел завершённым.
func (s *QuarantineStorage) Save(ctx context.Context, relativePath string, r io.Reader, totalSize int64, progress ProgressFunc) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	targetPath := filepath.Join(s.quarantineRoot, filepath.FromSlash(relativePath))
	if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		return 0, fmt.Errorf("storage: не удалось создать каталог объекта: %w", err)
	}

	tempPath := targetPath + ".tmp"
	f, err := os.Create(tempPath)
	if err != nil {
		return 0, fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer f.Close()

	limited := io.LimitedReader{R: r, N: s.maxUploadBytes + 1}
	written, err := copyWithProgress(ctx, f, &limited, totalSize, progress)
	if err != nil {
		_ = os.Remove(tempPath)
		return 0, fmt.Errorf("storage: ошибка записи файла: %w", err)
	}

	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return 0, fmt.Errorf("storage: размер файла превышает лимит %d байт", s.maxUploadBytes)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tempPath)
		return 0, fmt.Errorf("storage: ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		_ = os.Remove(tempPath)
		return 0, fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	return written, nil
}

// Promote переносит объект из карантина в публичное хранилище и возвращает
// относительный публичный путь. Вызывается при одобрении записи модератором.
func (s *QuarantineStorage) Promote(ctx context.Context, relativePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	src := filepath.Join(s.quarantineRoot, filepath.FromSlash(relativePath))
	dst := filepath.Join(s.publicRoot, filepath.FromSlash(relativePath))

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("storage: не удалось создать публичный каталог: %w", err)
	}

	if err := os.Rename(src, dst); err != nil {
		return "", fmt.Errorf("storage: не удалось перенести объект в публичное хранилище: %w", err)
	}

	return relativePath, nil
}

// Delete удаляет карантинный объект. Отсутствие файла не считается ошибкой.
func (s *QuarantineStorage) Delete(ctx context.Context, relativePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := filepath.Join(s.quarantineRoot, filepath.FromSlash(relativePath))
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: не удалось удалить файл: %w", err)
	}
	return nil
}

// copyWithProgress копирует чанками, проверяя отмену контекста и отчитываясь
// о прогрессе. При неизвестном totalSize прогресс не вызывается до завершения.
func copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, totalSize int64, progress ProgressFunc) (int64, error) {
	buf := make([]byte, 64*1024)
	var written int64

	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			wn, writeErr := dst.Write(buf[:n])
			written += int64(wn)
			if writeErr != nil {
				return written, writeErr
			}
			if wn < n {
				return written, io.ErrShortWrite
			}

			if progress != nil && totalSize > 0 {
				fraction := float64(written) / float64(totalSize)
				if fraction > 1 {
					fraction = 1
				}
				progress(fraction)
			}
		}

		if readErr == io.EOF {
			if progress != nil {
				progress(1)
			}
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}
