package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/ignatzorin/spaces-backend/internal/models"
)

func newTestStorage(t *testing.T) *QuarantineStorage {
	t.Helper()
	s, err := NewQuarantineStorage(filepath.Join(t.TempDir(), "quarantine"), filepath.Join(t.TempDir(), "public"), 1)
	if err != nil {
		t.Fatalf("не удалось создать хранилище: %v", err)
	}
	return s
}

func TestObjectPathDeterministic(t *testing.T) {
	owner := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	media := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	got := ObjectPath(owner, media, models.MediaTypeImage)
	want := "11111111-1111-1111-1111-111111111111/22222222-2222-2222-2222-222222222222/original.jpg"
	if got != want {
		t.Fatalf("ожидали %s, получили %s", want, got)
	}

	if !strings.HasSuffix(ObjectPath(owner, media, models.MediaTypeVideo), "/original.mp4") {
		t.Fatalf("video должен давать original.mp4")
	}
}

func TestSaveWritesBytesAndReportsProgress(t *testing.T) {
	s := newTestStorage(t)
	content := "payload-bytes"

	var fractions []float64
	written, err := s.Save(context.Background(), "owner/media/original.jpg",
		strings.NewReader(content), int64(len(content)), func(f float64) { fractions = append(fractions, f) })
	if err != nil {
		t.Fatalf("save вернул ошибку: %v", err)
	}
	if written != int64(len(content)) {
		t.Fatalf("ожидали %d байт, записано %d", len(content), written)
	}

	data, err := os.ReadFile(filepath.Join(s.quarantineRoot, "owner", "media", "original.jpg"))
	if err != nil {
		t.Fatalf("объект не найден в карантине: %v", err)
	}
	if string(data) != content {
		t.Fatalf("байты объекта не совпадают")
	}

	if len(fractions) == 0 || fractions[len(fractions)-1] != 1 {
		t.Fatalf("прогресс должен завершиться на 1, получили %v", fractions)
	}

	// Временный файл после rename не остаётся.
	if _, err := os.Stat(filepath.Join(s.quarantineRoot, "owner", "media", "original.jpg.tmp")); !os.IsNotExist(err) {
		t.Fatalf("временный файл должен быть удалён")
	}
}

func TestSaveRejectsOversizedUpload(t *testing.T) {
	s := newTestStorage(t) // лимит 1 МБ
	big := strings.NewReader(strings.Repeat("x", 1024*1024+1))

	if _, err := s.Save(context.Background(), "owner/media/original.jpg", big, 0, nil); err == nil {
		t.Fatalf("ожидали отказ по размеру")
	}

	// Частично записанный объект не должен выглядеть завершённым.
	if _, err := os.Stat(filepath.Join(s.quarantineRoot, "owner", "media", "original.jpg")); !os.IsNotExist(err) {
		t.Fatalf("объект сверх лимита не должен появиться в карантине")
	}
}

func TestSaveCancelledContext(t *testing.T) {
	s := newTestStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Save(ctx, "owner/media/original.jpg", strings.NewReader("x"), 1, nil); err == nil {
		t.Fatalf("отменённый контекст должен прерывать запись")
	}
}

func TestPromoteMovesObjectToPublic(t *testing.T) {
	s := newTestStorage(t)
	rel := "owner/media/original.jpg"

	if _, err := s.Save(context.Background(), rel, strings.NewReader("data"), 4, nil); err != nil {
		t.Fatalf("save вернул ошибку: %v", err)
	}

	publicPath, err := s.Promote(context.Background(), rel)
	if err != nil {
		t.Fatalf("promote вернул ошибку: %v", err)
	}
	if publicPath != rel {
		t.Fatalf("публичный путь должен совпадать с относительным: %s", publicPath)
	}

	if _, err := os.Stat(filepath.Join(s.publicRoot, filepath.FromSlash(rel))); err != nil {
		t.Fatalf("объект должен оказаться в публичном хранилище: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.quarantineRoot, filepath.FromSlash(rel))); !os.IsNotExist(err) {
		t.Fatalf("объект должен покинуть карантин")
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := newTestStorage(t)
	rel := "owner/media/original.jpg"

	if _, err := s.Save(context.Background(), rel, strings.NewReader("data"), 4, nil); err != nil {
		t.Fatalf("save вернул ошибку: %v", err)
	}

	if err := s.Delete(context.Background(), rel); err != nil {
		t.Fatalf("delete вернул ошибку: %v", err)
	}
	if err := s.Delete(context.Background(), rel); err != nil {
		t.Fatalf("повторный delete должен быть no-op: %v", err)
	}
}
