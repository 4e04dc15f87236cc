package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/spaces-backend/internal/models"
	"github.com/ignatzorin/spaces-backend/internal/pkg/apperror"
	"github.com/ignatzorin/spaces-backend/internal/repository"
	"github.com/ignatzorin/spaces-backend/internal/storage"
)

// mockStandingReader отдаёт заранее заданное состояние аккаунта.
type mockStandingReader struct {
	standing models.AccountStanding
	err      error
	calls    int
}

func (m *mockStandingReader) GetStanding(ctx context.Context, userID uuid.UUID) (models.AccountStanding, error) {
	m.calls++
	return m.standing, m.err
}

// mockQuotaCounter — потокобезопасный счётчик квоты в памяти.
type mockQuotaCounter struct {
	mu             sync.Mutex
	counts         map[string]int
	getCalls       int
	incrementCalls int
}

func newMockQuotaCounter() *mockQuotaCounter {
	return &mockQuotaCounter{counts: make(map[string]int)}
}

func (m *mockQuotaCounter) GetCount(ctx context.Context, userID uuid.UUID, day string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	return m.counts[userID.String()+day], nil
}

func (m *mockQuotaCounter) IncrementWithCap(ctx context.Context, userID uuid.UUID, day string, cap int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incrementCalls++
	key := userID.String() + day
	if m.counts[key] >= cap {
		return 0, repository.ErrQuotaExceeded
	}
	m.counts[key]++
	return m.counts[key], nil
}

// mockMediaCreator запоминает созданные записи.
type mockMediaCreator struct {
	mu      sync.Mutex
	records []*models.MediaRecord
}

func (m *mockMediaCreator) Create(ctx context.Context, media *models.MediaRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	media.Status = models.MediaStatusProcessing
	media.CreatedAt = time.Now()
	m.records = append(m.records, media)
	return nil
}

// mockObjectSaver пишет байты в буфер либо возвращает заданную ошибку.
type mockObjectSaver struct {
	mu    sync.Mutex
	saved map[string][]byte
	err   error
	calls int
}

func newMockObjectSaver() *mockObjectSaver {
	return &mockObjectSaver{saved: make(map[string][]byte)}
}

func (m *mockObjectSaver) Save(ctx context.Context, relativePath string, r io.Reader, totalSize int64, progress storage.ProgressFunc) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return n, err
	}
	m.saved[relativePath] = buf.Bytes()
	if progress != nil {
		progress(1)
	}
	return n, nil
}

func newTestUploadService(standing models.AccountStanding, maxPerDay int) (*UploadService, *mockQuotaCounter, *mockMediaCreator, *mockObjectSaver) {
	quota := newMockQuotaCounter()
	media := &mockMediaCreator{}
	objects := newMockObjectSaver()
	svc := NewUploadService(&mockStandingReader{standing: standing}, quota, media, objects, maxPerDay)
	return svc, quota, media, objects
}

func TestUploadService_Success(t *testing.T) {
	svc, quota, media, objects := newTestUploadService(models.StandingActive, 50)

	var lastFraction float64
	res, err := svc.Upload(context.Background(), uuid.New(), models.MediaTypeImage,
		strings.NewReader("jpeg-bytes"), 10, func(fraction float64) { lastFraction = fraction })
	if err != nil {
		t.Fatalf("upload вернул ошибку: %v", err)
	}

	if res.MediaID == uuid.Nil {
		t.Fatalf("media ID должен быть установлен")
	}
	if !strings.HasSuffix(res.Path, "/original.jpg") {
		t.Fatalf("неожиданный путь объекта: %s", res.Path)
	}
	if !strings.HasPrefix(res.Path, media.records[0].OwnerID.String()+"/") {
		t.Fatalf("путь должен начинаться с owner ID: %s", res.Path)
	}
	if lastFraction != 1 {
		t.Fatalf("прогресс должен дойти до 1, получили %v", lastFraction)
	}

	if len(media.records) != 1 {
		t.Fatalf("ожидалась одна запись, получили %d", len(media.records))
	}
	if media.records[0].Status != models.MediaStatusProcessing {
		t.Fatalf("новая запись должна быть в processing, получили %s", media.records[0].Status)
	}
	if string(objects.saved[res.Path]) != "jpeg-bytes" {
		t.Fatalf("байты объекта не совпадают")
	}
	if quota.incrementCalls != 1 {
		t.Fatalf("квота должна инкрементироваться ровно один раз")
	}
}

func TestUploadService_BannedBeforeAnyQuotaCheck(t *testing.T) {
	svc, quota, media, objects := newTestUploadService(models.StandingBanned, 50)

	_, err := svc.Upload(context.Background(), uuid.New(), models.MediaTypeImage,
		strings.NewReader("x"), 1, nil)
	if !errors.Is(err, apperror.ErrAccountBanned) {
		t.Fatalf("ожидали ErrAccountBanned, получили %v", err)
	}

	if quota.getCalls != 0 || quota.incrementCalls != 0 {
		t.Fatalf("гейт аккаунта должен срабатывать до обращения к квоте")
	}
	if len(media.records) != 0 || objects.calls != 0 {
		t.Fatalf("для забаненного аккаунта не должно быть побочных эффектов")
	}
}

func TestUploadService_FrozenRejected(t *testing.T) {
	svc, _, _, _ := newTestUploadService(models.StandingFrozen, 50)

	_, err := svc.Upload(context.Background(), uuid.New(), models.MediaTypeVideo,
		strings.NewReader("x"), 1, nil)
	if !errors.Is(err, apperror.ErrAccountFrozen) {
		t.Fatalf("ожидали ErrAccountFrozen, получили %v", err)
	}
}

func TestUploadService_QuotaExceededNoSideEffects(t *testing.T) {
	svc, quota, media, objects := newTestUploadService(models.StandingActive, 50)
	owner := uuid.New()
	quota.counts[owner.String()+models.QuotaDay(time.Now())] = 50

	_, err := svc.Upload(context.Background(), owner, models.MediaTypeImage,
		strings.NewReader("x"), 1, nil)
	if !errors.Is(err, apperror.ErrQuotaExceeded) {
		t.Fatalf("ожидали ErrQuotaExceeded, получили %v", err)
	}

	// Достигнутый потолок отсекается быстрой проверкой: ни инкремента,
	// ни записи, ни обращения к хранилищу объектов.
	if quota.incrementCalls != 0 {
		t.Fatalf("на потолке квоты инкремент вызываться не должен")
	}
	if len(media.records) != 0 {
		t.Fatalf("51-я попытка не должна создавать запись")
	}
	if objects.calls != 0 {
		t.Fatalf("на потолке квоты не должно быть обращений к хранилищу")
	}
}

func TestUploadService_TransferFailureLeavesOrphan(t *testing.T) {
	svc, quota, media, objects := newTestUploadService(models.StandingActive, 50)
	objects.err = errors.New("соединение оборвалось")

	_, err := svc.Upload(context.Background(), uuid.New(), models.MediaTypeImage,
		strings.NewReader("x"), 1, nil)
	if !apperror.IsCode(err, apperror.ErrCodeUploadFailed) {
		t.Fatalf("ожидали UPLOAD_FAILED, получили %v", err)
	}

	// Запись остаётся в processing как восстановимая сирота,
	// квота уже потрачена.
	if len(media.records) != 1 {
		t.Fatalf("запись должна быть создана до передачи байт")
	}
	if media.records[0].Status != models.MediaStatusProcessing {
		t.Fatalf("сирота должна остаться в processing")
	}
	if quota.incrementCalls != 1 {
		t.Fatalf("квота должна быть инкрементирована до передачи байт")
	}
}

func TestUploadService_InvalidMediaType(t *testing.T) {
	svc, quota, _, _ := newTestUploadService(models.StandingActive, 50)

	_, err := svc.Upload(context.Background(), uuid.New(), models.MediaType("gif"),
		strings.NewReader("x"), 1, nil)
	if !apperror.IsCode(err, apperror.ErrCodeBadRequest) {
		t.Fatalf("ожидали BAD_REQUEST, получили %v", err)
	}
	if quota.getCalls != 0 {
		t.Fatalf("невалидный тип отсекается до всех проверок")
	}
}

func TestUploadService_ConcurrentAtCapMinusOne(t *testing.T) {
	// Двое конкурентно загружают при счётчике 49/50: атомарный условный
	// инкремент пропускает ровно одного.
	svc, quota, media, _ := newTestUploadService(models.StandingActive, 50)
	owner := uuid.New()
	quota.counts[owner.String()+models.QuotaDay(time.Now())] = 49

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Upload(context.Background(), owner, models.MediaTypeImage,
				strings.NewReader("x"), 1, nil)
		}(i)
	}
	wg.Wait()

	var succeeded, limited int
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, apperror.ErrQuotaExceeded):
			limited++
		default:
			t.Fatalf("неожиданная ошибка: %v", err)
		}
	}

	if succeeded != 1 || limited != 1 {
		t.Fatalf("ожидали ровно один успех и один отказ, получили %d/%d", succeeded, limited)
	}
	if len(media.records) != 1 {
		t.Fatalf("должна быть создана ровно одна запись, получили %d", len(media.records))
	}
}
