package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/spaces-backend/internal/logger"
	"github.com/ignatzorin/spaces-backend/internal/models"
	"github.com/ignatzorin/spaces-backend/internal/pkg/apperror"
	"github.com/ignatzorin/spaces-backend/internal/repository"
	"github.com/ignatzorin/spaces-backend/internal/storage"
)

// StandingReader — гейт состояния аккаунта. Читается на каждой попытке
// загрузки заново, без кэширования между вызовами.
type StandingReader interface {
	GetStanding(ctx context.Context, userID uuid.UUID) (models.AccountStanding, error)
}

// QuotaCounter — дневной счётчик загрузок с атомарным условным инкрементом.
type QuotaCounter interface {
	GetCount(ctx context.Context, userID uuid.UUID, day string) (int, error)
	IncrementWithCap(ctx context.Context, userID uuid.UUID, day string, cap int) (int, error)
}

// MediaCreator создаёт запись медиа в статусе processing.
type MediaCreator interface {
	Create(ctx context.Context, media *models.MediaRecord) error
}

// ObjectSaver стримит байты в карантинное хранилище.
type ObjectSaver interface {
	Save(ctx context.Context, relativePath string, r io.Reader, totalSize int64, progress storage.ProgressFunc) (int64, error)
}

// UploadResult — итог успешной загрузки.
type UploadResult struct {
	MediaID uuid.UUID `json:"mediaId"`
	Path    string    `json:"path"`
}

// nowFunc подменяется в тестах для детерминированного дня квоты.
var nowFunc = time.Now

// UploadService — менеджер карантинной загрузки: гейт аккаунта → квота →
// создание записи → передача байт.
type UploadService struct {
	standings StandingReader
	quota     QuotaCounter
	media     MediaCreator
	objects   ObjectSaver
	cap       int
	log       *logrus.Entry
}

// NewUploadService создаёт менеджер загрузки.
func NewUploadService(standings StandingReader, quota QuotaCounter, media MediaCreator, objects ObjectSaver, maxPerDay int) *UploadService {
	return &UploadService{
		standings: standings,
		quota:     quota,
		media:     media,
		objects:   objects,
		cap:       maxPerDay,
		log:       logger.WithComponent("upload"),
	}
}

// Upload проводит файл через конвейер карантинной загрузки.
//
// Порядок строгий: сначала гейт аккаунта, затем квота (fail-fast, без побочных
// эффектов), затем создаётся запись в статусе processing — ДО передачи байт,
// чтобы внешний сканер мог сопоставить объект с записью ещё во время загрузки.
// Ошибка передачи оставляет запись в processing как восстановимую сироту;
// её подберёт reconciler.
func (s *UploadService) Upload(
	ctx context.Context,
	ownerID uuid.UUID,
	mediaType models.MediaType,
	r io.Reader,
	totalSize int64,
	progress storage.ProgressFunc,
) (*UploadResult, error) {
	if !mediaType.Valid() {
		return nil, apperror.New(apperror.ErrCodeBadRequest, "неизвестный тип медиа")
	}

	// 1. Гейт состояния аккаунта — до любых других проверок.
	standing, err := s.standings.GetStanding(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, err
	}
	switch standing {
	case models.StandingBanned:
		return nil, apperror.ErrAccountBanned
	case models.StandingFrozen:
		return nil, apperror.ErrAccountFrozen
	}

	day := models.QuotaDay(nowFunc())

	// 2. Быстрая проверка квоты: достигнутый потолок отсекается без единого
	// побочного эффекта и без обращения к хранилищу объектов.
	count, err := s.quota.GetCount(ctx, ownerID, day)
	if err != nil {
		return nil, err
	}
	if count >= s.cap {
		return nil, apperror.ErrQuotaExceeded
	}

	// 3. Атомарный условный инкремент закрывает гонку двух конкурентных
	// загрузок, одновременно прошедших быструю проверку.
	if _, err := s.quota.IncrementWithCap(ctx, ownerID, day, s.cap); err != nil {
		if errors.Is(err, repository.ErrQuotaExceeded) {
			return nil, apperror.ErrQuotaExceeded
		}
		return nil, err
	}

	// 4. Запись создаётся до передачи байт.
	mediaID := uuid.New()
	objectPath := storage.ObjectPath(ownerID, mediaID, mediaType)

	record := &models.MediaRecord{
		ID:           mediaID,
		OwnerID:      ownerID,
		Type:         mediaType,
		OriginalPath: objectPath,
	}
	if err := s.media.Create(ctx, record); err != nil {
		return nil, err
	}

	// 5. Передача байт в карантин с прогрессом.
	if _, err := s.objects.Save(ctx, objectPath, r, totalSize, progress); err != nil {
		// Запись остаётся в processing: восстановимая сирота для reconciler'а.
		s.log.Warnf("передача байт не удалась, запись %s осталась сиротой: %v", mediaID, err)
		return nil, apperror.Wrap(err, apperror.ErrCodeUploadFailed, "не удалось передать файл")
	}

	return &UploadResult{MediaID: mediaID, Path: objectPath}, nil
}
