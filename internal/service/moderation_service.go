package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/spaces-backend/internal/logger"
	"github.com/ignatzorin/spaces-backend/internal/models"
	"github.com/ignatzorin/spaces-backend/internal/pkg/apperror"
	"github.com/ignatzorin/spaces-backend/internal/repository"
)

// MediaStore описывает зависимости модерации от хранилища записей медиа.
type MediaStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.MediaRecord, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]models.MediaRecord, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next models.MediaStatus) error
	SetApproved(ctx context.Context, id uuid.UUID, publicPath string) error
	SetModeration(ctx context.Context, id uuid.UUID, provider string, score float64, flags []string) error
}

// ReviewQueue описывает очередь ручной модерации.
type ReviewQueue interface {
	Enqueue(ctx context.Context, mediaID uuid.UUID, priority int) error
	Dequeue(ctx context.Context, mediaID uuid.UUID) error
	DequeueByOwner(ctx context.Context, ownerID uuid.UUID) error
	List(ctx context.Context, limit int) ([]repository.QueueItem, error)
}

// StandingWriter меняет состояние аккаунта (бан владельца из админки).
type StandingWriter interface {
	SetStanding(ctx context.Context, id uuid.UUID, standing models.AccountStanding) error
}

// ObjectMover переносит и удаляет карантинные объекты.
type ObjectMover interface {
	Promote(ctx context.Context, relativePath string) (string, error)
	Delete(ctx context.Context, relativePath string) error
}

// ModerationEvents — уведомления админской поверхности (ws feed).
type ModerationEvents interface {
	MediaEnqueued(entry models.ModerationQueueEntry)
}

// ScanResult — вердикт внешнего автоматического сканера.
type ScanResult struct {
	Provider string
	Score    float64
	Flags    []string
	Verdict  models.MediaStatus // approved, rejected или needs_review
}

// ModerationService реализует админский контракт очереди модерации
// и приёмную поверхность внешнего сканера.
type ModerationService struct {
	media   MediaStore
	queue   ReviewQueue
	users   StandingWriter
	objects ObjectMover
	events  ModerationEvents
	log     *logrus.Entry
}

// NewModerationService создаёт сервис модерации.
func NewModerationService(media MediaStore, queue ReviewQueue, users StandingWriter, objects ObjectMover) *ModerationService {
	return &ModerationService{
		media:   media,
		queue:   queue,
		users:   users,
		objects: objects,
		log:     logger.WithComponent("moderation"),
	}
}

// SetEvents подключает канал уведомлений админской поверхности.
func (s *ModerationService) SetEvents(events ModerationEvents) {
	s.events = events
}

// ListQueue возвращает очередь ручной модерации вместе с записями медиа.
func (s *ModerationService) ListQueue(ctx context.Context, limit int) ([]repository.QueueItem, error) {
	return s.queue.List(ctx, limit)
}

// ApplyScanResult — write-поверхность внешнего сканера: записывает
// score/flags и продвигает статус. Уверенный вердикт минует человека
// (прямой переход processing → approved/rejected), неуверенный ставит
// запись в очередь ручной модерации.
func (s *ModerationService) ApplyScanResult(ctx context.Context, mediaID uuid.UUID, res ScanResult) error {
	if err := s.media.SetModeration(ctx, mediaID, res.Provider, res.Score, res.Flags); err != nil {
		if errors.Is(err, repository.ErrMediaNotFound) {
			return apperror.ErrMediaNotFound
		}
		return err
	}

	switch res.Verdict {
	case models.MediaStatusApproved:
		return s.Approve(ctx, mediaID)
	case models.MediaStatusRejected:
		return s.Reject(ctx, mediaID)
	case models.MediaStatusNeedsReview:
		if err := s.media.UpdateStatus(ctx, mediaID, models.MediaStatusNeedsReview); err != nil {
			return mapTransitionErr(err)
		}
		// Чем выше score сканера, тем выше приоритет в очереди.
		priority := int(res.Score * 100)
		if err := s.queue.Enqueue(ctx, mediaID, priority); err != nil {
			return err
		}
		if s.events != nil {
			s.events.MediaEnqueued(models.ModerationQueueEntry{MediaID: mediaID, Priority: priority})
		}
		return nil
	default:
		return apperror.New(apperror.ErrCodeBadRequest, "неизвестный вердикт сканера")
	}
}

// EnqueueForReview добавляет запись в очередь ручной модерации.
func (s *ModerationService) EnqueueForReview(ctx context.Context, mediaID uuid.UUID, priority int) error {
	if _, err := s.media.GetByID(ctx, mediaID); err != nil {
		return mapTransitionErr(err)
	}
	if err := s.queue.Enqueue(ctx, mediaID, priority); err != nil {
		return err
	}
	if s.events != nil {
		s.events.MediaEnqueued(models.ModerationQueueEntry{MediaID: mediaID, Priority: priority})
	}
	return nil
}

// DequeueReview убирает запись из очереди. Идемпотентно.
func (s *ModerationService) DequeueReview(ctx context.Context, mediaID uuid.UUID) error {
	return s.queue.Dequeue(ctx, mediaID)
}

// Approve одобряет запись: объект переезжает из карантина в публичное
// хранилище, статус становится approved, запись покидает очередь.
func (s *ModerationService) Approve(ctx context.Context, mediaID uuid.UUID) error {
	record, err := s.media.GetByID(ctx, mediaID)
	if err != nil {
		return mapTransitionErr(err)
	}
	if !record.Status.CanTransitionTo(models.MediaStatusApproved) {
		return apperror.New(apperror.ErrCodeConflict, "запись уже в терминальном статусе")
	}

	publicPath, err := s.objects.Promote(ctx, record.OriginalPath)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeUploadFailed, "не удалось опубликовать объект")
	}

	if err := s.media.SetApproved(ctx, mediaID, publicPath); err != nil {
		return mapTransitionErr(err)
	}

	return s.queue.Dequeue(ctx, mediaID)
}

// Reject отклоняет запись: карантинный объект удаляется, статус становится
// rejected, запись покидает очередь. Сама запись не удаляется никогда.
func (s *ModerationService) Reject(ctx context.Context, mediaID uuid.UUID) error {
	record, err := s.media.GetByID(ctx, mediaID)
	if err != nil {
		return mapTransitionErr(err)
	}
	if !record.Status.CanTransitionTo(models.MediaStatusRejected) {
		return apperror.New(apperror.ErrCodeConflict, "запись уже в терминальном статусе")
	}

	if err := s.objects.Delete(ctx, record.OriginalPath); err != nil {
		s.log.Warnf("не удалось удалить карантинный объект %s: %v", record.OriginalPath, err)
	}

	if err := s.media.UpdateStatus(ctx, mediaID, models.MediaStatusRejected); err != nil {
		return mapTransitionErr(err)
	}

	return s.queue.Dequeue(ctx, mediaID)
}

// BanOwner банит владельца и убирает его записи из рабочей очереди админа.
// Сами записи и их статусы не трогаются.
func (s *ModerationService) BanOwner(ctx context.Context, ownerID uuid.UUID) error {
	if err := s.users.SetStanding(ctx, ownerID, models.StandingBanned); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperror.ErrUserNotFound
		}
		return err
	}
	return s.queue.DequeueByOwner(ctx, ownerID)
}

// GetMedia возвращает запись медиа.
func (s *ModerationService) GetMedia(ctx context.Context, mediaID uuid.UUID) (*models.MediaRecord, error) {
	record, err := s.media.GetByID(ctx, mediaID)
	if err != nil {
		return nil, mapTransitionErr(err)
	}
	return record, nil
}

// ListOwnerMedia возвращает записи владельца, новые первыми.
func (s *ModerationService) ListOwnerMedia(ctx context.Context, ownerID uuid.UUID, limit int) ([]models.MediaRecord, error) {
	return s.media.ListByOwner(ctx, ownerID, limit)
}

// mapTransitionErr переводит ошибки хранилища в таксономию apperror.
func mapTransitionErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrMediaNotFound):
		return apperror.ErrMediaNotFound
	case errors.Is(err, repository.ErrInvalidTransition):
		return apperror.New(apperror.ErrCodeConflict, "недопустимый переход статуса")
	default:
		return err
	}
}
