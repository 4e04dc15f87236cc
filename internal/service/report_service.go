package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/spaces-backend/internal/logger"
	"github.com/ignatzorin/spaces-backend/internal/models"
	"github.com/ignatzorin/spaces-backend/internal/pkg/apperror"
	"github.com/ignatzorin/spaces-backend/internal/repository"
)

// ReportStore — очередь жалоб. Две реализации, выбираются один раз при сборке:
// durable (общий Postgres, полная консистентность) и embedded (локальный
// sqlite с load-once кэшем и Invalidate, состояние только на этом устройстве).
type ReportStore interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error)
	ListPending(ctx context.Context) ([]models.Report, error)
	SetStatus(ctx context.Context, id uuid.UUID, status models.ReportStatus) (bool, error)
	Invalidate()
}

// RemovalStore — авторитетный набор скрытых постов. Только растёт.
type RemovalStore interface {
	Add(ctx context.Context, postID string) error
	RemovedIDs(ctx context.Context) ([]string, error)
}

// ReportEvents — уведомления админской поверхности о новых жалобах.
type ReportEvents interface {
	ReportSubmitted(report models.Report)
}

// SubmitReportInput — данные новой жалобы.
type SubmitReportInput struct {
	Type         models.ReportType
	TargetUserID uuid.UUID
	TargetPostID *string
	Reason       string
}

// ReportService реализует приём жалоб и их административный жизненный цикл.
type ReportService struct {
	reports  ReportStore
	removals RemovalStore
	events   ReportEvents
	log      *logrus.Entry
}

// NewReportService создаёт сервис жалоб.
func NewReportService(reports ReportStore, removals RemovalStore) *ReportService {
	return &ReportService{
		reports:  reports,
		removals: removals,
		log:      logger.WithComponent("reports"),
	}
}

// SetEvents подключает канал уведомлений админской поверхности.
func (s *ReportService) SetEvents(events ReportEvents) {
	s.events = events
}

// Submit создаёт жалобу со статусом pending.
func (s *ReportService) Submit(ctx context.Context, reporterID uuid.UUID, in SubmitReportInput) (*models.Report, error) {
	if reporterID == uuid.Nil {
		return nil, apperror.ErrPermissionDenied
	}
	if !in.Type.Valid() {
		return nil, apperror.New(apperror.ErrCodeBadRequest, "неизвестный тип жалобы")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return nil, apperror.New(apperror.ErrCodeBadRequest, "причина жалобы обязательна")
	}
	if in.Type == models.ReportTypePost && (in.TargetPostID == nil || *in.TargetPostID == "") {
		return nil, apperror.New(apperror.ErrCodeBadRequest, "для жалобы на пост требуется идентификатор поста")
	}

	report := &models.Report{
		ID:           uuid.New(),
		Type:         in.Type,
		TargetUserID: in.TargetUserID,
		TargetPostID: in.TargetPostID,
		Reason:       in.Reason,
		ReporterID:   reporterID,
	}

	if err := s.reports.Create(ctx, report); err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.ReportSubmitted(*report)
	}
	return report, nil
}

// ListPending возвращает необработанные жалобы, свежие первыми.
func (s *ReportService) ListPending(ctx context.Context) ([]models.Report, error) {
	return s.reports.ListPending(ctx)
}

// Dismiss отклоняет жалобу. На уже терминальной жалобе — тихий no-op:
// removed никогда не перетирается dismissed.
func (s *ReportService) Dismiss(ctx context.Context, reportID uuid.UUID) error {
	_, err := s.reports.SetStatus(ctx, reportID, models.ReportStatusDismissed)
	if errors.Is(err, repository.ErrReportNotFound) {
		return apperror.ErrReportNotFound
	}
	return err
}

// Remove удовлетворяет жалобу. Для жалобы на пост идентификатор поста
// попадает в набор скрытых, который читают все контентные поверхности.
// Повторный вызов — no-op; набор скрытых от этого не меняется
// (вставка идемпотентна).
func (s *ReportService) Remove(ctx context.Context, reportID uuid.UUID) error {
	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			return apperror.ErrReportNotFound
		}
		return err
	}

	changed, err := s.reports.SetStatus(ctx, reportID, models.ReportStatusRemoved)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	if report.Type == models.ReportTypePost && report.TargetPostID != nil && *report.TargetPostID != "" {
		if err := s.removals.Add(ctx, *report.TargetPostID); err != nil {
			// Статус уже переведён; пропуск записи в наборе скрытых хуже,
			// чем повторная попытка при следующем remove, поэтому ошибку отдаём.
			return err
		}
	}
	return nil
}

// RemovedIDs возвращает полный набор скрытых постов. Поверхности чтения
// обязаны исключить совпадения перед рендером.
func (s *ReportService) RemovedIDs(ctx context.Context) ([]string, error) {
	return s.removals.RemovedIDs(ctx)
}

// Invalidate сбрасывает локальный кэш очереди жалоб (embedded-режим).
// В durable-режиме — no-op.
func (s *ReportService) Invalidate() {
	s.reports.Invalidate()
}
