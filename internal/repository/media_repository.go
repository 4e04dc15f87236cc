package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/spaces-backend/internal/models"
)

// ErrMediaNotFound сигнализирует об отсутствии записи медиа.
var ErrMediaNotFound = errors.New("media not found")

// ErrInvalidTransition возвращается при попытке недопустимого перехода статуса.
var ErrInvalidTransition = errors.New("invalid media status transition")

// MediaRepository работает с таблицей media. Записи создаются со статусом
// processing и никогда не удаляются: это аудиторский след модерации.
type MediaRepository struct {
	db *sqlx.DB
}

// NewMediaRepository создаёт экземпляр.
func NewMediaRepository(db *sqlx.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

// Create сохраняет запись о файле со статусом processing.
// Запись создаётся до передачи байт, чтобы внешний сканер мог
// сопоставить объект с записью ещё во время загрузки.
func (r *MediaRepository) Create(ctx context.Context, media *models.MediaRecord) error {
	query := `
		INSERT INTO media (id, owner_id, media_type, status, original_path)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	if err := r.db.QueryRowxContext(
		ctx,
		query,
		media.ID,
		media.OwnerID,
		media.Type,
		models.MediaStatusProcessing,
		media.OriginalPath,
	).Scan(&media.CreatedAt); err != nil {
		return fmt.Errorf("media repository: create %w", err)
	}

	media.Status = models.MediaStatusProcessing
	return nil
}

// GetByID возвращает запись о файле.
func (r *MediaRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.MediaRecord, error) {
	var media models.MediaRecord
	if err := r.db.GetContext(ctx, &media, `SELECT * FROM media WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMediaNotFound
		}
		return nil, fmt.Errorf("media repository: get by id %w", err)
	}
	return &media, nil
}

// ListByOwner возвращает записи владельца, новые первыми.
func (r *MediaRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]models.MediaRecord, error) {
	var records []models.MediaRecord
	err := r.db.SelectContext(ctx, &records, `
		SELECT * FROM media WHERE owner_id = $1 ORDER BY created_at DESC LIMIT $2
	`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("media repository: list by owner %w", err)
	}
	return records, nil
}

// UpdateStatus переводит запись в новый статус. Переход защищён на уровне SQL:
// WHERE пропускает только допустимые исходные статусы, поэтому терминальные
// записи неизменяемы даже при гонке двух модераторов.
func (r *MediaRepository) UpdateStatus(ctx context.Context, id uuid.UUID, next models.MediaStatus) error {
	allowed := allowedPriorStatuses(next)
	if len(allowed) == 0 {
		return ErrInvalidTransition
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE media SET status = $2 WHERE id = $1 AND status = ANY($3)
	`, id, next, pq.Array(allowed))
	if err != nil {
		return fmt.Errorf("media repository: update status %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("media repository: update status %w", err)
	}
	if affected == 0 {
		// Либо записи нет, либо она уже в несовместимом статусе.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return ErrInvalidTransition
	}
	return nil
}

// SetApproved помечает запись одобренной и фиксирует публичный путь.
func (r *MediaRepository) SetApproved(ctx context.Context, id uuid.UUID, publicPath string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE media SET status = $2, public_path = $3
		WHERE id = $1 AND status = ANY($4)
	`, id, models.MediaStatusApproved, publicPath,
		pq.Array(allowedPriorStatuses(models.MediaStatusApproved)))
	if err != nil {
		return fmt.Errorf("media repository: set approved %w", err)
	}
	return checkTransitionAffected(ctx, r, res, id)
}

// SetModeration записывает результат автоматического сканера.
func (r *MediaRepository) SetModeration(ctx context.Context, id uuid.UUID, provider string, score float64, flags []string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE media SET moderation_provider = $2, moderation_score = $3, moderation_flags = $4
		WHERE id = $1
	`, id, provider, score, pq.Array(flags))
	if err != nil {
		return fmt.Errorf("media repository: set moderation %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrMediaNotFound
	}
	return nil
}

// StaleMedia — осиротевшая запись, отбракованная reconciler'ом.
type StaleMedia struct {
	ID           uuid.UUID `db:"id"`
	OriginalPath string    `db:"original_path"`
}

// RejectStaleProcessing переводит в rejected осиротевшие processing-записи
// старше заданного возраста. Используется фоновым reconciler'ом для уборки
// за упавшими загрузками; возвращает записи для зачистки карантинных объектов.
func (r *MediaRepository) RejectStaleProcessing(ctx context.Context, olderThanHours int) ([]StaleMedia, error) {
	var stale []StaleMedia
	err := r.db.SelectContext(ctx, &stale, `
		UPDATE media SET status = $1
		WHERE status = $2 AND created_at < NOW() - make_interval(hours => $3)
		RETURNING id, original_path
	`, models.MediaStatusRejected, models.MediaStatusProcessing, olderThanHours)
	if err != nil {
		return nil, fmt.Errorf("media repository: reject stale %w", err)
	}
	return stale, nil
}

// allowedPriorStatuses возвращает исходные статусы, из которых разрешён
// переход в next. Производная от models.MediaStatus.CanTransitionTo.
func allowedPriorStatuses(next models.MediaStatus) []string {
	all := []models.MediaStatus{
		models.MediaStatusProcessing,
		models.MediaStatusNeedsReview,
		models.MediaStatusApproved,
		models.MediaStatusRejected,
	}

	var allowed []string
	for _, prior := range all {
		if prior.CanTransitionTo(next) {
			allowed = append(allowed, string(prior))
		}
	}
	return allowed
}

func checkTransitionAffected(ctx context.Context, r *MediaRepository, res sql.Result, id uuid.UUID) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("media repository: rows affected %w", err)
	}
	if affected == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return ErrInvalidTransition
	}
	return nil
}
