package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/spaces-backend/internal/models"
)

// QueueRepository работает с таблицей moderation_queue — членством записей
// медиа в очереди ручной модерации.
type QueueRepository struct {
	db *sqlx.DB
}

// NewQueueRepository создаёт экземпляр.
func NewQueueRepository(db *sqlx.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

// Enqueue добавляет запись в очередь. Повторное добавление — no-op.
func (r *QueueRepository) Enqueue(ctx context.Context, mediaID uuid.UUID, priority int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO moderation_queue (media_id, priority)
		VALUES ($1, $2)
		ON CONFLICT (media_id) DO NOTHING
	`, mediaID, priority)
	if err != nil {
		return fmt.Errorf("queue repository: enqueue %w", err)
	}
	return nil
}

// Dequeue убирает запись из очереди. Идемпотентно: отсутствие записи — no-op.
func (r *QueueRepository) Dequeue(ctx context.Context, mediaID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM moderation_queue WHERE media_id = $1`, mediaID); err != nil {
		return fmt.Errorf("queue repository: dequeue %w", err)
	}
	return nil
}

// DequeueByOwner убирает из очереди все записи владельца.
// Используется при бане владельца из админки.
func (r *QueueRepository) DequeueByOwner(ctx context.Context, ownerID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM moderation_queue
		WHERE media_id IN (SELECT id FROM media WHERE owner_id = $1)
	`, ownerID)
	if err != nil {
		return fmt.Errorf("queue repository: dequeue by owner %w", err)
	}
	return nil
}

// QueueItem — элемент очереди вместе с записью медиа для админской выдачи.
type QueueItem struct {
	Entry models.ModerationQueueEntry
	Media models.MediaRecord
}

// List возвращает очередь: приоритетные первыми, внутри приоритета — старые первыми.
func (r *QueueRepository) List(ctx context.Context, limit int) ([]QueueItem, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT q.media_id, q.created_at AS queued_at, q.priority,
		       m.id, m.owner_id, m.media_type, m.status, m.original_path,
		       m.public_path, m.thumbs_path, m.moderation_provider,
		       m.moderation_score, m.moderation_flags, m.created_at
		FROM moderation_queue q
		JOIN media m ON m.id = q.media_id
		ORDER BY q.priority DESC, q.created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("queue repository: list %w", err)
	}
	defer rows.Close()

	var items []QueueItem
	for rows.Next() {
		var it QueueItem
		if err := rows.Scan(
			&it.Entry.MediaID, &it.Entry.CreatedAt, &it.Entry.Priority,
			&it.Media.ID, &it.Media.OwnerID, &it.Media.Type, &it.Media.Status,
			&it.Media.OriginalPath, &it.Media.PublicPath, &it.Media.ThumbsPath,
			&it.Media.ModerationProvider, &it.Media.ModerationScore,
			&it.Media.ModerationFlags, &it.Media.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("queue repository: scan %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
