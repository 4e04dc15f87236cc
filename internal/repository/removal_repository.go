package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// RemovalRepository работает с таблицей removed_posts — авторитетным набором
// скрытого контента. Набор только растёт: операции restore на этом уровне нет.
type RemovalRepository struct {
	db *sqlx.DB
}

// NewRemovalRepository создаёт экземпляр.
func NewRemovalRepository(db *sqlx.DB) *RemovalRepository {
	return &RemovalRepository{db: db}
}

// Add добавляет пост в набор скрытых. Идемпотентно: повторное добавление — no-op.
func (r *RemovalRepository) Add(ctx context.Context, postID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO removed_posts (post_id) VALUES ($1)
		ON CONFLICT (post_id) DO NOTHING
	`, postID)
	if err != nil {
		return fmt.Errorf("removal repository: add %w", err)
	}
	return nil
}

// RemovedIDs возвращает полный набор идентификаторов скрытых постов.
// Каждая читающая поверхность обязана отфильтровать совпадения перед рендером.
func (r *RemovalRepository) RemovedIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT post_id FROM removed_posts`); err != nil {
		return nil, fmt.Errorf("removal repository: removed ids %w", err)
	}
	return ids, nil
}
