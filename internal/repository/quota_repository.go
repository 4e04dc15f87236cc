package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ErrQuotaExceeded возвращается, когда условный инкремент упёрся в потолок.
var ErrQuotaExceeded = errors.New("upload quota exceeded")

// QuotaRepository работает с таблицей upload_counts: по одной записи
// на пару (пользователь, календарный день UTC). Счётчик никогда не
// уменьшается, новый день создаёт новую запись.
type QuotaRepository struct {
	db *sqlx.DB
}

// NewQuotaRepository создаёт экземпляр.
func NewQuotaRepository(db *sqlx.DB) *QuotaRepository {
	return &QuotaRepository{db: db}
}

// GetCount возвращает количество загрузок пользователя за день.
func (r *QuotaRepository) GetCount(ctx context.Context, userID uuid.UUID, day string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT upload_count FROM upload_counts WHERE user_id = $1 AND day = $2`, userID, day)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("quota repository: get count %w", err)
	}
	return count, nil
}

// IncrementWithCap атомарно инкрементирует дневной счётчик, но только если
// он ещё не достиг потолка. Check-then-increment как два отдельных запроса
// даёт гонку (два конкурентных вызова оба видят count-1 < cap и оба проходят),
// поэтому проверка и инкремент — один условный upsert: если WHERE в
// ON CONFLICT не сработал, строк не возвращается и это QuotaExceeded.
func (r *QuotaRepository) IncrementWithCap(ctx context.Context, userID uuid.UUID, day string, cap int) (int, error) {
	var count int
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO upload_counts (user_id, day, upload_count)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id, day) DO UPDATE
			SET upload_count = upload_counts.upload_count + 1
			WHERE upload_counts.upload_count < $3
		RETURNING upload_count
	`, userID, day, cap).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrQuotaExceeded
	}
	if err != nil {
		return 0, fmt.Errorf("quota repository: increment %w", err)
	}
	if count > cap {
		// Потолок мог быть снижен конфигурацией после того, как счётчик его перерос.
		return count, ErrQuotaExceeded
	}
	return count, nil
}
