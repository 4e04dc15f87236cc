package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/spaces-backend/internal/models"
)

// ErrUserNotFound сигнализирует об отсутствии пользователя.
var ErrUserNotFound = errors.New("user not found")

// UserRepository работает с таблицей users.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт экземпляр.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create сохраняет нового пользователя.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, username, password_hash, role, standing)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx,
		query,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.Role,
		user.Standing,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return fmt.Errorf("user repository: create %w", err)
	}

	return nil
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by id %w", err)
	}
	return &user, nil
}

// GetByEmail возвращает пользователя по email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE email = $1`, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by email %w", err)
	}
	return &user, nil
}

// GetStanding возвращает состояние аккаунта. Читается на каждой попытке
// загрузки заново: состояние могло измениться между вызовами, кэшировать нельзя.
func (r *UserRepository) GetStanding(ctx context.Context, id uuid.UUID) (models.AccountStanding, error) {
	var standing models.AccountStanding
	if err := r.db.GetContext(ctx, &standing, `SELECT standing FROM users WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("user repository: get standing %w", err)
	}
	return standing, nil
}

// SetStanding обновляет состояние аккаунта (ban/freeze/unfreeze).
func (r *UserRepository) SetStanding(ctx context.Context, id uuid.UUID, standing models.AccountStanding) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET standing = $2, updated_at = NOW() WHERE id = $1`, id, standing)
	if err != nil {
		return fmt.Errorf("user repository: set standing %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrUserNotFound
	}
	return nil
}
