package models

import (
	"time"

	"github.com/google/uuid"
)

// Роли пользователей.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// AccountStanding описывает состояние аккаунта с точки зрения права на загрузку.
type AccountStanding string

const (
	StandingActive AccountStanding = "active"
	StandingFrozen AccountStanding = "frozen"
	StandingBanned AccountStanding = "banned"
)

// User описывает сущность пользователя приложения.
type User struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	Email        string          `db:"email" json:"email"`
	Username     string          `db:"username" json:"username"`
	PasswordHash string          `db:"password_hash" json:"-"`
	Role         string          `db:"role" json:"role"`
	Standing     AccountStanding `db:"standing" json:"standing"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updatedAt"`
}
