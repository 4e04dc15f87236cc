package models

import (
	"time"

	"github.com/google/uuid"
)

// ReportType — тип жалобы: на пользователя или на пост.
type ReportType string

const (
	ReportTypeUser ReportType = "user"
	ReportTypePost ReportType = "post"
)

// Valid возвращает true для известного типа жалобы.
func (t ReportType) Valid() bool {
	return t == ReportTypeUser || t == ReportTypePost
}

// ReportStatus — статус жалобы. pending → {dismissed, removed}, оба конечные.
type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "pending"
	ReportStatusDismissed ReportStatus = "dismissed"
	ReportStatusRemoved   ReportStatus = "removed"
)

// Terminal возвращает true для конечных статусов.
func (s ReportStatus) Terminal() bool {
	return s == ReportStatusDismissed || s == ReportStatusRemoved
}

// Report — жалоба на пользователя или пост. Создаётся со статусом pending,
// дальше меняется только действиями администратора.
type Report struct {
	ID           uuid.UUID    `db:"id" json:"id"`
	Type         ReportType   `db:"report_type" json:"type"`
	TargetUserID uuid.UUID    `db:"target_user_id" json:"targetUserId"`
	TargetPostID *string      `db:"target_post_id" json:"targetPostId,omitempty"`
	Reason       string       `db:"reason" json:"reason"`
	ReporterID   uuid.UUID    `db:"reporter_id" json:"reporterId"`
	Status       ReportStatus `db:"status" json:"status"`
	CreatedAt    time.Time    `db:"created_at" json:"createdAt"`
}
