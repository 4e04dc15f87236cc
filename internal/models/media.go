package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// MediaType — заявленный тип загружаемого файла.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// Valid возвращает true для известного типа медиа.
func (t MediaType) Valid() bool {
	return t == MediaTypeImage || t == MediaTypeVideo
}

// Ext возвращает каноническое расширение карантинного объекта.
// Контейнер исходного файла игнорируется: image всегда jpg, video всегда mp4.
func (t MediaType) Ext() string {
	if t == MediaTypeVideo {
		return "mp4"
	}
	return "jpg"
}

// MediaStatus — статус записи медиа. Переходы только вперёд,
// approved и rejected терминальны.
type MediaStatus string

const (
	MediaStatusProcessing  MediaStatus = "processing"
	MediaStatusNeedsReview MediaStatus = "needs_review"
	MediaStatusApproved    MediaStatus = "approved"
	MediaStatusRejected    MediaStatus = "rejected"
)

// CanTransitionTo проверяет допустимость перехода статуса.
// processing → {needs_review, approved, rejected}, needs_review → {approved, rejected}.
func (s MediaStatus) CanTransitionTo(next MediaStatus) bool {
	switch s {
	case MediaStatusProcessing:
		return next == MediaStatusNeedsReview || next == MediaStatusApproved || next == MediaStatusRejected
	case MediaStatusNeedsReview:
		return next == MediaStatusApproved || next == MediaStatusRejected
	case MediaStatusApproved, MediaStatusRejected:
		return false
	default:
		return false
	}
}

// Terminal возвращает true для конечных статусов.
func (s MediaStatus) Terminal() bool {
	return s == MediaStatusApproved || s == MediaStatusRejected
}

// MediaRecord — запись о загруженном файле. Записи никогда не удаляются,
// это аудиторский след модерации.
type MediaRecord struct {
	ID                 uuid.UUID      `db:"id" json:"id"`
	OwnerID            uuid.UUID      `db:"owner_id" json:"ownerUid"`
	Type               MediaType      `db:"media_type" json:"type"`
	Status             MediaStatus    `db:"status" json:"status"`
	OriginalPath       string         `db:"original_path" json:"-"`
	PublicPath         *string        `db:"public_path" json:"-"`
	ThumbsPath         *string        `db:"thumbs_path" json:"-"`
	ModerationProvider *string        `db:"moderation_provider" json:"-"`
	ModerationScore    *float64       `db:"moderation_score" json:"-"`
	ModerationFlags    pq.StringArray `db:"moderation_flags" json:"-"`
	CreatedAt          time.Time      `db:"created_at" json:"createdAt"`
}

// MediaStoragePaths — блок storage во внешнем contract'е записи.
type MediaStoragePaths struct {
	OriginalPath string  `json:"originalPath"`
	PublicPath   *string `json:"publicPath,omitempty"`
	ThumbsPath   *string `json:"thumbsPath,omitempty"`
}

// MediaModeration — блок moderation во внешнем contract'е записи.
type MediaModeration struct {
	Provider *string  `json:"provider,omitempty"`
	Score    *float64 `json:"score,omitempty"`
	Flags    []string `json:"flags,omitempty"`
}

// Storage собирает пути хранения в формате внешнего контракта.
func (m *MediaRecord) Storage() MediaStoragePaths {
	return MediaStoragePaths{
		OriginalPath: m.OriginalPath,
		PublicPath:   m.PublicPath,
		ThumbsPath:   m.ThumbsPath,
	}
}

// Moderation возвращает блок moderation или nil, если сканер ещё не отписался.
func (m *MediaRecord) Moderation() *MediaModeration {
	if m.ModerationProvider == nil && m.ModerationScore == nil && len(m.ModerationFlags) == 0 {
		return nil
	}
	return &MediaModeration{
		Provider: m.ModerationProvider,
		Score:    m.ModerationScore,
		Flags:    m.ModerationFlags,
	}
}

// ModerationQueueEntry — членство записи в очереди ручной модерации.
// Это именно membership, а не копия MediaRecord.
type ModerationQueueEntry struct {
	MediaID   uuid.UUID `db:"media_id" json:"mediaId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	Priority  int       `db:"priority" json:"priority"`
}
