package models

import (
	"time"

	"github.com/google/uuid"
)

// QuotaDayFormat — формат ключа календарного дня квоты.
const QuotaDayFormat = "2006-01-02"

// UploadQuota — счётчик загрузок пользователя за один календарный день (UTC).
// Счётчик только растёт; новый день — новая запись, старые не сбрасываются.
type UploadQuota struct {
	UserID uuid.UUID `db:"user_id" json:"uid"`
	Day    string    `db:"day" json:"date"`
	Count  int       `db:"upload_count" json:"count"`
}

// QuotaDay возвращает ключ дня квоты для момента времени.
// День определяется строго по UTC: локальные часовые пояса устройств
// не участвуют в бакетировании.
func QuotaDay(t time.Time) string {
	return t.UTC().Format(QuotaDayFormat)
}
