package ws

import (
	"github.com/ignatzorin/spaces-backend/internal/models"
)

// EventsAdapter адаптирует хаб под интерфейсы событий сервисного слоя.
type EventsAdapter struct {
	hub *Hub
}

// NewEventsAdapter создаёт адаптер.
func NewEventsAdapter(hub *Hub) *EventsAdapter {
	return &EventsAdapter{hub: hub}
}

// MediaEnqueued уведомляет модераторов о новой записи в очереди.
func (a *EventsAdapter) MediaEnqueued(entry models.ModerationQueueEntry) {
	a.hub.Broadcast("media.enqueued", entry)
}

// ReportSubmitted уведомляет модераторов о новой жалобе.
func (a *EventsAdapter) ReportSubmitted(report models.Report) {
	a.hub.Broadcast("report.submitted", report)
}
