package ws

import (
	"encoding/json"
	"sync"

	"github.com/ignatzorin/spaces-backend/internal/logger"
)

// Hub рассылает события конвейера модерации подключённым админским клиентам.
// В отличие от персональных уведомлений, события модерации широковещательные:
// каждый подключённый модератор видит общую очередь.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
}

// NewHub создаёт новый хаб.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 32),
		done:       make(chan struct{}),
	}
}

// Run запускает главный цикл хаба. Останавливается вызовом Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case payload := <-h.broadcast:
			h.send(payload)
		}
	}
}

// Stop останавливает цикл хаба.
func (h *Hub) Stop() {
	close(h.done)
}

// Register добавляет клиента.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister удаляет клиента.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast отправляет событие всем подключённым модераторам.
// Поле "type" содержит имя события, "data" — полезную нагрузку.
func (h *Hub) Broadcast(event string, data any) {
	raw, err := json.Marshal(map[string]any{
		"type": event,
		"data": data,
	})
	if err != nil {
		logger.WithComponent("ws").Errorf("не удалось сериализовать событие %s: %v", event, err)
		return
	}

	select {
	case h.broadcast <- raw:
	default:
		// Канал переполнен: события модерации не критичны к доставке,
		// админка перечитает очередь при следующем запросе.
		logger.WithComponent("ws").Warn("канал рассылки переполнен, событие отброшено")
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client)
}

func (h *Hub) send(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			go client.Close()
		}
	}
}
