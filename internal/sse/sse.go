package sse

import "sync"

// Hub — рассылка сообщений подписчикам по id запуска
type Hub struct {
	mu     sync.Mutex
	topics map[string][]chan string
	buf    int
}

// NewHub создаёт hub; buf — размер буфера канала подписчика
func NewHub(buf int) *Hub {
	if buf <= 0 {
		buf = 16
	}
	return &Hub{topics: map[string][]chan string{}, buf: buf}
}

// Subscribe подписывает клиента на id, возвращает канал и функцию отписки
func (h *Hub) Subscribe(id string) (<-chan string, func()) {
	ch := make(chan string, h.buf)

	h.mu.Lock()
	h.topics[id] = append(h.topics[id], ch)
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			list := h.topics[id]
			for i, c := range list {
				if c == ch {
					h.topics[id] = append(list[:i], list[i+1:]...)
					break
				}
			}
			if len(h.topics[id]) == 0 {
				delete(h.topics, id)
			}
		})
	}

	return ch, cancel
}

// Publish отсылает сообщение всем подписчикам id.
// Возвращает число подписчиков, которым сообщение доставлено.
func (h *Hub) Publish(id, msg string) int {
	h.mu.Lock()
	list := append([]chan string(nil), h.topics[id]...)
	h.mu.Unlock()

	sent := 0
	for _, ch := range list {
		select {
		case ch <- msg:
			sent++
		default:
			// канал забит — пропускаем
		}
	}
	return sent
}

// Subscribers — число подписчиков id
func (h *Hub) Subscribers(id string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[id])
}
