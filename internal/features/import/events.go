package import_feature

import (
	"sync"
	"time"
)

// StageEvent is pushed to websocket subscribers whenever a session moves.
type StageEvent struct {
	SessionID string    `json:"session_id"`
	Master    string    `json:"master"`
	Stage     Stage     `json:"stage"`
	Timestamp time.Time `json:"timestamp"`
}

// EventHub fans stage transitions out to per-session subscribers. Slow
// subscribers are skipped rather than blocking the pipeline.
type EventHub struct {
	mu   sync.RWMutex
	subs map[string][]chan StageEvent // session id -> subscriber channels
}

func NewEventHub() *EventHub {
	return &EventHub{subs: make(map[string][]chan StageEvent)}
}

func (h *EventHub) Subscribe(sessionID string) chan StageEvent {
	ch := make(chan StageEvent, 8)
	h.mu.Lock()
	h.subs[sessionID] = append(h.subs[sessionID], ch)
	h.mu.Unlock()
	return ch
}

func (h *EventHub) Unsubscribe(sessionID string, ch chan StageEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subs[sessionID]
	for i, s := range subs {
		if s == ch {
			h.subs[sessionID] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}
	if len(h.subs[sessionID]) == 0 {
		delete(h.subs, sessionID)
	}
}

func (h *EventHub) Publish(event StageEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs[event.SessionID] {
		select {
		case ch <- event:
		default:
			// Subscriber is not keeping up; drop the event
		}
	}
}

// Close drops all subscribers for a session, used when it is discarded.
func (h *EventHub) Close(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs[sessionID] {
		close(ch)
	}
	delete(h.subs, sessionID)
}
