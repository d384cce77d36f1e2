package app

import (
	"sync"

	"github.com/wudi/pdfocr/session"
)

// EventType labels controller events pushed to the UI.
type EventType string

const (
	// EventState signals that the viewer state changed; the snapshot is
	// attached.
	EventState EventType = "state"
	// EventLog carries a new output log entry.
	EventLog EventType = "log"
	// EventJob reports an OCR job transition (queued, running, done,
	// discarded, failed).
	EventJob EventType = "job"
)

// Event is pushed to subscribers whenever the controller changes state.
type Event struct {
	Type     EventType         `json:"type"`
	JobID    string            `json:"job_id,omitempty"`
	JobPhase string            `json:"job_phase,omitempty"`
	Entry    *session.Entry    `json:"entry,omitempty"`
	Snapshot *session.Snapshot `json:"snapshot,omitempty"`
}

// hub fans controller events out to subscribers. Slow subscribers drop
// events rather than stall the worker.
type hub struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Event
}

func newHub() *hub {
	return &hub{subs: make(map[int]chan Event)}
}

func (h *hub) subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	ch := make(chan Event, 64)
	h.subs[id] = ch
	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
	}
}

func (h *hub) publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
