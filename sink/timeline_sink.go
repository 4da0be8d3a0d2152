package sink

import (
	"context"
	"sync"

	"voice-lab/domain"
	"voice-lab/domain/event"
)

// Timeline holds a simple in-memory per-room timeline of stored messages.
type Timeline struct {
	mu      sync.RWMutex
	entries map[domain.RoomID][]event.MessageStored
}

func NewTimeline() *Timeline {
	return &Timeline{entries: make(map[domain.RoomID][]event.MessageStored)}
}

func (t *Timeline) Consume(_ context.Context, e event.DomainEvent) error {
	evt, ok := e.(event.MessageStored)
	if !ok {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[evt.Room] = append(t.entries[evt.Room], evt)
	return nil
}

// Messages returns the room's timeline in arrival order.
func (t *Timeline) Messages(room domain.RoomID) []event.MessageStored {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]event.MessageStored, len(t.entries[room]))
	copy(out, t.entries[room])
	return out
}
