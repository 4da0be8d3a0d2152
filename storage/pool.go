// Package storage implements the fixed-capacity slot pool: the logical
// capacity ledger for voice payloads. Actual byte persistence is delegated
// to the external ledger collaborator.
package storage

import (
	"fmt"
	"sync"
	"time"

	"voice-lab/domain"
	"voice-lab/errors"
)

// Slot is one fixed-capacity storage unit. Capacity is immutable once the
// slot exists; used never exceeds it.
type Slot struct {
	mu        sync.Mutex
	index     int
	capacity  int
	used      int
	messages  []domain.MessageID
	createdAt time.Time
}

// Usage returns the slot's current used bytes and its capacity.
func (s *Slot) Usage() (used, capacity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.used, s.capacity
}

// Messages returns the ids stored in the slot, in insertion order.
func (s *Slot) Messages() []domain.MessageID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.MessageID, len(s.messages))
	copy(out, s.messages)
	return out
}

// Reservation is the token handed out by a successful Reserve.
type Reservation struct {
	Slot  int
	Bytes int
}

// SlotPool owns slot lifecycles. Slots are created lazily on first use, at
// the pool's fixed capacity, and are keyed by caller-chosen indices which
// need not be dense.
type SlotPool struct {
	mu       sync.RWMutex
	capacity int
	slots    map[int]*Slot
}

func NewSlotPool(capacity int) *SlotPool {
	if capacity <= 0 {
		capacity = domain.SlotCapacity
	}
	return &SlotPool{capacity: capacity, slots: make(map[int]*Slot)}
}

// EnsureSlot returns the slot at index, creating it empty at the pool's
// fixed capacity if it does not exist. Ensuring an existing slot is a no-op,
// so the call is safe to repeat.
func (p *SlotPool) EnsureSlot(index int) *Slot {
	p.mu.RLock()
	slot, ok := p.slots[index]
	p.mu.RUnlock()
	if ok {
		return slot
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if slot, ok = p.slots[index]; ok {
		return slot
	}
	slot = &Slot{index: index, capacity: p.capacity, createdAt: time.Now().UTC()}
	p.slots[index] = slot
	return slot
}

// Reserve books n bytes in the slot at index. The capacity check and the
// increment happen under the slot's lock as one indivisible step, so two
// concurrent senders can never overcommit a slot. On failure nothing is
// mutated.
func (p *SlotPool) Reserve(index, n int) (Reservation, error) {
	slot := p.EnsureSlot(index)
	slot.mu.Lock()
	defer slot.mu.Unlock()
	if slot.used+n > slot.capacity {
		return Reservation{}, fmt.Errorf("%w: slot %d has %d/%d used, requested %d",
			errors.ErrSlotFull, index, slot.used, slot.capacity, n)
	}
	slot.used += n
	return Reservation{Slot: index, Bytes: n}, nil
}

// Release returns a reservation's bytes to the slot. Used to roll back when
// a later stage of a send fails after the logical reservation succeeded.
func (p *SlotPool) Release(res Reservation) {
	p.mu.RLock()
	slot, ok := p.slots[res.Slot]
	p.mu.RUnlock()
	if !ok {
		return
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	if slot.used >= res.Bytes {
		slot.used -= res.Bytes
	} else {
		slot.used = 0
	}
}

// Attach appends a stored message id to the slot's list.
func (p *SlotPool) Attach(index int, id domain.MessageID) {
	slot := p.EnsureSlot(index)
	slot.mu.Lock()
	defer slot.mu.Unlock()
	slot.messages = append(slot.messages, id)
}

// Usage reports used and capacity for the slot at index. A slot that was
// never written reports zero usage at the pool capacity.
func (p *SlotPool) Usage(index int) (used, capacity int) {
	p.mu.RLock()
	slot, ok := p.slots[index]
	p.mu.RUnlock()
	if !ok {
		return 0, p.capacity
	}
	return slot.Usage()
}

// Indices returns the indices of all existing slots, unordered.
func (p *SlotPool) Indices() []int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]int, 0, len(p.slots))
	for idx := range p.slots {
		out = append(out, idx)
	}
	return out
}
