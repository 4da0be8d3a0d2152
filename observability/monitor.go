// Package observability aggregates runtime counters for the demo console and
// for operators. The Monitor is fed two ways: it consumes domain events as an
// ordinary sink, and the telemetry worker pushes technical samples into it.
package observability

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"voice-lab/domain/event"
)

// Stats is a point-in-time aggregate of everything the monitor tracks.
type Stats struct {
	MessagesStored    uint64
	BytesStored       uint64
	Broadcasts        uint64
	BroadcastFailures uint64
	GrowthSteps       uint64
	SlotRejections    uint64
	RoomsCreated      uint64
	CPUPercent        float64
	RSSBytes          uint64
	ChannelUsage      map[string]ChannelGauge
}

type ChannelGauge struct {
	Capacity int
	Length   int
}

type Monitor struct {
	log *slog.Logger

	messagesStored    atomic.Uint64
	bytesStored       atomic.Uint64
	broadcasts        atomic.Uint64
	broadcastFailures atomic.Uint64
	growthSteps       atomic.Uint64
	slotRejections    atomic.Uint64
	roomsCreated      atomic.Uint64

	mu       sync.RWMutex
	channels map[string]ChannelGauge
	cpu      float64
	rss      uint64
}

func NewMonitor(log *slog.Logger) *Monitor {
	return &Monitor{log: log, channels: make(map[string]ChannelGauge)}
}

// Consume lets the monitor sit in the fan-out pipeline as a permanent sink.
func (m *Monitor) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageStored:
		m.messagesStored.Add(1)
		m.bytesStored.Add(uint64(evt.PayloadLen))
	case event.BroadcastCompleted:
		m.broadcasts.Add(1)
		m.broadcastFailures.Add(uint64(evt.Failures))
	case event.RoomCreated:
		m.roomsCreated.Add(1)
	}
	return nil
}

func (m *Monitor) RecordChannel(name string, capacity, length int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels[name] = ChannelGauge{Capacity: capacity, Length: length}
}

func (m *Monitor) RecordHealth(cpu float64, rss uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cpu = cpu
	m.rss = rss
}

func (m *Monitor) IncrGrowthStep() {
	m.growthSteps.Add(1)
}

func (m *Monitor) IncrSlotRejection() {
	m.slotRejections.Add(1)
}

// Snapshot returns a detached copy of the current counters.
func (m *Monitor) Snapshot() Stats {
	m.mu.RLock()
	channels := make(map[string]ChannelGauge, len(m.channels))
	for k, v := range m.channels {
		channels[k] = v
	}
	cpu, rss := m.cpu, m.rss
	m.mu.RUnlock()

	return Stats{
		MessagesStored:    m.messagesStored.Load(),
		BytesStored:       m.bytesStored.Load(),
		Broadcasts:        m.broadcasts.Load(),
		BroadcastFailures: m.broadcastFailures.Load(),
		GrowthSteps:       m.growthSteps.Load(),
		SlotRejections:    m.slotRejections.Load(),
		RoomsCreated:      m.roomsCreated.Load(),
		CPUPercent:        cpu,
		RSSBytes:          rss,
		ChannelUsage:      channels,
	}
}
