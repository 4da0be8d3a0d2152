package workers

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"voice-lab/domain"
	"voice-lab/domain/event"
	"voice-lab/observability"
)

func TestTelemetryWorker_DrainsIntoMonitor(t *testing.T) {
	req := require.New(t)
	log := slog.New(slog.DiscardHandler)
	monitor := observability.NewMonitor(log)

	events := make(chan event.Event, 8)
	worker := NewTelemetryWorker(log, events, monitor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	now := time.Now().UTC()
	events <- event.Event{Type: event.ChannelCapacityType, CreatedAt: now,
		Payload: event.ChannelCapacity{ChannelName: "domain_events", Capacity: 100, Length: 3}}
	events <- event.Event{Type: event.HealthSampleType, CreatedAt: now,
		Payload: event.HealthSample{CPUPercent: 5.5, RSSBytes: 2048}}
	events <- event.Event{Type: event.GrowthStepType, CreatedAt: now,
		Payload: event.GrowthStep{Unit: domain.UnitID("unit-a"), ObservedSize: 20 * 1024}}
	events <- event.Event{Type: event.SlotRejectionType, CreatedAt: now,
		Payload: event.SlotRejection{Slot: 1, Requested: 2048}}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		stats := monitor.Snapshot()
		if stats.GrowthSteps == 1 && stats.SlotRejections == 1 &&
			stats.RSSBytes == 2048 && len(stats.ChannelUsage) == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	req.Fail("Monitor never converged on the samples")
}
