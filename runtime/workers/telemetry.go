package workers

import (
	"context"
	"log/slog"

	"voice-lab/domain/event"
	"voice-lab/observability"
)

// TelemetryWorker drains the technical event channel into the monitor.
type TelemetryWorker struct {
	log     *slog.Logger
	events  <-chan event.Event
	monitor *observability.Monitor
}

func NewTelemetryWorker(log *slog.Logger, events <-chan event.Event, monitor *observability.Monitor) *TelemetryWorker {
	return &TelemetryWorker{log: log, events: events, monitor: monitor}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping telemetry drain")
			return nil
		case evt, ok := <-w.events:
			if !ok {
				return nil
			}
			w.handle(evt)
		}
	}
}

func (w *TelemetryWorker) handle(evt event.Event) {
	switch payload := evt.Payload.(type) {
	case event.ChannelCapacity:
		w.monitor.RecordChannel(payload.ChannelName, payload.Capacity, payload.Length)
	case event.HealthSample:
		w.monitor.RecordHealth(payload.CPUPercent, payload.RSSBytes)
	case event.GrowthStep:
		w.monitor.IncrGrowthStep()
		w.log.Debug("Growth step observed", "unit", payload.Unit, "size", payload.ObservedSize, "done", payload.Done)
	case event.SlotRejection:
		w.monitor.IncrSlotRejection()
		w.log.Debug("Slot rejection observed", "slot", payload.Slot, "requested", payload.Requested)
	default:
		w.log.Debug("Unhandled telemetry event", "type", evt.Type)
	}
}
