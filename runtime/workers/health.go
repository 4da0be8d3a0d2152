package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"voice-lab/domain/event"
)

// HealthWorker samples the process's own CPU and memory usage and feeds the
// samples into the telemetry channel.
type HealthWorker struct {
	log           *slog.Logger
	telemetryChan chan<- event.Event
	interval      time.Duration
}

func NewHealthWorker(log *slog.Logger, telemetryChan chan<- event.Event, interval time.Duration) *HealthWorker {
	return &HealthWorker{log: log, telemetryChan: telemetryChan, interval: interval}
}

func (w *HealthWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			cpu, err := p.CPUPercent()
			if err != nil {
				w.log.Error("Failed to collect self CPU", "error", err)
				continue
			}
			mem, err := p.MemoryInfo()
			if err != nil {
				w.log.Error("Failed to collect self memory", "error", err)
				continue
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case w.telemetryChan <- event.Event{
				Type:      event.HealthSampleType,
				CreatedAt: time.Now().UTC(),
				Payload:   event.HealthSample{CPUPercent: cpu, RSSBytes: mem.RSS},
			}:
			default:
				w.log.Debug("Telemetry event lost")
			}
		}
	}
}
