package workers

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingWorker struct {
	runs    atomic.Int32
	outcome func(run int32) error
}

func (w *countingWorker) Run(_ context.Context) error {
	return w.outcome(w.runs.Add(1))
}

func TestSupervisor_RestartsCrashedWorker(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Crashes twice, then terminates properly
	worker := &countingWorker{outcome: func(run int32) error {
		if run < 3 {
			return errors.New("boom")
		}
		return nil
	}}

	supervisor := NewSupervisor(slog.New(slog.DiscardHandler))
	supervisor.Add(worker)

	done := make(chan struct{})
	go func() {
		supervisor.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		req.Fail("Supervisor did not terminate in time")
	}
	req.Equal(int32(3), worker.runs.Load())
}

func TestSupervisor_RecoversFromPanic(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := &countingWorker{outcome: func(run int32) error {
		if run == 1 {
			panic("worker exploded")
		}
		return nil
	}}

	supervisor := NewSupervisor(slog.New(slog.DiscardHandler))
	supervisor.Add(worker)

	done := make(chan struct{})
	go func() {
		supervisor.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		req.Fail("Supervisor did not recover from the panic")
	}
	req.Equal(int32(2), worker.runs.Load())
}

func TestSupervisor_StopCancelsWorkers(t *testing.T) {
	req := require.New(t)

	started := make(chan struct{})
	var once atomic.Bool
	worker := &blockingWorker{started: started, once: &once}

	supervisor := NewSupervisor(slog.New(slog.DiscardHandler))
	supervisor.Add(worker)

	done := make(chan struct{})
	go func() {
		supervisor.Run(context.Background())
		close(done)
	}()

	select {
	case <-started:
	case <-time.After(time.Second):
		req.Fail("Worker never started")
	}

	supervisor.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("Supervisor did not stop")
	}
}

type blockingWorker struct {
	started chan struct{}
	once    *atomic.Bool
}

func (w *blockingWorker) Run(ctx context.Context) error {
	if w.once.CompareAndSwap(false, true) {
		close(w.started)
	}
	<-ctx.Done()
	return nil
}
