package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"

	"voice-lab/domain"
	"voice-lab/domain/event"
	"voice-lab/errors"
)

// TargetResult is the outcome of one broadcast target. Either MessageID or
// Err is set, never both.
type TargetResult struct {
	Slot      int
	MessageID domain.MessageID
	Err       error
}

// Broadcaster fans a single payload out to many target slots. Each target is
// a fully independent send: one slot rejecting the payload neither aborts
// nor rolls back the others.
type Broadcaster struct {
	log        *slog.Logger
	router     *MessageRouter
	maxTargets int
	events     chan<- event.DomainEvent
}

func NewBroadcaster(log *slog.Logger, router *MessageRouter, events chan<- event.DomainEvent) *Broadcaster {
	return &Broadcaster{
		log:        log,
		router:     router,
		maxTargets: domain.MaxBroadcastTargets,
		events:     events,
	}
}

// Broadcast sends payload to every slot in targets, concurrently, and
// returns per-target outcomes in input order regardless of completion order.
// It fails as a whole only before any send is attempted.
func (b *Broadcaster) Broadcast(ctx context.Context, userID domain.UserID,
	roomID domain.RoomID, payload []byte, targets []int) ([]TargetResult, error) {

	if len(targets) > b.maxTargets {
		return nil, fmt.Errorf("%w: %d targets, max %d", errors.ErrTooManyTargets, len(targets), b.maxTargets)
	}

	results := make([]TargetResult, len(targets))
	var wg sync.WaitGroup
	for i, slot := range targets {
		wg.Add(1)
		go func(i, slot int) {
			defer wg.Done()
			id, err := b.router.Send(ctx, userID, roomID, payload, slot)
			results[i] = TargetResult{Slot: slot, MessageID: id, Err: err}
		}(i, slot)
	}
	wg.Wait()

	failures := lo.CountBy(results, func(r TargetResult) bool { return r.Err != nil })
	if failures > 0 {
		b.log.Warn("Broadcast finished with failures", "room", roomID, "targets", len(targets), "failures", failures)
	}
	b.emit(event.BroadcastCompleted{
		Room:     roomID,
		Sender:   userID,
		Targets:  len(targets),
		Failures: failures,
		At:       time.Now().UTC(),
	})
	return results, nil
}

func (b *Broadcaster) emit(e event.DomainEvent) {
	if b.events == nil {
		return
	}
	select {
	case b.events <- e:
	default:
		b.log.Warn("Event channel full, dropping event", "room", e.RoomID())
	}
}
