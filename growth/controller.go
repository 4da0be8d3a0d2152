// Package growth implements the incremental growth controller: it grows a
// single remote storage unit from a small initial size toward a large target
// in fixed-size steps, re-checking the actual size after every step because a
// single growth operation is capped well below the target.
package growth

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"voice-lab/contract"
	"voice-lab/domain"
	"voice-lab/domain/event"
	"voice-lab/errors"
)

// stepSlack is the few extra iterations Grow allows beyond the computed plan
// before declaring the run incomplete.
const stepSlack = 2

type Controller struct {
	log       *slog.Logger
	ledger    contract.Ledger
	stepSize  int
	initSize  int
	maxSize   int
	telemetry chan<- event.Event
}

// NewController builds a controller bound to one deployment profile's
// absolute maximum unit size.
func NewController(log *slog.Logger, ledger contract.Ledger, maxSize int, telemetry chan<- event.Event) *Controller {
	return &Controller{
		log:       log,
		ledger:    ledger,
		stepSize:  domain.GrowthStepSize,
		initSize:  domain.GrowthInitialSize,
		maxSize:   maxSize,
		telemetry: telemetry,
	}
}

// Plan computes how many steps a fresh unit needs to reach targetSize.
func (c *Controller) Plan(targetSize int) (int, error) {
	if targetSize > c.maxSize {
		return 0, fmt.Errorf("%w: target %d, max %d", errors.ErrTargetTooLarge, targetSize, c.maxSize)
	}
	return ceilDiv(targetSize-c.initSize, c.stepSize), nil
}

// Step performs at most one growth increment. It always reads the unit's
// actual size first, so a target already at or above its goal reports done
// without touching the ledger, and a run resumed on a partially grown unit
// picks up from reality rather than from a step counter. A collaborator
// answering "no growth needed" is terminal success, not a failure.
func (c *Controller) Step(ctx context.Context, t *domain.GrowthTarget) (int, bool, error) {
	size, err := c.ledger.ReadUnitSize(ctx, t.Unit)
	if err != nil {
		return t.ObservedSize, false, fmt.Errorf("read unit %s: %w", t.Unit, err)
	}
	t.Observe(size)
	if t.Done() {
		c.complete(t)
		return t.ObservedSize, true, nil
	}

	t.State = domain.GrowthGrowing
	if err := c.ledger.SubmitGrowthStep(ctx, t.Unit, c.stepSize); err != nil {
		if stderrors.Is(err, errors.ErrNoGrowthNeeded) {
			c.complete(t)
			return t.ObservedSize, true, nil
		}
		return t.ObservedSize, false, fmt.Errorf("grow unit %s: %w", t.Unit, err)
	}

	size, err = c.ledger.ReadUnitSize(ctx, t.Unit)
	if err != nil {
		return t.ObservedSize, false, fmt.Errorf("re-read unit %s: %w", t.Unit, err)
	}
	t.Observe(size)
	done := t.Done()
	if done {
		c.complete(t)
	}
	c.emit(t, done)
	c.log.Debug("Growth step", "unit", t.Unit, "observed", t.ObservedSize, "target", t.TargetSize, "done", done)
	return t.ObservedSize, done, nil
}

// Grow drives Step until the target is met. The iteration bound is derived
// from the size observed at the start of this run, plus a small slack, so
// the loop can never spin forever; exhausting it surfaces GrowthIncomplete.
func (c *Controller) Grow(ctx context.Context, t *domain.GrowthTarget) (int, error) {
	if t.TargetSize > c.maxSize {
		return t.ObservedSize, fmt.Errorf("%w: target %d, max %d", errors.ErrTargetTooLarge, t.TargetSize, c.maxSize)
	}

	size, err := c.ledger.ReadUnitSize(ctx, t.Unit)
	if err != nil {
		return t.ObservedSize, fmt.Errorf("read unit %s: %w", t.Unit, err)
	}
	t.Observe(size)

	budget := ceilDiv(t.TargetSize-t.ObservedSize, t.StepSize) + stepSlack
	for i := 0; i < budget; i++ {
		observed, done, err := c.Step(ctx, t)
		if err != nil {
			return observed, err
		}
		if done {
			return observed, nil
		}
	}
	return t.ObservedSize, fmt.Errorf("%w: unit %s at %d of %d after %d steps",
		errors.ErrGrowthIncomplete, t.Unit, t.ObservedSize, t.TargetSize, budget)
}

func (c *Controller) complete(t *domain.GrowthTarget) {
	t.State = domain.GrowthComplete
}

func (c *Controller) emit(t *domain.GrowthTarget, done bool) {
	if c.telemetry == nil {
		return
	}
	select {
	case c.telemetry <- event.Event{
		Type:      event.GrowthStepType,
		CreatedAt: time.Now().UTC(),
		Payload:   event.GrowthStep{Unit: t.Unit, ObservedSize: t.ObservedSize, Done: done},
	}:
	default:
	}
}

func ceilDiv(n, d int) int {
	if n <= 0 {
		return 0
	}
	return (n + d - 1) / d
}
