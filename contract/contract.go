//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"voice-lab/domain"
	"voice-lab/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself.
// Can be silly, focused.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker,
// for logging and supervision, avoiding manual naming in the interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// Ledger is the external storage-owning collaborator. The core only requires
// idempotence from it (a repeated write or growth step must be safe); retry
// policy and timeouts belong to the caller's context.
type Ledger interface {
	// DeriveAddress deterministically derives a storage unit address from an
	// owner identity and a small index.
	DeriveAddress(owner domain.UserID, index uint8) domain.UnitID
	// SubmitGrowthStep requests one bounded growth increment. Returns
	// errors.ErrNoGrowthNeeded when the unit is already at its ceiling.
	SubmitGrowthStep(ctx context.Context, unit domain.UnitID, increment int) error
	// ReadUnitSize reads the unit's actual current size.
	ReadUnitSize(ctx context.Context, unit domain.UnitID) (int, error)
	// SubmitWrite persists payload bytes into a unit whose logical capacity
	// has already been confirmed by the slot pool.
	SubmitWrite(ctx context.Context, unit domain.UnitID, payload []byte) error
}
