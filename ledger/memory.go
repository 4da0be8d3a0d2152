// Package ledger simulates the remote ledger program that owns the actual
// storage units: fixed-size accounts that hold payload bytes, can be grown
// in bounded increments up to a profile ceiling, and are addressed by keys
// derived from an owner identity and a small index.
package ledger

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"

	"voice-lab/domain"
	"voice-lab/errors"
)

// unitMeta is the durable record of one storage unit.
type unitMeta struct {
	Size       int       `cbor:"size"`
	DataLength int       `cbor:"data_length"`
	CreatedAt  time.Time `cbor:"created_at"`
}

// UnitInfo is the read model returned by Info.
type UnitInfo struct {
	Unit       domain.UnitID
	Size       int
	DataLength int
	CreatedAt  time.Time
}

// Memory is the in-memory ledger simulation. The unit table is authoritative;
// badger mirrors metadata and payload bytes so the inspector can look at what
// a run produced. All operations are idempotence-friendly: repeated writes
// and repeated growth steps are safe.
type Memory struct {
	log             *slog.Logger
	db              *badger.DB
	mu              sync.Mutex
	units           map[domain.UnitID]*unitMeta
	maxSize         int
	defaultUnitSize int
}

// NewMemory builds the simulation for one growth profile. db may be nil for
// a purely volatile run.
func NewMemory(log *slog.Logger, db *badger.DB, maxSize int) *Memory {
	return &Memory{
		log:             log,
		db:              db,
		units:           make(map[domain.UnitID]*unitMeta),
		maxSize:         maxSize,
		defaultUnitSize: domain.SlotCapacity,
	}
}

// DeriveAddress hashes the owner identity and the unit index into a stable
// address. The derivation is deterministic: the same seed components always
// yield the same unit.
func (m *Memory) DeriveAddress(owner domain.UserID, index uint8) domain.UnitID {
	seed := append([]byte(owner.String()), index)
	sum := blake3.Sum256(seed)
	return domain.UnitID(hex.EncodeToString(sum[:16]))
}

// CreateUnit allocates a unit at the growth initial size. Creating an
// existing unit returns it unchanged.
func (m *Memory) CreateUnit(owner domain.UserID, index uint8) (domain.UnitID, error) {
	id := m.DeriveAddress(owner, index)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.units[id]; ok {
		return id, nil
	}
	meta := &unitMeta{Size: domain.GrowthInitialSize, CreatedAt: time.Now().UTC()}
	m.units[id] = meta
	if err := m.persistMeta(id, meta); err != nil {
		return id, err
	}
	m.log.Debug("Unit created", "unit", id, "size", meta.Size)
	return id, nil
}

// SubmitGrowthStep grows the unit by at most increment bytes, capped at the
// profile maximum. A unit already at the cap reports ErrNoGrowthNeeded.
func (m *Memory) SubmitGrowthStep(_ context.Context, unit domain.UnitID, increment int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	meta, ok := m.units[unit]
	if !ok {
		return fmt.Errorf("%w: unit %s", errors.ErrNotFound, unit)
	}
	if meta.Size >= m.maxSize {
		return fmt.Errorf("%w: unit %s at %d", errors.ErrNoGrowthNeeded, unit, meta.Size)
	}
	grant := increment
	if meta.Size+grant > m.maxSize {
		grant = m.maxSize - meta.Size
	}
	meta.Size += grant
	return m.persistMeta(unit, meta)
}

// ReadUnitSize reads the unit's actual current size.
func (m *Memory) ReadUnitSize(_ context.Context, unit domain.UnitID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meta, ok := m.units[unit]
	if !ok {
		return 0, fmt.Errorf("%w: unit %s", errors.ErrNotFound, unit)
	}
	return meta.Size, nil
}

// SubmitWrite persists payload bytes into the unit. Units written through
// the message path are created lazily at the slot capacity, mirroring the
// pool's ensure semantics. The write replaces the unit's data from offset
// zero; data length only ever grows.
func (m *Memory) SubmitWrite(_ context.Context, unit domain.UnitID, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	meta, ok := m.units[unit]
	if !ok {
		meta = &unitMeta{Size: m.defaultUnitSize, CreatedAt: time.Now().UTC()}
		m.units[unit] = meta
	}
	if len(payload) > meta.Size {
		return fmt.Errorf("%w: unit %s holds %d bytes, payload is %d", errors.ErrSlotFull, unit, meta.Size, len(payload))
	}
	if len(payload) > meta.DataLength {
		meta.DataLength = len(payload)
	}
	if err := m.persistMeta(unit, meta); err != nil {
		return err
	}
	if m.db == nil {
		return nil
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(dataKey(unit), payload)
	})
}

// ClearUnit resets the unit's data without shrinking its size.
func (m *Memory) ClearUnit(_ context.Context, unit domain.UnitID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	meta, ok := m.units[unit]
	if !ok {
		return fmt.Errorf("%w: unit %s", errors.ErrNotFound, unit)
	}
	meta.DataLength = 0
	if err := m.persistMeta(unit, meta); err != nil {
		return err
	}
	if m.db == nil {
		return nil
	}
	return m.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(dataKey(unit))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
}

// Info returns the unit's current metadata.
func (m *Memory) Info(unit domain.UnitID) (UnitInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meta, ok := m.units[unit]
	if !ok {
		return UnitInfo{}, fmt.Errorf("%w: unit %s", errors.ErrNotFound, unit)
	}
	return UnitInfo{Unit: unit, Size: meta.Size, DataLength: meta.DataLength, CreatedAt: meta.CreatedAt}, nil
}

// persistMeta mirrors the unit record into badger. Caller holds m.mu.
func (m *Memory) persistMeta(unit domain.UnitID, meta *unitMeta) error {
	if m.db == nil {
		return nil
	}
	bytes, err := cbor.Marshal(meta)
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(metaKey(unit), bytes)
	})
}

func metaKey(unit domain.UnitID) []byte {
	return []byte(fmt.Sprintf("unit:%s", unit))
}

func dataKey(unit domain.UnitID) []byte {
	return []byte(fmt.Sprintf("unitdata:%s", unit))
}
