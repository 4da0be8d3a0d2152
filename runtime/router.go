package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"voice-lab/contract"
	"voice-lab/domain"
	"voice-lab/domain/event"
	"voice-lab/errors"
	"voice-lab/storage"
)

// MessageRouter validates a send against room membership and slot capacity,
// persists the message, and updates counters. It owns Message creation but
// references rooms and slots through their owning components.
type MessageRouter struct {
	log       *slog.Logger
	registry  *SessionRegistry
	pool      *storage.SlotPool
	ledger    contract.Ledger
	events    chan<- event.DomainEvent
	telemetry chan<- event.Event

	mu       sync.RWMutex
	messages map[domain.MessageID]*domain.Message
}

func NewMessageRouter(log *slog.Logger, registry *SessionRegistry, pool *storage.SlotPool,
	ledger contract.Ledger, events chan<- event.DomainEvent, telemetry chan<- event.Event) *MessageRouter {
	return &MessageRouter{
		log:       log,
		registry:  registry,
		pool:      pool,
		ledger:    ledger,
		events:    events,
		telemetry: telemetry,
		messages:  make(map[domain.MessageID]*domain.Message),
	}
}

// Send routes one payload into a target slot on behalf of a room participant.
// The whole operation runs under the room's lock so per-room sequences are
// strictly increasing and gap-free; the slot reservation itself is atomic
// per slot. A failure at any stage leaves no partial state: room and user
// counters are untouched, and a reservation whose ledger write fails is
// released again.
func (m *MessageRouter) Send(ctx context.Context, userID domain.UserID,
	roomID domain.RoomID, payload []byte, slotIndex int) (domain.MessageID, error) {

	entry, _, err := m.registry.resolve(userID, roomID)
	if err != nil {
		return domain.MessageID{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	room := entry.room

	if !room.Active {
		return domain.MessageID{}, fmt.Errorf("%w: room %s", errors.ErrInactiveRoom, roomID)
	}
	if !room.IsParticipant(userID) {
		return domain.MessageID{}, fmt.Errorf("%w: user %s in room %s", errors.ErrNotMember, userID, roomID)
	}
	if len(payload) > domain.MaxPayloadSize {
		return domain.MessageID{}, fmt.Errorf("%w: %d bytes, max %d", errors.ErrPayloadTooLarge, len(payload), domain.MaxPayloadSize)
	}

	m.pool.EnsureSlot(slotIndex)
	res, err := m.pool.Reserve(slotIndex, len(payload))
	if err != nil {
		m.emitTelemetry(event.Event{
			Type:      event.SlotRejectionType,
			CreatedAt: time.Now().UTC(),
			Payload:   event.SlotRejection{Slot: slotIndex, Requested: len(payload)},
		})
		return domain.MessageID{}, err
	}

	unit := m.ledger.DeriveAddress(room.HostID, uint8(slotIndex))
	if err := m.ledger.SubmitWrite(ctx, unit, payload); err != nil {
		m.pool.Release(res)
		return domain.MessageID{}, fmt.Errorf("ledger write to unit %s: %w", unit, err)
	}

	now := time.Now().UTC()
	msg := &domain.Message{
		ID:         domain.NewMessageID(),
		SenderID:   userID,
		RoomID:     roomID,
		Sequence:   room.NextSequence(),
		Payload:    payload,
		PayloadLen: len(payload),
		SlotIndex:  slotIndex,
		Codec:      mimetype.Detect(payload).String(),
		CreatedAt:  now,
	}

	room.CommitMessage(now)
	m.registry.chargeMessage(userID)
	m.pool.Attach(slotIndex, msg.ID)

	m.mu.Lock()
	m.messages[msg.ID] = msg
	m.mu.Unlock()

	m.emit(event.MessageStored{
		ID:         msg.ID,
		Room:       roomID,
		Sender:     userID,
		Sequence:   msg.Sequence,
		Slot:       slotIndex,
		PayloadLen: msg.PayloadLen,
		Codec:      msg.Codec,
		At:         now,
	})
	m.log.Debug("Message stored", "message", msg.ID, "room", roomID, "slot", slotIndex, "sequence", msg.Sequence)
	return msg.ID, nil
}

// GetMessage returns a copy of a stored message.
func (m *MessageRouter) GetMessage(id domain.MessageID) (domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msg, ok := m.messages[id]
	if !ok {
		return domain.Message{}, fmt.Errorf("%w: message %s", errors.ErrNotFound, id)
	}
	out := *msg
	out.Payload = append([]byte(nil), msg.Payload...)
	return out, nil
}

// emit hands the event to the pipeline without ever blocking a send.
func (m *MessageRouter) emit(e event.DomainEvent) {
	if m.events == nil {
		return
	}
	select {
	case m.events <- e:
	default:
		m.log.Warn("Event channel full, dropping event", "room", e.RoomID())
	}
}

func (m *MessageRouter) emitTelemetry(e event.Event) {
	if m.telemetry == nil {
		return
	}
	select {
	case m.telemetry <- e:
	default:
	}
}
