// Package runtime wires the session registry, message router, and broadcast
// coordinator together and runs the event pipeline. It orchestrates the
// system without containing storage or ledger logic.
package runtime

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"

	"voice-lab/domain"
	"voice-lab/domain/event"
	"voice-lab/errors"
)

// roomEntry pairs a room with its serialization lock. Sequence assignment
// and membership mutation for one room go through this lock, never through
// a lock shared across rooms.
type roomEntry struct {
	mu   sync.Mutex
	room *domain.Room
}

// SessionRegistry owns Room and User lifecycles. All cross-references between
// the two sides are id lookups kept consistent by these operations; no other
// component mutates membership or counters directly.
type SessionRegistry struct {
	mu     sync.RWMutex
	log    *slog.Logger
	events chan<- event.DomainEvent
	users  map[domain.UserID]*domain.User
	rooms  map[domain.RoomID]*roomEntry
}

func NewSessionRegistry(log *slog.Logger, events chan<- event.DomainEvent) *SessionRegistry {
	return &SessionRegistry{
		log:    log,
		events: events,
		users:  make(map[domain.UserID]*domain.User),
		rooms:  make(map[domain.RoomID]*roomEntry),
	}
}

// CreateUser registers a user and always succeeds with a fresh id.
func (r *SessionRegistry) CreateUser(name string) domain.UserID {
	r.mu.Lock()
	defer r.mu.Unlock()
	user := &domain.User{ID: domain.NewUserID(), Name: name}
	r.users[user.ID] = user
	r.log.Debug("User registered", "user", user.ID, "name", name)
	return user.ID
}

// CreateRoom creates an active room hosted by hostID, with the host as its
// first participant.
func (r *SessionRegistry) CreateRoom(hostID domain.UserID, name string) (domain.RoomID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	host, ok := r.users[hostID]
	if !ok {
		return domain.RoomID{}, fmt.Errorf("%w: user %s", errors.ErrNotFound, hostID)
	}
	room, err := domain.NewRoom(name, hostID, time.Now().UTC())
	if err != nil {
		return domain.RoomID{}, err
	}
	r.rooms[room.ID] = &roomEntry{room: room}
	host.AddRoom(room.ID)
	r.emit(event.RoomCreated{Room: room.ID, Name: name, Host: hostID, At: room.CreatedAt})
	r.log.Info("Room created", "room", room.ID, "name", name, "host", hostID)
	return room.ID, nil
}

// JoinRoom adds the user to the room's participants and the room to the
// user's membership list, in that order, under the room's lock.
func (r *SessionRegistry) JoinRoom(userID domain.UserID, roomID domain.RoomID) error {
	entry, user, err := r.resolve(userID, roomID)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	now := time.Now().UTC()
	if err := entry.room.Join(userID, now); err != nil {
		return err
	}

	r.mu.Lock()
	user.AddRoom(roomID)
	r.mu.Unlock()
	r.emit(event.ParticipantJoined{Room: roomID, User: userID, At: now})
	r.log.Debug("Participant joined", "room", roomID, "user", userID, "count", len(entry.room.Participants))
	return nil
}

// LeaveRoom removes the user from both membership lists. The last leaver
// deactivates the room.
func (r *SessionRegistry) LeaveRoom(userID domain.UserID, roomID domain.RoomID) error {
	entry, user, err := r.resolve(userID, roomID)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	now := time.Now().UTC()
	if err := entry.room.Leave(userID, now); err != nil {
		return err
	}

	r.mu.Lock()
	user.RemoveRoom(roomID)
	r.mu.Unlock()
	r.emit(event.ParticipantLeft{Room: roomID, User: userID, Remaining: len(entry.room.Participants), At: now})
	if !entry.room.Active {
		r.emit(event.RoomDeactivated{Room: roomID, At: now})
		r.log.Info("Room deactivated", "room", roomID)
	}
	return nil
}

// RoomInfo returns a detached snapshot with participant names resolved.
// Read-only, no side effects.
func (r *SessionRegistry) RoomInfo(roomID domain.RoomID) (domain.RoomSnapshot, error) {
	r.mu.RLock()
	entry, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if !ok {
		return domain.RoomSnapshot{}, fmt.Errorf("%w: room %s", errors.ErrNotFound, roomID)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	room := entry.room

	r.mu.RLock()
	defer r.mu.RUnlock()
	names := lo.Map(room.Participants, func(id domain.UserID, _ int) string {
		if u, ok := r.users[id]; ok {
			return u.Name
		}
		return id.String()
	})
	hostName := room.HostID.String()
	if host, ok := r.users[room.HostID]; ok {
		hostName = host.Name
	}

	return domain.RoomSnapshot{
		ID:               room.ID,
		Name:             room.Name,
		HostName:         hostName,
		ParticipantNames: names,
		ParticipantCount: len(room.Participants),
		Active:           room.Active,
		CreatedAt:        room.CreatedAt,
		LastActivity:     room.LastActivity,
		MessageCount:     room.MessageCount,
	}, nil
}

// User returns a copy of the user's current state.
func (r *SessionRegistry) User(id domain.UserID) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("%w: user %s", errors.ErrNotFound, id)
	}
	out := *user
	out.Rooms = append([]domain.RoomID(nil), user.Rooms...)
	return out, nil
}

// resolve looks up both sides of a membership operation.
func (r *SessionRegistry) resolve(userID domain.UserID, roomID domain.RoomID) (*roomEntry, *domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.rooms[roomID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: room %s", errors.ErrNotFound, roomID)
	}
	user, ok := r.users[userID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: user %s", errors.ErrNotFound, userID)
	}
	return entry, user, nil
}

// emit hands the event to the pipeline without ever blocking an operation.
func (r *SessionRegistry) emit(e event.DomainEvent) {
	if r.events == nil {
		return
	}
	select {
	case r.events <- e:
	default:
		r.log.Warn("Event channel full, dropping event", "room", e.RoomID())
	}
}

// chargeMessage bumps the sender's sent counter once a message committed.
func (r *SessionRegistry) chargeMessage(userID domain.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[userID]; ok {
		user.MessagesSent++
	}
}
