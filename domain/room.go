package domain

import (
	"fmt"
	"time"

	"voice-lab/errors"
)

// Room is a bounded-membership session grouping users for voice exchange.
// Membership rules live here; cross-entity bookkeeping (the user side of a
// join, counters) is the session registry's job.
type Room struct {
	ID           RoomID
	Name         string
	HostID       UserID
	Participants []UserID // join order preserved
	Active       bool
	CreatedAt    time.Time
	LastActivity time.Time
	MessageCount int
}

func NewRoom(name string, host UserID, at time.Time) (*Room, error) {
	if len(name) > MaxRoomNameLength {
		return nil, fmt.Errorf("%w: %q is %d bytes, max %d", errors.ErrRoomNameTooLong, name, len(name), MaxRoomNameLength)
	}
	return &Room{
		ID:           NewRoomID(),
		Name:         name,
		HostID:       host,
		Participants: []UserID{host},
		Active:       true,
		CreatedAt:    at,
		LastActivity: at,
	}, nil
}

func (r *Room) IsParticipant(id UserID) bool {
	for _, p := range r.Participants {
		if p == id {
			return true
		}
	}
	return false
}

// Join adds a participant. The room must be active, the user must not already
// be a member, and the participant cap must not be reached.
func (r *Room) Join(id UserID, at time.Time) error {
	if !r.Active {
		return fmt.Errorf("%w: room %s", errors.ErrInactiveRoom, r.ID)
	}
	if r.IsParticipant(id) {
		return fmt.Errorf("%w: user %s in room %s", errors.ErrAlreadyMember, id, r.ID)
	}
	if len(r.Participants) >= MaxParticipants {
		return fmt.Errorf("%w: room %s holds %d participants", errors.ErrRoomFull, r.ID, len(r.Participants))
	}
	r.Participants = append(r.Participants, id)
	r.Touch(at)
	return nil
}

// Leave removes a participant. Leaving only requires membership, so a user
// still listed in an already-inactive room may leave it. When the last
// participant leaves, the room is deactivated and accepts no further joins
// or sends.
func (r *Room) Leave(id UserID, at time.Time) error {
	for i, p := range r.Participants {
		if p == id {
			r.Participants = append(r.Participants[:i], r.Participants[i+1:]...)
			if len(r.Participants) == 0 {
				r.Active = false
			}
			r.Touch(at)
			return nil
		}
	}
	return fmt.Errorf("%w: user %s not in room %s", errors.ErrNotMember, id, r.ID)
}

// Touch refreshes the last-activity timestamp.
func (r *Room) Touch(at time.Time) {
	r.LastActivity = at
}

// NextSequence returns the sequence number the next stored message will get.
// Sequences are 1-based and gap-free per room; the caller must hold the
// room's serialization lock between NextSequence and CommitMessage.
func (r *Room) NextSequence() int {
	return r.MessageCount + 1
}

// CommitMessage records a successfully stored message.
func (r *Room) CommitMessage(at time.Time) {
	r.MessageCount++
	r.Touch(at)
}
