package event

import (
	"time"

	"voice-lab/domain"
)

type DomainEvent interface {
	RoomID() domain.RoomID
}

type RoomCreated struct {
	Room domain.RoomID
	Name string
	Host domain.UserID
	At   time.Time
}

func (e RoomCreated) RoomID() domain.RoomID { return e.Room }

type ParticipantJoined struct {
	Room domain.RoomID
	User domain.UserID
	At   time.Time
}

func (e ParticipantJoined) RoomID() domain.RoomID { return e.Room }

type ParticipantLeft struct {
	Room      domain.RoomID
	User      domain.UserID
	Remaining int
	At        time.Time
}

func (e ParticipantLeft) RoomID() domain.RoomID { return e.Room }

type RoomDeactivated struct {
	Room domain.RoomID
	At   time.Time
}

func (e RoomDeactivated) RoomID() domain.RoomID { return e.Room }

// MessageStored is emitted once a message passed validation, its slot
// reservation committed, and its payload was handed to the ledger.
type MessageStored struct {
	ID         domain.MessageID
	Room       domain.RoomID
	Sender     domain.UserID
	Sequence   int
	Slot       int
	PayloadLen int
	Codec      string
	At         time.Time
}

func (e MessageStored) RoomID() domain.RoomID { return e.Room }

// BroadcastCompleted summarizes one fan-out: every target was attempted
// independently, so Failures counts isolated per-target errors.
type BroadcastCompleted struct {
	Room     domain.RoomID
	Sender   domain.UserID
	Targets  int
	Failures int
	At       time.Time
}

func (e BroadcastCompleted) RoomID() domain.RoomID { return e.Room }
