package domain

import "github.com/google/uuid"

type UserID uuid.UUID

type RoomID uuid.UUID

type MessageID uuid.UUID

// UnitID is the derived address of a remote storage unit.
type UnitID string

func NewUserID() UserID       { return UserID(uuid.New()) }
func NewRoomID() RoomID       { return RoomID(uuid.New()) }
func NewMessageID() MessageID { return MessageID(uuid.New()) }

func (id UserID) String() string    { return uuid.UUID(id).String() }
func (id RoomID) String() string    { return uuid.UUID(id).String() }
func (id MessageID) String() string { return uuid.UUID(id).String() }
