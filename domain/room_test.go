package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"voice-lab/errors"
)

func TestNewRoom_HostIsFirstParticipant(t *testing.T) {
	req := require.New(t)
	host := NewUserID()

	room, err := NewRoom("standup", host, time.Now().UTC())
	req.NoError(err)
	req.True(room.Active)
	req.Equal([]UserID{host}, room.Participants)
	req.Equal(0, room.MessageCount)
}

func TestNewRoom_NameTooLong(t *testing.T) {
	req := require.New(t)

	_, err := NewRoom(strings.Repeat("a", MaxRoomNameLength+1), NewUserID(), time.Now().UTC())
	req.ErrorIs(err, errors.ErrRoomNameTooLong)

	_, err = NewRoom(strings.Repeat("a", MaxRoomNameLength), NewUserID(), time.Now().UTC())
	req.NoError(err)
}

func TestRoom_JoinRules(t *testing.T) {
	req := require.New(t)
	now := time.Now().UTC()
	host := NewUserID()
	room, err := NewRoom("ops", host, now)
	req.NoError(err)

	guest := NewUserID()
	req.NoError(room.Join(guest, now))
	req.ErrorIs(room.Join(guest, now), errors.ErrAlreadyMember)

	// Fill up to the cap, host and guest included
	for len(room.Participants) < MaxParticipants {
		req.NoError(room.Join(NewUserID(), now))
	}
	req.ErrorIs(room.Join(NewUserID(), now), errors.ErrRoomFull)
}

func TestRoom_LastLeaverDeactivates(t *testing.T) {
	req := require.New(t)
	now := time.Now().UTC()
	host := NewUserID()
	room, err := NewRoom("duo", host, now)
	req.NoError(err)

	guest := NewUserID()
	req.NoError(room.Join(guest, now))

	req.NoError(room.Leave(guest, now))
	req.True(room.Active)

	req.NoError(room.Leave(host, now))
	req.False(room.Active)

	// No joins once deactivated
	req.ErrorIs(room.Join(guest, now), errors.ErrInactiveRoom)
}

func TestRoom_LeaveInactiveRoomAllowed(t *testing.T) {
	req := require.New(t)
	now := time.Now().UTC()
	host := NewUserID()
	room, err := NewRoom("late", host, now)
	req.NoError(err)

	guest := NewUserID()
	req.NoError(room.Join(guest, now))
	room.Active = false

	// A listed member may still leave a room that went inactive
	req.NoError(room.Leave(guest, now))
	req.ErrorIs(room.Leave(guest, now), errors.ErrNotMember)
}

func TestRoom_SequencesAreOneBasedAndGapFree(t *testing.T) {
	req := require.New(t)
	now := time.Now().UTC()
	room, err := NewRoom("seq", NewUserID(), now)
	req.NoError(err)

	for want := 1; want <= 5; want++ {
		req.Equal(want, room.NextSequence())
		room.CommitMessage(now)
	}
	req.Equal(5, room.MessageCount)
}

func TestGrowthTarget_ObserveIsMonotonic(t *testing.T) {
	req := require.New(t)
	target := NewGrowthTarget(UnitID("unit-a"), 50*1024)

	target.Observe(30 * 1024)
	req.Equal(30*1024, target.ObservedSize)

	// A stale smaller reading never rolls the observation back
	target.Observe(20 * 1024)
	req.Equal(30*1024, target.ObservedSize)

	req.False(target.Done())
	target.Observe(50 * 1024)
	req.True(target.Done())
}
