package runtime_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"voice-lab/domain"
	"voice-lab/errors"
	"voice-lab/runtime"
)

func TestSessionRegistry_RoomLifecycle(t *testing.T) {
	req := require.New(t)
	registry := runtime.NewSessionRegistry(slog.New(slog.DiscardHandler), nil)

	alice := registry.CreateUser("alice")
	bob := registry.CreateUser("bob")

	roomID, err := registry.CreateRoom(alice, "standup")
	req.NoError(err)

	req.NoError(registry.JoinRoom(bob, roomID))

	info, err := registry.RoomInfo(roomID)
	req.NoError(err)
	req.True(info.Active)
	req.Equal("standup", info.Name)
	req.Equal("alice", info.HostName)
	req.Equal([]string{"alice", "bob"}, info.ParticipantNames)

	user, err := registry.User(bob)
	req.NoError(err)
	req.Equal([]domain.RoomID{roomID}, user.Rooms)
}

func TestSessionRegistry_CreateRoomUnknownHost(t *testing.T) {
	req := require.New(t)
	registry := runtime.NewSessionRegistry(slog.New(slog.DiscardHandler), nil)

	_, err := registry.CreateRoom(domain.NewUserID(), "ghost")
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestSessionRegistry_JoinRejections(t *testing.T) {
	req := require.New(t)
	registry := runtime.NewSessionRegistry(slog.New(slog.DiscardHandler), nil)

	host := registry.CreateUser("host")
	roomID, err := registry.CreateRoom(host, "crowded")
	req.NoError(err)

	req.ErrorIs(registry.JoinRoom(host, roomID), errors.ErrAlreadyMember)

	for i := 1; i < domain.MaxParticipants; i++ {
		guest := registry.CreateUser("guest")
		req.NoError(registry.JoinRoom(guest, roomID))
	}
	late := registry.CreateUser("late")
	req.ErrorIs(registry.JoinRoom(late, roomID), errors.ErrRoomFull)

	req.ErrorIs(registry.JoinRoom(late, domain.NewRoomID()), errors.ErrNotFound)
}

func TestSessionRegistry_LastLeaverDeactivatesRoom(t *testing.T) {
	req := require.New(t)
	registry := runtime.NewSessionRegistry(slog.New(slog.DiscardHandler), nil)

	host := registry.CreateUser("host")
	guest := registry.CreateUser("guest")
	roomID, err := registry.CreateRoom(host, "duo")
	req.NoError(err)
	req.NoError(registry.JoinRoom(guest, roomID))

	req.NoError(registry.LeaveRoom(guest, roomID))
	info, err := registry.RoomInfo(roomID)
	req.NoError(err)
	req.True(info.Active)

	req.NoError(registry.LeaveRoom(host, roomID))
	info, err = registry.RoomInfo(roomID)
	req.NoError(err)
	req.False(info.Active)
	req.Equal(0, info.ParticipantCount)

	// Membership lists stay consistent on both sides
	user, err := registry.User(host)
	req.NoError(err)
	req.Empty(user.Rooms)

	req.ErrorIs(registry.LeaveRoom(host, roomID), errors.ErrNotMember)
}

func TestSessionRegistry_RejoinAfterDeactivationFails(t *testing.T) {
	req := require.New(t)
	registry := runtime.NewSessionRegistry(slog.New(slog.DiscardHandler), nil)

	host := registry.CreateUser("host")
	roomID, err := registry.CreateRoom(host, "solo")
	req.NoError(err)

	req.NoError(registry.LeaveRoom(host, roomID))
	req.ErrorIs(registry.JoinRoom(host, roomID), errors.ErrInactiveRoom)
}
