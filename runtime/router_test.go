package runtime_test

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"voice-lab/domain"
	"voice-lab/errors"
	"voice-lab/mocks"
	"voice-lab/runtime"
	"voice-lab/storage"
)

type routerFixture struct {
	registry *runtime.SessionRegistry
	pool     *storage.SlotPool
	router   *runtime.MessageRouter
	ledger   *mocks.MockLedger
}

func newRouterFixture(t *testing.T, slotCapacity int) routerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockLedger(ctrl)
	log := slog.New(slog.DiscardHandler)
	registry := runtime.NewSessionRegistry(log, nil)
	pool := storage.NewSlotPool(slotCapacity)
	router := runtime.NewMessageRouter(log, registry, pool, ledger, nil, nil)
	return routerFixture{registry: registry, pool: pool, router: router, ledger: ledger}
}

func (f routerFixture) allowWrites() {
	f.ledger.EXPECT().DeriveAddress(gomock.Any(), gomock.Any()).
		DoAndReturn(func(owner domain.UserID, index uint8) domain.UnitID {
			return domain.UnitID(fmt.Sprintf("%s-%d", owner, index))
		}).AnyTimes()
	f.ledger.EXPECT().SubmitWrite(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
}

func TestMessageRouter_SequencesAreGapFree(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t, domain.SlotCapacity)
	f.allowWrites()

	alice := f.registry.CreateUser("alice")
	roomID, err := f.registry.CreateRoom(alice, "seq")
	req.NoError(err)

	for want := 1; want <= 4; want++ {
		id, err := f.router.Send(context.Background(), alice, roomID, []byte("frame"), 0)
		req.NoError(err)
		msg, err := f.router.GetMessage(id)
		req.NoError(err)
		req.Equal(want, msg.Sequence)
	}
}

func TestMessageRouter_SequencesPerRoomAreIndependent(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t, domain.SlotCapacity)
	f.allowWrites()

	alice := f.registry.CreateUser("alice")
	roomA, err := f.registry.CreateRoom(alice, "a")
	req.NoError(err)
	roomB, err := f.registry.CreateRoom(alice, "b")
	req.NoError(err)

	// Interleave sends across the two rooms
	for i := 0; i < 3; i++ {
		for _, roomID := range []domain.RoomID{roomA, roomB} {
			_, err := f.router.Send(context.Background(), alice, roomID, []byte("frame"), 0)
			req.NoError(err)
		}
	}

	for _, roomID := range []domain.RoomID{roomA, roomB} {
		info, err := f.registry.RoomInfo(roomID)
		req.NoError(err)
		req.Equal(3, info.MessageCount)
	}
}

func TestMessageRouter_RejectsOversizedPayload(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t, domain.SlotCapacity)

	alice := f.registry.CreateUser("alice")
	roomID, err := f.registry.CreateRoom(alice, "big")
	req.NoError(err)

	tooBig := bytes.Repeat([]byte{1}, domain.MaxPayloadSize+1)
	_, err = f.router.Send(context.Background(), alice, roomID, tooBig, 0)
	req.ErrorIs(err, errors.ErrPayloadTooLarge)

	// The boundary value passes the size check
	f.allowWrites()
	exact := bytes.Repeat([]byte{1}, domain.MaxPayloadSize)
	_, err = f.router.Send(context.Background(), alice, roomID, exact, 0)
	req.NoError(err)
}

func TestMessageRouter_RejectsNonMemberAndInactiveRoom(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t, domain.SlotCapacity)

	alice := f.registry.CreateUser("alice")
	mallory := f.registry.CreateUser("mallory")
	roomID, err := f.registry.CreateRoom(alice, "private")
	req.NoError(err)

	_, err = f.router.Send(context.Background(), mallory, roomID, []byte("hi"), 0)
	req.ErrorIs(err, errors.ErrNotMember)

	req.NoError(f.registry.LeaveRoom(alice, roomID))
	_, err = f.router.Send(context.Background(), alice, roomID, []byte("hi"), 0)
	req.ErrorIs(err, errors.ErrInactiveRoom)
}

func TestMessageRouter_SlotFullLeavesNoPartialState(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t, 100)
	f.allowWrites()

	alice := f.registry.CreateUser("alice")
	roomID, err := f.registry.CreateRoom(alice, "tight")
	req.NoError(err)

	_, err = f.router.Send(context.Background(), alice, roomID, bytes.Repeat([]byte{1}, 90), 0)
	req.NoError(err)

	_, err = f.router.Send(context.Background(), alice, roomID, bytes.Repeat([]byte{1}, 20), 0)
	req.ErrorIs(err, errors.ErrSlotFull)

	// Neither the room counter nor the user counter moved
	info, err := f.registry.RoomInfo(roomID)
	req.NoError(err)
	req.Equal(1, info.MessageCount)

	user, err := f.registry.User(alice)
	req.NoError(err)
	req.Equal(1, user.MessagesSent)

	used, _ := f.pool.Usage(0)
	req.Equal(90, used)
}

func TestMessageRouter_LedgerFailureReleasesReservation(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t, 100)

	f.ledger.EXPECT().DeriveAddress(gomock.Any(), gomock.Any()).Return(domain.UnitID("unit-a")).Times(1)
	f.ledger.EXPECT().SubmitWrite(gomock.Any(), domain.UnitID("unit-a"), gomock.Any()).
		Return(fmt.Errorf("ledger down")).Times(1)

	alice := f.registry.CreateUser("alice")
	roomID, err := f.registry.CreateRoom(alice, "flaky")
	req.NoError(err)

	_, err = f.router.Send(context.Background(), alice, roomID, bytes.Repeat([]byte{1}, 40), 0)
	req.Error(err)

	used, _ := f.pool.Usage(0)
	req.Equal(0, used)

	info, err := f.registry.RoomInfo(roomID)
	req.NoError(err)
	req.Equal(0, info.MessageCount)
}

func TestMessageRouter_GetMessageReturnsDetachedCopy(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t, domain.SlotCapacity)
	f.allowWrites()

	alice := f.registry.CreateUser("alice")
	roomID, err := f.registry.CreateRoom(alice, "copy")
	req.NoError(err)

	id, err := f.router.Send(context.Background(), alice, roomID, []byte("original"), 0)
	req.NoError(err)

	first, err := f.router.GetMessage(id)
	req.NoError(err)
	first.Payload[0] = 'X'

	second, err := f.router.GetMessage(id)
	req.NoError(err)
	req.Equal([]byte("original"), second.Payload)

	_, err = f.router.GetMessage(domain.NewMessageID())
	req.ErrorIs(err, errors.ErrNotFound)
}
