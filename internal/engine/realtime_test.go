package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avunu/commchat/internal/domain"
	"github.com/avunu/commchat/internal/gateway"
)

func pushFrom(sender string) domain.NewCommunication {
	return domain.NewCommunication{
		Name:                "COMM-1000",
		CommunicationMedium: domain.MediumEmail,
		SentOrReceived:      domain.DirectionReceived,
		Sender:              sender,
	}
}

func TestPushForKnownRoomKeepsOrdering(t *testing.T) {
	fg := newFakeGateway()
	fg.getRoomsFn = func(context.Context, int, int, string, domain.Medium) (*gateway.RoomsPage, error) {
		return &gateway.RoomsPage{
			Rooms: []domain.Room{room("Email:a@x.com", 0), room("Email:b@x.com", 0)},
			Page:  1,
		}, nil
	}

	s := newTestSession(fg)
	require.NoError(t, s.FetchRooms(context.Background()))
	fetches := fg.countCalls("get_rooms")

	s.handleCommunication(context.Background(), pushFrom("b@x.com"))

	rooms := s.Rooms()
	require.Len(t, rooms, 2)
	assert.Equal(t, "Email:a@x.com", rooms[0].RoomID, "known room must not jump to the top")
	assert.Equal(t, fetches, fg.countCalls("get_rooms"), "no list fetch for a known room")
	assert.Equal(t, 1, fg.countCalls("get_unread_count"), "unread is always refreshed")
}

func TestPushForUnknownRoomPrependsIt(t *testing.T) {
	fg := newFakeGateway()
	first := true
	fg.getRoomsFn = func(_ context.Context, _, _ int, search string, medium domain.Medium) (*gateway.RoomsPage, error) {
		if first {
			first = false
			return &gateway.RoomsPage{Rooms: []domain.Room{room("Email:a@x.com", 0)}, Page: 1}, nil
		}
		// Discovery fetch is broad: no search, all media.
		assert.Empty(t, search)
		assert.Equal(t, domain.MediumAll, medium)
		return &gateway.RoomsPage{
			Rooms: []domain.Room{room("Email:new@x.com", 1), room("Email:a@x.com", 0)},
			Page:  1,
		}, nil
	}

	s := newTestSession(fg)
	require.NoError(t, s.FetchRooms(context.Background()))

	s.handleCommunication(context.Background(), pushFrom("new@x.com"))

	rooms := s.Rooms()
	require.Len(t, rooms, 2)
	assert.Equal(t, "Email:new@x.com", rooms[0].RoomID, "discovered room goes first")
	assert.Equal(t, "Email:a@x.com", rooms[1].RoomID)
}

func TestPushForUnknownRoomAbsentFromPageIsIgnored(t *testing.T) {
	fg := newFakeGateway()
	fg.getRoomsFn = func(context.Context, int, int, string, domain.Medium) (*gateway.RoomsPage, error) {
		return &gateway.RoomsPage{Rooms: []domain.Room{room("Email:a@x.com", 0)}, Page: 1}, nil
	}

	s := newTestSession(fg)
	require.NoError(t, s.FetchRooms(context.Background()))

	s.handleCommunication(context.Background(), pushFrom("elsewhere@x.com"))

	assert.Len(t, s.Rooms(), 1, "room missing from the first page stays unlisted")
}

func TestPushForOpenRoomRefetchesMessages(t *testing.T) {
	fg := newFakeGateway()
	fg.getRoomsFn = func(context.Context, int, int, string, domain.Medium) (*gateway.RoomsPage, error) {
		return &gateway.RoomsPage{Rooms: []domain.Room{room("Email:a@x.com", 0)}, Page: 1}, nil
	}
	fg.getMessagesFn = func(context.Context, string, int, int, string) (*gateway.MessagesPage, error) {
		return &gateway.MessagesPage{Messages: []domain.Message{message("m1")}, Page: 1}, nil
	}

	s := newTestSession(fg)
	require.NoError(t, s.FetchRooms(context.Background()))
	require.NoError(t, s.SelectRoom(context.Background(), "Email:a@x.com"))
	before := fg.countCalls("get_messages")

	s.handleCommunication(context.Background(), pushFrom("a@x.com"))

	assert.Equal(t, before+1, fg.countCalls("get_messages"), "open room pulls the new message")
}

func TestPushWithUnresolvableRoomStillRefreshesUnread(t *testing.T) {
	fg := newFakeGateway()
	s := newTestSession(fg)

	s.handleCommunication(context.Background(), domain.NewCommunication{
		Name:                "COMM-1001",
		CommunicationMedium: domain.MediumEmail,
		SentOrReceived:      domain.DirectionReceived,
		// No sender address, so no room identity can be derived.
	})

	assert.Zero(t, fg.countCalls("get_rooms"))
	assert.Equal(t, 1, fg.countCalls("get_unread_count"))
}

func TestRunStopsWhenChannelCloses(t *testing.T) {
	fg := newFakeGateway()
	s := newTestSession(fg)

	events := make(chan domain.NewCommunication, 1)
	events <- pushFrom("a@x.com")
	close(events)

	done := make(chan struct{})
	go func() {
		s.Run(context.Background(), events)
		close(done)
	}()

	<-done
	assert.Equal(t, 1, fg.countCalls("get_unread_count"))
}
