package engine

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/avunu/commchat/internal/domain"
	"github.com/avunu/commchat/internal/gateway"
)

// fakeGateway satisfies Gateway with per-operation hooks and records every
// call so tests can assert which remote operations were (not) issued.
type fakeGateway struct {
	mu    sync.Mutex
	calls []string

	currentUserFn func(ctx context.Context) (*domain.CurrentUser, error)
	getRoomsFn    func(ctx context.Context, page, limit int, search string, medium domain.Medium) (*gateway.RoomsPage, error)
	getMessagesFn func(ctx context.Context, roomID string, page, limit int, beforeID string) (*gateway.MessagesPage, error)
	sendFn        func(ctx context.Context, roomID, content string, opts *gateway.SendOptions) (*gateway.SendResult, error)
	markSeenFn    func(ctx context.Context, roomID string) (*gateway.SeenResult, error)
	searchFn      func(ctx context.Context, query string, limit int) ([]domain.Room, error)
	unreadFn      func(ctx context.Context) (int, error)
	archiveFn     func(ctx context.Context, roomID string) (*gateway.RoomActionResult, error)
	deleteFn      func(ctx context.Context, roomID string) (*gateway.RoomActionResult, error)
	uploadFn      func(ctx context.Context, fileName string, content io.Reader, docType, docName string) (*domain.MessageFile, error)
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		currentUserFn: func(context.Context) (*domain.CurrentUser, error) {
			return &domain.CurrentUser{ID: "me@corp.com", Username: "Me"}, nil
		},
		getRoomsFn: func(context.Context, int, int, string, domain.Medium) (*gateway.RoomsPage, error) {
			return &gateway.RoomsPage{Page: 1}, nil
		},
		getMessagesFn: func(context.Context, string, int, int, string) (*gateway.MessagesPage, error) {
			return &gateway.MessagesPage{Page: 1}, nil
		},
		sendFn: func(context.Context, string, string, *gateway.SendOptions) (*gateway.SendResult, error) {
			return &gateway.SendResult{Success: true, Message: &domain.Message{ID: "SENT-1"}}, nil
		},
		markSeenFn: func(context.Context, string) (*gateway.SeenResult, error) {
			return &gateway.SeenResult{Success: true}, nil
		},
		searchFn: func(context.Context, string, int) ([]domain.Room, error) {
			return nil, nil
		},
		unreadFn: func(context.Context) (int, error) {
			return 0, nil
		},
		archiveFn: func(context.Context, string) (*gateway.RoomActionResult, error) {
			return &gateway.RoomActionResult{Success: true}, nil
		},
		deleteFn: func(context.Context, string) (*gateway.RoomActionResult, error) {
			return &gateway.RoomActionResult{Success: true}, nil
		},
		uploadFn: func(_ context.Context, fileName string, _ io.Reader, _, _ string) (*domain.MessageFile, error) {
			return &domain.MessageFile{Name: fileName, URL: "/private/files/" + fileName}, nil
		},
	}
}

func (f *fakeGateway) record(op string) {
	f.mu.Lock()
	f.calls = append(f.calls, op)
	f.mu.Unlock()
}

func (f *fakeGateway) countCalls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == op {
			n++
		}
	}
	return n
}

func (f *fakeGateway) GetCurrentUser(ctx context.Context) (*domain.CurrentUser, error) {
	f.record("get_current_user")
	return f.currentUserFn(ctx)
}

func (f *fakeGateway) GetRooms(ctx context.Context, page, limit int, search string, medium domain.Medium) (*gateway.RoomsPage, error) {
	f.record("get_rooms")
	return f.getRoomsFn(ctx, page, limit, search, medium)
}

func (f *fakeGateway) GetMessages(ctx context.Context, roomID string, page, limit int, beforeID string) (*gateway.MessagesPage, error) {
	f.record("get_messages")
	return f.getMessagesFn(ctx, roomID, page, limit, beforeID)
}

func (f *fakeGateway) SendMessage(ctx context.Context, roomID, content string, opts *gateway.SendOptions) (*gateway.SendResult, error) {
	f.record("send_message")
	return f.sendFn(ctx, roomID, content, opts)
}

func (f *fakeGateway) MarkMessagesSeen(ctx context.Context, roomID string) (*gateway.SeenResult, error) {
	f.record("mark_messages_seen")
	return f.markSeenFn(ctx, roomID)
}

func (f *fakeGateway) SearchRooms(ctx context.Context, query string, limit int) ([]domain.Room, error) {
	f.record("search_rooms")
	return f.searchFn(ctx, query, limit)
}

func (f *fakeGateway) GetUnreadCount(ctx context.Context) (int, error) {
	f.record("get_unread_count")
	return f.unreadFn(ctx)
}

func (f *fakeGateway) ArchiveRoom(ctx context.Context, roomID string) (*gateway.RoomActionResult, error) {
	f.record("archive_room")
	return f.archiveFn(ctx, roomID)
}

func (f *fakeGateway) DeleteRoom(ctx context.Context, roomID string) (*gateway.RoomActionResult, error) {
	f.record("delete_room")
	return f.deleteFn(ctx, roomID)
}

func (f *fakeGateway) UploadFile(ctx context.Context, fileName string, content io.Reader, docType, docName string) (*domain.MessageFile, error) {
	f.record("upload_file")
	return f.uploadFn(ctx, fileName, content, docType, docName)
}

func room(id string, unread int) domain.Room {
	return domain.Room{
		RoomID:      id,
		RoomName:    id,
		UnreadCount: unread,
	}
}

func message(id string) domain.Message {
	return domain.Message{
		ID:      id,
		Content: fmt.Sprintf("content of %s", id),
	}
}
