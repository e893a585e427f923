package engine

import (
	"context"
	"io"

	"github.com/avunu/commchat/internal/domain"
	"github.com/avunu/commchat/internal/gateway"
)

// Gateway is the remote surface the session talks to. It is injected at
// construction so tests can substitute a fake; *gateway.Client is the
// production implementation.
type Gateway interface {
	GetCurrentUser(ctx context.Context) (*domain.CurrentUser, error)
	GetRooms(ctx context.Context, page, limit int, search string, medium domain.Medium) (*gateway.RoomsPage, error)
	GetMessages(ctx context.Context, roomID string, page, limit int, beforeID string) (*gateway.MessagesPage, error)
	SendMessage(ctx context.Context, roomID, content string, opts *gateway.SendOptions) (*gateway.SendResult, error)
	MarkMessagesSeen(ctx context.Context, roomID string) (*gateway.SeenResult, error)
	SearchRooms(ctx context.Context, query string, limit int) ([]domain.Room, error)
	GetUnreadCount(ctx context.Context) (int, error)
	ArchiveRoom(ctx context.Context, roomID string) (*gateway.RoomActionResult, error)
	DeleteRoom(ctx context.Context, roomID string) (*gateway.RoomActionResult, error)
	UploadFile(ctx context.Context, fileName string, content io.Reader, docType, docName string) (*domain.MessageFile, error)
}
