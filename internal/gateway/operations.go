package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/avunu/commchat/internal/domain"
)

// RoomsPage is the result of one get_rooms call.
type RoomsPage struct {
	Rooms   []domain.Room `json:"rooms"`
	Total   int           `json:"total"`
	Page    int           `json:"page"`
	HasMore bool          `json:"hasMore"`
}

// MessagesPage is the result of one get_messages call. Messages are ordered
// oldest to newest within the page.
type MessagesPage struct {
	Messages []domain.Message `json:"messages"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	HasMore  bool             `json:"hasMore"`
}

// SendResult carries either the authoritative created message or the
// server's failure reason.
type SendResult struct {
	Success bool            `json:"success"`
	Message *domain.Message `json:"message"`
	Error   string          `json:"error"`
}

// SeenResult is the outcome of mark_messages_seen.
type SeenResult struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
}

// RoomActionResult is the outcome of archive_room / delete_room.
type RoomActionResult struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Error   string `json:"error"`
}

// SendOptions are the optional arguments of send_message.
type SendOptions struct {
	Files          []domain.MessageFile
	ReplyMessageID string
	Subject        string
}

func (c *Client) GetCurrentUser(ctx context.Context) (*domain.CurrentUser, error) {
	raw, err := c.call(ctx, "get_current_user", nil)
	if err != nil {
		return nil, err
	}
	user, err := decode[domain.CurrentUser]("get_current_user", raw)
	if err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, &ShapeError{Procedure: "get_current_user", Reason: "missing _id"}
	}
	return user, nil
}

func (c *Client) GetRooms(ctx context.Context, page, limit int, search string, medium domain.Medium) (*RoomsPage, error) {
	args := url.Values{
		"page":   {strconv.Itoa(page)},
		"limit":  {strconv.Itoa(limit)},
		"search": {search},
		"medium": {string(medium)},
	}
	raw, err := c.call(ctx, "get_rooms", args)
	if err != nil {
		return nil, err
	}
	return decode[RoomsPage]("get_rooms", raw)
}

func (c *Client) GetMessages(ctx context.Context, roomID string, page, limit int, beforeID string) (*MessagesPage, error) {
	args := url.Values{
		"room_id":   {roomID},
		"page":      {strconv.Itoa(page)},
		"limit":     {strconv.Itoa(limit)},
		"before_id": {beforeID},
	}
	raw, err := c.call(ctx, "get_messages", args)
	if err != nil {
		return nil, err
	}
	return decode[MessagesPage]("get_messages", raw)
}

func (c *Client) SendMessage(ctx context.Context, roomID, content string, opts *SendOptions) (*SendResult, error) {
	args := url.Values{
		"room_id": {roomID},
		"content": {content},
	}
	if opts != nil {
		if len(opts.Files) > 0 {
			encoded, err := json.Marshal(opts.Files)
			if err != nil {
				return nil, fmt.Errorf("send_message: encode files: %w", err)
			}
			args.Set("files", string(encoded))
		}
		if opts.ReplyMessageID != "" {
			args.Set("reply_message_id", opts.ReplyMessageID)
		}
		if opts.Subject != "" {
			args.Set("subject", opts.Subject)
		}
	}
	raw, err := c.call(ctx, "send_message", args)
	if err != nil {
		return nil, err
	}
	result, err := decode[SendResult]("send_message", raw)
	if err != nil {
		return nil, err
	}
	if result.Success && result.Message == nil {
		return nil, &ShapeError{Procedure: "send_message", Reason: "success without message"}
	}
	return result, nil
}

func (c *Client) MarkMessagesSeen(ctx context.Context, roomID string) (*SeenResult, error) {
	raw, err := c.call(ctx, "mark_messages_seen", url.Values{"room_id": {roomID}})
	if err != nil {
		return nil, err
	}
	return decode[SeenResult]("mark_messages_seen", raw)
}

func (c *Client) SearchRooms(ctx context.Context, query string, limit int) ([]domain.Room, error) {
	args := url.Values{
		"query": {query},
		"limit": {strconv.Itoa(limit)},
	}
	raw, err := c.call(ctx, "search_rooms", args)
	if err != nil {
		return nil, err
	}
	rooms, err := decode[[]domain.Room]("search_rooms", raw)
	if err != nil {
		return nil, err
	}
	return *rooms, nil
}

func (c *Client) GetUnreadCount(ctx context.Context) (int, error) {
	raw, err := c.call(ctx, "get_unread_count", nil)
	if err != nil {
		return 0, err
	}
	count, err := decode[int]("get_unread_count", raw)
	if err != nil {
		return 0, err
	}
	return *count, nil
}

func (c *Client) ArchiveRoom(ctx context.Context, roomID string) (*RoomActionResult, error) {
	raw, err := c.call(ctx, "archive_room", url.Values{"room_id": {roomID}})
	if err != nil {
		return nil, err
	}
	return decode[RoomActionResult]("archive_room", raw)
}

func (c *Client) DeleteRoom(ctx context.Context, roomID string) (*RoomActionResult, error) {
	raw, err := c.call(ctx, "delete_room", url.Values{"room_id": {roomID}})
	if err != nil {
		return nil, err
	}
	return decode[RoomActionResult]("delete_room", raw)
}
