package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/avunu/commchat/internal/domain"
	"github.com/avunu/commchat/internal/gateway"
)

func (s *Server) handleListRooms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	search := request.GetString("search", "")
	medium := domain.Medium(request.GetString("medium", string(domain.MediumAll)))
	if medium != domain.MediumAll && !medium.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid medium: %s", medium)), nil
	}

	if err := s.session.ApplyFilters(ctx, search, medium); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get rooms: %v", err)), nil
	}

	rooms := s.session.Rooms()
	if len(rooms) == 0 {
		return mcp.NewToolResultText("No rooms found."), nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Found %d room(s):\n\n", len(rooms)))
	for i, room := range rooms {
		result.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, room.RoomName, room.CommunicationMedium))
		result.WriteString(fmt.Sprintf("   ID: %s\n", room.RoomID))
		if room.UnreadCount > 0 {
			result.WriteString(fmt.Sprintf("   Unread: %d message(s)\n", room.UnreadCount))
		}
		if room.LastMessage != nil && room.LastMessage.Content != "" {
			result.WriteString(fmt.Sprintf("   Last: %s\n", previewText(room.LastMessage.Content, 60)))
		}
		result.WriteString("\n")
	}

	return mcp.NewToolResultText(result.String()), nil
}

// previewText shortens s to max runes, never splitting a multi-byte
// character.
func previewText(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

func (s *Server) handleGetMessages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	roomID := request.GetString("room_id", "")
	if roomID == "" {
		return mcp.NewToolResultError("room_id is required"), nil
	}

	if err := s.session.SelectRoom(ctx, roomID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get messages: %v", err)), nil
	}

	messages := s.session.Messages()
	if len(messages) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No messages in room %s", roomID)), nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Messages in %s (%d):\n\n", roomID, len(messages)))
	for _, msg := range messages {
		sender := msg.Username
		if msg.SentOrReceived == domain.DirectionSent {
			sender = "Me"
		}
		seenStatus := ""
		if msg.Seen {
			seenStatus = " [seen]"
		}
		result.WriteString(fmt.Sprintf("[%s %s] %s%s:\n", msg.Date, msg.Timestamp, sender, seenStatus))
		result.WriteString(fmt.Sprintf("  %s\n", msg.Content))
		for _, f := range msg.Files {
			result.WriteString(fmt.Sprintf("  [Attachment: %s]\n", f.Name))
		}
		result.WriteString(fmt.Sprintf("  ID: %s\n\n", msg.ID))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	roomID := request.GetString("room_id", "")
	content := request.GetString("content", "")
	if roomID == "" {
		return mcp.NewToolResultError("room_id is required"), nil
	}
	if content == "" {
		return mcp.NewToolResultError("content is required"), nil
	}

	open := s.session.OpenRoom()
	if open == nil || open.RoomID != roomID {
		if err := s.session.SelectRoom(ctx, roomID); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to open room: %v", err)), nil
		}
	}

	opts := &gateway.SendOptions{
		Subject:        request.GetString("subject", ""),
		ReplyMessageID: request.GetString("reply_to", ""),
	}
	msg, err := s.session.Send(ctx, content, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to send message: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Message sent to %s (id: %s)", roomID, msg.ID)), nil
}

func (s *Server) handleMarkSeen(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	roomID := request.GetString("room_id", "")
	if roomID == "" {
		return mcp.NewToolResultError("room_id is required"), nil
	}

	if err := s.session.MarkSeen(ctx, roomID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to mark seen: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Marked room %s as seen", roomID)), nil
}

func (s *Server) handleSearchRooms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := request.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	limit := request.GetInt("limit", 10)
	if limit > 50 {
		limit = 50
	}
	if limit <= 0 {
		limit = 10
	}

	rooms, err := s.session.SearchRooms(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Search failed: %v", err)), nil
	}
	if len(rooms) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No rooms matched %q", query)), nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("%d room(s) matched %q:\n\n", len(rooms), query))
	for i, room := range rooms {
		result.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, room.RoomName, room.RoomID))
	}
	return mcp.NewToolResultText(result.String()), nil
}

func (s *Server) handleUnreadCount(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.session.RefreshUnread(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get unread count: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Total unread messages: %d", s.session.UnreadCount())), nil
}

func (s *Server) handleArchiveRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	roomID := request.GetString("room_id", "")
	if roomID == "" {
		return mcp.NewToolResultError("room_id is required"), nil
	}

	if err := s.session.Archive(ctx, roomID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to archive room: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Archived room %s", roomID)), nil
}

func (s *Server) handleDeleteRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	roomID := request.GetString("room_id", "")
	if roomID == "" {
		return mcp.NewToolResultError("room_id is required"), nil
	}

	if err := s.session.Delete(ctx, roomID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete room: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted room %s", roomID)), nil
}
