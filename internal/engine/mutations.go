package engine

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/avunu/commchat/internal/domain"
	"github.com/avunu/commchat/internal/gateway"
)

// Send delivers a message to the open room. On success the authoritative
// message returned by the server is appended locally and the room's
// last-message summary updated in place; nothing is refetched. On failure
// no local state changes, so the caller can keep the composed content and
// retry.
func (s *Session) Send(ctx context.Context, content string, opts *gateway.SendOptions) (*domain.Message, error) {
	s.mu.Lock()
	if s.openRoom == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("no open room")
	}
	roomID := s.openRoom.RoomID
	senderID := ""
	senderName := ""
	if s.user != nil {
		senderID = s.user.ID
		senderName = s.user.Username
	}
	s.mu.Unlock()

	result, err := s.gw.SendMessage(ctx, roomID, content, opts)
	if err != nil {
		s.notify("error", "Message could not be sent")
		return nil, s.fail("send_message", err)
	}
	if !result.Success {
		reason := result.Error
		if reason == "" {
			reason = "Message could not be sent"
		}
		s.notify("error", reason)
		return nil, s.fail("send_message", fmt.Errorf("send_message: %s", reason))
	}

	msg := *result.Message
	now := time.Now()

	s.mu.Lock()
	if s.openRoom != nil && s.openRoom.RoomID == roomID {
		s.messages = appendMessage(s.messages, msg)
	}
	last := &domain.LastMessage{
		Content:   content,
		SenderID:  senderID,
		Username:  senderName,
		Timestamp: now.Format("15:04"),
		Saved:     true,
		Seen:      true,
	}
	if i := s.findRoom(roomID); i >= 0 {
		s.rooms[i].LastMessage = last
	}
	if s.openRoom != nil && s.openRoom.RoomID == roomID {
		s.openRoom.LastMessage = last
	}
	s.mu.Unlock()

	s.publishMessages()
	s.publishRooms()
	return &msg, nil
}

// MarkSeen marks every message in a room seen on the server, then zeroes
// that room's unread count locally instead of refetching the list.
func (s *Session) MarkSeen(ctx context.Context, roomID string) error {
	result, err := s.gw.MarkMessagesSeen(ctx, roomID)
	if err != nil {
		return s.fail("mark_messages_seen", err)
	}
	if !result.Success {
		return s.fail("mark_messages_seen", fmt.Errorf("mark_messages_seen: server refused"))
	}

	s.mu.Lock()
	if i := s.findRoom(roomID); i >= 0 {
		s.rooms[i].UnreadCount = 0
	}
	if s.openRoom != nil && s.openRoom.RoomID == roomID {
		s.openRoom.UnreadCount = 0
	}
	s.mu.Unlock()
	s.publishRooms()
	return nil
}

// Archive closes every communication in a room, then removes the room from
// the local list.
func (s *Session) Archive(ctx context.Context, roomID string) error {
	result, err := s.gw.ArchiveRoom(ctx, roomID)
	return s.applyRoomAction("archive_room", roomID, result, err)
}

// Delete permanently removes a room's communications, then the room itself
// from the local list.
func (s *Session) Delete(ctx context.Context, roomID string) error {
	result, err := s.gw.DeleteRoom(ctx, roomID)
	return s.applyRoomAction("delete_room", roomID, result, err)
}

// applyRoomAction reconciles an archive/delete outcome: on success the room
// is removed in place (never a refetch, to preserve scroll position) and
// open-room state cleared if it pointed there; on failure prior state is
// left untouched.
func (s *Session) applyRoomAction(op, roomID string, result *gateway.RoomActionResult, err error) error {
	if err != nil {
		s.notify("error", "Action failed")
		return s.fail(op, err)
	}
	if !result.Success {
		reason := result.Error
		if reason == "" {
			reason = "Action failed"
		}
		s.notify("error", reason)
		return s.fail(op, fmt.Errorf("%s: %s", op, reason))
	}

	s.mu.Lock()
	if i := s.findRoom(roomID); i >= 0 {
		s.rooms = append(s.rooms[:i], s.rooms[i+1:]...)
	}
	wasOpen := s.openRoom != nil && s.openRoom.RoomID == roomID
	if wasOpen {
		s.openRoom = nil
		s.messages = nil
		s.messagesPage = 1
		s.messagesLoaded = false
	}
	s.mu.Unlock()

	s.publishRooms()
	if wasOpen {
		s.publishMessages()
	}
	return nil
}

// Upload pushes an attachment to the host's file storage so its descriptor
// can accompany a later Send.
func (s *Session) Upload(ctx context.Context, fileName string, content io.Reader) (*domain.MessageFile, error) {
	file, err := s.gw.UploadFile(ctx, fileName, content, "", "")
	if err != nil {
		s.notify("error", "Upload failed")
		return nil, s.fail("upload_file", err)
	}
	return file, nil
}

// appendMessage adds msg unless its id is already present, which happens
// when a realtime refetch landed between the send call and its response.
func appendMessage(list []domain.Message, msg domain.Message) []domain.Message {
	for i := range list {
		if list[i].ID == msg.ID {
			return list
		}
	}
	return append(list, msg)
}
