package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/avunu/commchat/internal/domain"
)

// SelectRoom opens a room and loads its most recent page of messages.
// Selecting the already-open room refetches it.
func (s *Session) SelectRoom(ctx context.Context, roomID string) error {
	if _, err := domain.ParseRoomID(roomID); err != nil {
		return s.fail("select_room", err)
	}

	s.mu.Lock()
	var room *domain.Room
	if i := s.findRoom(roomID); i >= 0 {
		r := s.rooms[i]
		room = &r
	} else {
		// Rooms reachable by bookmark may not be in the loaded page yet.
		room = &domain.Room{RoomID: roomID}
	}
	s.openRoom = room
	s.messages = nil
	s.messagesPage = 1
	s.messagesLoaded = false
	s.mu.Unlock()

	s.bus.Publish(domain.RoomOpenedEvent{RoomID: roomID, EventTime: time.Now()})
	return s.FetchMessages(ctx)
}

// FetchMessages performs a disruptive fetch of the open room's newest page.
// After a non-empty result the room is marked seen on the server and its
// unread count zeroed in place, without refetching the room list.
func (s *Session) FetchMessages(ctx context.Context) error {
	s.mu.Lock()
	if s.openRoom == nil {
		s.mu.Unlock()
		return fmt.Errorf("no open room")
	}
	if s.messagesFetching {
		s.mu.Unlock()
		return nil
	}
	s.messagesFetching = true
	s.messagesLoading = true
	s.messages = nil
	s.messagesPage = 1
	s.messagesLoaded = false
	roomID := s.openRoom.RoomID
	limit := s.opts.MessagesLimit
	s.mu.Unlock()
	s.publishMessages()

	page, err := s.gw.GetMessages(ctx, roomID, 1, limit, "")

	s.mu.Lock()
	s.messagesFetching = false
	s.messagesLoading = false
	if err != nil {
		s.mu.Unlock()
		s.publishMessages()
		return s.fail("get_messages", err)
	}
	stillOpen := s.openRoom != nil && s.openRoom.RoomID == roomID
	if stillOpen {
		s.messages = dedupMessages(page.Messages, nil)
		s.messagesPage = page.Page
		s.messagesLoaded = !page.HasMore
	}
	s.mu.Unlock()
	s.publishMessages()

	if stillOpen && len(page.Messages) > 0 {
		if err := s.MarkSeen(ctx, roomID); err != nil {
			s.log.Warn().Err(err).Str("room", roomID).Msg("mark seen after fetch failed")
		}
	}
	return nil
}

// LoadMoreMessages prepends the next, strictly older page. It has its own
// in-flight guard so it never blocks a concurrent refresh of the list.
func (s *Session) LoadMoreMessages(ctx context.Context) error {
	s.mu.Lock()
	if s.openRoom == nil || s.messagesAppending || s.messagesLoaded {
		s.mu.Unlock()
		return nil
	}
	s.messagesAppending = true
	roomID := s.openRoom.RoomID
	next := s.messagesPage + 1
	limit := s.opts.MessagesLimit
	beforeID := ""
	if len(s.messages) > 0 {
		beforeID = s.messages[0].ID
	}
	s.mu.Unlock()

	page, err := s.gw.GetMessages(ctx, roomID, next, limit, beforeID)

	s.mu.Lock()
	s.messagesAppending = false
	if err != nil {
		s.mu.Unlock()
		return s.fail("get_messages", err)
	}
	if s.openRoom == nil || s.openRoom.RoomID != roomID {
		s.mu.Unlock()
		return nil
	}
	s.messages = dedupMessages(page.Messages, s.messages)
	s.messagesPage = next
	s.messagesLoaded = !page.HasMore
	s.mu.Unlock()
	s.publishMessages()
	return nil
}

// dedupMessages prepends older ahead of newer, dropping older entries whose
// id already exists in newer. Order stays oldest to newest.
func dedupMessages(older, newer []domain.Message) []domain.Message {
	seen := make(map[string]bool, len(newer))
	for _, m := range newer {
		seen[m.ID] = true
	}
	out := make([]domain.Message, 0, len(older)+len(newer))
	for _, m := range older {
		if m.ID == "" || seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		out = append(out, m)
	}
	return append(out, newer...)
}
