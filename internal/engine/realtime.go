package engine

import (
	"context"

	"github.com/avunu/commchat/internal/domain"
)

// Run drains realtime push events until ctx is cancelled or the channel is
// closed. The subscription itself is owned by the caller: one per session,
// closed on teardown.
func (s *Session) Run(ctx context.Context, events <-chan domain.NewCommunication) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.handleCommunication(ctx, ev)
		}
	}
}

// handleCommunication reconciles one "new communication" push event.
//
// A room already in the list is left untouched so the visible ordering
// never shifts under the user's cursor; a room we have not seen yet is
// fetched best-effort and prepended. The global unread counter is always
// refreshed, and an open room matching the event's counterparty gets a
// disruptive message refetch to pull the new message in.
func (s *Session) handleCommunication(ctx context.Context, ev domain.NewCommunication) {
	defer func() {
		if err := s.RefreshUnread(ctx); err != nil {
			s.log.Warn().Err(err).Msg("unread refresh after push failed")
		}
	}()

	rid, err := ev.RoomID()
	if err != nil {
		s.log.Warn().Err(err).Str("communication", ev.Name).Msg("unresolvable push event")
		return
	}
	roomID := rid.String()

	s.mu.Lock()
	known := s.findRoom(roomID) >= 0
	openMatches := s.openRoom != nil && s.openRoom.RoomID == roomID
	limit := s.opts.RoomsLimit
	s.mu.Unlock()

	if !known {
		s.discoverRoom(ctx, roomID, limit)
	}

	if openMatches {
		if err := s.FetchMessages(ctx); err != nil {
			s.log.Warn().Err(err).Str("room", roomID).Msg("message refetch after push failed")
		}
	}
}

// discoverRoom issues a best-effort broad first-page fetch and prepends the
// matching room. The fetch is asynchronous relative to other list changes,
// so duplicates are re-checked immediately before insertion.
func (s *Session) discoverRoom(ctx context.Context, roomID string, limit int) {
	page, err := s.gw.GetRooms(ctx, 1, limit, "", domain.MediumAll)
	if err != nil {
		s.log.Warn().Err(err).Str("room", roomID).Msg("room discovery fetch failed")
		return
	}

	var found *domain.Room
	for i := range page.Rooms {
		if page.Rooms[i].RoomID == roomID {
			found = &page.Rooms[i]
			break
		}
	}
	if found == nil {
		return
	}

	s.mu.Lock()
	if s.findRoom(roomID) >= 0 {
		s.mu.Unlock()
		return
	}
	s.rooms = append([]domain.Room{*found}, s.rooms...)
	s.mu.Unlock()
	s.publishRooms()
}
