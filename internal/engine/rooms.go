package engine

import (
	"context"
	"time"

	"github.com/avunu/commchat/internal/domain"
)

// Initialize loads the current user, the first page of rooms, and the
// global unread counter. It is the disruptive entry point for a fresh
// session.
func (s *Session) Initialize(ctx context.Context) error {
	user, err := s.gw.GetCurrentUser(ctx)
	if err != nil {
		return s.fail("get_current_user", err)
	}
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	if err := s.FetchRooms(ctx); err != nil {
		return err
	}
	if err := s.RefreshUnread(ctx); err != nil {
		s.log.Warn().Err(err).Msg("initial unread refresh failed")
	}
	return nil
}

// FetchRooms performs a disruptive first-page fetch: pagination resets, the
// list is replaced wholesale, and the loading flag is raised so the UI may
// show a skeleton. A second disruptive fetch while one is in flight is
// dropped, not queued.
func (s *Session) FetchRooms(ctx context.Context) error {
	s.mu.Lock()
	if s.roomsFetching {
		s.mu.Unlock()
		return nil
	}
	s.roomsFetching = true
	s.roomsLoading = true
	s.rooms = nil
	s.roomsPage = 1
	s.roomsLoaded = false
	s.roomsGen++
	gen := s.roomsGen
	search, medium, limit := s.search, s.medium, s.opts.RoomsLimit
	s.mu.Unlock()
	s.publishRooms()

	page, err := s.gw.GetRooms(ctx, 1, limit, search, medium)

	s.mu.Lock()
	s.roomsFetching = false
	s.roomsLoading = false
	if err != nil {
		s.mu.Unlock()
		s.publishRooms()
		return s.fail("get_rooms", err)
	}
	if gen == s.roomsGen {
		s.rooms = dedupRooms(nil, page.Rooms)
		s.roomsPage = page.Page
		s.roomsLoaded = !page.HasMore
	}
	s.mu.Unlock()
	s.publishRooms()
	return nil
}

// quietFetchRooms re-reads the first page and atomically replaces the list
// without ever touching the loading flag, so a subscriber observing
// loading never sees the refresh. On failure the previous contents stay
// visible. Quiet fetches are unguarded; the generation stamp makes the
// last issued request win even when responses resolve out of order.
func (s *Session) quietFetchRooms(ctx context.Context) error {
	s.mu.Lock()
	s.roomsGen++
	gen := s.roomsGen
	search, medium, limit := s.search, s.medium, s.opts.RoomsLimit
	s.mu.Unlock()

	page, err := s.gw.GetRooms(ctx, 1, limit, search, medium)
	if err != nil {
		return s.fail("get_rooms", err)
	}

	s.mu.Lock()
	if gen != s.roomsGen {
		s.mu.Unlock()
		s.log.Debug().Uint64("gen", gen).Msg("discarding stale room refresh")
		return nil
	}
	s.rooms = dedupRooms(nil, page.Rooms)
	s.roomsPage = page.Page
	s.roomsLoaded = !page.HasMore
	s.mu.Unlock()
	s.publishRooms()
	return nil
}

// LoadMoreRooms appends the next page, skipping rooms already present.
// It uses its own in-flight guard so a background refresh and a load-more
// can overlap without blocking each other.
func (s *Session) LoadMoreRooms(ctx context.Context) error {
	s.mu.Lock()
	if s.roomsAppendingOrDone() {
		s.mu.Unlock()
		return nil
	}
	s.roomsMore = true
	gen := s.roomsGen
	next := s.roomsPage + 1
	search, medium, limit := s.search, s.medium, s.opts.RoomsLimit
	s.mu.Unlock()

	page, err := s.gw.GetRooms(ctx, next, limit, search, medium)

	s.mu.Lock()
	s.roomsMore = false
	if err != nil {
		s.mu.Unlock()
		return s.fail("get_rooms", err)
	}
	if gen != s.roomsGen {
		// List was replaced while this page was in flight.
		s.mu.Unlock()
		return nil
	}
	s.rooms = dedupRooms(s.rooms, page.Rooms)
	s.roomsPage = next
	s.roomsLoaded = !page.HasMore
	s.mu.Unlock()
	s.publishRooms()
	return nil
}

// Caller holds mu.
func (s *Session) roomsAppendingOrDone() bool {
	return s.roomsMore || s.roomsLoaded
}

// SetSearch updates the room search term. The refresh is debounced and
// quiet so typing never blanks the list or flashes a loading state.
func (s *Session) SetSearch(query string) {
	s.mu.Lock()
	if s.closed || s.search == query {
		s.mu.Unlock()
		return
	}
	s.search = query
	if s.searchTimer != nil {
		s.searchTimer.Stop()
	}
	s.searchTimer = time.AfterFunc(s.opts.SearchDebounce, func() {
		ctx, cancel := context.WithTimeout(context.Background(), gatewayCallTimeout)
		defer cancel()
		if err := s.quietFetchRooms(ctx); err != nil {
			s.log.Warn().Err(err).Str("search", query).Msg("search refresh failed")
		}
	})
	s.mu.Unlock()
}

// ApplyFilters sets both the search term and medium filter at once and
// reloads the list through the disruptive path. Used by imperative callers
// (CLI, tools) that want the result synchronously instead of debounced.
func (s *Session) ApplyFilters(ctx context.Context, search string, medium domain.Medium) error {
	s.mu.Lock()
	s.search = search
	s.medium = medium
	if s.searchTimer != nil {
		s.searchTimer.Stop()
		s.searchTimer = nil
	}
	s.mu.Unlock()
	return s.FetchRooms(ctx)
}

// SetMedium changes the medium filter and reloads the list through the
// disruptive path.
func (s *Session) SetMedium(ctx context.Context, medium domain.Medium) error {
	s.mu.Lock()
	if s.medium == medium {
		s.mu.Unlock()
		return nil
	}
	s.medium = medium
	s.mu.Unlock()
	return s.FetchRooms(ctx)
}

// SearchRooms queries the server directly, bypassing session state. Used
// for one-shot lookups (autocomplete, tooling).
func (s *Session) SearchRooms(ctx context.Context, query string, limit int) ([]domain.Room, error) {
	rooms, err := s.gw.SearchRooms(ctx, query, limit)
	if err != nil {
		return nil, s.fail("search_rooms", err)
	}
	return rooms, nil
}

// RefreshUnread re-reads the global unread counter.
func (s *Session) RefreshUnread(ctx context.Context) error {
	count, err := s.gw.GetUnreadCount(ctx)
	if err != nil {
		return s.fail("get_unread_count", err)
	}
	s.mu.Lock()
	s.unread = count
	s.mu.Unlock()
	s.publishUnread()
	return nil
}

// dedupRooms concatenates base and incoming, dropping incoming rooms whose
// roomId already exists.
func dedupRooms(base, incoming []domain.Room) []domain.Room {
	seen := make(map[string]bool, len(base))
	out := make([]domain.Room, 0, len(base)+len(incoming))
	for _, r := range base {
		if r.RoomID == "" || seen[r.RoomID] {
			continue
		}
		seen[r.RoomID] = true
		out = append(out, r)
	}
	for _, r := range incoming {
		if r.RoomID == "" || seen[r.RoomID] {
			continue
		}
		seen[r.RoomID] = true
		out = append(out, r)
	}
	return out
}
