// Package engine maintains the in-memory chat state for one user session:
// the paginated room and message lists, their merge rules, optimistic
// mutations after server calls, and reconciliation of realtime push events.
//
// All state lives behind one mutex. Remote calls are made with the lock
// released, so overlapping operations are ordered only by the in-flight
// guards: at most one disruptive fetch and one load-more per list, with the
// two kinds never blocking each other. List-replacing responses carry a
// generation stamp; a stale response is discarded instead of applied.
package engine

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/avunu/commchat/internal/domain"
	"github.com/avunu/commchat/internal/logger"
)

const (
	DefaultRoomsLimit     = 20
	DefaultMessagesLimit  = 50
	DefaultSearchDebounce = 300 * time.Millisecond

	// gatewayCallTimeout bounds calls the session issues on its own, such
	// as debounced search refreshes.
	gatewayCallTimeout = 30 * time.Second
)

// Options tunes a session. Zero values fall back to the defaults above.
type Options struct {
	RoomsLimit     int
	MessagesLimit  int
	SearchDebounce time.Duration
}

func (o *Options) defaults() {
	if o.RoomsLimit <= 0 {
		o.RoomsLimit = DefaultRoomsLimit
	}
	if o.MessagesLimit <= 0 {
		o.MessagesLimit = DefaultMessagesLimit
	}
	if o.SearchDebounce <= 0 {
		o.SearchDebounce = DefaultSearchDebounce
	}
}

// Session owns the room and message lists for one chat session. No other
// component mutates them; the rendering layer reads snapshots and reacts to
// bus events.
type Session struct {
	gw   Gateway
	bus  domain.EventBus
	opts Options
	log  zerolog.Logger

	mu   sync.Mutex
	user *domain.CurrentUser

	rooms         []domain.Room
	roomsPage     int
	roomsLoaded   bool
	roomsLoading  bool
	roomsFetching bool
	roomsMore     bool
	roomsGen      uint64

	openRoom          *domain.Room
	messages          []domain.Message
	messagesPage      int
	messagesLoaded    bool
	messagesLoading   bool
	messagesFetching  bool
	messagesAppending bool

	search string
	medium domain.Medium
	unread int

	lastErr     error
	searchTimer *time.Timer
	closed      bool
}

// NewSession creates a session over the given gateway. Events about state
// changes are published on bus.
func NewSession(gw Gateway, bus domain.EventBus, opts Options) *Session {
	opts.defaults()
	return &Session{
		gw:     gw,
		bus:    bus,
		opts:   opts,
		log:    logger.Module("engine"),
		medium: domain.MediumAll,
	}
}

// Close tears the session down. Pending debounced searches are dropped.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.searchTimer != nil {
		s.searchTimer.Stop()
		s.searchTimer = nil
	}
}

// fail records err in the session's error slot (last error wins) and logs it.
func (s *Session) fail(op string, err error) error {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	s.log.Error().Err(err).Str("op", op).Msg("operation failed")
	return err
}

// notify surfaces a transient user-visible message.
func (s *Session) notify(severity, text string) {
	s.bus.Publish(domain.NotificationEvent{
		Severity:  severity,
		Text:      text,
		EventTime: time.Now(),
	})
}

func (s *Session) publishRooms() {
	s.mu.Lock()
	n := len(s.rooms)
	s.mu.Unlock()
	s.bus.Publish(domain.RoomsUpdatedEvent{Count: n, EventTime: time.Now()})
}

func (s *Session) publishMessages() {
	s.mu.Lock()
	n := len(s.messages)
	roomID := ""
	if s.openRoom != nil {
		roomID = s.openRoom.RoomID
	}
	s.mu.Unlock()
	s.bus.Publish(domain.MessagesUpdatedEvent{RoomID: roomID, Count: n, EventTime: time.Now()})
}

func (s *Session) publishUnread() {
	s.mu.Lock()
	total := s.unread
	s.mu.Unlock()
	s.bus.Publish(domain.UnreadUpdatedEvent{Total: total, EventTime: time.Now()})
}

// --- snapshot accessors ---

// CurrentUser returns the logged-in user, or nil before Initialize.
func (s *Session) CurrentUser() *domain.CurrentUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Rooms returns a copy of the current room list.
func (s *Session) Rooms() []domain.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Room, len(s.rooms))
	copy(out, s.rooms)
	return out
}

// Messages returns a copy of the open room's message list, oldest first.
func (s *Session) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// OpenRoom returns the currently open room, or nil.
func (s *Session) OpenRoom() *domain.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openRoom == nil {
		return nil
	}
	r := *s.openRoom
	return &r
}

func (s *Session) RoomsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomsLoading
}

func (s *Session) RoomsLoaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomsLoaded
}

func (s *Session) MessagesLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messagesLoading
}

func (s *Session) MessagesLoaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messagesLoaded
}

func (s *Session) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Session) Search() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.search
}

func (s *Session) Medium() domain.Medium {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.medium
}

// findRoom returns the index of roomID in the list, or -1. Caller holds mu.
func (s *Session) findRoom(roomID string) int {
	for i := range s.rooms {
		if s.rooms[i].RoomID == roomID {
			return i
		}
	}
	return -1
}
