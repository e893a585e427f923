package domain

import (
	"strings"
	"sync"
	"time"
)

type EventType string

const (
	EventTypeRoomsUpdated    EventType = "rooms.updated"
	EventTypeMessagesUpdated EventType = "messages.updated"
	EventTypeUnreadUpdated   EventType = "unread.updated"
	EventTypeRoomOpened      EventType = "room.opened"
	EventTypeNotification    EventType = "notification"
)

type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// RoomsUpdatedEvent fires whenever the room list changed in any way.
type RoomsUpdatedEvent struct {
	Count     int
	EventTime time.Time
}

func (e RoomsUpdatedEvent) Type() EventType      { return EventTypeRoomsUpdated }
func (e RoomsUpdatedEvent) Timestamp() time.Time { return e.EventTime }

// MessagesUpdatedEvent fires whenever the open room's message list changed.
type MessagesUpdatedEvent struct {
	RoomID    string
	Count     int
	EventTime time.Time
}

func (e MessagesUpdatedEvent) Type() EventType      { return EventTypeMessagesUpdated }
func (e MessagesUpdatedEvent) Timestamp() time.Time { return e.EventTime }

type UnreadUpdatedEvent struct {
	Total     int
	EventTime time.Time
}

func (e UnreadUpdatedEvent) Type() EventType      { return EventTypeUnreadUpdated }
func (e UnreadUpdatedEvent) Timestamp() time.Time { return e.EventTime }

type RoomOpenedEvent struct {
	RoomID    string
	EventTime time.Time
}

func (e RoomOpenedEvent) Type() EventType      { return EventTypeRoomOpened }
func (e RoomOpenedEvent) Timestamp() time.Time { return e.EventTime }

// NotificationEvent carries a transient user-visible message, usually an
// application-level failure surfaced by the server.
type NotificationEvent struct {
	Severity  string
	Text      string
	EventTime time.Time
}

func (e NotificationEvent) Type() EventType      { return EventTypeNotification }
func (e NotificationEvent) Timestamp() time.Time { return e.EventTime }

// NewCommunication is the realtime push payload announcing that a
// communication record was created in the host system.
type NewCommunication struct {
	Name                string    `json:"name"`
	CommunicationMedium Medium    `json:"communication_medium"`
	SentOrReceived      Direction `json:"sent_or_received"`
	Sender              string    `json:"sender"`
	Recipients          string    `json:"recipients"`
	PhoneNo             string    `json:"phone_no"`
}

// Counterparty returns the remote party's address for this communication.
// A room always represents a thread with the remote party, so the side
// picked depends on direction: received → sender, sent → first recipient.
// Phone-based media always key on the phone number.
func (c NewCommunication) Counterparty() string {
	if c.CommunicationMedium.UsesPhoneNumber() {
		return strings.TrimSpace(c.PhoneNo)
	}
	if c.SentOrReceived == DirectionReceived {
		return strings.TrimSpace(c.Sender)
	}
	first, _, _ := strings.Cut(c.Recipients, ",")
	return strings.TrimSpace(first)
}

// RoomID resolves the canonical room identity for this communication.
func (c NewCommunication) RoomID() (RoomID, error) {
	return NewRoomID(c.CommunicationMedium, c.Counterparty(), "", "")
}

// EventBus provides pub/sub for engine events.
type EventBus interface {
	Publish(event Event)
	Subscribe(eventTypes []EventType) <-chan Event
	Unsubscribe(ch <-chan Event)
}

// SimpleEventBus fans events out to buffered subscriber channels. Delivery
// is best effort: a subscriber that stopped draining loses events instead
// of stalling publishers.
type SimpleEventBus struct {
	mu   sync.RWMutex
	subs []busSubscriber
}

type busSubscriber struct {
	ch    chan Event
	types map[EventType]bool
}

func (s busSubscriber) wants(t EventType) bool {
	return len(s.types) == 0 || s.types[t]
}

func NewEventBus() *SimpleEventBus {
	return &SimpleEventBus{}
}

func (b *SimpleEventBus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		if !sub.wants(event.Type()) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
}

// Subscribe registers a channel receiving the given event types. An empty
// type list subscribes to everything.
func (b *SimpleEventBus) Subscribe(eventTypes []EventType) <-chan Event {
	sub := busSubscriber{
		ch:    make(chan Event, 100),
		types: make(map[EventType]bool, len(eventTypes)),
	}
	for _, t := range eventTypes {
		sub.types[t] = true
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
	return sub.ch
}

func (b *SimpleEventBus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subs {
		if sub.ch == ch {
			close(sub.ch)
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}
