package cli

import "github.com/avunu/commchat/internal/domain"

// RoomList is the display payload for room listing commands.
type RoomList struct {
	Rooms   []domain.Room
	HasMore bool
}

// MessageList is the display payload for message commands.
type MessageList struct {
	RoomID   string
	Messages []domain.Message
	HasOlder bool
}

// SendOutcome reports a successful send.
type SendOutcome struct {
	MessageID string
}
