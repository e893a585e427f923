package domain

// UserStatus is a participant's presence indicator.
type UserStatus struct {
	State       string `json:"state"`
	LastChanged string `json:"lastChanged"`
}

// RoomUser is one participant in a room: the current user or the remote
// counterparty.
type RoomUser struct {
	ID       string     `json:"_id"`
	Username string     `json:"username"`
	Avatar   string     `json:"avatar"`
	Status   UserStatus `json:"status"`
}

// LastMessage summarizes the most recent communication in a room.
type LastMessage struct {
	Content     string        `json:"content"`
	SenderID    string        `json:"senderId"`
	Username    string        `json:"username,omitempty"`
	Timestamp   string        `json:"timestamp"`
	Saved       bool          `json:"saved,omitempty"`
	Distributed bool          `json:"distributed,omitempty"`
	Seen        bool          `json:"seen"`
	New         bool          `json:"new"`
	Files       []MessageFile `json:"files,omitempty"`
}

// Room is a conversation thread grouping communications with one
// counterparty over one medium.
type Room struct {
	RoomID      string       `json:"roomId"`
	RoomName    string       `json:"roomName"`
	Avatar      string       `json:"avatar"`
	Users       []RoomUser   `json:"users"`
	UnreadCount int          `json:"unreadCount"`
	Index       string       `json:"index,omitempty"`
	LastMessage *LastMessage `json:"lastMessage"`
	TypingUsers []string     `json:"typingUsers,omitempty"`

	CommunicationMedium Medium `json:"communicationMedium"`
	ContactName         string `json:"contactName,omitempty"`
	PhoneNo             string `json:"phoneNo,omitempty"`
	EmailID             string `json:"emailId,omitempty"`
	ReferenceDoctype    string `json:"referenceDoctype,omitempty"`
	ReferenceName       string `json:"referenceName,omitempty"`
	HasUnreplied        bool   `json:"hasUnreplied,omitempty"`
}

// CurrentUser is the logged-in ERP user on whose behalf the session runs.
type CurrentUser struct {
	ID       string     `json:"_id"`
	Username string     `json:"username"`
	Avatar   string     `json:"avatar"`
	Email    string     `json:"email"`
	FullName string     `json:"fullName"`
	Status   UserStatus `json:"status"`
}
