package domain

// MessageFile is a file attachment on a message.
type MessageFile struct {
	Name      string `json:"name"`
	Type      string `json:"type,omitempty"`
	Extension string `json:"extension,omitempty"`
	URL       string `json:"url"`
	Preview   string `json:"preview,omitempty"`
	Size      int64  `json:"size,omitempty"`
	Audio     bool   `json:"audio,omitempty"`
}

// ReplyMessage is the message a communication replies to.
type ReplyMessage struct {
	ID       string        `json:"_id"`
	Content  string        `json:"content"`
	SenderID string        `json:"senderId"`
	Files    []MessageFile `json:"files,omitempty"`
}

// Message is one communication event within a room. Its ID is the name of
// the underlying communication record and doubles as the reply-reference key.
type Message struct {
	ID        string `json:"_id"`
	SenderID  string `json:"senderId"`
	IndexID   int    `json:"indexId,omitempty"`
	Content   string `json:"content"`
	Username  string `json:"username,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	Date      string `json:"date"`
	Timestamp string `json:"timestamp"`

	System      bool `json:"system,omitempty"`
	Saved       bool `json:"saved"`
	Distributed bool `json:"distributed"`
	Seen        bool `json:"seen"`
	Deleted     bool `json:"deleted,omitempty"`
	Edited      bool `json:"edited,omitempty"`
	Failure     bool `json:"failure,omitempty"`

	Files        []MessageFile `json:"files,omitempty"`
	ReplyMessage *ReplyMessage `json:"replyMessage,omitempty"`

	CommunicationName   string    `json:"communicationName"`
	CommunicationMedium Medium    `json:"communicationMedium"`
	SentOrReceived      Direction `json:"sentOrReceived"`
	Subject             string    `json:"subject,omitempty"`
	ReferenceDoctype    string    `json:"referenceDoctype,omitempty"`
	ReferenceName       string    `json:"referenceName,omitempty"`
}
