package domain

import (
	"fmt"
	"strings"
)

// RoomID identifies a conversation thread: one counterparty on one medium,
// optionally scoped to a linked document. The wire format is persisted in
// URLs and bookmarks, so it must stay stable:
//
//	{medium}:{identifier}
//	{medium}:{identifier}:{refDoctype}:{refName}
type RoomID struct {
	Medium           Medium
	Identifier       string
	ReferenceDoctype string
	ReferenceName    string
}

func (r RoomID) String() string {
	base := fmt.Sprintf("%s:%s", r.Medium, r.Identifier)
	if r.ReferenceDoctype != "" && r.ReferenceName != "" {
		return fmt.Sprintf("%s:%s:%s", base, r.ReferenceDoctype, r.ReferenceName)
	}
	return base
}

func (r RoomID) IsZero() bool {
	return r.Medium == "" && r.Identifier == ""
}

// NewRoomID builds a RoomID from communication details. The identifier is
// trimmed. Components containing the ':' delimiter are rejected instead of
// escaped so the persisted format never becomes ambiguous.
func NewRoomID(medium Medium, identifier, refDoctype, refName string) (RoomID, error) {
	identifier = strings.TrimSpace(identifier)
	if !medium.Valid() {
		return RoomID{}, fmt.Errorf("invalid medium: %q", medium)
	}
	if identifier == "" {
		return RoomID{}, fmt.Errorf("empty counterparty identifier")
	}
	for _, part := range []string{identifier, refDoctype, refName} {
		if strings.Contains(part, ":") {
			return RoomID{}, fmt.Errorf("room id component %q contains ':'", part)
		}
	}
	if (refDoctype == "") != (refName == "") {
		return RoomID{}, fmt.Errorf("reference doctype and name must be set together")
	}
	return RoomID{
		Medium:           medium,
		Identifier:       identifier,
		ReferenceDoctype: refDoctype,
		ReferenceName:    refName,
	}, nil
}

// ParseRoomID parses the wire format back into its components.
func ParseRoomID(s string) (RoomID, error) {
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 2:
		return NewRoomID(Medium(parts[0]), parts[1], "", "")
	case 4:
		return NewRoomID(Medium(parts[0]), parts[1], parts[2], parts[3])
	default:
		return RoomID{}, fmt.Errorf("invalid room id format: %q", s)
	}
}

func MustParseRoomID(s string) RoomID {
	id, err := ParseRoomID(s)
	if err != nil {
		panic(err)
	}
	return id
}
