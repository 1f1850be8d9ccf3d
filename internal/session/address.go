package session

import "strings"

// MessageType is the conversation kind encoded in an address.
type MessageType string

const (
	FriendMessage  MessageType = "FriendMessage"
	GroupMessage   MessageType = "GroupMessage"
	ChannelMessage MessageType = "ChannelMessage"
	UnknownMessage MessageType = "Unknown"
)

const (
	UnknownPlatform = "unknown"

	addrSep      = ":"
	isolationSep = "_"
	chatroomTag  = "@chatroom"
)

// Address is a parsed "platform:MessageType:id" conversation address.
type Address struct {
	Platform string
	Type     MessageType
	ID       string

	// malformed keeps the raw input so String round-trips.
	malformed bool
}

// ParseAddress never fails. Input that does not look like
// "platform:type:id" yields the unknown platform and type with the raw
// string as id.
func ParseAddress(raw string) Address {
	parts := strings.SplitN(raw, addrSep, 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Address{Platform: UnknownPlatform, Type: UnknownMessage, ID: raw, malformed: true}
	}
	return Address{Platform: parts[0], Type: MessageType(parts[1]), ID: parts[2]}
}

func (a Address) String() string {
	if a.malformed {
		return a.ID
	}
	return a.Platform + addrSep + string(a.Type) + addrSep + a.ID
}

func (a Address) Valid() bool {
	return !a.malformed
}

// IsGroup reports group or channel conversations. WeChat rooms are
// recognised by their id suffix whatever type the platform reports.
func (a Address) IsGroup() bool {
	switch a.Type {
	case GroupMessage, ChannelMessage:
		return true
	}
	return strings.Contains(a.ID, chatroomTag)
}

// IsPrivate is false for WeChat rooms even when reported as FriendMessage.
func (a Address) IsPrivate() bool {
	return a.Type == FriendMessage && !a.IsGroup()
}

// WithID returns a copy of a with its trailing segment replaced.
func (a Address) WithID(id string) Address {
	a.ID = id
	return a
}

// Key identifies one schedule list: a conversation, optionally scoped to a
// single member of a group.
type Key struct {
	Address Address
	UserID  string
}

// String is the storage form: the member id is appended to the trailing
// address segment after an underscore.
func (k Key) String() string {
	if k.UserID == "" {
		return k.Address.String()
	}
	return k.Address.String() + isolationSep + k.UserID
}

func (k Key) Isolated() bool {
	return k.UserID != ""
}
