package session

import "strings"

// Resolver maps conversation addresses to schedule keys and back.
type Resolver struct {
	// Isolation scopes group schedules to the member who created them.
	Isolation bool
}

func NewResolver(isolation bool) *Resolver {
	return &Resolver{Isolation: isolation}
}

// KeyFor builds the structured key for a message from userID in raw.
// Private chats and malformed addresses are never isolated.
func (r *Resolver) KeyFor(raw, userID string) Key {
	addr := ParseAddress(raw)
	if r == nil || !r.Isolation || userID == "" || !addr.Valid() || !addr.IsGroup() {
		return Key{Address: addr}
	}
	return Key{Address: addr, UserID: userID}
}

// Isolate returns the storage key string for (raw, creatorID).
func (r *Resolver) Isolate(raw, creatorID string) string {
	return r.KeyFor(raw, creatorID).String()
}

// ParseKey inverts Key.String when the member id is known. The suffix is
// only removed from group addresses that actually end with it.
func ParseKey(stored, creatorID string) Key {
	addr := ParseAddress(stored)
	if creatorID == "" || !addr.Valid() || !addr.IsGroup() {
		return Key{Address: addr}
	}
	suffix := isolationSep + creatorID
	if !strings.HasSuffix(addr.ID, suffix) || len(addr.ID) == len(suffix) {
		return Key{Address: addr}
	}
	return Key{Address: addr.WithID(strings.TrimSuffix(addr.ID, suffix)), UserID: creatorID}
}

// NormalizeFor returns the delivery address for a stored key whose items
// were created by creatorID.
func NormalizeFor(stored, creatorID string) string {
	return ParseKey(stored, creatorID).Address.String()
}

// Normalize returns the delivery address for a stored key. Keys are only
// unwrapped while isolation is on; with it off a trailing "_<creatorID>"
// belongs to the conversation id.
func (r *Resolver) Normalize(stored, creatorID string) string {
	if r == nil || !r.Isolation {
		return stored
	}
	return NormalizeFor(stored, creatorID)
}
