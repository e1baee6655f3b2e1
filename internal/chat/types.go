package chat

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind distinguishes two-party conversations from group threads.
type Kind string

const (
	Personal Kind = "personal"
	Group    Kind = "group"
)

// Key identifies a thread. Exactly one of a conversation id or a group id,
// selected by Kind.
type Key struct {
	Kind Kind
	ID   int64
}

// ConversationKey returns the key of a personal conversation.
func ConversationKey(id int64) Key { return Key{Kind: Personal, ID: id} }

// GroupKey returns the key of a group thread.
func GroupKey(id int64) Key { return Key{Kind: Group, ID: id} }

// IsZero reports whether the key points at nothing.
func (k Key) IsZero() bool { return k.ID == 0 }

func (k Key) String() string {
	if k.IsZero() {
		return "none"
	}
	return fmt.Sprintf("%s:%d", k.Kind, k.ID)
}

// ParseKey reads the kind:id form produced by String. A bare number is a
// personal conversation.
func ParseKey(s string) (Key, error) {
	kind, id, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found {
		kind, id = string(Personal), kind
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return Key{}, fmt.Errorf("invalid thread id %q", s)
	}
	switch Kind(kind) {
	case Personal, Group:
		return Key{Kind: Kind(kind), ID: n}, nil
	}
	return Key{}, fmt.Errorf("unknown thread kind %q", kind)
}

// ConversationSummary is one entry of the chat list.
type ConversationSummary struct {
	Key                Key
	DisplayName        string
	AvatarRef          string
	LastMessagePreview string
	// LastMessageTime is zero when the thread has no messages yet.
	LastMessageTime time.Time
	IsLiked         bool
	OtherUserID     int64
}

// Message is one entry of a thread.
type Message struct {
	ID           int64
	SenderID     int64
	SenderAvatar string
	Content      string
	AudioRef     string
	// DurationSeconds is set for voice messages only.
	DurationSeconds int
	ColorTag        string
	// CreatedAt is zero while the server has not stamped the message.
	CreatedAt time.Time
}

// IsVoice reports whether the message carries audio instead of text.
func (m Message) IsVoice() bool { return m.AudioRef != "" }

// User is a profile as returned by /me and the friends endpoints.
type User struct {
	ID          int64
	Username    string
	DisplayName string
	Avatar      string
	ColorTag    string
	Points      int
}

// Name returns the display name, falling back to the username.
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// Friend is a user the current user has a conversation with.
type Friend struct {
	User
	ConversationID int64
}

// SearchHit is a user search result.
type SearchHit struct {
	User
	HasConversation bool
}

// GroupInfo is a created group.
type GroupInfo struct {
	ID   int64
	Name string
}

// DefaultAvatar is shown when a user has no avatar or it fails to load.
const DefaultAvatar = "default.png"
