package gateway

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/matheus3301/chatline/internal/chat"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// timestamp decodes the backend's ISO-8601 strings. null, empty and
// unparseable values all decode to the zero time.
type timestamp struct {
	time.Time
}

func (t *timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// Not a string (null or a number): treat as absent.
		t.Time = time.Time{}
		return nil
	}
	t.Time = parseTime(s)
	return nil
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			return v
		}
	}
	return time.Time{}
}

type conversationDTO struct {
	ConversationID     int64     `json:"conversation_id"`
	GroupID            int64     `json:"group_id"`
	IsGroup            bool      `json:"is_group"`
	OtherUserID        int64     `json:"other_user_id"`
	OtherUsername      string    `json:"other_username"`
	OtherDisplayName   string    `json:"other_display_name"`
	OtherAvatar        string    `json:"other_avatar"`
	Name               string    `json:"name"`
	Avatar             string    `json:"avatar"`
	LastMessageTime    timestamp `json:"last_message_time"`
	LastMessageContent *string   `json:"last_message_content"`
	IsLiked            bool      `json:"is_liked"`
}

func (d conversationDTO) toSummary() chat.ConversationSummary {
	s := chat.ConversationSummary{
		LastMessageTime: d.LastMessageTime.Time,
		IsLiked:         d.IsLiked,
	}
	if d.LastMessageContent != nil {
		s.LastMessagePreview = *d.LastMessageContent
	}
	if d.IsGroup {
		id := d.GroupID
		if id == 0 {
			id = d.ConversationID
		}
		s.Key = chat.GroupKey(id)
		s.DisplayName = firstNonEmpty(d.Name, d.OtherDisplayName, "Group")
		s.AvatarRef = chat.GroupAvatar(id, firstNonEmpty(d.Avatar, d.OtherAvatar))
		return s
	}
	s.Key = chat.ConversationKey(d.ConversationID)
	s.DisplayName = firstNonEmpty(d.OtherDisplayName, d.OtherUsername)
	s.AvatarRef = firstNonEmpty(d.OtherAvatar, chat.DefaultAvatar)
	s.OtherUserID = d.OtherUserID
	return s
}

type messageDTO struct {
	ID           int64     `json:"id"`
	SenderID     int64     `json:"sender_id"`
	Content      string    `json:"content"`
	CreatedAt    timestamp `json:"created_at"`
	Timestamp    timestamp `json:"timestamp"`
	SenderAvatar string    `json:"sender_avatar"`
	MessageColor string    `json:"message_color"`
	AudioURL     string    `json:"audio_url"`
	Duration     int       `json:"duration"`
}

func (d messageDTO) toMessage() chat.Message {
	created := d.CreatedAt.Time
	if created.IsZero() {
		created = d.Timestamp.Time
	}
	return chat.Message{
		ID:              d.ID,
		SenderID:        d.SenderID,
		SenderAvatar:    d.SenderAvatar,
		Content:         d.Content,
		AudioRef:        d.AudioURL,
		DurationSeconds: d.Duration,
		ColorTag:        d.MessageColor,
		CreatedAt:       created,
	}
}

type userDTO struct {
	ID           int64  `json:"id"`
	UserID       int64  `json:"user_id"`
	FriendID     int64  `json:"friend_id"`
	Username     string `json:"username"`
	DisplayName  string `json:"display_name"`
	Avatar       string `json:"avatar"`
	AvatarKey    string `json:"avatar_key"`
	MessageColor string `json:"message_color"`
	Points       int    `json:"points"`
}

func (d userDTO) toUser() chat.User {
	id := d.ID
	if id == 0 {
		id = d.UserID
	}
	if id == 0 {
		id = d.FriendID
	}
	return chat.User{
		ID:          id,
		Username:    d.Username,
		DisplayName: d.DisplayName,
		Avatar:      firstNonEmpty(d.Avatar, d.AvatarKey),
		ColorTag:    d.MessageColor,
		Points:      d.Points,
	}
}

type friendDTO struct {
	userDTO
	ConversationID int64 `json:"conversation_id"`
}

type searchHitDTO struct {
	userDTO
	HasConversation bool `json:"has_conversation"`
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
