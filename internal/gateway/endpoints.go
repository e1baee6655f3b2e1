package gateway

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"

	"github.com/matheus3301/chatline/internal/chat"
)

// Me returns the logged-in user.
func (c *Client) Me(ctx context.Context) (chat.User, error) {
	var u userDTO
	if err := c.do(ctx, http.MethodGet, "/me", nil, &u); err != nil {
		return chat.User{}, err
	}
	return u.toUser(), nil
}

// Conversations returns personal and group threads in server order.
func (c *Client) Conversations(ctx context.Context) ([]chat.ConversationSummary, error) {
	var dtos []conversationDTO
	if err := c.do(ctx, http.MethodGet, "/conversations", nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]chat.ConversationSummary, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toSummary())
	}
	return out, nil
}

// Messages returns the messages of a conversation or group in server order.
func (c *Client) Messages(ctx context.Context, key chat.Key) ([]chat.Message, error) {
	var dtos []messageDTO
	if err := c.do(ctx, http.MethodGet, threadPath(key)+"/messages", nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]chat.Message, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toMessage())
	}
	return out, nil
}

// SendText posts a text message.
func (c *Client) SendText(ctx context.Context, key chat.Key, content string) error {
	if key.Kind == chat.Group {
		return c.do(ctx, http.MethodPost, threadPath(key)+"/messages", map[string]any{"content": content}, nil)
	}
	return c.do(ctx, http.MethodPost, "/messages", map[string]any{
		"conversation_id": key.ID,
		"content":         content,
	}, nil)
}

// SendVoice uploads a recorded clip as a data URL, the way the web client does.
func (c *Client) SendVoice(ctx context.Context, key chat.Key, audio []byte, mime string, duration int) error {
	body := map[string]any{
		"audio_data": "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(audio),
		"duration":   duration,
	}
	if key.Kind == chat.Group {
		body["group_id"] = key.ID
	} else {
		body["conversation_id"] = key.ID
	}
	return c.do(ctx, http.MethodPost, "/messages/voice", body, nil)
}

// Like marks a conversation or group as favourite.
func (c *Client) Like(ctx context.Context, key chat.Key) error {
	return c.do(ctx, http.MethodPost, threadPath(key)+"/like", nil, nil)
}

// Unlike removes a conversation or group from favourites.
func (c *Client) Unlike(ctx context.Context, key chat.Key) error {
	return c.do(ctx, http.MethodDelete, threadPath(key)+"/like", nil, nil)
}

// Friends lists the user's friends.
func (c *Client) Friends(ctx context.Context) ([]chat.Friend, error) {
	var dtos []friendDTO
	if err := c.do(ctx, http.MethodGet, "/friends", nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]chat.Friend, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, chat.Friend{User: d.toUser(), ConversationID: d.ConversationID})
	}
	return out, nil
}

// RemoveFriend drops a user from the friends list.
func (c *Client) RemoveFriend(ctx context.Context, userID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/friends/%d", userID), nil, nil)
}

// SearchUsers finds users by username.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]chat.SearchHit, error) {
	var dtos []searchHitDTO
	if err := c.do(ctx, http.MethodGet, "/search-users?q="+url.QueryEscape(query), nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]chat.SearchHit, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, chat.SearchHit{User: d.toUser(), HasConversation: d.HasConversation})
	}
	return out, nil
}

// StartConversation opens (or reuses) a conversation with a user.
func (c *Client) StartConversation(ctx context.Context, userID int64) (int64, error) {
	var resp struct {
		result
		ConversationID int64 `json:"conversation_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/start-conversation", map[string]any{"user_id": userID}, &resp); err != nil {
		return 0, err
	}
	if err := resp.err("start conversation"); err != nil {
		return 0, err
	}
	if resp.ConversationID == 0 {
		return 0, fmt.Errorf("%w: start conversation: no conversation_id", ErrMalformed)
	}
	return resp.ConversationID, nil
}

// CreateGroup creates a group with the given name.
func (c *Client) CreateGroup(ctx context.Context, name string) (chat.GroupInfo, error) {
	var resp struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	if err := c.do(ctx, http.MethodPost, "/groups", map[string]any{"name": name}, &resp); err != nil {
		return chat.GroupInfo{}, err
	}
	if resp.ID == 0 {
		return chat.GroupInfo{}, fmt.Errorf("%w: create group: no id", ErrMalformed)
	}
	return chat.GroupInfo{ID: resp.ID, Name: resp.Name}, nil
}

// Login authenticates and stores the session cookie.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var resp result
	err := c.do(ctx, http.MethodPost, "/login", map[string]any{
		"username": username,
		"password": password,
	}, &resp)
	if err != nil {
		return err
	}
	return resp.err("login")
}

// Registration holds the sign-up fields.
type Registration struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Age         int    `json:"age,omitempty"`
	Gender      string `json:"gender,omitempty"`
	Password    string `json:"password"`
	Avatar      string `json:"avatar,omitempty"`
}

// Register creates an account and logs it in.
func (c *Client) Register(ctx context.Context, r Registration) error {
	var resp result
	if err := c.do(ctx, http.MethodPost, "/register", r, &resp); err != nil {
		return err
	}
	return resp.err("register")
}

// ResolveAvatar checks that an avatar image is served. Any error means the
// caller should fall back to the default avatar.
func (c *Client) ResolveAvatar(ctx context.Context, ref string) error {
	return c.do(ctx, http.MethodHead, "/static/avatars/"+url.PathEscape(ref), nil, nil)
}

// ProfileURL links to a user's profile page on the web client.
func (c *Client) ProfileURL(userID int64) string {
	return fmt.Sprintf("%s/app#profile/%d", c.BaseURL(), userID)
}

func threadPath(key chat.Key) string {
	if key.Kind == chat.Group {
		return fmt.Sprintf("/groups/%d", key.ID)
	}
	return fmt.Sprintf("/conversations/%d", key.ID)
}
