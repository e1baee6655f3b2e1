// Package nav holds the per-process session context (who is logged in, which
// thread is open and how the user got there) and the screen router.
package nav

import (
	"sync"

	"github.com/matheus3301/chatline/internal/chat"
)

// Origin records which screen opened a thread.
type Origin int

const (
	FromChats Origin = iota
	FromFriends
	FromGroups
)

// Session is the in-memory active session. It is never persisted. The active
// conversation and active group are mutually exclusive.
type Session struct {
	mu              sync.RWMutex
	conversationID  int64
	groupID         int64
	cameFromFriends bool
	cameFromGroups  bool
	user            chat.User
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{}
}

// OpenConversation makes a personal conversation active and clears any group.
func (s *Session) OpenConversation(id int64, origin Origin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversationID = id
	s.groupID = 0
	s.setOrigin(origin)
}

// OpenGroup makes a group active and clears any personal conversation.
func (s *Session) OpenGroup(id int64, origin Origin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groupID = id
	s.conversationID = 0
	s.setOrigin(origin)
}

// Open dispatches on the key kind.
func (s *Session) Open(key chat.Key, origin Origin) {
	if key.Kind == chat.Group {
		s.OpenGroup(key.ID, origin)
		return
	}
	s.OpenConversation(key.ID, origin)
}

func (s *Session) setOrigin(origin Origin) {
	s.cameFromFriends = origin == FromFriends
	s.cameFromGroups = origin == FromGroups
}

// Leave clears the active thread and the provenance flags.
func (s *Session) Leave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversationID = 0
	s.groupID = 0
	s.cameFromFriends = false
	s.cameFromGroups = false
}

// Active returns the open thread, or the zero key when none is open.
func (s *Session) Active() chat.Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.groupID != 0:
		return chat.GroupKey(s.groupID)
	case s.conversationID != 0:
		return chat.ConversationKey(s.conversationID)
	}
	return chat.Key{}
}

func (s *Session) CameFromFriends() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cameFromFriends
}

func (s *Session) CameFromGroups() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cameFromGroups
}

// User returns the logged-in user loaded at boot.
func (s *Session) User() chat.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) SetUser(u chat.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
}
