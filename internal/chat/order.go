package chat

import (
	"cmp"
	"fmt"
	"slices"
	"time"
)

// Mode selects which conversations the chat list shows.
type Mode string

const (
	ModeAll        Mode = "all"
	ModeGroups     Mode = "groups"
	ModePrivate    Mode = "private"
	ModeFavourites Mode = "favourites"
)

// Modes lists the chat list tabs in display order.
var Modes = []Mode{ModeAll, ModeGroups, ModePrivate, ModeFavourites}

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mode %q: want one of all, groups, private, favourites", s)
}

// Includes reports whether a conversation passes the mode's filter.
func (m Mode) Includes(c ConversationSummary) bool {
	switch m {
	case ModePrivate:
		return c.Key.Kind == Personal
	case ModeGroups:
		return c.Key.Kind == Group
	case ModeFavourites:
		return c.IsLiked
	default:
		return true
	}
}

// EmptyStateText is shown instead of the list when a mode filters everything out.
func EmptyStateText(m Mode) string {
	switch m {
	case ModePrivate:
		return "No private chats yet"
	case ModeGroups:
		return "No group chats yet"
	case ModeFavourites:
		return "No liked chats yet"
	default:
		return "No chats yet"
	}
}

// Order filters convs by mode and returns them most recent first. The input
// is not modified.
func Order(convs []ConversationSummary, mode Mode) []ConversationSummary {
	out := make([]ConversationSummary, 0, len(convs))
	for _, c := range convs {
		if mode.Includes(c) {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, CompareConversations)
	return out
}

// CompareConversations orders by last message time descending, then id
// descending. A missing time is older than any real one.
func CompareConversations(a, b ConversationSummary) int {
	if c := compareTimes(a.LastMessageTime, b.LastMessageTime); c != 0 {
		return -c
	}
	if c := cmp.Compare(a.Key.ID, b.Key.ID); c != 0 {
		return -c
	}
	// Same id in both kinds: keep groups and conversations apart deterministically.
	return cmp.Compare(a.Key.Kind, b.Key.Kind)
}

// SortMessages returns msgs oldest first. Server order is never trusted.
func SortMessages(msgs []Message) []Message {
	out := slices.Clone(msgs)
	slices.SortStableFunc(out, CompareMessages)
	return out
}

// CompareMessages orders by creation time ascending, then id ascending. A
// missing time sorts before any real one.
func CompareMessages(a, b Message) int {
	if c := compareTimes(a.CreatedAt, b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// compareTimes treats the zero time as the minimum possible instant.
func compareTimes(a, b time.Time) int {
	switch {
	case a.IsZero() && b.IsZero():
		return 0
	case a.IsZero():
		return -1
	case b.IsZero():
		return 1
	}
	return a.Compare(b)
}
