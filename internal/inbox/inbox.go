// Package inbox owns the shared conversation cache behind the chat list.
package inbox

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/bus"
	"github.com/matheus3301/chatline/internal/chat"
)

// Source fetches the conversation list.
type Source interface {
	Conversations(ctx context.Context) ([]chat.ConversationSummary, error)
}

// View is what the chat list renders: the ordered entries of one mode.
type View struct {
	Mode  chat.Mode
	Items []chat.ConversationSummary
	// Empty is the mode's empty-state text, set only when Items is empty.
	Empty string
}

// Inbox caches the last fetched conversations and the selected mode. Every
// change is published as an inbox.updated event carrying a View.
type Inbox struct {
	src    Source
	bus    *bus.Bus
	logger *zap.Logger

	mu     sync.Mutex
	cache  []chat.ConversationSummary
	mode   chat.Mode
	gen    uint64
	loaded bool
	// pending holds like flags whose remote call has not settled. Refresh
	// results are overlaid with them.
	pending map[chat.Key]bool
}

// New creates an inbox in "all" mode with an empty cache.
func New(src Source, b *bus.Bus, logger *zap.Logger) *Inbox {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inbox{src: src, bus: b, logger: logger, mode: chat.ModeAll, pending: make(map[chat.Key]bool)}
}

// Refresh refetches the list and replaces the cache. A refresh that finishes
// after a newer one or a like mutation was started is discarded, including
// its error.
func (in *Inbox) Refresh(ctx context.Context) error {
	in.mu.Lock()
	in.gen++
	gen := in.gen
	in.mu.Unlock()

	convs, err := in.src.Conversations(ctx)

	in.mu.Lock()
	if gen != in.gen {
		in.mu.Unlock()
		in.logger.Debug("discarding stale conversation refresh", zap.Uint64("gen", gen))
		return nil
	}
	if err != nil {
		in.mu.Unlock()
		return fmt.Errorf("refresh conversations: %w", err)
	}
	in.cache = slices.Clone(convs)
	for i := range in.cache {
		if liked, ok := in.pending[in.cache[i].Key]; ok {
			in.cache[i].IsLiked = liked
		}
	}
	in.loaded = true
	view := in.viewLocked()
	in.mu.Unlock()

	in.logger.Debug("conversations refreshed", zap.Int("count", len(convs)))
	in.publish(view)
	return nil
}

// Seed paints a last-known snapshot. It is ignored once a live refresh has
// landed.
func (in *Inbox) Seed(convs []chat.ConversationSummary) {
	in.mu.Lock()
	if in.loaded {
		in.mu.Unlock()
		return
	}
	in.cache = slices.Clone(convs)
	view := in.viewLocked()
	in.mu.Unlock()
	in.publish(view)
}

// SetMode switches the filter. The cache is re-filtered, never refetched.
func (in *Inbox) SetMode(mode chat.Mode) View {
	in.mu.Lock()
	in.mode = mode
	view := in.viewLocked()
	in.mu.Unlock()
	in.publish(view)
	return view
}

// Mode returns the current filter.
func (in *Inbox) Mode() chat.Mode {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.mode
}

// MarkLiking writes an optimistic liked flag while the remote call is in
// flight. The flag survives refreshes until SetLiked settles it. It reports
// false when the key is not cached.
func (in *Inbox) MarkLiking(key chat.Key, liked bool) bool {
	return in.writeLiked(key, liked, true)
}

// SetLiked writes a settled liked flag into the cache and re-publishes. It
// reports false when the key is not cached.
func (in *Inbox) SetLiked(key chat.Key, liked bool) bool {
	return in.writeLiked(key, liked, false)
}

// writeLiked updates the flag and invalidates every refresh already in
// flight, since those were fetched before this mutation.
func (in *Inbox) writeLiked(key chat.Key, liked, pending bool) bool {
	in.mu.Lock()
	if pending {
		in.pending[key] = liked
	} else {
		delete(in.pending, key)
	}
	i := in.indexLocked(key)
	if i < 0 {
		in.mu.Unlock()
		return false
	}
	in.gen++
	in.cache[i].IsLiked = liked
	view := in.viewLocked()
	in.mu.Unlock()
	in.publish(view)
	return true
}

// Get returns the cached entry for a key.
func (in *Inbox) Get(key chat.Key) (chat.ConversationSummary, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if i := in.indexLocked(key); i >= 0 {
		return in.cache[i], true
	}
	return chat.ConversationSummary{}, false
}

// View returns the current ordered view without publishing.
func (in *Inbox) View() View {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.viewLocked()
}

// Snapshot returns a copy of the whole cache, unfiltered.
func (in *Inbox) Snapshot() []chat.ConversationSummary {
	in.mu.Lock()
	defer in.mu.Unlock()
	return slices.Clone(in.cache)
}

func (in *Inbox) indexLocked(key chat.Key) int {
	return slices.IndexFunc(in.cache, func(c chat.ConversationSummary) bool { return c.Key == key })
}

func (in *Inbox) viewLocked() View {
	v := View{Mode: in.mode, Items: chat.Order(in.cache, in.mode)}
	if len(v.Items) == 0 {
		v.Empty = chat.EmptyStateText(in.mode)
	}
	return v
}

func (in *Inbox) publish(v View) {
	in.bus.Emit(bus.KindInboxUpdated, v)
}
