// Package model holds screen state that outlives a single render: the
// friends list and the debounced user search.
package model

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/chat"
)

// SearchDebounce is the pause after the last keystroke before searching.
const SearchDebounce = 300 * time.Millisecond

// FriendsSource is the part of the gateway the friends screen uses.
type FriendsSource interface {
	Friends(ctx context.Context) ([]chat.Friend, error)
	RemoveFriend(ctx context.Context, userID int64) error
	SearchUsers(ctx context.Context, query string) ([]chat.SearchHit, error)
}

// Friends caches the friends list and the latest search results. Results of
// a search that was superseded by a newer query are dropped.
type Friends struct {
	src      FriendsSource
	debounce time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	friends  []chat.Friend
	query    string
	hits     []chat.SearchHit
	gen      uint64
	timer    *time.Timer
	onChange func()
	onError  func(error)
}

func NewFriends(src FriendsSource, logger *zap.Logger) *Friends {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Friends{src: src, debounce: SearchDebounce, logger: logger}
}

// SetCallbacks registers the redraw and error callbacks. Both run on the
// goroutine that produced the change.
func (f *Friends) SetCallbacks(onChange func(), onError func(error)) {
	f.mu.Lock()
	f.onChange, f.onError = onChange, onError
	f.mu.Unlock()
}

// Load fetches the friends list.
func (f *Friends) Load(ctx context.Context) error {
	friends, err := f.src.Friends(ctx)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.friends = friends
	fn := f.onChange
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
	return nil
}

// Remove drops a friend remotely, then reloads the list.
func (f *Friends) Remove(ctx context.Context, userID int64) error {
	if err := f.src.RemoveFriend(ctx, userID); err != nil {
		return err
	}
	return f.Load(ctx)
}

// Query schedules a search for q after the debounce. An empty query clears
// the results at once.
func (f *Friends) Query(ctx context.Context, q string) {
	q = strings.TrimSpace(q)
	f.mu.Lock()
	f.gen++
	gen := f.gen
	f.query = q
	if f.timer != nil {
		f.timer.Stop()
	}
	if q == "" {
		f.hits = nil
		fn := f.onChange
		f.mu.Unlock()
		if fn != nil {
			fn()
		}
		return
	}
	f.timer = time.AfterFunc(f.debounce, func() { f.search(ctx, gen, q) })
	f.mu.Unlock()
}

func (f *Friends) search(ctx context.Context, gen uint64, q string) {
	hits, err := f.src.SearchUsers(ctx, q)
	f.mu.Lock()
	if gen != f.gen {
		f.mu.Unlock()
		f.logger.Debug("dropping stale search", zap.String("query", q))
		return
	}
	onChange, onError := f.onChange, f.onError
	if err == nil {
		f.hits = hits
	}
	f.mu.Unlock()

	if err != nil {
		f.logger.Warn("user search failed", zap.String("query", q), zap.Error(err))
		if onError != nil {
			onError(err)
		}
		return
	}
	if onChange != nil {
		onChange()
	}
}

// List returns the cached friends list.
func (f *Friends) List() []chat.Friend {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]chat.Friend(nil), f.friends...)
}

// Hits returns the results of the current query.
func (f *Friends) Hits() (string, []chat.SearchHit) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.query, append([]chat.SearchHit(nil), f.hits...)
}

// Close stops a pending search.
func (f *Friends) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	if f.timer != nil {
		f.timer.Stop()
	}
}
