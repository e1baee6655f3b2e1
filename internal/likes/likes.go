// Package likes keeps the favourite flag of conversations in sync with the
// backend.
package likes

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/bus"
	"github.com/matheus3301/chatline/internal/chat"
)

// Remote performs the like and unlike calls.
type Remote interface {
	Like(ctx context.Context, key chat.Key) error
	Unlike(ctx context.Context, key chat.Key) error
}

// Cache is the local copy of the flag. It is satisfied by *inbox.Inbox.
// MarkLiking holds an unconfirmed flag; SetLiked settles it.
type Cache interface {
	Get(key chat.Key) (chat.ConversationSummary, bool)
	MarkLiking(key chat.Key, liked bool) bool
	SetLiked(key chat.Key, liked bool) bool
}

// Changed is the payload of likes.changed events.
type Changed struct {
	Key   chat.Key
	Liked bool
}

// Syncer toggles likes optimistically. Toggles on the same key are
// serialized so a rollback never overwrites a later toggle.
type Syncer struct {
	remote Remote
	cache  Cache
	bus    *bus.Bus
	logger *zap.Logger

	mu    sync.Mutex
	locks map[chat.Key]*sync.Mutex
}

func NewSyncer(remote Remote, cache Cache, b *bus.Bus, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{
		remote: remote,
		cache:  cache,
		bus:    b,
		logger: logger,
		locks:  make(map[chat.Key]*sync.Mutex),
	}
}

// Toggle flips the liked flag of key. The cache is updated before the remote
// call and the flag is kept across refreshes until the call settles; if it
// fails the previous value is restored and the error is returned.
func (s *Syncer) Toggle(ctx context.Context, key chat.Key) (bool, error) {
	l := s.lockFor(key)
	l.Lock()
	defer l.Unlock()

	conv, ok := s.cache.Get(key)
	if !ok {
		return false, fmt.Errorf("toggle like %s: conversation not loaded", key)
	}
	was := conv.IsLiked
	now := !was
	s.cache.MarkLiking(key, now)

	var err error
	if was {
		err = s.remote.Unlike(ctx, key)
	} else {
		err = s.remote.Like(ctx, key)
	}
	if err != nil {
		s.cache.SetLiked(key, was)
		s.logger.Warn("like toggle failed, rolled back", zap.Stringer("key", key), zap.Bool("liked", was), zap.Error(err))
		return was, fmt.Errorf("toggle like %s: %w", key, err)
	}

	s.cache.SetLiked(key, now)
	s.logger.Debug("like toggled", zap.Stringer("key", key), zap.Bool("liked", now))
	s.bus.Emit(bus.KindLikeChanged, Changed{Key: key, Liked: now})
	return now, nil
}

func (s *Syncer) lockFor(key chat.Key) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}
