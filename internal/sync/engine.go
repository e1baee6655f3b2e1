// Package sync mirrors what the client renders into the local cache so the
// next start can paint immediately.
package sync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/bus"
	"github.com/matheus3301/chatline/internal/chat"
	"github.com/matheus3301/chatline/internal/store"
	"github.com/matheus3301/chatline/internal/thread"
)

// Snapshotter exposes the full conversation cache. It is satisfied by
// *inbox.Inbox.
type Snapshotter interface {
	Snapshot() []chat.ConversationSummary
}

// Seeder receives the cached list at boot.
type Seeder interface {
	Seed(convs []chat.ConversationSummary)
}

// Engine persists inbox and thread snapshots. It subscribes to "inbox." and
// "thread." events on the bus.
type Engine struct {
	db     *store.DB
	bus    *bus.Bus
	inbox  Snapshotter
	logger *zap.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

// NewEngine creates a new snapshot engine.
func NewEngine(db *store.DB, b *bus.Bus, inbox Snapshotter, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{db: db, bus: b, inbox: inbox, logger: logger}
}

// Restore seeds the inbox with the last persisted list.
func (e *Engine) Restore(s Seeder) error {
	convs, err := e.db.ListConversations()
	if err != nil {
		return fmt.Errorf("restore conversations: %w", err)
	}
	if len(convs) > 0 {
		s.Seed(convs)
		e.logger.Info("painted cached conversations", zap.Int("count", len(convs)))
	}
	return nil
}

// Start subscribes to render events on the bus.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	e.done = make(chan struct{})
	inboxCh, unsubInbox := e.bus.Subscribe("inbox.", 64)
	threadCh, unsubThread := e.bus.Subscribe("thread.", 64)

	go func() {
		defer close(e.done)
		defer unsubInbox()
		defer unsubThread()
		for {
			select {
			case evt := <-inboxCh:
				e.handleEvent(evt)
			case evt := <-threadCh:
				e.handleEvent(evt)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the engine.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
		<-e.done
	}
}

func (e *Engine) handleEvent(evt bus.Event) {
	switch evt.Kind {
	case bus.KindInboxUpdated:
		if err := e.SaveConversations(); err != nil {
			e.logger.Error("failed to persist conversations", zap.Error(err))
		}
	case bus.KindThreadRendered:
		r, ok := evt.Payload.(thread.Rendered)
		if !ok {
			return
		}
		if err := e.db.ReplaceThread(r.Key, r.Messages); err != nil {
			e.logger.Error("failed to persist thread", zap.Error(err), zap.Stringer("key", r.Key))
		}
	}
}

// SaveConversations writes the inbox cache. An empty cache is not written so
// a failed first refresh cannot wipe the snapshot.
func (e *Engine) SaveConversations() error {
	convs := e.inbox.Snapshot()
	if len(convs) == 0 {
		return nil
	}
	return e.db.ReplaceConversations(convs)
}
