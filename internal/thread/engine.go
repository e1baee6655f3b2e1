// Package thread loads, orders and renders the messages of the open
// conversation and sends new ones.
package thread

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/bus"
	"github.com/matheus3301/chatline/internal/chat"
	"github.com/matheus3301/chatline/internal/nav"
	"github.com/matheus3301/chatline/internal/voice"
)

// Remote is the part of the gateway the engine uses.
type Remote interface {
	Messages(ctx context.Context, key chat.Key) ([]chat.Message, error)
	SendText(ctx context.Context, key chat.Key, content string) error
	SendVoice(ctx context.Context, key chat.Key, audio []byte, mime string, duration int) error
}

// View displays rows. Render replaces the whole content.
type View interface {
	Scroller
	Render(key chat.Key, rows []Row)
}

// Refresher reloads the conversation list.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Navigator switches screens.
type Navigator interface {
	Go(to nav.Route, param int64)
}

// Rendered is the payload of thread.rendered events. Messages are in
// display order.
type Rendered struct {
	Key      chat.Key
	Messages []chat.Message
}

// Config holds the engine's collaborators.
type Config struct {
	Remote    Remote
	Session   *nav.Session
	View      View
	Avatars   *AvatarResolver
	Inbox     Refresher
	Navigator Navigator
	// PreferredColor is the stored bubble color preference.
	PreferredColor string
	Bus            *bus.Bus
	Logger         *zap.Logger
}

// Engine renders the active thread. Loads are numbered; a load that
// completes after a newer one started is dropped.
type Engine struct {
	remote    Remote
	session   *nav.Session
	view      View
	follower  *Follower
	avatars   *AvatarResolver
	inbox     Refresher
	navigator Navigator
	preferred string
	bus       *bus.Bus
	logger    *zap.Logger

	mu   sync.Mutex
	gen  uint64
	key  chat.Key
	rows []Row

	pending sync.WaitGroup
}

func NewEngine(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		remote:    cfg.Remote,
		session:   cfg.Session,
		view:      cfg.View,
		follower:  NewFollower(cfg.View),
		avatars:   cfg.Avatars,
		inbox:     cfg.Inbox,
		navigator: cfg.Navigator,
		preferred: cfg.PreferredColor,
		bus:       cfg.Bus,
		logger:    logger,
	}
}

// LoadAndRender fetches the active thread, orders it and renders it pinned to
// the newest message. Without an active thread it does nothing.
func (e *Engine) LoadAndRender(ctx context.Context) error {
	key := e.session.Active()
	if key.IsZero() {
		return nil
	}

	e.mu.Lock()
	e.gen++
	gen := e.gen
	e.mu.Unlock()

	msgs, err := e.remote.Messages(ctx, key)

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen || e.session.Active() != key {
		e.logger.Debug("discarding stale thread load", zap.Stringer("key", key), zap.Uint64("gen", gen))
		return nil
	}
	if err != nil {
		e.bus.Emit(bus.KindThreadFailed, key)
		return fmt.Errorf("load messages %s: %w", key, err)
	}

	user := e.session.User()
	st := Style{UserID: user.ID, SessionColor: user.ColorTag, Preferred: e.preferred}
	var cached func(string) (string, bool)
	if e.avatars != nil {
		cached = e.avatars.Cached
	}
	sorted := chat.SortMessages(msgs)
	e.rows = BuildRows(sorted, st, cached)
	e.key = key
	e.view.Render(key, e.rows)
	e.follower.Pin()
	e.bus.Emit(bus.KindThreadRendered, Rendered{Key: key, Messages: sorted})

	e.resolveAvatarsLocked(ctx, gen)
	return nil
}

// resolveAvatarsLocked probes every pending avatar once. Each answer updates
// the rows of the same load, re-renders and lets the follower re-pin.
func (e *Engine) resolveAvatarsLocked(ctx context.Context, gen uint64) {
	if e.avatars == nil {
		return
	}
	seen := make(map[string]bool)
	for _, r := range e.rows {
		if !r.AvatarPending || seen[r.Avatar] {
			continue
		}
		seen[r.Avatar] = true
		ref := r.Avatar
		e.pending.Add(1)
		go func() {
			defer e.pending.Done()
			resolved := e.avatars.Resolve(context.WithoutCancel(ctx), ref)
			e.applyAvatar(gen, ref, resolved)
		}()
	}
}

func (e *Engine) applyAvatar(gen uint64, ref, resolved string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		return
	}
	rows := make([]Row, len(e.rows))
	copy(rows, e.rows)
	for i := range rows {
		if rows[i].AvatarPending && rows[i].Avatar == ref {
			rows[i].Avatar = resolved
			rows[i].AvatarPending = false
		}
	}
	e.rows = rows
	e.view.Render(e.key, rows)
	e.follower.Notify()
}

// Rows returns the rows of the last render.
func (e *Engine) Rows() []Row {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Row, len(e.rows))
	copy(out, e.rows)
	return out
}

// Send submits a text message to the active thread and reloads it. Blank
// content or no active thread is a silent no-op.
func (e *Engine) Send(ctx context.Context, content string) error {
	content = strings.TrimSpace(content)
	key := e.session.Active()
	if content == "" || key.IsZero() {
		return nil
	}
	err := e.remote.SendText(ctx, key, content)
	if err != nil {
		err = fmt.Errorf("send message %s: %w", key, err)
	}
	return e.afterSend(ctx, err)
}

// SendVoice submits a clip to the active thread.
func (e *Engine) SendVoice(ctx context.Context, clip voice.Clip) error {
	key := e.session.Active()
	if key.IsZero() {
		return nil
	}
	return e.Deliver(ctx, key, clip)
}

// Deliver submits a clip to key. The thread is reloaded only if key is still
// the active one.
func (e *Engine) Deliver(ctx context.Context, key chat.Key, clip voice.Clip) error {
	if key.IsZero() || len(clip.Data) == 0 {
		return nil
	}
	err := e.remote.SendVoice(ctx, key, clip.Data, clip.MIME, clip.Duration)
	if err != nil {
		err = fmt.Errorf("send voice %s: %w", key, err)
	}
	if e.session.Active() != key {
		return err
	}
	return e.afterSend(ctx, err)
}

// afterSend reloads the thread and returns only the send outcome. A failed
// reload is logged and surfaces as thread.failed, never as a send error.
func (e *Engine) afterSend(ctx context.Context, sendErr error) error {
	if err := e.LoadAndRender(ctx); err != nil {
		e.logger.Warn("reload after send failed", zap.Error(err))
	}
	if e.session.CameFromFriends() && e.inbox != nil {
		e.pending.Add(1)
		go func() {
			defer e.pending.Done()
			if err := e.inbox.Refresh(context.WithoutCancel(ctx)); err != nil {
				e.logger.Warn("background conversation refresh failed", zap.Error(err))
			}
		}()
	}
	return sendErr
}

// OpenSender shows the profile of a row's sender.
func (e *Engine) OpenSender(row Row) {
	if row.SenderID == 0 || e.navigator == nil {
		return
	}
	e.navigator.Go(nav.RouteProfile, row.SenderID)
}

// Unpin releases the bottom pin once the user scrolls back. The next load
// pins again.
func (e *Engine) Unpin() {
	e.follower.Close()
}

// Detach stops scroll following, used when the thread screen is left.
func (e *Engine) Detach() {
	e.mu.Lock()
	e.gen++
	e.key = chat.Key{}
	e.rows = nil
	e.mu.Unlock()
	e.follower.Close()
}

// Wait blocks until background avatar probes and list refreshes finish.
func (e *Engine) Wait() {
	e.pending.Wait()
}
