package tui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/matheus3301/chatline/internal/app"
	"github.com/matheus3301/chatline/internal/chat"
	"github.com/matheus3301/chatline/internal/config"
	"github.com/matheus3301/chatline/internal/nav"
	"github.com/matheus3301/chatline/internal/session"
	"github.com/matheus3301/chatline/internal/tui/ui"
)

type backend struct {
	mu    sync.Mutex
	liked bool
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case r.URL.Path == "/me":
		_, _ = w.Write([]byte(`{"id": 7, "username": "ana"}`))
	case r.URL.Path == "/conversations":
		liked := "false"
		if b.liked {
			liked = "true"
		}
		_, _ = w.Write([]byte(`[{"conversation_id": 1, "other_user_id": 2, "other_username": "bob", "last_message_time": "2024-01-01T00:00:00", "last_message_content": "yo", "is_liked": ` + liked + `}]`))
	case r.URL.Path == "/conversations/1/messages":
		_, _ = w.Write([]byte(`[{"id": 2, "sender_id": 7, "content": "hi bob", "created_at": "2024-01-01T00:00:01"}, {"id": 1, "sender_id": 2, "content": "yo", "created_at": "2024-01-01T00:00:00"}]`))
	case r.URL.Path == "/conversations/1/like":
		b.liked = r.Method == http.MethodPost
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	t.Setenv(session.HomeEnv, t.TempDir())
	srv := httptest.NewServer(&backend{})
	t.Cleanup(srv.Close)

	var a *App
	fxApp := fxtest.New(t,
		app.Module(app.Params{
			SessionName: "test",
			Binary:      "chatline",
			ServerURL:   srv.URL,
			Config:      config.Default(),
		}),
		Module(),
		fx.Decorate(func(lc fx.Lifecycle, _ *ui.Dispatcher) *ui.Dispatcher {
			d := ui.NewDispatcher(func(op func()) { op() })
			lc.Append(fx.StartStopHook(d.Start, d.Stop))
			return d
		}),
		fx.Populate(&a),
	)
	fxApp.RequireStart()
	t.Cleanup(func() {
		a.cancel()
		fxApp.RequireStop()
	})
	a.listen()
	return a
}

// onUI runs fn on the dispatcher goroutine and waits for it.
func onUI(t *testing.T, a *App, fn func()) {
	t.Helper()
	done := make(chan struct{})
	a.d.Dispatch.Post(func() {
		fn()
		close(done)
	})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("UI op did not run")
	}
}

// eventually polls cond on the UI goroutine.
func eventually(t *testing.T, a *App, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		var ok bool
		onUI(t, a, func() { ok = cond() })
		if ok {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestBootOpenThreadAndBack(t *testing.T) {
	a := newTestApp(t)
	if err := a.d.Booter.Boot(context.Background()); err != nil {
		t.Fatalf("Boot: %v", err)
	}

	eventually(t, a, "chat list", func() bool {
		c, ok := a.chats.Selected()
		return ok && c.DisplayName == "bob"
	})

	onUI(t, a, a.openSelectedChat)
	eventually(t, a, "thread render", func() bool {
		return a.d.Thread.ContentHeight() == 6
	})
	if route, _ := a.d.Router.Current(); route != nav.RouteThread {
		t.Errorf("route = %s, want thread", route)
	}
	if got := a.d.Session.Active(); got != chat.ConversationKey(1) {
		t.Errorf("active = %v", got)
	}
	eventually(t, a, "incoming first message", func() bool {
		if a.d.Thread.Messages().GetRowCount() != 6 {
			return false
		}
		a.d.Thread.Messages().Select(1, 0)
		row, ok := a.d.Thread.SelectedRow()
		return ok && row.MessageID == 1 && !row.Outgoing
	})

	onUI(t, a, a.back)
	eventually(t, a, "back to chats", func() bool {
		front, _ := a.pages.GetFrontPage()
		return front == string(nav.RouteChats)
	})
	if !a.d.Session.Active().IsZero() {
		t.Error("thread still active after back")
	}
}

func TestToggleLikeFromList(t *testing.T) {
	a := newTestApp(t)
	if err := a.d.Booter.Boot(context.Background()); err != nil {
		t.Fatalf("Boot: %v", err)
	}
	eventually(t, a, "chat list", func() bool {
		_, ok := a.chats.Selected()
		return ok
	})

	onUI(t, a, a.toggleLike)
	eventually(t, a, "heart", func() bool {
		c, ok := a.chats.Selected()
		return ok && c.IsLiked
	})

	onUI(t, a, func() { a.setMode(chat.ModeFavourites) })
	eventually(t, a, "favourites tab", func() bool {
		return strings.Contains(a.chats.GetTitle(), "FAVOURITES")
	})
}

func TestCommandValidation(t *testing.T) {
	a := newTestApp(t)
	onUI(t, a, func() { a.runCommand(ParseCommand("mode nope")) })
	if msg := a.flash.Current(); msg == nil || msg.Level != ui.FlashWarn {
		t.Errorf("flash = %+v, want warning", msg)
	}
	onUI(t, a, func() { a.runCommand(ParseCommand("group   ")) })
	if msg := a.flash.Current(); msg == nil || !strings.Contains(msg.Text, "empty") {
		t.Errorf("flash = %+v, want empty name warning", msg)
	}
}
