package app

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/bus"
	"github.com/matheus3301/chatline/internal/chat"
	"github.com/matheus3301/chatline/internal/config"
	"github.com/matheus3301/chatline/internal/gateway"
	"github.com/matheus3301/chatline/internal/inbox"
	"github.com/matheus3301/chatline/internal/nav"
	"github.com/matheus3301/chatline/internal/status"
)

type fakeAuth struct {
	loggedIn bool
	password string
	meErr    error
	logins   int
}

func (f *fakeAuth) Me(ctx context.Context) (chat.User, error) {
	if f.meErr != nil {
		return chat.User{}, f.meErr
	}
	if !f.loggedIn {
		return chat.User{}, &gateway.StatusError{Method: "GET", Path: "/me", Code: http.StatusUnauthorized}
	}
	return chat.User{ID: 7, Username: "ana"}, nil
}

func (f *fakeAuth) Login(ctx context.Context, username, password string) error {
	f.logins++
	if password != f.password {
		return errors.New("login: Invalid credentials")
	}
	f.loggedIn = true
	return nil
}

type emptySource struct{ calls int }

func (s *emptySource) Conversations(ctx context.Context) ([]chat.ConversationSummary, error) {
	s.calls++
	return nil, nil
}

type harness struct {
	booter  *Booter
	machine *status.Machine
	session *nav.Session
	router  *nav.Router
	source  *emptySource
}

func newHarness(t *testing.T, auth Authenticator, cfg *config.Config) harness {
	t.Helper()
	b := bus.New()
	m := status.NewMachine(b)
	s := nav.NewSession()
	r := nav.NewRouter(s, b)
	src := &emptySource{}
	in := inbox.New(src, b, nil)
	return harness{
		booter:  newBooter(auth, cfg, m, s, r, in, zap.NewNop()),
		machine: m,
		session: s,
		router:  r,
		source:  src,
	}
}

func TestBootWithExistingSession(t *testing.T) {
	h := newHarness(t, &fakeAuth{loggedIn: true}, config.Default())
	if err := h.booter.Boot(context.Background()); err != nil {
		t.Fatalf("Boot: %v", err)
	}
	if h.machine.Current() != status.Ready {
		t.Errorf("state = %s, want READY", h.machine.Current())
	}
	if h.session.User().ID != 7 {
		t.Errorf("user = %+v", h.session.User())
	}
	if h.source.calls != 1 {
		t.Errorf("inbox loads = %d, want 1", h.source.calls)
	}
}

func TestBootWithoutCredentialsRequiresLogin(t *testing.T) {
	t.Setenv(config.PasswordEnv, "")
	h := newHarness(t, &fakeAuth{}, config.Default())

	err := h.booter.Boot(context.Background())
	if !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("Boot err = %v, want ErrNoCredentials", err)
	}
	if h.machine.Current() != status.AuthRequired {
		t.Errorf("state = %s, want AUTH_REQUIRED", h.machine.Current())
	}
	if route, _ := h.router.Current(); route != nav.RouteLogin {
		t.Errorf("route = %s, want login", route)
	}
}

func TestBootLogsInWithConfiguredCredentials(t *testing.T) {
	t.Setenv(config.PasswordEnv, "secret")
	cfg := config.Default()
	cfg.Username = "ana"
	auth := &fakeAuth{password: "secret"}
	h := newHarness(t, auth, cfg)

	if err := h.booter.Boot(context.Background()); err != nil {
		t.Fatalf("Boot: %v", err)
	}
	if auth.logins != 1 {
		t.Errorf("logins = %d, want 1", auth.logins)
	}
	if h.machine.Current() != status.Ready {
		t.Errorf("state = %s, want READY", h.machine.Current())
	}
	if route, _ := h.router.Current(); route != nav.RouteChats {
		t.Errorf("route = %s, want chats", route)
	}
}

func TestLoginRejectedStaysOnLogin(t *testing.T) {
	t.Setenv(config.PasswordEnv, "")
	h := newHarness(t, &fakeAuth{password: "secret"}, config.Default())
	_ = h.booter.Boot(context.Background())

	if err := h.booter.Login(context.Background(), "ana", "nope"); err == nil {
		t.Fatal("Login with wrong password succeeded")
	}
	if h.machine.Current() != status.AuthRequired {
		t.Errorf("state = %s, want AUTH_REQUIRED", h.machine.Current())
	}

	if err := h.booter.Login(context.Background(), "ana", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if h.machine.Current() != status.Ready {
		t.Errorf("state = %s, want READY", h.machine.Current())
	}
}

func TestBootBackendDown(t *testing.T) {
	h := newHarness(t, &fakeAuth{meErr: errors.New("connection refused")}, config.Default())
	if err := h.booter.Boot(context.Background()); err == nil {
		t.Fatal("Boot succeeded with backend down")
	}
	if h.machine.Current() != status.Error {
		t.Errorf("state = %s, want ERROR", h.machine.Current())
	}
}
