package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/chat"
	"github.com/matheus3301/chatline/internal/config"
	"github.com/matheus3301/chatline/internal/gateway"
	"github.com/matheus3301/chatline/internal/inbox"
	"github.com/matheus3301/chatline/internal/nav"
	"github.com/matheus3301/chatline/internal/status"
)

// ErrNoCredentials is returned by Boot when the backend wants a login and
// none is configured.
var ErrNoCredentials = errors.New("login required")

// Authenticator is the part of the gateway used at startup.
type Authenticator interface {
	Me(ctx context.Context) (chat.User, error)
	Login(ctx context.Context, username, password string) error
}

// Booter brings the client from BOOTING to READY: it checks the session,
// logs in with configured credentials when needed and loads the inbox.
type Booter struct {
	auth    Authenticator
	cfg     *config.Config
	machine *status.Machine
	session *nav.Session
	router  *nav.Router
	inbox   *inbox.Inbox
	logger  *zap.Logger
}

func NewBooter(gw *gateway.Client, cfg *config.Config, m *status.Machine, s *nav.Session,
	r *nav.Router, in *inbox.Inbox, logger *zap.Logger) *Booter {
	return newBooter(gw, cfg, m, s, r, in, logger)
}

func newBooter(auth Authenticator, cfg *config.Config, m *status.Machine, s *nav.Session,
	r *nav.Router, in *inbox.Inbox, logger *zap.Logger) *Booter {
	return &Booter{auth: auth, cfg: cfg, machine: m, session: s, router: r, inbox: in, logger: logger.Named("boot")}
}

// Boot resolves the current user. Without a session or credentials it moves
// to AUTH_REQUIRED and the login route and returns ErrNoCredentials.
func (b *Booter) Boot(ctx context.Context) error {
	user, err := b.auth.Me(ctx)
	if err == nil {
		return b.ready(ctx, user)
	}
	if !gateway.IsUnauthorized(err) {
		b.fail(err)
		return fmt.Errorf("boot: %w", err)
	}

	password := config.Password()
	if b.cfg.Username == "" || password == "" {
		b.requireLogin()
		return ErrNoCredentials
	}
	return b.Login(ctx, b.cfg.Username, password)
}

// Login authenticates with the given credentials and finishes booting.
// On a rejected login the client stays in AUTH_REQUIRED.
func (b *Booter) Login(ctx context.Context, username, password string) error {
	if err := b.auth.Login(ctx, username, password); err != nil {
		b.requireLogin()
		return err
	}
	user, err := b.auth.Me(ctx)
	if err != nil {
		b.requireLogin()
		return fmt.Errorf("load profile: %w", err)
	}
	return b.ready(ctx, user)
}

func (b *Booter) ready(ctx context.Context, user chat.User) error {
	b.session.SetUser(user)
	if err := b.machine.Transition(status.Ready); err != nil {
		b.logger.Debug("already past boot", zap.Error(err))
	}
	b.logger.Info("logged in", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	b.router.Go(nav.RouteChats, 0)
	if err := b.inbox.Refresh(ctx); err != nil {
		b.logger.Warn("initial inbox load failed", zap.Error(err))
	}
	return nil
}

func (b *Booter) requireLogin() {
	if b.machine.Current() != status.AuthRequired {
		if err := b.machine.Transition(status.AuthRequired); err != nil {
			b.logger.Debug("cannot require login", zap.Error(err))
		}
	}
	b.router.Go(nav.RouteLogin, 0)
}

func (b *Booter) fail(err error) {
	b.logger.Error("boot failed", zap.Error(err))
	if b.machine.Current() == status.Booting {
		_ = b.machine.Transition(status.Error)
	}
}
