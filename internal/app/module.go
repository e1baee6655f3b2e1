// Package app composes the client with fx. The binaries add their own
// thread.View and run the graph.
package app

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/bus"
	"github.com/matheus3301/chatline/internal/config"
	"github.com/matheus3301/chatline/internal/gateway"
	"github.com/matheus3301/chatline/internal/inbox"
	"github.com/matheus3301/chatline/internal/likes"
	"github.com/matheus3301/chatline/internal/lock"
	"github.com/matheus3301/chatline/internal/logging"
	"github.com/matheus3301/chatline/internal/nav"
	"github.com/matheus3301/chatline/internal/outbox"
	"github.com/matheus3301/chatline/internal/session"
	"github.com/matheus3301/chatline/internal/status"
	"github.com/matheus3301/chatline/internal/store"
	intsync "github.com/matheus3301/chatline/internal/sync"
	"github.com/matheus3301/chatline/internal/thread"
	"github.com/matheus3301/chatline/internal/voice"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
	Binary      string
	// ServerURL overrides the configured backend when set.
	ServerURL string
	// Exclusive takes the session lock; the TUI sets it.
	Exclusive bool
	// Console mirrors warnings to stderr.
	Console bool
	Config  *config.Config
}

// Module returns the fx module for the client, composing all providers and
// lifecycle hooks. A thread.View must be provided by the caller.
func Module(p Params) fx.Option {
	return fx.Module("chatline",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideGateway,
			nav.NewSession,
			provideRouter,
			provideInbox,
			provideLikes,
			provideAvatars,
			provideEngine,
			provideRecorder,
			provideSender,
			provideSyncEngine,
			NewBooter,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) *config.Config {
	cfg := *config.Default()
	if p.Config != nil {
		cfg = *p.Config
	}
	if p.ServerURL != "" {
		cfg.ServerURL = p.ServerURL
	}
	return &cfg
}

func provideLogger(p Params, cfg *config.Config) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.SessionName, p.Binary), p.SessionName, logging.Options{
		Console: p.Console,
		Debug:   cfg.Debug,
	})
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	if !p.Exclusive {
		return nil, nil
	}
	l, err := lock.Acquire(session.Dir(p.SessionName), p.Binary)
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	return l, nil
}

func provideStore(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := session.CacheDBPath(p.SessionName)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("store initialized", zap.String("path", dbPath), zap.Uint("version", result.Version), zap.Bool("migrated", result.Changed))
	return db, nil
}

func provideGateway(cfg *config.Config, m *status.Machine, logger *zap.Logger) (*gateway.Client, error) {
	return gateway.New(gateway.Options{
		BaseURL:           cfg.ServerURL,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Logger:            logger.Named("gateway"),
		OnResult: func(err error) {
			m.Observe(err, gateway.IsUnauthorized(err))
		},
	})
}

func provideRouter(s *nav.Session, b *bus.Bus) *nav.Router {
	return nav.NewRouter(s, b)
}

func provideInbox(gw *gateway.Client, b *bus.Bus, logger *zap.Logger) *inbox.Inbox {
	return inbox.New(gw, b, logger.Named("inbox"))
}

func provideLikes(gw *gateway.Client, in *inbox.Inbox, b *bus.Bus, logger *zap.Logger) *likes.Syncer {
	return likes.NewSyncer(gw, in, b, logger.Named("likes"))
}

func provideAvatars(gw *gateway.Client, logger *zap.Logger) *thread.AvatarResolver {
	return thread.NewAvatarResolver(gw, logger.Named("avatars"))
}

func provideEngine(cfg *config.Config, gw *gateway.Client, s *nav.Session, v thread.View, avatars *thread.AvatarResolver,
	in *inbox.Inbox, r *nav.Router, b *bus.Bus, logger *zap.Logger) *thread.Engine {
	return thread.NewEngine(thread.Config{
		Remote:         gw,
		Session:        s,
		View:           v,
		Avatars:        avatars,
		Inbox:          in,
		Navigator:      r,
		PreferredColor: cfg.MessageColor,
		Bus:            b,
		Logger:         logger.Named("thread"),
	})
}

func provideRecorder(cfg *config.Config, b *bus.Bus, logger *zap.Logger) *voice.Recorder {
	return voice.NewRecorder(voice.CommandMicrophone{Argv: cfg.Voice.Command}, voice.Options{
		Debounce: cfg.Debounce(),
		MIME:     cfg.Voice.MIME,
		Bus:      b,
		Logger:   logger.Named("voice"),
	})
}

func provideSender(db *store.DB, e *thread.Engine, b *bus.Bus, logger *zap.Logger) *outbox.Sender {
	return outbox.NewSender(db, e, b, logger.Named("outbox"))
}

func provideSyncEngine(db *store.DB, b *bus.Bus, in *inbox.Inbox, logger *zap.Logger) *intsync.Engine {
	return intsync.NewEngine(db, b, in, logger.Named("sync"))
}

func registerLifecycle(lc fx.Lifecycle, lk *lock.Lock, db *store.DB, engine *intsync.Engine, sender *outbox.Sender,
	in *inbox.Inbox, th *thread.Engine, rec *voice.Recorder, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if err := engine.Restore(in); err != nil {
				logger.Warn("could not paint cached conversations", zap.Error(err))
			}
			engine.Start(context.Background())
			sender.Start(context.Background())
			return nil
		},
		OnStop: func(_ context.Context) error {
			rec.Cancel()
			sender.Stop()
			th.Wait()
			engine.Stop()
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("client stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
