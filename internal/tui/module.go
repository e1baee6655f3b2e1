package tui

import (
	"context"

	"github.com/rivo/tview"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/gateway"
	"github.com/matheus3301/chatline/internal/thread"
	"github.com/matheus3301/chatline/internal/tui/model"
	"github.com/matheus3301/chatline/internal/tui/ui"
	"github.com/matheus3301/chatline/internal/tui/views"
)

// Module provides the TUI on top of app.Module, including the thread.View
// the thread engine renders into.
func Module() fx.Option {
	return fx.Module("tui",
		fx.Provide(
			tview.NewApplication,
			ui.DefaultTheme,
			provideDispatcher,
			provideThreadView,
			func(v *views.MessageThread) thread.View { return v },
			provideFriends,
			NewApp,
		),
	)
}

func provideDispatcher(lc fx.Lifecycle, app *tview.Application) *ui.Dispatcher {
	d := ui.NewDispatcher(func(op func()) { app.QueueUpdateDraw(op) })
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			d.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			d.Stop()
			return nil
		},
	})
	return d
}

func provideThreadView(theme *ui.Theme, d *ui.Dispatcher) *views.MessageThread {
	return views.NewMessageThread(theme, d.Post)
}

func provideFriends(gw *gateway.Client, logger *zap.Logger) *model.Friends {
	return model.NewFriends(gw, logger.Named("friends"))
}
