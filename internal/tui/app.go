// Package tui is the interactive terminal front end. Screens follow the
// nav.Router; domain state arrives as bus events and is drawn through a
// ui.Dispatcher.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/rivo/tview"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/app"
	"github.com/matheus3301/chatline/internal/bus"
	"github.com/matheus3301/chatline/internal/chat"
	"github.com/matheus3301/chatline/internal/config"
	"github.com/matheus3301/chatline/internal/gateway"
	"github.com/matheus3301/chatline/internal/inbox"
	"github.com/matheus3301/chatline/internal/likes"
	"github.com/matheus3301/chatline/internal/nav"
	"github.com/matheus3301/chatline/internal/outbox"
	"github.com/matheus3301/chatline/internal/status"
	"github.com/matheus3301/chatline/internal/thread"
	"github.com/matheus3301/chatline/internal/tui/keys"
	"github.com/matheus3301/chatline/internal/tui/model"
	"github.com/matheus3301/chatline/internal/tui/ui"
	"github.com/matheus3301/chatline/internal/tui/views"
	"github.com/matheus3301/chatline/internal/voice"
)

const helpPage = "help"

// Deps are the collaborators of the TUI, filled by fx.
type Deps struct {
	fx.In

	Params   app.Params
	Config   *config.Config
	Bus      *bus.Bus
	Machine  *status.Machine
	Session  *nav.Session
	Router   *nav.Router
	Inbox    *inbox.Inbox
	Likes    *likes.Syncer
	Engine   *thread.Engine
	Recorder *voice.Recorder
	Outbox   *outbox.Sender
	Gateway  *gateway.Client
	Booter   *app.Booter
	Friends  *model.Friends
	UI       *tview.Application
	Dispatch *ui.Dispatcher
	Theme    *ui.Theme
	Thread   *views.MessageThread
	Logger   *zap.Logger
}

// App is the main TUI application shell.
type App struct {
	d Deps

	pages    *tview.Pages
	footer   *tview.Pages
	header   *ui.Header
	menu     *ui.Menu
	prompt   *ui.Prompt
	flash    *ui.FlashModel
	flashBar *ui.FlashBar
	registry *keys.Registry

	chats   *views.ConversationList
	login   *views.Login
	friends *views.Friends
	groups  *views.Groups
	profile *views.Profile
	help    *views.HelpView
	screens map[nav.Route]ui.Screen

	ctx    context.Context
	cancel context.CancelFunc

	// Touched on the UI goroutine only.
	helpVisible bool
	voiceText   string
	threadTitle string
	voiceKey    chat.Key
}

// NewApp creates the TUI application.
func NewApp(d Deps) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := d.Theme
	a := &App{
		d:        d,
		pages:    tview.NewPages(),
		footer:   tview.NewPages(),
		header:   ui.NewHeader(theme),
		menu:     ui.NewMenu(theme),
		prompt:   ui.NewPrompt(theme),
		flash:    ui.NewFlashModel(),
		flashBar: ui.NewFlashBar(theme),
		registry: keys.NewRegistry(),
		chats:    views.NewConversationList(theme),
		login:    views.NewLogin(theme, d.Config.Username),
		friends:  views.NewFriends(theme),
		groups:   views.NewGroups(theme),
		profile:  views.NewProfile(theme),
		help:     views.NewHelpView(theme),
		ctx:      ctx,
		cancel:   cancel,
	}
	a.screens = map[nav.Route]ui.Screen{
		nav.RouteLogin:   a.login,
		nav.RouteChats:   a.chats,
		nav.RouteThread:  a.d.Thread,
		nav.RouteFriends: a.friends,
		nav.RouteGroups:  a.groups,
		nav.RouteProfile: a.profile,
	}
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()
	return a
}

func (a *App) setupLayout() {
	a.pages.AddPage(string(nav.RouteLogin), a.login, true, false)
	a.pages.AddPage(string(nav.RouteChats), a.chats, true, true)
	a.pages.AddPage(string(nav.RouteThread), a.d.Thread, true, false)
	a.pages.AddPage(string(nav.RouteFriends), a.friends, true, false)
	a.pages.AddPage(string(nav.RouteGroups), a.groups, true, false)
	a.pages.AddPage(string(nav.RouteProfile), a.profile, true, false)
	a.pages.AddPage(helpPage, a.help, true, false)

	a.footer.AddPage("menu", a.menu, true, true)
	a.footer.AddPage("prompt", a.prompt, true, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.header, 1, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.flashBar, 1, 0, false).
		AddItem(a.footer, 1, 0, false)

	a.d.UI.SetRoot(root, true)
	a.d.UI.SetInputCapture(a.capture)
	a.refreshChrome(nav.RouteChats)
}

// Run starts the background loops, boots the client and blocks in the
// tview event loop until quit.
func (a *App) Run() error {
	a.listen()
	go a.clockLoop()
	go a.boot()
	err := a.d.UI.Run()
	a.cancel()
	a.d.Friends.Close()
	return err
}

// Stop quits the event loop.
func (a *App) Stop() {
	a.cancel()
	a.d.UI.Stop()
}

func (a *App) boot() {
	a.flash.Info("Connecting to " + a.d.Gateway.BaseURL() + "...")
	if err := a.d.Booter.Boot(a.ctx); err != nil {
		if errors.Is(err, app.ErrNoCredentials) {
			a.d.Dispatch.Post(func() { a.login.ShowMessage("Sign in to continue.") })
			return
		}
		a.d.Logger.Warn("boot failed", zap.Error(err))
		a.flash.Err("Could not reach the server", err)
	}
}

func (a *App) clockLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			a.d.Dispatch.Post(func() {
				route, _ := a.d.Router.Current()
				a.refreshHeader(route)
				a.flashBar.Update(a.flash.Current())
			})
		}
	}
}

// refreshChrome redraws the header and the key hints for route.
func (a *App) refreshChrome(route nav.Route) {
	a.refreshHeader(route)
	hints := a.registry.Hints(string(route))
	if s, ok := a.screens[route]; ok {
		hints = append(s.Hints(), hints...)
	}
	a.menu.Update(dedupe(hints))
}

func (a *App) refreshHeader(route nav.Route) {
	screen := string(route)
	if s, ok := a.screens[route]; ok {
		screen = s.Title()
	}
	if route == nav.RouteThread && a.threadTitle != "" {
		screen = a.threadTitle
	}
	a.header.Update(ui.HeaderData{
		Session: a.d.Params.SessionName,
		User:    a.d.Session.User().Name(),
		Status:  string(a.d.Machine.Current()),
		Screen:  screen,
		Voice:   a.voiceText,
		Now:     time.Now(),
	})
}

// dedupe drops repeated keys, keeping the first description.
func dedupe(hints []ui.MenuHint) []ui.MenuHint {
	seen := make(map[string]bool, len(hints))
	out := hints[:0:0]
	for _, h := range hints {
		if seen[h.Key] {
			continue
		}
		seen[h.Key] = true
		out = append(out, h)
	}
	return out
}
