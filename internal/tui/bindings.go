package tui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/chatline/internal/chat"
	"github.com/matheus3301/chatline/internal/nav"
	"github.com/matheus3301/chatline/internal/tui/keys"
	"github.com/matheus3301/chatline/internal/voice"
)

func runeKey(r rune, desc string, visible bool, fn func()) *keys.Action {
	return &keys.Action{Key: tcell.KeyRune, Rune: r, Description: desc, Visible: visible, Handler: fn}
}

func (a *App) setupBindings() {
	a.registry.AddGlobal(runeKey('f', "Friends", true, func() { a.d.Router.Go(nav.RouteFriends, 0) }))
	a.registry.AddGlobal(runeKey('g', "Groups", true, func() { a.d.Router.Go(nav.RouteGroups, 0) }))
	a.registry.AddGlobal(runeKey('p', "Me", true, func() { a.d.Router.Go(nav.RouteProfile, a.d.Session.User().ID) }))
	a.registry.AddGlobal(runeKey(':', "Command", true, a.showPrompt))
	a.registry.AddGlobal(runeKey('?', "Help", true, a.showHelp))
	a.registry.AddGlobal(runeKey('q', "Quit", true, a.Stop))
	a.registry.AddGlobal(&keys.Action{Key: tcell.KeyEscape, Label: "Esc", Description: "Back", Handler: a.back})

	a.registry.AddView(string(nav.RouteChats), &keys.Action{Key: tcell.KeyEnter, Handler: a.openSelectedChat})
	for i, mode := range chat.Modes {
		a.registry.AddView(string(nav.RouteChats), runeKey(rune('1'+i), string(mode), false, func() { a.setMode(mode) }))
	}
	a.registry.AddView(string(nav.RouteChats), runeKey('l', "Like", false, a.toggleLike))

	a.registry.AddView(string(nav.RouteThread), runeKey('i', "Type", false, func() { a.d.UI.SetFocus(a.d.Thread.Composer()) }))
	a.registry.AddView(string(nav.RouteThread), runeKey('r', "Record", false, a.toggleRecording))
	a.registry.AddView(string(nav.RouteThread), runeKey('o', "Sender", false, a.openSender))
	a.registry.AddView(string(nav.RouteThread), &keys.Action{Key: tcell.KeyEscape, Handler: func() {
		if a.d.Recorder.State() != voice.Idle {
			a.d.Recorder.Cancel()
			a.flash.Info("Recording cancelled.")
			return
		}
		a.back()
	}})

	a.registry.AddView(string(nav.RouteFriends), &keys.Action{Key: tcell.KeyEnter, Handler: a.openSelectedFriend})
	a.registry.AddView(string(nav.RouteFriends), runeKey('/', "Search", false, func() { a.d.UI.SetFocus(a.friends.Search()) }))
	a.registry.AddView(string(nav.RouteFriends), runeKey('p', "Profile", false, a.openFriendProfile))
	a.registry.AddView(string(nav.RouteFriends), runeKey('x', "Remove", false, a.removeFriend))

	a.registry.AddView(string(nav.RouteGroups), &keys.Action{Key: tcell.KeyEnter, Handler: a.openSelectedGroup})
	a.registry.AddView(string(nav.RouteGroups), runeKey('n', "New group", false, func() { a.d.UI.SetFocus(a.groups.Create()) }))
}

func (a *App) setupCallbacks() {
	a.flash.SetOnChange(func() {
		a.d.Dispatch.Post(func() { a.flashBar.Update(a.flash.Current()) })
	})
	a.prompt.SetOnSubmit(func(text string) {
		a.hidePrompt()
		a.runCommand(ParseCommand(text))
	})
	a.prompt.SetOnCancel(a.hidePrompt)

	a.login.SetOnSubmit(a.submitLogin)
	a.d.Thread.SetOnSend(a.sendText)
	a.d.Thread.SetOnScroll(a.d.Engine.Unpin)
	a.friends.SetOnQuery(func(q string) { a.d.Friends.Query(a.ctx, q) })
	a.groups.SetOnCreate(a.createGroup)
	a.d.Friends.SetCallbacks(
		func() { a.d.Dispatch.Post(a.renderFriends) },
		func(err error) { a.flash.Err("Search failed", err) },
	)
}

// capture is the global input handler. Text inputs get every key except
// Esc, which returns focus to the screen's list.
func (a *App) capture(ev *tcell.EventKey) *tcell.EventKey {
	if ev.Key() == tcell.KeyCtrlC {
		a.Stop()
		return nil
	}
	if a.helpVisible {
		if ev.Key() == tcell.KeyEscape || ev.Rune() == '?' || ev.Rune() == 'q' {
			a.hideHelp()
		}
		return nil
	}

	route, _ := a.d.Router.Current()
	focused := a.d.UI.GetFocus()
	if focused == a.prompt.InputField {
		return ev
	}
	if route == nav.RouteLogin {
		return ev
	}
	if _, ok := focused.(*tview.InputField); ok {
		if ev.Key() == tcell.KeyEscape {
			a.focusScreen(route)
			return nil
		}
		return ev
	}
	if a.registry.HandleEvent(string(route), ev) {
		return nil
	}
	return ev
}

func (a *App) focusScreen(route nav.Route) {
	switch route {
	case nav.RouteLogin:
		a.d.UI.SetFocus(a.login)
	case nav.RouteThread:
		a.d.UI.SetFocus(a.d.Thread.Messages())
	case nav.RouteFriends:
		a.d.UI.SetFocus(a.friends.List())
	case nav.RouteGroups:
		a.d.UI.SetFocus(a.groups.List())
	case nav.RouteProfile:
		a.d.UI.SetFocus(a.profile)
	default:
		a.d.UI.SetFocus(a.chats)
	}
}

func (a *App) back() {
	route, _ := a.d.Router.Current()
	if route == nav.RouteChats {
		return
	}
	a.d.Router.Back()
}

func (a *App) showPrompt() {
	a.footer.SwitchToPage("prompt")
	a.d.UI.SetFocus(a.prompt)
}

func (a *App) hidePrompt() {
	a.footer.SwitchToPage("menu")
	route, _ := a.d.Router.Current()
	a.focusScreen(route)
}

func (a *App) showHelp() {
	a.helpVisible = true
	a.pages.ShowPage(helpPage)
	a.d.UI.SetFocus(a.help)
}

func (a *App) hideHelp() {
	a.helpVisible = false
	a.pages.HidePage(helpPage)
	route, _ := a.d.Router.Current()
	a.focusScreen(route)
}
