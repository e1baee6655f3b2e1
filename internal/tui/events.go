package tui

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/bus"
	"github.com/matheus3301/chatline/internal/chat"
	"github.com/matheus3301/chatline/internal/inbox"
	"github.com/matheus3301/chatline/internal/nav"
	"github.com/matheus3301/chatline/internal/outbox"
	"github.com/matheus3301/chatline/internal/status"
	"github.com/matheus3301/chatline/internal/voice"
)

// listen subscribes to every bus event and forwards them to the UI
// goroutine until quit.
func (a *App) listen() {
	ch, unsub := a.d.Bus.Subscribe("", 256)
	go a.eventLoop(ch, unsub)
}

func (a *App) eventLoop(ch <-chan bus.Event, unsub func()) {
	defer unsub()
	for {
		select {
		case <-a.ctx.Done():
			return
		case evt := <-ch:
			a.d.Dispatch.Post(func() { a.handleEvent(evt) })
		}
	}
}

func (a *App) handleEvent(evt bus.Event) {
	switch p := evt.Payload.(type) {
	case nav.Change:
		a.onNav(p)
	case inbox.View:
		a.chats.Update(p)
		a.groups.Update(a.groupEntries())
	case status.StatusChange:
		if p.To == status.AuthRequired {
			if route, _ := a.d.Router.Current(); route != nav.RouteLogin {
				a.d.Router.Go(nav.RouteLogin, 0)
			}
			a.login.ShowMessage("Your session expired. Sign in again.")
		}
		if p.To == status.Degraded {
			a.flash.Warn("Connection problems, retrying on the next action.")
		}
		route, _ := a.d.Router.Current()
		a.refreshHeader(route)
	case voice.StateChange:
		a.onVoiceState(p)
	case outbox.Queued:
		if evt.Kind == bus.KindVoiceSent {
			a.flash.Info("Voice message sent.")
		} else {
			a.flash.Info("Sending voice message...")
		}
	case outbox.Failed:
		a.flash.Err("Voice message not sent (:retry to try again)", errors.New(p.Err))
	case chat.Key:
		if evt.Kind == bus.KindThreadFailed && p == a.d.Session.Active() {
			a.flash.Warn("Could not load messages.")
		}
	case int:
		if evt.Kind == bus.KindVoiceTick && a.d.Recorder.State() == voice.Recording {
			a.setVoiceText(fmt.Sprintf("● REC %d:%02d", p/60, p%60))
		}
	}
}

func (a *App) onNav(ch nav.Change) {
	if ch.From == nav.RouteThread && ch.To != nav.RouteThread {
		a.d.Engine.Detach()
		if a.d.Recorder.State() != voice.Idle {
			a.d.Recorder.Cancel()
		}
	}
	a.pages.SwitchToPage(string(ch.To))
	if a.helpVisible {
		a.pages.ShowPage(helpPage)
	}

	switch ch.To {
	case nav.RouteThread:
		a.enterThread()
	case nav.RouteFriends:
		a.renderFriends()
		go func() {
			if err := a.d.Friends.Load(a.ctx); err != nil {
				a.flash.Err("Could not load friends", err)
			}
		}()
	case nav.RouteGroups:
		a.groups.Update(a.groupEntries())
	case nav.RouteProfile:
		a.showProfile(ch.Param)
	}
	if s, ok := a.screens[ch.To]; ok {
		s.Enter(ch.Param)
	}
	if !a.helpVisible {
		a.focusScreen(ch.To)
	}
	a.refreshChrome(ch.To)
	a.d.Logger.Debug("screen changed", zap.String("from", string(ch.From)), zap.String("to", string(ch.To)))
}

func (a *App) enterThread() {
	key := a.d.Session.Active()
	if c, ok := a.d.Inbox.Get(key); ok {
		a.threadTitle = c.DisplayName
	} else if a.threadTitle == "" {
		a.threadTitle = "Conversation"
	}
	a.d.Thread.Reset()
	a.d.Thread.SetConversation(a.threadTitle)
	go func() {
		if err := a.d.Engine.LoadAndRender(a.ctx); err != nil {
			a.d.Logger.Warn("thread load failed", zap.Stringer("key", key), zap.Error(err))
		}
	}()
}

func (a *App) onVoiceState(p voice.StateChange) {
	switch p.To {
	case voice.Armed:
		a.setVoiceText("● ...")
	case voice.Recording:
		a.setVoiceText("● REC 0:00")
	case voice.Stopping:
		a.setVoiceText("● saving")
	case voice.Idle:
		a.setVoiceText("")
		if p.Err != nil && !errors.Is(p.Err, voice.ErrNotRecording) && !errors.Is(p.Err, voice.ErrTooShort) {
			a.flash.Warn(voice.Message(p.Err))
		}
	}
}

func (a *App) setVoiceText(s string) {
	a.voiceText = s
	route, _ := a.d.Router.Current()
	a.refreshHeader(route)
}

func (a *App) renderFriends() {
	q, hits := a.d.Friends.Hits()
	a.friends.Update(a.d.Friends.List(), q, hits)
}

func (a *App) groupEntries() []chat.ConversationSummary {
	return chat.Order(a.d.Inbox.Snapshot(), chat.ModeGroups)
}
