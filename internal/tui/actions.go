package tui

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/chat"
	"github.com/matheus3301/chatline/internal/nav"
	"github.com/matheus3301/chatline/internal/voice"
)

func (a *App) openSelectedChat() {
	c, ok := a.chats.Selected()
	if !ok {
		return
	}
	a.openThread(c.Key, c.DisplayName, nav.FromChats)
}

func (a *App) openSelectedGroup() {
	c, ok := a.groups.Selected()
	if !ok {
		return
	}
	a.openThread(c.Key, c.DisplayName, nav.FromGroups)
}

func (a *App) openThread(key chat.Key, title string, origin nav.Origin) {
	a.threadTitle = title
	a.d.Session.Open(key, origin)
	a.d.Router.Go(nav.RouteThread, 0)
}

func (a *App) openSelectedFriend() {
	e, ok := a.friends.Selected()
	if !ok {
		return
	}
	if e.ConversationID != 0 {
		a.openThread(chat.ConversationKey(e.ConversationID), e.User.Name(), nav.FromFriends)
		return
	}
	go func() {
		id, err := a.d.Gateway.StartConversation(a.ctx, e.User.ID)
		if err != nil {
			a.flash.Err("Could not start conversation", err)
			return
		}
		a.d.Dispatch.Post(func() {
			a.openThread(chat.ConversationKey(id), e.User.Name(), nav.FromFriends)
		})
	}()
}

func (a *App) openFriendProfile() {
	if e, ok := a.friends.Selected(); ok {
		a.d.Router.Go(nav.RouteProfile, e.User.ID)
	}
}

func (a *App) removeFriend() {
	e, ok := a.friends.Selected()
	if !ok || !e.Friend {
		return
	}
	go func() {
		if err := a.d.Friends.Remove(a.ctx, e.User.ID); err != nil {
			a.flash.Err("Could not remove friend", err)
			return
		}
		a.flash.Info(e.User.Name() + " removed from friends.")
	}()
}

func (a *App) openSender() {
	row, ok := a.d.Thread.SelectedRow()
	if !ok {
		return
	}
	a.d.Engine.OpenSender(row)
}

// showProfile renders the profile of userID from what the client already
// knows: the logged-in user, friends and search hits, or conversation
// partners.
func (a *App) showProfile(userID int64) {
	me := a.d.Session.User()
	if userID == 0 {
		userID = me.ID
	}
	if userID == 0 {
		a.profile.ShowMessage("Not signed in.")
		return
	}
	user, ok := me, userID == me.ID
	if !ok {
		user, ok = a.friends.Lookup(userID)
	}
	if !ok {
		for _, f := range a.d.Friends.List() {
			if f.ID == userID {
				user, ok = f.User, true
				break
			}
		}
	}
	if !ok {
		user = chat.User{ID: userID, Username: fmt.Sprintf("user%d", userID)}
		for _, c := range a.d.Inbox.Snapshot() {
			if c.OtherUserID == userID {
				user.DisplayName = c.DisplayName
				break
			}
		}
	}
	a.profile.Show(user, a.d.Gateway.ProfileURL(userID))
}

func (a *App) setMode(mode chat.Mode) {
	a.d.Inbox.SetMode(mode)
}

func (a *App) toggleLike() {
	c, ok := a.chats.Selected()
	if !ok {
		return
	}
	go func() {
		liked, err := a.d.Likes.Toggle(a.ctx, c.Key)
		if err != nil {
			a.flash.Err("Could not update favourite", err)
			return
		}
		if liked {
			a.flash.Info(c.DisplayName + " added to favourites.")
		}
	}()
}

func (a *App) sendText(text string) {
	go func() {
		if err := a.d.Engine.Send(a.ctx, text); err != nil {
			a.flash.Err("Send failed", err)
		}
	}()
}

// toggleRecording starts a voice session on the first press and finishes it
// on the second. Terminals report no key release, so holding is emulated by
// the pair of presses.
func (a *App) toggleRecording() {
	if a.d.Recorder.State() == voice.Idle {
		a.voiceKey = a.d.Session.Active()
		if err := a.d.Recorder.Press(a.ctx); err != nil {
			a.flash.Warn(voice.Message(err))
		}
		return
	}
	key := a.voiceKey
	go func() {
		clip, err := a.d.Recorder.Release()
		switch {
		case errors.Is(err, voice.ErrNotRecording):
			a.flash.Info("Press r, wait for the red dot, then press r again to send.")
		case err != nil:
			a.flash.Warn(voice.Message(err))
		default:
			if _, err := a.d.Outbox.Enqueue(key, clip); err != nil {
				a.flash.Err("Could not queue voice message", err)
			}
		}
	}()
}

func (a *App) createGroup(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		a.flash.Warn("Group name cannot be empty.")
		return
	}
	go func() {
		g, err := a.d.Gateway.CreateGroup(a.ctx, name)
		if err != nil {
			a.flash.Err("Could not create group", err)
			return
		}
		a.flash.Info(fmt.Sprintf("Group %q created.", g.Name))
		if err := a.d.Inbox.Refresh(a.ctx); err != nil {
			a.d.Logger.Warn("refresh after group create failed", zap.Error(err))
		}
		a.d.Dispatch.Post(func() {
			a.openThread(chat.GroupKey(g.ID), g.Name, nav.FromGroups)
		})
	}()
}

func (a *App) submitLogin(username, password string) {
	go func() {
		err := a.d.Booter.Login(a.ctx, username, password)
		a.d.Dispatch.Post(func() {
			if err != nil {
				a.login.ShowMessage(err.Error())
				return
			}
			a.login.ShowMessage("")
		})
	}()
}

func (a *App) retryVoice() {
	go func() {
		failed, err := a.d.Outbox.Failed()
		if err != nil {
			a.flash.Err("Could not read outbox", err)
			return
		}
		if len(failed) == 0 {
			a.flash.Info("Nothing to retry.")
			return
		}
		for _, e := range failed {
			if err := a.d.Outbox.Retry(e.ClientID); err != nil {
				a.flash.Err("Retry failed", err)
				return
			}
		}
		a.flash.Info(fmt.Sprintf("Retrying %d voice message(s).", len(failed)))
	}()
}

func (a *App) runCommand(c Command) {
	c, err := c.Canonical()
	if err != nil {
		a.flash.Warn(err.Error())
		return
	}
	switch c.Name {
	case "mode":
		mode, err := chat.ParseMode(strings.ToLower(c.Args))
		if err != nil {
			a.flash.Warn(err.Error())
			return
		}
		a.setMode(mode)
		a.d.Router.Go(nav.RouteChats, 0)
	case "group":
		a.createGroup(c.Args)
	case "friends":
		a.d.Router.Go(nav.RouteFriends, 0)
	case "groups":
		a.d.Router.Go(nav.RouteGroups, 0)
	case "profile":
		a.d.Router.Go(nav.RouteProfile, a.d.Session.User().ID)
	case "retry":
		a.retryVoice()
	case "refresh":
		go func() {
			if err := a.d.Inbox.Refresh(a.ctx); err != nil {
				a.flash.Err("Refresh failed", err)
			}
		}()
	case "help":
		a.showHelp()
	case "quit":
		a.Stop()
	}
}
