package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/matheus3301/chatline/internal/bus"
	"github.com/matheus3301/chatline/internal/chat"
	"github.com/matheus3301/chatline/internal/config"
	"github.com/matheus3301/chatline/internal/lock"
	"github.com/matheus3301/chatline/internal/nav"
	"github.com/matheus3301/chatline/internal/outbox"
	"github.com/matheus3301/chatline/internal/session"
	"github.com/matheus3301/chatline/internal/voice"
)

type command func(ctx context.Context, c *client, args []string) error

var commands = map[string]command{
	"login":         cmdLogin,
	"conversations": cmdConversations,
	"messages":      cmdMessages,
	"send":          cmdSend,
	"like":          cmdLike,
	"friends":       cmdFriends,
	"search":        cmdSearch,
	"start":         cmdStart,
	"group":         cmdGroup,
	"outbox":        cmdOutbox,
	"cache":         cmdCache,
	"voice":         cmdVoice,
}

type sessionInfo struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	InUse   bool   `json:"in_use"`
	Owner   string `json:"owner,omitempty"`
	PID     int    `json:"pid,omitempty"`
	Server  string `json:"server,omitempty"`
	LogPath string `json:"log_path,omitempty"`
}

func inspect(name string) sessionInfo {
	info := sessionInfo{Name: name, Path: session.Dir(name)}
	if holder, held, err := lock.Inspect(info.Path); err == nil && held {
		info.InUse = true
		info.Owner = holder.Owner
		info.PID = holder.PID
	}
	return info
}

func cmdStatus(name string, cfg *config.Config) {
	info := inspect(name)
	info.Server = cfg.ServerURL
	info.LogPath = session.LogPath(name, "chatline")
	if jsonOut {
		outputJSON(info)
		return
	}
	fmt.Printf("Session: %s\n", info.Name)
	fmt.Printf("Path:    %s\n", info.Path)
	fmt.Printf("Server:  %s\n", info.Server)
	if info.InUse {
		fmt.Printf("In use:  %s (PID %d)\n", info.Owner, info.PID)
	} else {
		fmt.Println("In use:  no")
	}
}

func cmdSessions() {
	names, err := session.List()
	if err != nil {
		fatal(err)
	}
	out := make([]sessionInfo, 0, len(names))
	for _, n := range names {
		out = append(out, inspect(n))
	}
	if jsonOut {
		outputJSON(out)
		return
	}
	if len(out) == 0 {
		fmt.Println("No sessions found.")
		return
	}
	for _, s := range out {
		state := "idle"
		if s.InUse {
			state = fmt.Sprintf("in use by %s", s.Owner)
		}
		fmt.Printf("%-20s %s (%s)\n", s.Name, s.Path, state)
	}
}

func cmdLogin(ctx context.Context, c *client, _ []string) error {
	if err := c.Booter.Boot(ctx); err != nil {
		return err
	}
	u := c.Session.User()
	if jsonOut {
		outputJSON(u)
		return nil
	}
	fmt.Printf("Logged in as %s (id %d)\n", u.Name(), u.ID)
	return nil
}

func cmdConversations(ctx context.Context, c *client, args []string) error {
	fs := flag.NewFlagSet("conversations", flag.ContinueOnError)
	modeFlag := fs.String("mode", string(chat.ModeAll), "all, groups, private or favourites")
	if err := fs.Parse(args); err != nil {
		return err
	}
	mode, err := chat.ParseMode(*modeFlag)
	if err != nil {
		return err
	}
	if err := c.Booter.Boot(ctx); err != nil {
		return err
	}
	view := c.Inbox.SetMode(mode)
	if jsonOut {
		outputJSON(view.Items)
		return nil
	}
	if len(view.Items) == 0 {
		fmt.Println(chat.EmptyStateText(mode))
		return nil
	}
	for _, s := range view.Items {
		heart := " "
		if s.IsLiked {
			heart = "♥"
		}
		when := "-"
		if !s.LastMessageTime.IsZero() {
			when = s.LastMessageTime.Local().Format("2006-01-02 15:04")
		}
		fmt.Printf("%s %-16s %-24s %-16s %s\n", heart, s.Key, s.DisplayName, when, s.LastMessagePreview)
	}
	return nil
}

func threadArg(args []string, usage string) (chat.Key, error) {
	if len(args) == 0 {
		return chat.Key{}, fmt.Errorf("usage: chatctl %s", usage)
	}
	return chat.ParseKey(args[0])
}

func cmdMessages(ctx context.Context, c *client, args []string) error {
	key, err := threadArg(args, "messages <thread>")
	if err != nil {
		return err
	}
	if err := c.Booter.Boot(ctx); err != nil {
		return err
	}
	c.Session.Open(key, nav.FromChats)
	if err := c.Engine.LoadAndRender(ctx); err != nil {
		return err
	}
	c.Engine.Wait()
	_, rows := c.Buffer.Rows()
	if jsonOut {
		outputJSON(rows)
		return nil
	}
	for _, r := range rows {
		who := fmt.Sprintf("user %d", r.SenderID)
		if r.Outgoing {
			who = "me"
		}
		body := r.Text
		if r.Voice {
			body = fmt.Sprintf("[voice %ds] %s", r.Duration, r.AudioRef)
		}
		when := "--:--"
		if !r.CreatedAt.IsZero() {
			when = r.CreatedAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Printf("%s  %-10s %s\n", when, who, body)
	}
	return nil
}

func cmdSend(ctx context.Context, c *client, args []string) error {
	key, err := threadArg(args, "send <thread> <text>")
	if err != nil {
		return err
	}
	text := strings.TrimSpace(strings.Join(args[1:], " "))
	if text == "" {
		return errors.New("nothing to send")
	}
	if err := c.Booter.Boot(ctx); err != nil {
		return err
	}
	c.Session.Open(key, nav.FromChats)
	if err := c.Engine.Send(ctx, text); err != nil {
		return err
	}
	fmt.Printf("Sent to %s.\n", key)
	return nil
}

func cmdLike(ctx context.Context, c *client, args []string) error {
	key, err := threadArg(args, "like <thread>")
	if err != nil {
		return err
	}
	if err := c.Booter.Boot(ctx); err != nil {
		return err
	}
	liked, err := c.Likes.Toggle(ctx, key)
	if err != nil {
		return err
	}
	if liked {
		fmt.Printf("%s added to favourites.\n", key)
	} else {
		fmt.Printf("%s removed from favourites.\n", key)
	}
	return nil
}

func cmdFriends(ctx context.Context, c *client, _ []string) error {
	if err := c.Booter.Boot(ctx); err != nil {
		return err
	}
	friends, err := c.Gateway.Friends(ctx)
	if err != nil {
		return err
	}
	if jsonOut {
		outputJSON(friends)
		return nil
	}
	for _, f := range friends {
		fmt.Printf("%-8d %-20s %-20s conversation %d\n", f.ID, f.Username, f.Name(), f.ConversationID)
	}
	return nil
}

func cmdSearch(ctx context.Context, c *client, args []string) error {
	q := strings.TrimSpace(strings.Join(args, " "))
	if q == "" {
		return errors.New("usage: chatctl search <query>")
	}
	if err := c.Booter.Boot(ctx); err != nil {
		return err
	}
	hits, err := c.Gateway.SearchUsers(ctx, q)
	if err != nil {
		return err
	}
	if jsonOut {
		outputJSON(hits)
		return nil
	}
	for _, h := range hits {
		mark := ""
		if h.HasConversation {
			mark = "(chatting)"
		}
		fmt.Printf("%-8d %-20s %s\n", h.ID, h.Username, mark)
	}
	return nil
}

func cmdStart(ctx context.Context, c *client, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: chatctl start <user-id>")
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user id %q", args[0])
	}
	if err := c.Booter.Boot(ctx); err != nil {
		return err
	}
	id, err := c.Gateway.StartConversation(ctx, userID)
	if err != nil {
		return err
	}
	fmt.Println(chat.ConversationKey(id))
	return nil
}

func cmdGroup(ctx context.Context, c *client, args []string) error {
	if len(args) < 2 || args[0] != "create" {
		return errors.New("usage: chatctl group create <name>")
	}
	name := strings.TrimSpace(strings.Join(args[1:], " "))
	if name == "" {
		return errors.New("group name cannot be empty")
	}
	if err := c.Booter.Boot(ctx); err != nil {
		return err
	}
	g, err := c.Gateway.CreateGroup(ctx, name)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", chat.GroupKey(g.ID), g.Name)
	return nil
}

type outboxEntry struct {
	ClientID string    `json:"client_id"`
	Thread   string    `json:"thread"`
	Duration int       `json:"duration"`
	Status   string    `json:"status"`
	Attempts int       `json:"attempts"`
	Error    string    `json:"error,omitempty"`
	Queued   time.Time `json:"queued"`
}

func cmdOutbox(ctx context.Context, c *client, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: chatctl outbox <list|retry>")
	}
	switch args[0] {
	case "list":
		pending, err := c.DB.PendingVoice()
		if err != nil {
			return err
		}
		failed, err := c.Outbox.Failed()
		if err != nil {
			return err
		}
		var out []outboxEntry
		for _, e := range append(pending, failed...) {
			out = append(out, outboxEntry{
				ClientID: e.ClientID,
				Thread:   e.Key.String(),
				Duration: e.Duration,
				Status:   e.Status,
				Attempts: e.Attempts,
				Error:    e.ErrorMessage,
				Queued:   e.CreatedAt,
			})
		}
		if jsonOut {
			outputJSON(out)
			return nil
		}
		if len(out) == 0 {
			fmt.Println("Outbox is empty.")
			return nil
		}
		for _, e := range out {
			fmt.Printf("%s  %-14s %3ds  %-8s attempts=%d %s\n", e.ClientID, e.Thread, e.Duration, e.Status, e.Attempts, e.Error)
		}
		return nil
	case "retry":
		if err := c.Booter.Boot(ctx); err != nil {
			return err
		}
		failed, err := c.Outbox.Failed()
		if err != nil {
			return err
		}
		if len(failed) == 0 {
			fmt.Println("Nothing to retry.")
			return nil
		}
		ch, unsub := c.Bus.Subscribe("voice.", 64)
		defer unsub()
		ids := make([]string, 0, len(failed))
		for _, e := range failed {
			if err := c.Outbox.Retry(e.ClientID); err != nil {
				return err
			}
			ids = append(ids, e.ClientID)
		}
		return awaitDelivery(ctx, ch, ids)
	}
	return fmt.Errorf("unknown outbox subcommand: %s", args[0])
}

func cmdCache(_ context.Context, c *client, args []string) error {
	if len(args) < 2 || args[0] != "search" {
		return errors.New("usage: chatctl cache search <text>")
	}
	results, err := c.DB.SearchMessages(strings.Join(args[1:], " "), 50)
	if err != nil {
		return err
	}
	if jsonOut {
		outputJSON(results)
		return nil
	}
	if len(results) == 0 {
		fmt.Println("No cached messages match.")
		return nil
	}
	for _, r := range results {
		fmt.Printf("%-14s %s  %s\n", r.Key, r.Message.CreatedAt.Local().Format("2006-01-02 15:04"), r.Message.Content)
	}
	return nil
}

// uploadMargin is the part of the deadline kept for delivery after recording.
const uploadMargin = 5 * time.Second

// recordingFits rejects a recording that would outlast ctx's deadline,
// since the microphone process is bound to ctx.
func recordingFits(ctx context.Context, d time.Duration, now time.Time) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		return nil
	}
	if left := deadline.Sub(now); d+uploadMargin > left {
		return fmt.Errorf("--seconds %d does not fit in the remaining %s; raise --timeout",
			int(d/time.Second), left.Round(time.Second))
	}
	return nil
}

func cmdVoice(ctx context.Context, c *client, args []string) error {
	key, err := threadArg(args, "voice <thread> [--seconds n]")
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("voice", flag.ContinueOnError)
	seconds := fs.Int("seconds", 5, "how long to record")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if *seconds < 1 {
		return errors.New("--seconds must be at least 1")
	}
	if err := recordingFits(ctx, time.Duration(*seconds)*time.Second, time.Now()); err != nil {
		return err
	}
	if err := c.Booter.Boot(ctx); err != nil {
		return err
	}

	states, unsubStates := c.Bus.Subscribe(bus.KindVoiceState, 16)
	defer unsubStates()
	if err := c.Recorder.Press(ctx); err != nil {
		return errors.New(voice.Message(err))
	}
	if err := awaitRecording(ctx, states); err != nil {
		c.Recorder.Cancel()
		return err
	}
	fmt.Printf("Recording for %ds...\n", *seconds)
	select {
	case <-time.After(time.Duration(*seconds) * time.Second):
	case <-ctx.Done():
		c.Recorder.Cancel()
		return ctx.Err()
	}
	clip, err := c.Recorder.Release()
	if err != nil {
		return errors.New(voice.Message(err))
	}

	ch, unsub := c.Bus.Subscribe("voice.", 64)
	defer unsub()
	id, err := c.Outbox.Enqueue(key, clip)
	if err != nil {
		return err
	}
	return awaitDelivery(ctx, ch, []string{id})
}

// awaitRecording waits for the recorder to leave ARMED.
func awaitRecording(ctx context.Context, ch <-chan bus.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt := <-ch:
			sc, ok := evt.Payload.(voice.StateChange)
			if !ok {
				continue
			}
			switch sc.To {
			case voice.Recording:
				return nil
			case voice.Idle:
				if sc.Err != nil {
					return errors.New(voice.Message(sc.Err))
				}
				return errors.New("recording did not start")
			}
		}
	}
}

// awaitDelivery blocks until every clip in ids has been sent or has failed.
func awaitDelivery(ctx context.Context, ch <-chan bus.Event, ids []string) error {
	waiting := make(map[string]bool, len(ids))
	for _, id := range ids {
		waiting[id] = true
	}
	var errs []error
	for len(waiting) > 0 {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%d voice message(s) still queued: %w", len(waiting), ctx.Err())
		case evt := <-ch:
			switch p := evt.Payload.(type) {
			case outbox.Queued:
				if evt.Kind == bus.KindVoiceSent && waiting[p.ClientID] {
					delete(waiting, p.ClientID)
					fmt.Printf("Voice message (%ds) sent to %s.\n", p.Duration, p.Key)
				}
			case outbox.Failed:
				if waiting[p.ClientID] {
					delete(waiting, p.ClientID)
					errs = append(errs, fmt.Errorf("voice to %s: %s", p.Key, p.Err))
				}
			}
		}
	}
	return errors.Join(errs...)
}
