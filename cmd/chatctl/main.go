package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/fx"

	"github.com/matheus3301/chatline/internal/app"
	"github.com/matheus3301/chatline/internal/bus"
	"github.com/matheus3301/chatline/internal/config"
	"github.com/matheus3301/chatline/internal/gateway"
	"github.com/matheus3301/chatline/internal/inbox"
	"github.com/matheus3301/chatline/internal/likes"
	"github.com/matheus3301/chatline/internal/nav"
	"github.com/matheus3301/chatline/internal/outbox"
	"github.com/matheus3301/chatline/internal/session"
	"github.com/matheus3301/chatline/internal/store"
	"github.com/matheus3301/chatline/internal/thread"
	"github.com/matheus3301/chatline/internal/voice"
)

// client is the headless wiring shared by the backend commands.
type client struct {
	fx.In

	Booter   *app.Booter
	Bus      *bus.Bus
	Session  *nav.Session
	Inbox    *inbox.Inbox
	Likes    *likes.Syncer
	Engine   *thread.Engine
	Buffer   *thread.Buffer
	Gateway  *gateway.Client
	Outbox   *outbox.Sender
	Recorder *voice.Recorder
	DB       *store.DB
}

var jsonOut bool

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	serverFlag := flag.String("server", "", "backend URL (overrides config server_url)")
	flag.BoolVar(&jsonOut, "json", false, "output in JSON format")
	timeout := flag.Duration("timeout", 30*time.Second, "overall deadline")
	flag.Usage = printUsage
	flag.Parse()

	cfg, err := config.LoadOrDefault(session.ConfigPath())
	if err != nil {
		fatal(fmt.Errorf("config: %w", err))
	}
	sessionName := session.Resolve(*sessionFlag, cfg)
	if err := session.ValidateName(sessionName); err != nil {
		fatal(err)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// Local commands need neither the backend nor the cache.
	switch args[0] {
	case "sessions":
		cmdSessions()
		return
	case "status":
		cmdStatus(sessionName, cfg)
		return
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}

	var c client
	fxApp := fx.New(
		app.Module(app.Params{
			SessionName: sessionName,
			Binary:      "chatctl",
			ServerURL:   *serverFlag,
			Console:     true,
			Config:      cfg,
		}),
		fx.Provide(
			thread.NewBuffer,
			func(b *thread.Buffer) thread.View { return b },
		),
		fx.Populate(&c),
		fx.NopLogger,
	)
	if err := fxApp.Start(ctx); err != nil {
		fatal(err)
	}
	runErr := cmd(ctx, &c, args[1:])

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := fxApp.Stop(stopCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
	}
	if runErr != nil {
		fatal(runErr)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: chatctl [--session <name>] [--server <url>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status                     Show session, lock holder and server")
	fmt.Fprintln(os.Stderr, "  sessions                   List known sessions")
	fmt.Fprintln(os.Stderr, "  login                      Check the configured credentials")
	fmt.Fprintln(os.Stderr, "  conversations [--mode m]   List chats (all, groups, private, favourites)")
	fmt.Fprintln(os.Stderr, "  messages <thread>          Print a thread (personal:4, group:2)")
	fmt.Fprintln(os.Stderr, "  send <thread> <text>       Send a text message")
	fmt.Fprintln(os.Stderr, "  like <thread>              Toggle favourite")
	fmt.Fprintln(os.Stderr, "  friends                    List friends")
	fmt.Fprintln(os.Stderr, "  search <query>             Find users")
	fmt.Fprintln(os.Stderr, "  start <user-id>            Open a conversation with a user")
	fmt.Fprintln(os.Stderr, "  group create <name>        Create a group")
	fmt.Fprintln(os.Stderr, "  outbox list                Show queued and failed voice uploads")
	fmt.Fprintln(os.Stderr, "  outbox retry               Retry failed voice uploads")
	fmt.Fprintln(os.Stderr, "  cache search <text>        Search cached messages offline")
	fmt.Fprintln(os.Stderr, "  voice <thread> [--seconds n]  Record and send a voice message")
}

func fatal(err error) {
	switch {
	case errors.Is(err, app.ErrNoCredentials):
		fmt.Fprintf(os.Stderr, "error: not logged in: set username in %s and %s\n", session.ConfigPath(), config.PasswordEnv)
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(1)
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}
