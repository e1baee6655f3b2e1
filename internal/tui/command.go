package tui

import (
	"fmt"
	"strings"
)

// Command represents a parsed ':' command.
type Command struct {
	Name string
	Args string
}

// ParseCommand parses a command string (without the leading ':').
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	parts := strings.SplitN(input, " ", 2)
	cmd := Command{Name: strings.ToLower(parts[0])}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	return cmd
}

// commandNames maps accepted spellings to canonical command names.
var commandNames = map[string]string{
	"mode": "mode", "m": "mode",
	"group": "group", "g": "group",
	"friends": "friends", "f": "friends",
	"groups": "groups",
	"profile": "profile", "p": "profile",
	"retry": "retry",
	"refresh": "refresh", "r": "refresh",
	"help": "help", "h": "help",
	"quit": "quit", "q": "quit",
}

// Canonical resolves aliases. An unknown name is an error.
func (c Command) Canonical() (Command, error) {
	name, ok := commandNames[c.Name]
	if !ok {
		return Command{}, fmt.Errorf("unknown command %q, try :help", c.Name)
	}
	c.Name = name
	return c, nil
}
