package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// ColorName returns a tview color tag name for c.
func ColorName(c tcell.Color) string {
	for name, val := range tcell.ColorNames {
		if val == c {
			return name
		}
	}
	return fmt.Sprintf("#%06x", c.Hex())
}

// HexColor converts a normalized "#rrggbb" string to a terminal color,
// falling back to def when it does not parse.
func HexColor(hex string, def tcell.Color) tcell.Color {
	if hex == "" {
		return def
	}
	c := tcell.GetColor(hex)
	if c == tcell.ColorDefault {
		return def
	}
	return c
}
