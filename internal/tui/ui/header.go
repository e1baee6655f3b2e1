package ui

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
)

// HeaderData is what the top bar shows.
type HeaderData struct {
	Session string
	User    string
	Status  string
	Screen  string
	// Voice is the recorder indicator text, empty when idle.
	Voice string
	Now   time.Time
}

// Header is the single-line top bar: product name, session, user, client
// status, the current screen and the recording indicator.
type Header struct {
	*tview.TextView
	theme *Theme
}

// NewHeader creates the top bar.
func NewHeader(theme *Theme) *Header {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	return &Header{TextView: tv, theme: theme}
}

// Update renders d.
func (h *Header) Update(d HeaderData) {
	h.Clear()
	title := ColorName(h.theme.TitleColor)
	counter := ColorName(h.theme.CounterColor)
	user := d.User
	if user == "" {
		user = "-"
	}
	line := fmt.Sprintf(" [%s::b]chatline[-:-:-]  [%s]%s[-]@%s  %s  [::b]%s[-:-:-]",
		title, counter, tview.Escape(user), tview.Escape(d.Session), d.Status, tview.Escape(d.Screen))
	if d.Voice != "" {
		line += fmt.Sprintf("  [%s::b]%s[-:-:-]", ColorName(h.theme.RecordingColor), d.Voice)
	}
	if !d.Now.IsZero() {
		line += "  " + d.Now.Format("15:04")
	}
	_, _ = fmt.Fprint(h, line)
}
