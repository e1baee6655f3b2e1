package ui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rivo/tview"
)

// FlashLevel represents the severity of a flash message.
type FlashLevel int

const (
	FlashInfo FlashLevel = iota
	FlashWarn
	FlashErr
)

// FlashMessage is a flash notification with a level and expiry.
type FlashMessage struct {
	Text    string
	Level   FlashLevel
	Expires time.Time
}

// FlashModel holds the current transient notification. Setters may be
// called from any goroutine; OnChange fires after each one.
type FlashModel struct {
	mu       sync.RWMutex
	current  FlashMessage
	now      func() time.Time
	onChange func()
}

// NewFlashModel creates a new flash model.
func NewFlashModel() *FlashModel {
	return &FlashModel{now: time.Now}
}

// SetOnChange registers the redraw callback.
func (f *FlashModel) SetOnChange(fn func()) {
	f.mu.Lock()
	f.onChange = fn
	f.mu.Unlock()
}

func (f *FlashModel) Info(msg string) { f.set(msg, FlashInfo, 4*time.Second) }

func (f *FlashModel) Warn(msg string) { f.set(msg, FlashWarn, 6*time.Second) }

// Err shows err. Errors wrapping context cancellation are ignored, they
// only happen while quitting or when a newer action superseded the old one.
func (f *FlashModel) Err(prefix string, err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	if prefix != "" {
		f.set(prefix+": "+err.Error(), FlashErr, 8*time.Second)
		return
	}
	f.set(err.Error(), FlashErr, 8*time.Second)
}

func (f *FlashModel) set(msg string, level FlashLevel, d time.Duration) {
	f.mu.Lock()
	f.current = FlashMessage{Text: msg, Level: level, Expires: f.now().Add(d)}
	fn := f.onChange
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Current returns the live flash message, or nil if it expired.
func (f *FlashModel) Current() *FlashMessage {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.current.Text == "" || f.now().After(f.current.Expires) {
		return nil
	}
	m := f.current
	return &m
}

// FlashBar is the UI component that displays flash notifications.
type FlashBar struct {
	*tview.TextView
	theme *Theme
}

// NewFlashBar creates a new flash notification bar.
func NewFlashBar(theme *Theme) *FlashBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	return &FlashBar{TextView: tv, theme: theme}
}

// Update renders a flash message on the bar.
func (fb *FlashBar) Update(msg *FlashMessage) {
	fb.Clear()
	if msg == nil {
		return
	}
	color := ColorName(fb.theme.FlashInfoColor)
	switch msg.Level {
	case FlashWarn:
		color = ColorName(fb.theme.FlashWarnColor)
	case FlashErr:
		color = ColorName(fb.theme.FlashErrColor)
	}
	_, _ = fmt.Fprintf(fb, " [%s]%s[-]", color, tview.Escape(msg.Text))
}
