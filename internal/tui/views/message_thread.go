package views

import (
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/chatline/internal/chat"
	"github.com/matheus3301/chatline/internal/thread"
	"github.com/matheus3301/chatline/internal/tui/ui"
)

// bubbleWidth is the wrap width of message text, in cells.
const bubbleWidth = 56

// line is one table row of the thread. msg indexes the source row, -1 for
// separators.
type line struct {
	text     string
	msg      int
	outgoing bool
	header   bool
	bubble   string
	fg       string
}

// MessageThread displays the open conversation and its composer. It
// implements thread.View: Render, ContentHeight and ScrollToBottom may be
// called from any goroutine and apply their changes through queue.
type MessageThread struct {
	*tview.Flex
	theme    *ui.Theme
	table    *tview.Table
	composer *tview.InputField
	queue    func(func())
	now      func() time.Time

	mu     sync.Mutex
	key    chat.Key
	rows   []thread.Row
	lines  []line
	onSend   func(text string)
	onScroll func()
}

// NewMessageThread creates the thread screen. queue runs a UI mutation on
// the application goroutine, usually tview.Application.QueueUpdateDraw.
func NewMessageThread(theme *ui.Theme, queue func(func())) *MessageThread {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetTitleColor(theme.TitleColor)
	table.SetSelectedStyle(tcell.StyleDefault.Attributes(tcell.AttrReverse))

	composer := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)
	composer.SetBorder(true)
	composer.SetBorderColor(theme.InputBorderColor)
	composer.SetBackgroundColor(theme.BgColor)
	composer.SetFieldBackgroundColor(theme.BgColor)
	composer.SetFieldTextColor(theme.FgColor)
	composer.SetLabelColor(theme.MenuKeyColor)
	composer.SetTitle(" Message (i to type, r to record) ")
	composer.SetTitleColor(theme.MutedColor)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(table, 0, 1, true).
		AddItem(composer, 3, 0, false)

	mt := &MessageThread{
		Flex:     flex,
		theme:    theme,
		table:    table,
		composer: composer,
		queue:    queue,
		now:      time.Now,
	}
	table.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if scrollsBack(ev) {
			mt.mu.Lock()
			fn := mt.onScroll
			mt.mu.Unlock()
			if fn != nil {
				fn()
			}
		}
		return ev
	})
	composer.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := composer.GetText()
		mt.mu.Lock()
		fn := mt.onSend
		mt.mu.Unlock()
		if fn != nil && strings.TrimSpace(text) != "" {
			composer.SetText("")
			fn(text)
		}
	})
	return mt
}

func (mt *MessageThread) Title() string { return "Thread" }

func (mt *MessageThread) Enter(int64) {}

func (mt *MessageThread) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "i", Description: "Type"},
		{Key: "r", Description: "Record/Send voice"},
		{Key: "o", Description: "Sender profile"},
		{Key: "Esc", Description: "Back"},
	}
}

// SetOnSend sets the composer callback.
func (mt *MessageThread) SetOnSend(fn func(text string)) {
	mt.mu.Lock()
	mt.onSend = fn
	mt.mu.Unlock()
}

// SetOnScroll sets the callback run when the user scrolls back through the
// history.
func (mt *MessageThread) SetOnScroll(fn func()) {
	mt.mu.Lock()
	mt.onScroll = fn
	mt.mu.Unlock()
}

func scrollsBack(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyUp, tcell.KeyPgUp, tcell.KeyHome, tcell.KeyCtrlB:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'k' || ev.Rune() == 'g'
	}
	return false
}

// SetConversation titles the screen. Call from the UI goroutine.
func (mt *MessageThread) SetConversation(name string) {
	mt.table.SetTitle(fmt.Sprintf(" %s ", clean(name)))
}

// Reset clears the previous thread so it does not flash while the next one
// loads. Call from the UI goroutine.
func (mt *MessageThread) Reset() {
	mt.mu.Lock()
	mt.key = chat.Key{}
	mt.rows = nil
	mt.lines = nil
	mt.mu.Unlock()
	mt.table.Clear()
	mt.composer.SetText("")
}

// Composer returns the input field, for focus handling.
func (mt *MessageThread) Composer() *tview.InputField { return mt.composer }

// Messages returns the message table, for focus handling.
func (mt *MessageThread) Messages() *tview.Table { return mt.table }

// Render implements thread.View.
func (mt *MessageThread) Render(key chat.Key, rows []thread.Row) {
	lines := layout(rows, mt.now())
	mt.mu.Lock()
	mt.key = key
	mt.rows = rows
	mt.lines = lines
	mt.mu.Unlock()
	mt.queue(func() { mt.apply(lines) })
}

// ContentHeight implements thread.Scroller. It reflects the last Render
// even before the UI goroutine has drawn it.
func (mt *MessageThread) ContentHeight() int {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return len(mt.lines)
}

// ScrollToBottom implements thread.Scroller.
func (mt *MessageThread) ScrollToBottom() {
	mt.queue(func() {
		if n := mt.table.GetRowCount(); n > 0 {
			mt.table.Select(n-1, 0)
		}
		mt.table.ScrollToEnd()
	})
}

// SelectedRow returns the message under the cursor.
func (mt *MessageThread) SelectedRow() (thread.Row, bool) {
	r, _ := mt.table.GetSelection()
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if r < 0 || r >= len(mt.lines) || mt.lines[r].msg < 0 {
		return thread.Row{}, false
	}
	return mt.rows[mt.lines[r].msg], true
}

func (mt *MessageThread) apply(lines []line) {
	mt.table.Clear()
	for i, l := range lines {
		cell := tview.NewTableCell(l.text).SetExpansion(1)
		if l.outgoing {
			cell.SetAlign(tview.AlignRight)
		}
		switch {
		case l.msg < 0:
			cell.SetSelectable(false)
		case l.header:
			cell.SetTextColor(mt.theme.MutedColor)
		default:
			cell.SetBackgroundColor(ui.HexColor(l.bubble, mt.theme.BgColor))
			cell.SetTextColor(ui.HexColor(l.fg, mt.theme.FgColor))
		}
		mt.table.SetCell(i, 0, cell)
	}
}

// layout turns rows into table lines: a header with sender marker and time,
// the wrapped body in the bubble colors, and a blank separator.
func layout(rows []thread.Row, now time.Time) []line {
	var out []line
	for i, r := range rows {
		header := stamp(r.CreatedAt, now)
		if !r.Outgoing {
			header = strings.TrimSpace(avatarLabel(r) + "  " + header)
		}
		out = append(out, line{text: header, msg: i, outgoing: r.Outgoing, header: true})

		var body []string
		if r.Voice {
			body = []string{"▶ voice message " + clock(r.Duration)}
		} else {
			body = wrap(r.Text, bubbleWidth)
		}
		for _, b := range body {
			out = append(out, line{
				text:     " " + clean(b) + " ",
				msg:      i,
				outgoing: r.Outgoing,
				bubble:   r.Bubble,
				fg:       r.TextColor,
			})
		}
		out = append(out, line{msg: -1})
	}
	return out
}

// avatarLabel names the sender's avatar image without its extension, or an
// ellipsis while it is still being resolved.
func avatarLabel(r thread.Row) string {
	if r.AvatarPending {
		return "(…)"
	}
	name := strings.TrimSuffix(r.Avatar, path.Ext(r.Avatar))
	return "(" + clean(name) + ")"
}
