package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rivo/uniseg"

	"github.com/matheus3301/chatline/internal/chat"
	"github.com/matheus3301/chatline/internal/inbox"
	"github.com/matheus3301/chatline/internal/tui/ui"
)

// ConversationList is the chat list: mode tabs in the title, one row per
// conversation, a heart for favourites.
type ConversationList struct {
	*tview.Table
	theme *ui.Theme
	view  inbox.View
	now   func() time.Time
}

// NewConversationList creates a new conversation list table.
func NewConversationList(theme *ui.Theme) *ConversationList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitleColor(theme.TitleColor)

	cl := &ConversationList{Table: table, theme: theme, now: time.Now}
	cl.render()
	return cl
}

func (cl *ConversationList) Title() string { return "Chats" }

func (cl *ConversationList) Enter(int64) {}

func (cl *ConversationList) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Open"},
		{Key: "1-4", Description: "Mode"},
		{Key: "l", Description: "Like"},
	}
}

// Update replaces the rendered entries, keeping the cursor on the same
// conversation when it is still listed.
func (cl *ConversationList) Update(v inbox.View) {
	selected, hadSelection := cl.Selected()
	cl.view = v
	cl.render()
	if hadSelection {
		for i, c := range v.Items {
			if c.Key == selected.Key {
				cl.Select(i, 0)
				return
			}
		}
	}
	cl.Select(0, 0)
}

// Selected returns the conversation under the cursor.
func (cl *ConversationList) Selected() (chat.ConversationSummary, bool) {
	row, _ := cl.GetSelection()
	if row < 0 || row >= len(cl.view.Items) {
		return chat.ConversationSummary{}, false
	}
	return cl.view.Items[row], true
}

func (cl *ConversationList) render() {
	cl.Clear()
	cl.SetTitle(cl.tabs())

	if len(cl.view.Items) == 0 {
		text := cl.view.Empty
		if text == "" {
			text = chat.EmptyStateText(cl.view.Mode)
		}
		cl.SetCell(0, 0, tview.NewTableCell(" "+text).
			SetSelectable(false).
			SetTextColor(cl.theme.MutedColor).
			SetExpansion(1))
		return
	}

	now := cl.now()
	for row, c := range cl.view.Items {
		heart := " "
		if c.IsLiked {
			heart = "♥"
		}
		preview := c.LastMessagePreview
		if preview == "" && c.LastMessageTime.IsZero() {
			preview = "No messages yet"
		}
		cl.SetCell(row, 0, tview.NewTableCell(" "+heart).SetTextColor(cl.theme.LikeColor))
		cl.SetCell(row, 1, tview.NewTableCell(avatarGlyph(c)).SetTextColor(cl.theme.FgColor))
		cl.SetCell(row, 2, tview.NewTableCell(clean(c.DisplayName)).
			SetTextColor(cl.theme.TableHeaderFg).
			SetAttributes(tcell.AttrBold).
			SetMaxWidth(24))
		cl.SetCell(row, 3, tview.NewTableCell(clean(preview)).
			SetTextColor(cl.theme.FgColor).
			SetExpansion(1))
		cl.SetCell(row, 4, tview.NewTableCell(stamp(c.LastMessageTime, now)+" ").
			SetTextColor(cl.theme.MutedColor).
			SetAlign(tview.AlignRight))
	}
}

func (cl *ConversationList) tabs() string {
	active := cl.view.Mode
	if active == "" {
		active = chat.ModeAll
	}
	parts := make([]string, 0, len(chat.Modes))
	for i, m := range chat.Modes {
		label := fmt.Sprintf("%d %s", i+1, m)
		if m == active {
			label = fmt.Sprintf("[%s::b]%s[-:-:-]", ui.ColorName(cl.theme.TabActiveBg), strings.ToUpper(label))
		}
		parts = append(parts, label)
	}
	return fmt.Sprintf(" Chats (%d)  %s ", len(cl.view.Items), strings.Join(parts, "  "))
}

// avatarGlyph shows a group's emoji avatar; image refs and personal chats
// get a dot.
func avatarGlyph(c chat.ConversationSummary) string {
	if c.Key.Kind == chat.Group && uniseg.GraphemeClusterCount(c.AvatarRef) == 1 {
		return c.AvatarRef
	}
	return "•"
}
