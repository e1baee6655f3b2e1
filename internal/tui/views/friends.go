package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/chatline/internal/chat"
	"github.com/matheus3301/chatline/internal/tui/ui"
)

// Entry is one row of the friends screen: a friend, or a search hit while a
// query is active.
type Entry struct {
	User chat.User
	// ConversationID is set when a conversation with the user exists.
	ConversationID  int64
	HasConversation bool
	Friend          bool
}

// Friends lists friends and, while the search field holds a query, user
// search results.
type Friends struct {
	*tview.Flex
	theme   *ui.Theme
	search  *tview.InputField
	table   *tview.Table
	entries []Entry
	onQuery func(string)
}

func NewFriends(theme *ui.Theme) *Friends {
	search := tview.NewInputField().
		SetLabel(" Search users: ").
		SetFieldWidth(0)
	search.SetBackgroundColor(theme.BgColor)
	search.SetFieldBackgroundColor(theme.BgColor)
	search.SetFieldTextColor(theme.FgColor)
	search.SetLabelColor(theme.MenuKeyColor)

	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetTitleColor(theme.TitleColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))

	f := &Friends{
		Flex: tview.NewFlex().
			SetDirection(tview.FlexRow).
			AddItem(search, 1, 0, false).
			AddItem(table, 0, 1, true),
		theme:  theme,
		search: search,
		table:  table,
	}
	search.SetChangedFunc(func(text string) {
		if f.onQuery != nil {
			f.onQuery(text)
		}
	})
	return f
}

func (f *Friends) Title() string { return "Friends" }

func (f *Friends) Enter(int64) {}

func (f *Friends) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Chat"},
		{Key: "/", Description: "Search"},
		{Key: "p", Description: "Profile"},
		{Key: "x", Description: "Remove friend"},
	}
}

// SetOnQuery sets the callback for every edit of the search field.
func (f *Friends) SetOnQuery(fn func(string)) { f.onQuery = fn }

// Search returns the search field, for focus handling.
func (f *Friends) Search() *tview.InputField { return f.search }

// List returns the table, for focus handling.
func (f *Friends) List() *tview.Table { return f.table }

// Update shows friends, or hits when query is not empty.
func (f *Friends) Update(friends []chat.Friend, query string, hits []chat.SearchHit) {
	f.entries = f.entries[:0]
	if query == "" {
		for _, fr := range friends {
			f.entries = append(f.entries, Entry{User: fr.User, ConversationID: fr.ConversationID, HasConversation: fr.ConversationID != 0, Friend: true})
		}
		f.table.SetTitle(fmt.Sprintf(" Friends (%d) ", len(friends)))
	} else {
		for _, h := range hits {
			f.entries = append(f.entries, Entry{User: h.User, HasConversation: h.HasConversation})
		}
		f.table.SetTitle(fmt.Sprintf(" Users matching %q (%d) ", query, len(hits)))
	}

	f.table.Clear()
	if len(f.entries) == 0 {
		text := "No friends yet. Search for someone to start chatting."
		if query != "" {
			text = "No users found."
		}
		f.table.SetCell(0, 0, tview.NewTableCell(" "+text).SetSelectable(false).SetTextColor(f.theme.MutedColor))
		return
	}
	for row, e := range f.entries {
		marker := " "
		if e.HasConversation {
			marker = "✉"
		}
		f.table.SetCell(row, 0, tview.NewTableCell(" "+marker).SetTextColor(f.theme.CounterColor))
		f.table.SetCell(row, 1, tview.NewTableCell(clean(e.User.Name())).
			SetTextColor(f.theme.TableHeaderFg).
			SetAttributes(tcell.AttrBold))
		f.table.SetCell(row, 2, tview.NewTableCell("@"+clean(e.User.Username)).
			SetTextColor(f.theme.MutedColor).
			SetExpansion(1))
	}
}

// Selected returns the entry under the cursor.
func (f *Friends) Selected() (Entry, bool) {
	row, _ := f.table.GetSelection()
	if row < 0 || row >= len(f.entries) {
		return Entry{}, false
	}
	return f.entries[row], true
}

// Lookup finds a user among the shown entries.
func (f *Friends) Lookup(userID int64) (chat.User, bool) {
	for _, e := range f.entries {
		if e.User.ID == userID {
			return e.User, true
		}
	}
	return chat.User{}, false
}
