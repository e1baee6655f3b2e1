package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/chatline/internal/chat"
	"github.com/matheus3301/chatline/internal/tui/ui"
)

// Groups lists group threads and holds the create-group field.
type Groups struct {
	*tview.Flex
	theme    *ui.Theme
	table    *tview.Table
	create   *tview.InputField
	groups   []chat.ConversationSummary
	onCreate func(name string)
}

func NewGroups(theme *ui.Theme) *Groups {
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

	create := tview.NewInputField().
		SetLabel(" New group name: ").
		SetFieldWidth(0)
	create.SetBackgroundColor(theme.BgColor)
	create.SetFieldBackgroundColor(theme.BgColor)
	create.SetFieldTextColor(theme.FgColor)
	create.SetLabelColor(theme.MenuKeyColor)

	g := &Groups{
		Flex: tview.NewFlex().
			SetDirection(tview.FlexRow).
			AddItem(table, 0, 1, true).
			AddItem(create, 1, 0, false),
		theme:  theme,
		table:  table,
		create: create,
	}
	create.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter || g.onCreate == nil {
			return
		}
		name := create.GetText()
		create.SetText("")
		g.onCreate(name)
	})
	return g
}

func (g *Groups) Title() string { return "Groups" }

func (g *Groups) Enter(int64) {}

func (g *Groups) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Open"},
		{Key: "n", Description: "New group"},
	}
}

// SetOnCreate sets the callback for the create field.
func (g *Groups) SetOnCreate(fn func(name string)) { g.onCreate = fn }

// Create returns the create field, for focus handling.
func (g *Groups) Create() *tview.InputField { return g.create }

// List returns the table, for focus handling.
func (g *Groups) List() *tview.Table { return g.table }

// Update shows the group entries of the inbox, already ordered.
func (g *Groups) Update(groups []chat.ConversationSummary) {
	g.groups = groups
	g.table.Clear()
	g.table.SetTitle(fmt.Sprintf(" Groups (%d) ", len(groups)))
	if len(groups) == 0 {
		g.table.SetCell(0, 0, tview.NewTableCell(" "+chat.EmptyStateText(chat.ModeGroups)).
			SetSelectable(false).
			SetTextColor(g.theme.MutedColor))
		return
	}
	for row, c := range groups {
		g.table.SetCell(row, 0, tview.NewTableCell(" "+avatarGlyph(c)))
		g.table.SetCell(row, 1, tview.NewTableCell(clean(c.DisplayName)).
			SetTextColor(g.theme.TableHeaderFg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(1))
	}
}

// Selected returns the group under the cursor.
func (g *Groups) Selected() (chat.ConversationSummary, bool) {
	row, _ := g.table.GetSelection()
	if row < 0 || row >= len(g.groups) {
		return chat.ConversationSummary{}, false
	}
	return g.groups[row], true
}
