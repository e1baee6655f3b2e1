package views

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/matheus3301/chatline/internal/tui/ui"
)

// HelpView displays key binding reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	hv := &HelpView{TextView: tv, theme: theme}
	hv.render()
	return hv
}

func (hv *HelpView) Title() string { return "Help" }

func (hv *HelpView) Enter(int64) {}

func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{{Key: "Esc", Description: "Back"}}
}

func (hv *HelpView) render() {
	kc := ui.ColorName(hv.theme.MenuKeyColor)
	k := func(s string) string { return fmt.Sprintf("[%s]%s[-]", kc, tview.Escape(s)) }

	_, _ = fmt.Fprintf(hv, `
  [::b]Everywhere[-:-:-]
  %s  command prompt         %s  back
  %s  friends                %s  groups
  %s  my profile             %s  help
  %s  quit

  [::b]Chats[-:-:-]
  %s  open                   %s  all / groups / private / favourites
  %s  like or unlike

  [::b]Thread[-:-:-]
  %s  type a message         %s  start recording, press again to send
  %s  sender's profile       %s  cancel recording / back

  [::b]Commands[-:-:-]
  %s  switch chat list mode
  %s  create a group
  %s  retry failed voice messages
  %s  reload the chat list
`,
		k(":"), k("Esc"),
		k("f"), k("g"),
		k("p"), k("?"),
		k("q"),
		k("Enter"), k("1-4"),
		k("l"),
		k("i"), k("r"),
		k("o"), k("Esc"),
		k(":mode <all|groups|private|favourites>"),
		k(":group <name>"),
		k(":retry"),
		k(":refresh"),
	)
}
