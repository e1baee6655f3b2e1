package views

import (
	"strings"

	"github.com/rivo/tview"

	"github.com/matheus3301/chatline/internal/tui/ui"
)

// Login is the sign-in form shown while the client is in AUTH_REQUIRED.
type Login struct {
	*tview.Flex
	form     *tview.Form
	message  *tview.TextView
	username string
	password string
	onSubmit func(username, password string)
}

// NewLogin creates the login screen, prefilled with the configured user.
func NewLogin(theme *ui.Theme, username string) *Login {
	l := &Login{username: username}

	form := tview.NewForm()
	form.SetBorder(true)
	form.SetTitle(" Sign in ")
	form.SetTitleColor(theme.TitleColor)
	form.SetBorderColor(theme.BorderColor)
	form.SetBackgroundColor(theme.BgColor)
	form.SetFieldBackgroundColor(theme.BgColor)
	form.SetFieldTextColor(theme.FgColor)
	form.SetLabelColor(theme.MenuKeyColor)
	form.AddInputField("Username", username, 32, nil, func(text string) { l.username = text })
	form.AddPasswordField("Password", "", 32, '*', func(text string) { l.password = text })
	form.AddButton("Log in", l.submit)

	message := tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignCenter)
	message.SetBackgroundColor(theme.BgColor)

	l.form = form
	l.message = message
	l.Flex = tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(form, 9, 0, true).
			AddItem(message, 2, 0, false).
			AddItem(nil, 0, 1, false), 50, 0, true).
		AddItem(nil, 0, 1, false)
	return l
}

func (l *Login) Title() string { return "Login" }

func (l *Login) Enter(int64) {
	l.form.SetFocus(0)
}

func (l *Login) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Log in"},
	}
}

// SetOnSubmit sets the callback invoked with the entered credentials.
func (l *Login) SetOnSubmit(fn func(username, password string)) {
	l.onSubmit = fn
}

// ShowMessage displays a status line under the form.
func (l *Login) ShowMessage(msg string) {
	l.message.SetText(tview.Escape(msg))
}

func (l *Login) submit() {
	user := strings.TrimSpace(l.username)
	if user == "" || l.password == "" {
		l.ShowMessage("Enter a username and a password.")
		return
	}
	l.ShowMessage("Signing in...")
	if l.onSubmit != nil {
		l.onSubmit(user, l.password)
	}
}
