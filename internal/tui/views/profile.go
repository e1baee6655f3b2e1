package views

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/matheus3301/chatline/internal/chat"
	"github.com/matheus3301/chatline/internal/tui/ui"
)

// Profile shows a user and a QR code linking to their profile page.
type Profile struct {
	*tview.TextView
	theme *ui.Theme
}

func NewProfile(theme *ui.Theme) *Profile {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Profile ")
	tv.SetTitleColor(theme.TitleColor)
	return &Profile{TextView: tv, theme: theme}
}

func (p *Profile) Title() string { return "Profile" }

func (p *Profile) Enter(int64) {}

func (p *Profile) Hints() []ui.MenuHint {
	return []ui.MenuHint{{Key: "Esc", Description: "Back"}}
}

// Show renders u with a QR code for link. A zero user shows a placeholder
// until the details arrive.
func (p *Profile) Show(u chat.User, link string) {
	p.Clear()
	if u.ID == 0 {
		_, _ = fmt.Fprint(p, "\n\nLoading profile...")
		return
	}
	counter := ui.ColorName(p.theme.CounterColor)
	_, _ = fmt.Fprintf(p, "\n[::b]%s[-:-:-]\n[%s]@%s[-]\n", clean(u.Name()), counter, clean(u.Username))
	if u.Points > 0 {
		_, _ = fmt.Fprintf(p, "%d points\n", u.Points)
	}
	_, _ = fmt.Fprintf(p, "\n%s\n[::d]%s[-:-:-]", renderQR(link), tview.Escape(link))
}

// ShowMessage replaces the content with msg.
func (p *Profile) ShowMessage(msg string) {
	p.Clear()
	_, _ = fmt.Fprintf(p, "\n\n%s", tview.Escape(msg))
}

// renderQR draws content as a QR code with half-block characters, two
// bitmap rows per terminal line.
func renderQR(content string) string {
	qr, err := qrcode.New(content, qrcode.Low)
	if err != nil {
		return "(QR generation failed: " + err.Error() + ")"
	}
	bitmap := qr.Bitmap()
	var sb strings.Builder
	for y := 0; y < len(bitmap); y += 2 {
		for x := range bitmap[y] {
			top := bitmap[y][x]
			bot := y+1 < len(bitmap) && bitmap[y+1][x]
			switch {
			case top && bot:
				sb.WriteRune('█')
			case top:
				sb.WriteRune('▀')
			case bot:
				sb.WriteRune('▄')
			default:
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}
	return sb.String()
}
