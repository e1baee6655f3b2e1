package thread

import (
	"time"

	"github.com/matheus3301/chatline/internal/chat"
)

// Row is one rendered message bubble.
type Row struct {
	MessageID int64
	SenderID  int64
	Outgoing  bool
	Text      string
	Voice     bool
	AudioRef  string
	Duration  int
	Bubble    string
	TextColor string
	// Avatar is the resolved image ref. AvatarPending is set until the
	// resolver has answered for it.
	Avatar        string
	AvatarPending bool
	CreatedAt     time.Time
}

// Style carries the inputs of the bubble color decision.
type Style struct {
	UserID       int64
	SessionColor string
	Preferred    string
}

// BuildRows turns sorted messages into rows. Avatars already known to
// cached are filled in; the rest are marked pending.
func BuildRows(msgs []chat.Message, st Style, cached func(ref string) (string, bool)) []Row {
	rows := make([]Row, 0, len(msgs))
	for _, m := range msgs {
		outgoing := st.UserID != 0 && m.SenderID == st.UserID
		bubble := chat.BubbleColor(m, outgoing, st.SessionColor, st.Preferred)
		r := Row{
			MessageID: m.ID,
			SenderID:  m.SenderID,
			Outgoing:  outgoing,
			Text:      m.Content,
			Voice:     m.IsVoice(),
			AudioRef:  m.AudioRef,
			Duration:  m.DurationSeconds,
			Bubble:    bubble,
			TextColor: chat.TextColorFor(bubble),
			CreatedAt: m.CreatedAt,
		}
		switch {
		case m.SenderAvatar == "":
			r.Avatar = chat.DefaultAvatar
		case cached != nil:
			if v, ok := cached(m.SenderAvatar); ok {
				r.Avatar = v
			} else {
				r.Avatar = m.SenderAvatar
				r.AvatarPending = true
			}
		default:
			r.Avatar = m.SenderAvatar
			r.AvatarPending = true
		}
		rows = append(rows, r)
	}
	return rows
}
