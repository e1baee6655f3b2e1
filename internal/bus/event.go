package bus

import "time"

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Event kinds. Subscribers usually filter on the namespace prefix
// ("inbox.", "voice.", ...).
const (
	KindStatusChanged   = "client.status_changed"
	KindInboxUpdated    = "inbox.updated"
	KindThreadRendered  = "thread.rendered"
	KindThreadFailed    = "thread.failed"
	KindLikeChanged     = "likes.changed"
	KindNavChanged      = "nav.changed"
	KindVoiceState      = "voice.state_changed"
	KindVoiceTick       = "voice.tick"
	KindVoiceQueued     = "voice.queued"
	KindVoiceSent       = "voice.sent"
	KindVoiceSendFailed = "voice.send_failed"
)
