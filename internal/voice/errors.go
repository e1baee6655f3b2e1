package voice

import "errors"

var (
	// ErrPermissionDenied means the capture device refused access.
	ErrPermissionDenied = errors.New("microphone permission denied")
	// ErrNoDevice means there is no capture device or capture program.
	ErrNoDevice = errors.New("no microphone available")
	// ErrTooShort is returned for clips under one second; they are discarded.
	ErrTooShort = errors.New("recording too short")
	// ErrNotRecording is returned by Release when nothing was captured,
	// including a tap released before the debounce elapsed.
	ErrNotRecording = errors.New("not recording")
	// ErrBusy is returned by Press while a session is already running.
	ErrBusy = errors.New("recording already in progress")
)

// Message returns the user-facing text for a recorder error.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "Microphone access denied. Allow access to record voice messages."
	case errors.Is(err, ErrNoDevice):
		return "No microphone found."
	case errors.Is(err, ErrTooShort):
		return "Recording too short, hold to record."
	case err == nil:
		return ""
	default:
		return "Could not record: " + err.Error()
	}
}
