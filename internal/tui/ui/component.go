package ui

// MenuHint describes a keyboard shortcut for display in the menu bar.
type MenuHint struct {
	Key         string
	Description string
}

// Screen is implemented by every routed view. Enter runs when the router
// switches to it, with the route parameter (a user id for profiles).
type Screen interface {
	Title() string
	Enter(param int64)
	Hints() []MenuHint
}
