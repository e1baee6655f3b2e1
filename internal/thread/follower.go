package thread

import "sync"

// Scroller is the part of a view the follower drives.
type Scroller interface {
	ContentHeight() int
	ScrollToBottom()
}

// Follower keeps a view pinned to its newest row. It scrolls whenever the
// content height differs from the last one it saw, until closed. Late
// layout changes such as an avatar resolving therefore keep the bottom in
// view, and repeated notifications with no height change do nothing.
type Follower struct {
	mu     sync.Mutex
	view   Scroller
	height int
	closed bool
}

func NewFollower(v Scroller) *Follower {
	return &Follower{view: v, height: -1, closed: true}
}

// Pin (re)arms the follower and scrolls to the bottom unconditionally.
func (f *Follower) Pin() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = false
	f.height = f.view.ContentHeight()
	f.view.ScrollToBottom()
}

// Notify reports a possible layout change. It returns true when it scrolled.
func (f *Follower) Notify() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	h := f.view.ContentHeight()
	if h == f.height {
		return false
	}
	f.height = h
	f.view.ScrollToBottom()
	return true
}

// Close stops following until the next Pin.
func (f *Follower) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}
