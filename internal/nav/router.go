package nav

import (
	"sync"

	"github.com/matheus3301/chatline/internal/bus"
)

// Route names a screen.
type Route string

const (
	RouteLogin   Route = "login"
	RouteChats   Route = "chats"
	RouteThread  Route = "thread"
	RouteFriends Route = "friends"
	RouteGroups  Route = "groups"
	RouteProfile Route = "profile"
)

// Change is the payload of nav.changed events.
type Change struct {
	From  Route
	To    Route
	Param int64
}

// Router tracks the current screen. Screens call Go and Back and react to
// nav.changed; they never reference each other.
type Router struct {
	mu      sync.Mutex
	session *Session
	bus     *bus.Bus
	current Route
	param   int64
	// returnTo is where Back leads from the profile screen.
	returnTo      Route
	returnToParam int64
}

// NewRouter starts on the chat list.
func NewRouter(s *Session, b *bus.Bus) *Router {
	return &Router{session: s, bus: b, current: RouteChats}
}

// Current returns the current route and its parameter.
func (r *Router) Current() (Route, int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current, r.param
}

// Go switches to a route. The parameter is a user id for the profile route
// and is ignored elsewhere.
func (r *Router) Go(to Route, param int64) {
	r.mu.Lock()
	from := r.current
	if to == RouteProfile && from != RouteProfile {
		r.returnTo, r.returnToParam = r.current, r.param
	}
	r.current, r.param = to, param
	r.mu.Unlock()

	r.bus.Emit(bus.KindNavChanged, Change{From: from, To: to, Param: param})
}

// Back leaves the current screen. From a thread it returns to friends or
// groups when that is where the thread was opened, otherwise to the chat
// list, and clears the active thread.
func (r *Router) Back() {
	r.mu.Lock()
	from := r.current
	to := RouteChats
	var param int64
	switch from {
	case RouteThread:
		switch {
		case r.session.CameFromFriends():
			to = RouteFriends
		case r.session.CameFromGroups():
			to = RouteGroups
		}
		r.session.Leave()
	case RouteProfile:
		if r.returnTo != "" {
			to, param = r.returnTo, r.returnToParam
		}
		r.returnTo = ""
	}
	r.current, r.param = to, param
	r.mu.Unlock()

	r.bus.Emit(bus.KindNavChanged, Change{From: from, To: to, Param: param})
}
