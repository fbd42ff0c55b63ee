package identity

import (
	"sync"
	"time"
)

// SessionContext carries the current identity for one device session. It is
// immutable; a sign-in or sign-out replaces the context wholesale rather
// than mutating it in place.
type SessionContext struct {
	Identity  Identity
	StartedAt time.Time
}

// Handler observes identity transitions.
type Handler func(old, new Identity)

// Sessions tracks the identity bound to each device and notifies
// subscribers when a device transitions between anonymous and signed-in.
// Handlers run sequentially on the caller's goroutine, after the session
// swap, so a handler never races an in-flight transition for the same
// device.
type Sessions struct {
	mu       sync.Mutex
	byDevice map[string]SessionContext
	handlers map[int]Handler
	nextID   int
}

func NewSessions() *Sessions {
	return &Sessions{
		byDevice: make(map[string]SessionContext),
		handlers: make(map[int]Handler),
	}
}

// Resolve returns the identity currently bound to the device, creating an
// anonymous session when the device is unknown.
func (s *Sessions) Resolve(deviceID string) Identity {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.byDevice[deviceID]; ok {
		return sess.Identity
	}
	sess := SessionContext{Identity: Anonymous(deviceID), StartedAt: time.Now().UTC()}
	s.byDevice[deviceID] = sess
	return sess.Identity
}

// SignIn binds a user to the device and notifies subscribers. Signing in
// the same user twice is a no-op and fires no notifications.
func (s *Sessions) SignIn(deviceID, userID string) Identity {
	return s.transition(deviceID, SignedIn(deviceID, userID))
}

// SignOut drops the user binding, returning the device to anonymous.
func (s *Sessions) SignOut(deviceID string) Identity {
	return s.transition(deviceID, Anonymous(deviceID))
}

func (s *Sessions) transition(deviceID string, next Identity) Identity {
	s.mu.Lock()
	old := s.byDevice[deviceID].Identity
	if old == (Identity{}) {
		old = Anonymous(deviceID)
	}
	if old == next {
		s.mu.Unlock()
		return next
	}
	s.byDevice[deviceID] = SessionContext{Identity: next, StartedAt: time.Now().UTC()}
	handlers := make([]Handler, 0, len(s.handlers))
	for _, h := range s.handlers {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()

	for _, h := range handlers {
		h(old, next)
	}
	return next
}

// Subscribe registers a transition handler and returns its unsubscribe
// function.
func (s *Sessions) Subscribe(h Handler) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.handlers[id] = h
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.handlers, id)
	}
}
