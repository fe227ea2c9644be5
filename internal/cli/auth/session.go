package auth

import (
	"errors"
	"fmt"
	"sync"
)

// EventKind describes what happened to the stored credential
type EventKind int

const (
	// TokenChanged fires after login or refresh stored a new token
	TokenChanged EventKind = iota
	// TokenCleared fires after logout or an irrecoverable auth failure
	TokenCleared
)

func (k EventKind) String() string {
	switch k {
	case TokenChanged:
		return "changed"
	case TokenCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// Event is broadcast to subscribers whenever the credential changes
type Event struct {
	Kind   EventKind
	Origin string
	Token  string
}

// Session binds a TokenStore to one backend origin and broadcasts changes.
// At most one token is stored per origin; an empty token means anonymous.
type Session struct {
	store  TokenStore
	origin string

	mu sync.Mutex

	subMu  sync.RWMutex
	subs   map[int]func(Event)
	nextID int
}

// NewSession creates a session for origin backed by store
func NewSession(store TokenStore, origin string) *Session {
	return &Session{
		store:  store,
		origin: origin,
		subs:   make(map[int]func(Event)),
	}
}

// Origin returns the backend origin the session is bound to
func (s *Session) Origin() string {
	return s.origin
}

// Token returns the stored token, or "" when the session is anonymous
func (s *Session) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.store.LoadToken(s.origin)
	if errors.Is(err, ErrNotAuthenticated) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

// Set stores token, replacing any previous one, and notifies subscribers
func (s *Session) Set(token string) error {
	if token == "" {
		return fmt.Errorf("refusing to store an empty token")
	}

	s.mu.Lock()
	err := s.store.SaveToken(s.origin, token)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.broadcast(Event{Kind: TokenChanged, Origin: s.origin, Token: token})
	return nil
}

// Clear removes the stored token and notifies subscribers
func (s *Session) Clear() error {
	s.mu.Lock()
	err := s.store.DeleteToken(s.origin)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.broadcast(Event{Kind: TokenCleared, Origin: s.origin})
	return nil
}

// Subscribe registers fn for credential change events.
// The returned function removes the subscription.
func (s *Session) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Session) broadcast(ev Event) {
	s.subMu.RLock()
	listeners := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range listeners {
		fn(ev)
	}
}
