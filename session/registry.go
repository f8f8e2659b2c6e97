package session

import (
	"net/netip"
	"sync"
)

// Registry holds the established sessions keyed by the address of their peer.
type Registry struct {
	sessions map[netip.AddrPort]*Session
	mu       sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[netip.AddrPort]*Session),
	}
}

// AddSession registers s unless a session for its address is already registered. It reports whether s
// was added.
func (r *Registry) AddSession(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.addr]; ok {
		return false
	}
	r.sessions[s.addr] = s
	return true
}

func (r *Registry) GetSession(addr netip.AddrPort) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[addr]
}

func (r *Registry) HasSession(addr netip.AddrPort) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[addr]
	return ok
}

// RemoveSession removes s if it is the session registered for its address.
func (r *Registry) RemoveSession(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[s.addr] == s {
		delete(r.sessions, s.addr)
	}
}

func (r *Registry) GetSessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]*Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
