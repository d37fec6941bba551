package proxy

import "sync"

// Registry resolves wire identities to their owning sessions. It keeps
// no per-view state: the document ID is embedded in every synthetic
// URI, so lookup is a parse plus a map read on each call.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Bind registers a session under its document ID, replacing any
// previous session for the same document.
func (r *Registry) Bind(s *Session) {
	r.mu.Lock()
	r.sessions[s.DocID()] = s
	r.mu.Unlock()
}

// Lookup resolves any synthetic identity (human, overlay, shadow, or
// preview) to its session.
func (r *Registry) Lookup(u DocumentURI) (*Session, bool) {
	_, docID, ok := SplitURI(u)
	if !ok {
		return nil, false
	}
	return r.Session(docID)
}

// Session returns the session for a document ID.
func (r *Registry) Session(docID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[docID]
	return s, ok
}

// Remove drops a session. The session itself is not detached; callers
// detach first if a backend is still connected.
func (r *Registry) Remove(docID string) {
	r.mu.Lock()
	delete(r.sessions, docID)
	r.mu.Unlock()
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
