package import_feature

import (
	"sync"
)

// SessionStore holds the live import sessions. Sessions are deliberately
// in-memory: everything before publish is advisory, and the durable outcome
// of a session is the master state plus the audit entry. One active session
// per master type is enforced here.
type SessionStore struct {
	mu        sync.RWMutex
	sessions  map[string]*ImportSession
	perMaster map[string]string // master key -> active session id
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions:  make(map[string]*ImportSession),
		perMaster: make(map[string]string),
	}
}

// Put registers a new session. Fails if the master already has one.
func (st *SessionStore) Put(session *ImportSession) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if existing, ok := st.perMaster[session.Master]; ok {
		return &ActiveSessionError{Master: session.Master, SessionID: existing}
	}

	st.sessions[session.ID] = session
	st.perMaster[session.Master] = session.ID
	return nil
}

// Get returns the live session for id.
func (st *SessionStore) Get(id string) (*ImportSession, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	session, ok := st.sessions[id]
	if !ok {
		return nil, &SessionNotFoundError{ID: id}
	}
	return session, nil
}

// Delete discards a session, freeing its master for a new attempt.
func (st *SessionStore) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if session, ok := st.sessions[id]; ok {
		delete(st.perMaster, session.Master)
		delete(st.sessions, id)
	}
}

// Mutate runs fn while holding the store lock, so concurrent API calls on
// the same session stay serialized.
func (st *SessionStore) Mutate(id string, fn func(*ImportSession) error) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	session, ok := st.sessions[id]
	if !ok {
		return &SessionNotFoundError{ID: id}
	}
	return fn(session)
}

// Snapshot returns a copy safe to hand to callers without holding the lock.
func (st *SessionStore) Snapshot(id string) (ImportSession, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	session, ok := st.sessions[id]
	if !ok {
		return ImportSession{}, &SessionNotFoundError{ID: id}
	}

	out := *session
	out.Mappings = append([]ColumnMapping(nil), session.Mappings...)
	out.Issues = append([]ValidationIssue(nil), session.Issues...)
	out.Conflicts = append([]ConflictItem(nil), session.Conflicts...)
	return out, nil
}
