package session

import (
	"context"
	"sync"
)

// record is the persisted shape: the raw token string and the JSON-encoded
// profile, matching what the redis store keeps in its hash fields.
type record struct {
	token   string
	profile []byte
	device  string
}

// InMemoryStore keeps sessions in process memory. It favors clarity over
// performance and backs tests and single-node development.
type InMemoryStore struct {
	notifier
	mu       sync.RWMutex
	sessions map[string]record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]record)}
}

func (s *InMemoryStore) Get(_ context.Context, sid string) (Session, error) {
	s.mu.RLock()
	rec, ok := s.sessions[sid]
	s.mu.RUnlock()
	if !ok {
		return Session{}, nil
	}
	return normalize(Session{Token: rec.token, User: decodeProfile(rec.profile), Device: rec.device}), nil
}

func (s *InMemoryStore) Set(_ context.Context, sid string, sess Session) error {
	sess = normalize(sess)
	s.mu.Lock()
	if sess.Empty() {
		delete(s.sessions, sid)
	} else {
		s.sessions[sid] = record{token: sess.Token, profile: encodeProfile(sess.User), device: sess.Device}
	}
	s.mu.Unlock()
	s.notify(sid, sess)
	return nil
}

func (s *InMemoryStore) Clear(_ context.Context, sid string) error {
	s.mu.Lock()
	delete(s.sessions, sid)
	s.mu.Unlock()
	s.notify(sid, Session{})
	return nil
}

func (s *InMemoryStore) Subscribe(l Listener) func() {
	return s.subscribe(l)
}

// Corrupt overwrites the persisted profile entry with arbitrary bytes.
// Test hook for hydration behavior; not part of the Store contract.
func (s *InMemoryStore) Corrupt(sid string, token string, profile []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sid] = record{token: token, profile: profile}
}
