package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"officefruits/workflow"
)

type sessionEntry struct {
	mu        sync.Mutex
	data      []byte
	expiresAt time.Time
	deleted   bool
}

// MemorySessionStore keeps sessions in process memory as JSON snapshots.
// Updates to one session are serialized; different sessions never block each other.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
	ttl      time.Duration
	now      func() time.Time
}

// NewMemorySessionStore creates a new MemorySessionStore. ttl <= 0 keeps sessions forever.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*sessionEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Ensure MemorySessionStore implements SessionStore
var _ SessionStore = (*MemorySessionStore)(nil)

func (m *MemorySessionStore) expiry() time.Time {
	if m.ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(m.ttl)
}

func (m *MemorySessionStore) expired(e *sessionEntry) bool {
	return e.deleted || (!e.expiresAt.IsZero() && m.now().After(e.expiresAt))
}

func (m *MemorySessionStore) entry(id string) (*sessionEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[id]
	return e, ok
}

// Get returns a copy of the stored session
func (m *MemorySessionStore) Get(ctx context.Context, id string) (*workflow.Session, error) {
	e, ok := m.entry(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if m.expired(e) {
		return nil, ErrSessionNotFound
	}
	return decodeSession(e.data)
}

// Create stores a new session, replacing any previous one with the same id
func (m *MemorySessionStore) Create(ctx context.Context, sess *workflow.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = &sessionEntry{data: data, expiresAt: m.expiry()}
	return nil
}

// Update applies fn to the session under its lock
func (m *MemorySessionStore) Update(ctx context.Context, id string, fn func(*workflow.Session) error) (*workflow.Session, error) {
	e, ok := m.entry(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if m.expired(e) {
		return nil, ErrSessionNotFound
	}

	sess, err := decodeSession(e.data)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	sess.UpdatedAt = m.now()

	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	e.data = data
	e.expiresAt = m.expiry()
	return sess, nil
}

// Delete removes a session. Deleting an unknown id is not an error.
func (m *MemorySessionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	e, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		e.mu.Lock()
		e.deleted = true
		e.mu.Unlock()
	}
	return nil
}

// PurgeExpired drops expired sessions and returns how many were removed
func (m *MemorySessionStore) PurgeExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, e := range m.sessions {
		if e.mu.TryLock() {
			if m.expired(e) {
				e.deleted = true
				delete(m.sessions, id)
				removed++
			}
			e.mu.Unlock()
		}
	}
	return removed
}

func decodeSession(data []byte) (*workflow.Session, error) {
	var sess workflow.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &sess, nil
}
