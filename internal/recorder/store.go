package recorder

import (
	"sync"
	"time"
)

// Store is the authoritative in-memory state for in-flight sessions.
// Implementations must be safe for concurrent use; sweeping must be
// callable while per-session operations are in flight.
type Store interface {
	// Get returns a copy of the record for id.
	Get(id SessionID) (SessionRecord, bool)

	// Put inserts or replaces the record keyed by rec.SessionID.
	Put(rec SessionRecord)

	// Remove deletes the record for id. Removing an absent id is a no-op.
	Remove(id SessionID)

	// Touch updates the record's last-activity timestamp. Touching an
	// absent id is a no-op.
	Touch(id SessionID, now time.Time)

	// SweepOlderThan removes every record whose last activity predates
	// cutoff and returns the removed ids. The age check and the removal
	// happen atomically, so a record refreshed by a concurrent Put or
	// Touch is never evicted on stale information.
	SweepOlderThan(cutoff time.Time) []SessionID

	// ActiveSessionCount returns the number of tracked sessions. Used for
	// metrics.
	ActiveSessionCount() int

	// Snapshot returns a copy of every tracked record. Used by the debug
	// endpoint.
	Snapshot() []SessionRecord
}

// InMemoryStore is a concurrency-safe in-memory implementation of Store.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[SessionID]SessionRecord
}

// NewInMemoryStore returns a new empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[SessionID]SessionRecord),
	}
}

// Get implements Store.Get.
func (s *InMemoryStore) Get(id SessionID) (SessionRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sessions[id]
	return rec, ok
}

// Put implements Store.Put.
func (s *InMemoryStore) Put(rec SessionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[rec.SessionID] = rec
}

// Remove implements Store.Remove.
func (s *InMemoryStore) Remove(id SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Touch implements Store.Touch.
func (s *InMemoryStore) Touch(id SessionID, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[id]
	if !ok {
		return
	}
	rec.LastActivityAt = now
	s.sessions[id] = rec
}

// SweepOlderThan implements Store.SweepOlderThan.
func (s *InMemoryStore) SweepOlderThan(cutoff time.Time) []SessionID {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []SessionID
	for id, rec := range s.sessions {
		if rec.LastActivityAt.Before(cutoff) {
			delete(s.sessions, id)
			removed = append(removed, id)
		}
	}
	return removed
}

// ActiveSessionCount implements Store.ActiveSessionCount.
func (s *InMemoryStore) ActiveSessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Snapshot implements Store.Snapshot.
func (s *InMemoryStore) Snapshot() []SessionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]SessionRecord, 0, len(s.sessions))
	for _, rec := range s.sessions {
		out = append(out, rec)
	}
	return out
}
