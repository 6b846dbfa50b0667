package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"clip-sync/internal/catalog"
	"clip-sync/internal/live"
)

var (
	// ErrSessionNotFound is returned when a close event arrives for a
	// session with no tracked clip. Legitimate after a reaper eviction or
	// a failed open; the recorder should not retry.
	ErrSessionNotFound = errors.New("no open session")

	// ErrMetadata wraps failures resolving room or author metadata.
	ErrMetadata = errors.New("metadata resolution failed")

	// ErrCatalog wraps failures talking to the clip catalog.
	ErrCatalog = errors.New("catalog request failed")
)

// CatalogClient performs clip CRUD and author-key lookups against the
// catalog service.
type CatalogClient interface {
	CreateClip(ctx context.Context, draft catalog.ClipDraft) (int64, error)
	Clip(ctx context.Context, id int64) (catalog.ClipRecord, error)
	UpdateClip(ctx context.Context, id int64, clip catalog.ClipRecord) error
	AuthorByUID(ctx context.Context, uid int64) (int64, error)
}

// RoomInfoClient resolves a live room to its author uid and cover image.
type RoomInfoClient interface {
	RoomInfo(ctx context.Context, roomID int64) (live.RoomInfo, error)
}

// Service drives the session lifecycle: it consumes recorder events,
// mutates the catalog, and keeps the session store consistent with what
// the catalog knows about.
//
// Transitions for the same session id are serialized by a per-key lock;
// distinct sessions proceed concurrently.
type Service struct {
	store   Store
	catalog CatalogClient
	rooms   RoomInfoClient
	locks   sessionLocks
	now     func() time.Time
}

// NewService returns a Service over the given store and collaborators.
func NewService(store Store, cat CatalogClient, rooms RoomInfoClient) *Service {
	return &Service{
		store:   store,
		catalog: cat,
		rooms:   rooms,
		now:     time.Now,
	}
}

// HandleFileOpening creates an in-progress clip for the session and
// records the mapping. A session that already has an open clip is treated
// as a duplicate delivery and succeeds without a second create. On any
// failure no record is stored, so a redelivered event starts fresh.
func (s *Service) HandleFileOpening(ctx context.Context, ev EventData) (int64, error) {
	id := SessionID(ev.SessionID)
	unlock := s.locks.lock(id)
	defer unlock()

	if rec, ok := s.store.Get(id); ok && rec.State == StateOpen {
		s.store.Touch(id, s.now())
		return rec.ClipID, nil
	}

	info, err := s.rooms.RoomInfo(ctx, ev.RoomID)
	if err != nil {
		return 0, fmt.Errorf("%w: room %d: %v", ErrMetadata, ev.RoomID, err)
	}
	authorID, err := s.catalog.AuthorByUID(ctx, info.UID)
	if err != nil {
		return 0, fmt.Errorf("%w: author uid %d: %v", ErrMetadata, info.UID, err)
	}

	clipID, err := s.catalog.CreateClip(ctx, catalog.ClipDraft{
		AuthorID: authorID,
		Title:    ClipTitle(ev.RelativePath),
		Datetime: FormatOpenTime(ev.FileOpenTime),
		Cover:    info.Cover,
		Type:     catalog.ClipTypeRecording,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: create clip: %v", ErrCatalog, err)
	}

	now := s.now()
	s.store.Put(SessionRecord{
		SessionID:      id,
		ClipID:         clipID,
		AuthorID:       authorID,
		State:          StateOpen,
		CreatedAt:      now,
		LastActivityAt: now,
	})
	return clipID, nil
}

// HandleFileClosed transitions the session's clip to finished and drops
// the session. If the catalog update fails the record rolls back to open,
// so a redelivered close can retry. The clip id is never mutated and no
// clip is ever created here.
func (s *Service) HandleFileClosed(ctx context.Context, sessionID string) (int64, error) {
	id := SessionID(sessionID)
	unlock := s.locks.lock(id)
	defer unlock()

	rec, ok := s.store.Get(id)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	rec.State = StateClosing
	rec.LastActivityAt = s.now()
	s.store.Put(rec)

	if err := s.finishClip(ctx, rec.ClipID); err != nil {
		rec.State = StateOpen
		s.store.Put(rec)
		return 0, fmt.Errorf("%w: finish clip %d: %v", ErrCatalog, rec.ClipID, err)
	}

	s.store.Remove(id)
	return rec.ClipID, nil
}

// finishClip fetches the current clip, flips its type to finished, and
// writes it back. The id field is stripped from the body; the catalog
// rejects id mutation.
func (s *Service) finishClip(ctx context.Context, clipID int64) error {
	clip, err := s.catalog.Clip(ctx, clipID)
	if err != nil {
		return err
	}
	clip["type"] = catalog.ClipTypeFinished
	delete(clip, "id")
	return s.catalog.UpdateClip(ctx, clipID, clip)
}

// Sweep evicts sessions idle longer than ttl and returns their ids.
// The store's sweep re-checks each record's last activity under its own
// lock, so a session touched by an in-flight transition survives.
func (s *Service) Sweep(ttl time.Duration) []SessionID {
	return s.store.SweepOlderThan(s.now().Add(-ttl))
}

// ActiveSessions returns a copy of every tracked session record.
func (s *Service) ActiveSessions() []SessionRecord {
	return s.store.Snapshot()
}

// sessionLocks hands out one mutex per session id. Entries are dropped
// when the last holder releases, so the table stays bounded by in-flight
// work rather than by session history.
type sessionLocks struct {
	mu sync.Mutex
	m  map[SessionID]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// lock blocks until the per-session mutex for id is held and returns the
// release func.
func (l *sessionLocks) lock(id SessionID) func() {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[SessionID]*sessionLock)
	}
	e, ok := l.m[id]
	if !ok {
		e = &sessionLock{}
		l.m[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.m, id)
		}
		l.mu.Unlock()
	}
}
