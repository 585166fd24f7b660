package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fieldworks/worktrack-api/internal/models"
	"github.com/fieldworks/worktrack-api/internal/schema"
)

// Entry is one live form session.
type Entry struct {
	ID        string
	Activity  models.ActivityType
	UserID    string
	State     State
	CreatedAt time.Time
	UpdatedAt time.Time

	// submitting guards against concurrent duplicate submissions; it
	// is manipulated only under the store mutex.
	submitting bool
}

// Store keeps form sessions in memory with a TTL. Sessions are
// per-operator interactive state; they are intentionally not shared
// across instances.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	ttl     time.Duration
	now     func() time.Time
}

// NewStore builds a store with the given session TTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 4 * time.Hour
	}
	return &Store{
		entries: map[string]*Entry{},
		ttl:     ttl,
		now:     time.Now,
	}
}

// Create opens a new session with the schema's initial state.
func (s *Store) Create(sc *schema.FormSchema, userID string) *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	entry := &Entry{
		ID:        uuid.NewString(),
		Activity:  sc.Activity,
		UserID:    userID,
		State:     NewState(sc),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.entries[entry.ID] = entry
	return entry
}

// Get returns a snapshot copy of the session, or false when missing
// or expired.
func (s *Store) Get(id string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	if !ok || s.expired(entry) {
		return Entry{}, false
	}
	return *entry, true
}

// Update applies fn to the session state under the store lock so a
// mutation and its validity signal become visible atomically.
func (s *Store) Update(id string, fn func(State) (State, error)) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok || s.expired(entry) {
		return Entry{}, ErrNotFound
	}
	next, err := fn(entry.State)
	if err != nil {
		return Entry{}, err
	}
	entry.State = next
	entry.UpdatedAt = s.now().UTC()
	return *entry, nil
}

// BeginSubmit marks the session as having an in-flight submission.
// It returns false when one is already outstanding.
func (s *Store) BeginSubmit(id string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok || s.expired(entry) {
		return Entry{}, false, ErrNotFound
	}
	if entry.submitting {
		return Entry{}, false, nil
	}
	entry.submitting = true
	return *entry, true, nil
}

// EndSubmit clears the in-flight flag; when reset is true the session
// state returns to the schema's initial empty state.
func (s *Store) EndSubmit(id string, sc *schema.FormSchema, reset bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return
	}
	entry.submitting = false
	if reset {
		entry.State = NewState(sc)
		entry.UpdatedAt = s.now().UTC()
	}
}

// Delete removes a session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

// SweepExpired drops expired sessions and reports how many were removed.
func (s *Store) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, entry := range s.entries {
		if s.expired(entry) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

func (s *Store) expired(entry *Entry) bool {
	return s.now().Sub(entry.UpdatedAt) > s.ttl
}

// ErrNotFound is returned for missing or expired sessions.
var ErrNotFound = errors.New("session not found")
