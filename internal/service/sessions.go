package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"sales-deck-generator/internal/model"
)

// DefaultSessionTTL matches how long the generation service keeps a deck.
const DefaultSessionTTL = time.Hour

// SessionStore keeps one Session per form visitor and forgets sessions left
// idle past the TTL.
type SessionStore struct {
	client  model.GenerationClient
	encoder model.LogoEncoder
	ttl     time.Duration
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionStore(client model.GenerationClient, encoder model.LogoEncoder, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		client:   client,
		encoder:  encoder,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

func (st *SessionStore) Create(owner string) *Session {
	s := NewSession(uuid.New().String(), owner, st.client, st.encoder)
	s.now = st.now
	s.lastSeen = st.now()

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()

	log.Printf("Created session %s for %s", s.ID, owner)
	return s
}

// Get returns the session only to the owner it was created for.
func (st *SessionStore) Get(id, owner string) (*Session, bool) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.Owner != owner {
		log.Printf("Owner mismatch for session %s: expected %s, got %s", id, s.Owner, owner)
		return nil, false
	}
	return s, true
}

func (st *SessionStore) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep removes sessions idle longer than the TTL and returns their ids.
// Sessions with a submission in flight are kept.
func (st *SessionStore) Sweep() []string {
	cutoff := st.now().Add(-st.ttl)

	st.mu.Lock()
	defer st.mu.Unlock()

	var removed []string
	for id, s := range st.sessions {
		if s.Busy() || s.LastActive().After(cutoff) {
			continue
		}
		delete(st.sessions, id)
		removed = append(removed, id)
	}
	return removed
}

// Run sweeps every interval until ctx is done, calling onEvict for each
// removed session.
func (st *SessionStore) Run(ctx context.Context, interval time.Duration, onEvict func(id string)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := st.Sweep()
			for _, id := range removed {
				if onEvict != nil {
					onEvict(id)
				}
			}
			if len(removed) > 0 {
				log.Printf("Evicted %d idle sessions", len(removed))
			}
		}
	}
}
