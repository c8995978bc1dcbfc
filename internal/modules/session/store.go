// Package session keeps in-memory portfolios for API clients. A Portfolio
// is not safe for concurrent mutation, so every access to one goes through
// its session's lock.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/niksan004/Stonks/internal/domain"
	"github.com/niksan004/Stonks/internal/modules/portfolio"
)

// Session is one client's portfolio.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu         sync.Mutex
	lastAccess time.Time
	portfolio  *portfolio.Portfolio
}

// LastAccess returns when the session was last used.
func (s *Session) LastAccess() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}

// Store holds sessions keyed by id.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	provider domain.PriceDataProvider
	now      func() time.Time
	log      zerolog.Logger
}

// NewStore creates an empty store whose portfolios resolve through provider.
func NewStore(provider domain.PriceDataProvider, log zerolog.Logger) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		provider: provider,
		now:      time.Now,
		log:      log.With().Str("component", "session_store").Logger(),
	}
}

// Create starts a session with an empty portfolio.
func (s *Store) Create() *Session {
	now := s.now()
	id := uuid.NewString()
	sess := &Session{
		ID:         id,
		CreatedAt:  now,
		lastAccess: now,
		portfolio:  portfolio.New(s.provider, s.log.With().Str("session_id", id).Logger()),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.log.Debug().Str("session_id", sess.ID).Msg("Session created")
	return sess
}

// Get returns the session with id.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return sess, nil
}

// Delete drops the session with id.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	delete(s.sessions, id)
	s.log.Debug().Str("session_id", id).Msg("Session deleted")
	return nil
}

// With runs fn while holding the session's lock.
func (s *Store) With(id string, fn func(p *portfolio.Portfolio) error) error {
	sess, err := s.Get(id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastAccess = s.now()
	return fn(sess.portfolio)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Expire drops sessions idle for longer than maxIdle and returns how many
// were removed.
func (s *Store) Expire(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.RLock()
	var idle []string
	for id, sess := range s.sessions {
		if sess.LastAccess().Before(cutoff) {
			idle = append(idle, id)
		}
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range idle {
		delete(s.sessions, id)
	}
	if len(idle) > 0 {
		s.log.Info().Int("removed", len(idle)).Int("remaining", len(s.sessions)).Msg("Expired idle sessions")
	}
	return len(idle)
}
