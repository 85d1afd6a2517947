package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/Maciekds1981/kolorowanki/internal/domain"
	"github.com/Maciekds1981/kolorowanki/internal/infra/credentials"
)

// Store keeps sessions in memory. A session expires after ttl without access.
type Store struct {
	cache *cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	cleanup := ttl / 2
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &Store{cache: cache.New(ttl, cleanup), ttl: ttl, now: time.Now}
}

// Create starts a new session with optional credential and model overrides.
func (s *Store) Create(creds credentials.Credentials, textModel string) *Session {
	sess := newSession(uuid.NewString(), creds, textModel, s.now())
	s.cache.Set(sess.ID, sess, s.ttl)
	return sess
}

// Get returns the session and extends its lifetime.
func (s *Store) Get(id string) (*Session, error) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	sess, ok := v.(*Session)
	if !ok {
		return nil, domain.ErrNotFound
	}
	s.cache.Set(id, sess, s.ttl)
	return sess, nil
}

func (s *Store) Delete(id string) {
	s.cache.Delete(id)
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	return s.cache.ItemCount()
}
