package session

import (
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

const (
	sessionTTL      = 1 * time.Hour
	cleanupInterval = 10 * time.Minute
)

// Store keeps live sessions in memory. Sessions expire after an hour of
// inactivity; every access slides the expiration forward.
type Store struct {
	cache *gocache.Cache
}

func NewStore() *Store {
	return &Store{cache: gocache.New(sessionTTL, cleanupInterval)}
}

func (s *Store) Create() *Session {
	sess := &Session{
		ID:        uuid.NewString(),
		View:      ViewReady,
		CreatedAt: time.Now(),
	}
	s.cache.SetDefault(sess.ID, sess)
	return sess
}

func (s *Store) Get(id string) (*Session, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	sess := v.(*Session)
	s.cache.SetDefault(id, sess)
	return sess, true
}

func (s *Store) Delete(id string) {
	s.cache.Delete(id)
}

func (s *Store) Count() int {
	return s.cache.ItemCount()
}
