package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"prediction-service/internal/models"
)

// Store keeps sessions in a bounded LRU; idle sessions expire after ttl.
type Store struct {
	cache   *expirable.LRU[string, *Session]
	catalog models.Catalog
	strict  bool
}

func NewStore(size int, ttl time.Duration, catalog models.Catalog, strict bool) *Store {
	return &Store{
		cache:   expirable.NewLRU[string, *Session](size, nil, ttl),
		catalog: catalog,
		strict:  strict,
	}
}

// Create opens a new session on the welcome screen.
func (s *Store) Create() *Session {
	sess := New(uuid.NewString(), s.catalog, s.strict)
	s.cache.Add(sess.ID, sess)
	return sess
}

// Get returns a live session and renews its expiry.
func (s *Store) Get(id string) (*Session, bool) {
	sess, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	s.cache.Add(id, sess)
	return sess, true
}

func (s *Store) Delete(id string) {
	s.cache.Remove(id)
}

func (s *Store) Len() int {
	return s.cache.Len()
}
