package memory

import (
	"time"

	"collabnote-be/internal/entity"

	"github.com/patrickmn/go-cache"
)

// SessionRepository maps a connection id to its logged-in user. Entries
// never expire on their own; the gateway deletes them on logout and
// disconnect.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository() *SessionRepository {
	c := cache.New(cache.NoExpiration, 10*time.Minute)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(connId string, user *entity.User) {
	r.cache.Set(connId, user, cache.NoExpiration)
}

func (r *SessionRepository) Get(connId string) (*entity.User, bool) {
	if x, found := r.cache.Get(connId); found {
		return x.(*entity.User), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(connId string) {
	r.cache.Delete(connId)
}
