package inmemstore

import (
	"sync"

	"github.com/trezcool/dropout/core/user"
)

type sessionRepository struct {
	table map[string]user.Session
	mutex sync.RWMutex
}

// NewSessionRepository returns an empty session registry, safe for concurrent use.
func NewSessionRepository() user.SessionRepository {
	return &sessionRepository{table: make(map[string]user.Session)}
}

func (repo *sessionRepository) CreateSession(sess user.Session) error {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	repo.table[sess.ID] = sess
	return nil
}

func (repo *sessionRepository) GetSession(id string) (user.Session, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	if sess, ok := repo.table[id]; ok {
		return sess, nil
	}
	return user.Session{}, user.ErrSessionNotFound
}

func (repo *sessionRepository) DeleteSession(id string) error {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	if _, ok := repo.table[id]; !ok {
		return user.ErrSessionNotFound
	}
	delete(repo.table, id)
	return nil
}
