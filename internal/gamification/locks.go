package gamification

import (
	"sync"

	"github.com/google/uuid"
)

// userLocks - мьютекс на каждого пользователя, записи удаляются когда никто не ждёт
type userLocks struct {
	mtx   sync.Mutex
	locks map[uuid.UUID]*userLock
}

type userLock struct {
	mtx  sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[uuid.UUID]*userLock)}
}

// Lock блокирует пользователя и возвращает функцию разблокировки
func (l *userLocks) Lock(userID uuid.UUID) func() {
	l.mtx.Lock()
	entry, ok := l.locks[userID]
	if !ok {
		entry = &userLock{}
		l.locks[userID] = entry
	}
	entry.refs++
	l.mtx.Unlock()

	entry.mtx.Lock()

	return func() {
		entry.mtx.Unlock()

		l.mtx.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, userID)
		}
		l.mtx.Unlock()
	}
}
