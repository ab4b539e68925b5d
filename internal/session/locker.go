package session

import "sync"

// Locker serializes work per user so concurrent updates from the same chat
// cannot interleave reads and writes of one session.
type Locker struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[int64]*sync.Mutex)}
}

func (l *Locker) Lock(userID int64) {
	l.userLock(userID).Lock()
}

func (l *Locker) Unlock(userID int64) {
	l.userLock(userID).Unlock()
}

func (l *Locker) userLock(userID int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	return m
}
