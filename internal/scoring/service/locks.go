package service

import "sync"

// sessionLocks hands out one mutex per session id. Sessions are fully
// independent units of concurrency; no cross-session coordination exists.
type sessionLocks struct {
	locks sync.Map
}

func (l *sessionLocks) lock(sessionID string) *sync.Mutex {
	mu, _ := l.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
