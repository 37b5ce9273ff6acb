package services

import "sync"

// marketLocks serializes mutations of the same market within this process.
// Entries are reference counted and removed when nobody holds or waits.
type marketLocks struct {
	mu    sync.Mutex
	locks map[uint]*marketLock
}

type marketLock struct {
	mu      sync.Mutex
	waiters int
}

func newMarketLocks() *marketLocks {
	return &marketLocks{locks: make(map[uint]*marketLock)}
}

// Lock blocks until the market's lock is held and returns its release func
func (l *marketLocks) Lock(marketID uint) func() {
	l.mu.Lock()
	ml, ok := l.locks[marketID]
	if !ok {
		ml = &marketLock{}
		l.locks[marketID] = ml
	}
	ml.waiters++
	l.mu.Unlock()

	ml.mu.Lock()
	return func() {
		ml.mu.Unlock()
		l.mu.Lock()
		ml.waiters--
		if ml.waiters == 0 {
			delete(l.locks, marketID)
		}
		l.mu.Unlock()
	}
}

func (l *marketLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
