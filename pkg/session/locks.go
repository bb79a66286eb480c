package session

import "sync"

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// keyedLocks hands out one mutex per session ID and garbage collects it once
// nobody holds or waits on it.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*lockEntry)}
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(id) after unlocking.
func (k *keyedLocks) acquire(id string) *lockEntry {
	k.mu.Lock()
	defer k.mu.Unlock()

	entry, exists := k.locks[id]
	if !exists {
		entry = &lockEntry{}
		k.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (k *keyedLocks) release(id string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	entry, exists := k.locks[id]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(k.locks, id)
	}
}

// with runs fn while holding the lock for id.
func (k *keyedLocks) with(id string, fn func() error) error {
	entry := k.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		k.release(id)
	}()
	return fn()
}

func (k *keyedLocks) len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
