package utils

import "sync"

// KeyedMutex serializes writers per key. Session controllers lock the
// (test, user) key around get-or-create and submit so the one-active-session
// invariant holds under concurrent requests.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// SessionLocks guards test-session creation and completion
var SessionLocks = NewKeyedMutex()

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (m *KeyedMutex) get(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[key] = lock
	}
	return lock
}

// Lock acquires the mutex for key, creating it on first use
func (m *KeyedMutex) Lock(key string) {
	m.get(key).Lock()
}

// Unlock releases the mutex for key
func (m *KeyedMutex) Unlock(key string) {
	m.get(key).Unlock()
}
