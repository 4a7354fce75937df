// Package lockmap provides per-key mutual exclusion for serializing
// read-modify-write cycles against individual records.
package lockmap

import "sync"

// Map hands out one mutex per key. Mutexes live for the process lifetime;
// the key space here (episode identifiers) is small enough that eviction
// is not worth the bookkeeping.
type Map struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New returns an empty lock map.
func New() *Map {
	return &Map{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key and returns an unlock function.
func (m *Map) Lock(key string) func() {
	m.mu.Lock()
	lock, ok := m.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[key] = lock
	}
	m.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
