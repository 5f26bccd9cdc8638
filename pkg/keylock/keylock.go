// Package keylock provides mutual exclusion keyed by string. It serializes
// work per logical key (here: one course/student pair) while leaving
// operations on different keys fully concurrent.
// No external dependencies - uses only standard library.
package keylock

import "sync"

// KeyLock hands out one mutex per key. Entries are reference-counted and
// removed once the last holder releases, so the map does not grow with the
// total number of keys ever seen.
type KeyLock struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// New creates an empty KeyLock.
func New() *KeyLock {
	return &KeyLock{entries: make(map[string]*entry)}
}

// Lock acquires the mutex for key, blocking until it is available, and
// returns the release function. The caller must invoke the release exactly
// once, typically via defer.
func (l *KeyLock) Lock(key string) (release func()) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()

			l.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(l.entries, key)
			}
			l.mu.Unlock()
		})
	}
}

// Len returns the number of keys currently held or waited on.
func (l *KeyLock) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
