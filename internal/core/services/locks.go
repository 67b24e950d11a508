package services

import "sync"

// keyedMutex serializes mutating operations per key (account ID or invoice
// ID). The ledger is logically single-writer per account: two concurrent
// settlements must never both observe a stale outstanding amount. Critical
// sections are short (in-memory arithmetic plus one persistence write), so
// mutexes are never released early and never held across calls.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key and returns its unlock function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()
	m.Lock()
	return m.Unlock
}
