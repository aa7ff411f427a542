package geoblock

import "sync"

// Handle grants exclusive access to a shared DataStore. At most one
// function may run against the store at a time; a call made while the store
// is in use, including a nested call from within Do, fails with ErrBusy.
type Handle struct {
	mu sync.Mutex
	ds *DataStore
}

// NewHandle wraps ds.
func NewHandle(ds *DataStore) *Handle {
	return &Handle{ds: ds}
}

// Do runs fn with exclusive access to the store.
func (h *Handle) Do(fn func(*DataStore) error) error {
	if !h.mu.TryLock() {
		return ErrBusy
	}
	defer h.mu.Unlock()

	return fn(h.ds)
}
