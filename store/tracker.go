// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package store

import (
	"errors"
	"sync"
)

// Tracker records live shared-memory stores so that an application can
// force-release every attached segment on teardown, including abnormal
// shutdown paths that skip the owners' own cleanup.
//
// A Tracker is owned by the application lifecycle and handed to each Store
// through Config. It is safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	stores map[*Store]struct{}
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{stores: make(map[*Store]struct{})}
}

// Track adds s to the tracker.
func (t *Tracker) Track(s *Store) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stores == nil {
		t.stores = make(map[*Store]struct{})
	}
	t.stores[s] = struct{}{}
}

// Untrack removes s from the tracker.
func (t *Tracker) Untrack(s *Store) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.stores, s)
}

// Len returns the number of tracked stores.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.stores)
}

// ReleaseAll releases every tracked store and returns the joined errors.
func (t *Tracker) ReleaseAll() error {
	t.mu.Lock()
	live := make([]*Store, 0, len(t.stores))
	for s := range t.stores {
		live = append(live, s)
	}
	t.mu.Unlock()

	// Release calls back into Untrack, so the lock must not be held here.
	var errs []error
	for _, s := range live {
		if err := s.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
