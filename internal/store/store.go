// Package store holds the snapshots of the most recently loaded log.
package store

import (
	"sync/atomic"

	"github.com/g1heapviz/pkg/model"
)

// Store is the current result set shared by the upload, query and stream
// handlers. Readers always see either the previous or the new set, never a
// mix.
type Store interface {
	// Snapshots returns the current snapshots. The slice must not be
	// modified.
	Snapshots() []*model.HeapSnapshot

	// Replace publishes a new result set wholesale.
	Replace(snapshots []*model.HeapSnapshot)
}

// MemoryStore is an in-process Store backed by an atomic pointer.
type MemoryStore struct {
	current atomic.Pointer[[]*model.HeapSnapshot]
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	empty := make([]*model.HeapSnapshot, 0)
	s.current.Store(&empty)
	return s
}

// Snapshots implements Store.
func (s *MemoryStore) Snapshots() []*model.HeapSnapshot {
	return *s.current.Load()
}

// Replace implements Store. The caller's slice is copied so later appends by
// the caller are not observed.
func (s *MemoryStore) Replace(snapshots []*model.HeapSnapshot) {
	next := make([]*model.HeapSnapshot, len(snapshots))
	copy(next, snapshots)
	s.current.Store(&next)
}

// Len returns the number of current snapshots.
func Len(s Store) int {
	return len(s.Snapshots())
}

// At returns the snapshot at index n, or false when n is out of range.
func At(s Store, n int) (*model.HeapSnapshot, bool) {
	snaps := s.Snapshots()
	if n < 0 || n >= len(snaps) {
		return nil, false
	}
	return snaps[n], true
}

// ByCycle returns the snapshots recorded during cycle, in log order.
func ByCycle(s Store, cycle int) []*model.HeapSnapshot {
	var out []*model.HeapSnapshot
	for _, snap := range s.Snapshots() {
		if snap.Cycle == cycle {
			out = append(out, snap)
		}
	}
	return out
}

var _ Store = (*MemoryStore)(nil)
