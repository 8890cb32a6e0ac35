// Package registry holds the single mutable aggregate shared by the stream
// and mailbox workers: the ordered alert set, guarded by one mutex (the
// "alert mutex").
//
// Keying LastSent bookkeeping by a per-alert pointer can leak a stale
// mapping if an alert is ever replaced by a distinct object with the same
// identity. This Store sidesteps that risk entirely: an alert's LastSent
// stamp lives on the Alert record itself, and a stored Alert is mutated
// in place for the entire lifetime of its identity — it is never replaced
// by a new object — so there is no second map to key, and no pointer to
// go stale.
package registry

import (
	"sync"

	"github.com/fty-ops/alert-registry/internal/domain/entity"
)

// Store is the shared, lock-protected aggregate. It is constructed once at
// startup (cmd/alertregistryd) and passed by reference to the supervisor
// and both workers; neither worker owns a private copy, avoiding a
// process-wide global.
type Store struct {
	mu sync.Mutex

	order []*entity.Alert
	byKey map[string]*entity.Alert
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		byKey: make(map[string]*entity.Alert),
	}
}

// Lock acquires the alert mutex. Callers must pair every Lock with an
// Unlock and must not perform blocking I/O (bus sends, disk writes) while
// holding it.
func (s *Store) Lock() { s.mu.Lock() }

// Unlock releases the alert mutex.
func (s *Store) Unlock() { s.mu.Unlock() }

// FindLocked looks up the stored alert with the given identity. The
// caller must hold the lock. The returned pointer is the live, mutable
// alert; mutating it is exactly how the merge state machine and the
// acknowledge handler update state.
func (s *Store) FindLocked(id entity.Identity) (*entity.Alert, bool) {
	if a, ok := s.byKey[id.Key()]; ok && a.Identity().Equal(id) {
		return a, true
	}
	// Key is only a lower-cased approximation of Equal, so a miss on the
	// map is confirmed by a scan with the exact comparison.
	for _, a := range s.order {
		if a.Identity().Equal(id) {
			return a, true
		}
	}
	return nil, false
}

// InsertEndLocked appends a new alert to the end of the registry. The
// caller must hold the lock and must have already verified, via
// FindLocked, that no alert with this identity exists.
func (s *Store) InsertEndLocked(a *entity.Alert) {
	s.order = append(s.order, a)
	s.byKey[a.Identity().Key()] = a
}

// IterLocked returns the stored alerts in insertion order. The caller must
// hold the lock for as long as it dereferences the returned pointers; the
// slice itself is a fresh copy and safe to retain after Unlock.
func (s *Store) IterLocked() []*entity.Alert {
	out := make([]*entity.Alert, len(s.order))
	copy(out, s.order)
	return out
}

// ForEachMutLocked visits every stored alert in insertion order, under the
// lock, allowing in-place mutation. It is used by the TTL sweep, which
// both scans and mutates the registry in one pass: each alert is visited
// once and mutated directly, never via a restarted iteration.
func (s *Store) ForEachMutLocked(f func(*entity.Alert)) {
	for _, a := range s.order {
		f(a)
	}
}

// LastSentLocked returns the monotonic second the alert with this identity
// was last republished, or 0 if never (including if no such alert is
// stored). The caller must hold the lock.
func (s *Store) LastSentLocked(id entity.Identity) int64 {
	a, ok := s.FindLocked(id)
	if !ok {
		return 0
	}
	return a.LastSent
}

// SetLastSentLocked records the monotonic second an alert with this
// identity was last republished. The caller must hold the lock. This is
// the narrow, lock-reacquiring step the merge state machine performs after
// a successful bus publish. It is a no-op if no alert with this identity
// is stored.
func (s *Store) SetLastSentLocked(id entity.Identity, monotonicSeconds int64) {
	if a, ok := s.FindLocked(id); ok {
		a.LastSent = monotonicSeconds
	}
}

// Len returns the number of stored alerts (acquires the lock itself).
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Counts returns the total number of stored alerts and the number not in
// RESOLVED state, without cloning any alert. It is cheap enough to call
// once per TTL sweep tick to refresh the registry-size gauges.
func (s *Store) Counts() (total, active int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total = len(s.order)
	for _, a := range s.order {
		if a.State != entity.StateResolved {
			active++
		}
	}
	return total, active
}

// Snapshot returns a deep copy of every stored alert, for callers (the
// mailbox list handler, the persistence layer) that need to read the
// whole set and then release the lock promptly before doing slow work
// like encoding or disk I/O.
func (s *Store) Snapshot() []*entity.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Alert, len(s.order))
	for i, a := range s.order {
		out[i] = a.Clone()
	}
	return out
}
