package vacation

import "sync"

// userLocks hands out one mutex per user key. Create and Review for the same
// user serialize on it so the overlap check and the balance check-then-act
// sequence execute as a unit; different users proceed in parallel.
//
// Locks are never evicted. The map grows with the user population, which is
// bounded and small for this system.
type userLocks struct {
	mu    sync.Mutex
	locks map[UserID]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[UserID]*sync.Mutex)}
}

func (ul *userLocks) get(id UserID) *sync.Mutex {
	ul.mu.Lock()
	defer ul.mu.Unlock()

	l, ok := ul.locks[id]
	if !ok {
		l = &sync.Mutex{}
		ul.locks[id] = l
	}
	return l
}
