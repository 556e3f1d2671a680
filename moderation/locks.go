package moderation

import "sync"

// memberLocks serializes event processing per member. Events for distinct
// members take distinct mutexes and never block each other; two concurrent
// events for the same member are applied in acquisition order.
type memberLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newMemberLocks() *memberLocks {
	return &memberLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the member's mutex and returns the matching unlock.
func (ml *memberLocks) acquire(memberID string) func() {
	ml.mu.Lock()
	l, ok := ml.locks[memberID]
	if !ok {
		l = &sync.Mutex{}
		ml.locks[memberID] = l
	}
	ml.mu.Unlock()

	l.Lock()
	return l.Unlock
}
