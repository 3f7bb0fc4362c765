package coordinator

import "sync"

// roleLocks hands out one mutex per role id and forgets it when nobody holds it.
type roleLocks struct {
	mu    sync.Mutex
	locks map[uint]*roleLock
}

type roleLock struct {
	sync.Mutex
	refs int
}

func (l *roleLocks) lock(roleID uint) (unlock func()) {
	l.mu.Lock()

	if l.locks == nil {
		l.locks = make(map[uint]*roleLock)
	}

	rl, ok := l.locks[roleID]
	if !ok {
		rl = &roleLock{}
		l.locks[roleID] = rl
	}

	rl.refs++
	l.mu.Unlock()

	rl.Lock()

	return func() {
		rl.Unlock()

		l.mu.Lock()
		rl.refs--

		if rl.refs == 0 {
			delete(l.locks, roleID)
		}
		l.mu.Unlock()
	}
}
