package pathutil

import "sync"

// PathLocks serialises tool calls that touch the same resolved path.
// Independent calls in one batch may run concurrently; two writers on
// one file must not interleave, so each dispatch locks its target's
// canonical absolute path for the duration of the call.
type PathLocks struct {
	mu    sync.Mutex
	locks map[string]*pathLock
}

type pathLock struct {
	mu   sync.Mutex
	refs int
}

// NewPathLocks creates an empty lock table.
func NewPathLocks() *PathLocks {
	return &PathLocks{locks: make(map[string]*pathLock)}
}

// Lock acquires the mutex for abs, creating it on first use.
// The returned func releases the lock and drops the table entry once
// no caller holds or awaits it, so the table stays bounded by the
// number of in-flight calls.
func (p *PathLocks) Lock(abs string) (unlock func()) {
	p.mu.Lock()
	l, ok := p.locks[abs]
	if !ok {
		l = &pathLock{}
		p.locks[abs] = l
	}
	l.refs++
	p.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()
		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, abs)
		}
		p.mu.Unlock()
	}
}
