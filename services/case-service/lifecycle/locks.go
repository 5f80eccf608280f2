package lifecycle

import "sync"

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

// caseLocks serializes mutations per case id. Entries are dropped once no
// goroutine holds or waits on them.
type caseLocks struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

func newCaseLocks() *caseLocks {
	return &caseLocks{locks: make(map[string]*keyedLock)}
}

// lock blocks until id is free and returns the matching unlock.
func (c *caseLocks) lock(id string) func() {
	c.mu.Lock()
	l, ok := c.locks[id]
	if !ok {
		l = &keyedLock{}
		c.locks[id] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, id)
		}
		c.mu.Unlock()
	}
}

func (c *caseLocks) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.locks)
}
