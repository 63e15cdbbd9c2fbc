// Package lock serializes work per key, such as writes for one email id.
package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrNotAcquired is returned when a lock could not be taken before ctx ended.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker hands out exclusive locks per key. The returned func releases it.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Local is an in-process Locker. Entries are dropped once nobody holds or waits on them.
type Local struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	ch   chan struct{}
	refs int
}

func NewLocal() *Local {
	return &Local{locks: make(map[string]*entry)}
}

func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, errors.Join(ErrNotAcquired, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(key, e)
		})
	}, nil
}

func (l *Local) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

func (l *Local) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
