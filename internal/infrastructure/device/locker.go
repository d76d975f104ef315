package device

import (
	"context"
	"fmt"
	"sync"
)

// Locker grants exclusive use of a device name. Acquire blocks until the
// name is free or ctx is done; the returned release function is safe to
// call more than once.
type Locker interface {
	Acquire(ctx context.Context, name string) (release func(), err error)
}

// LocalLocker serializes access within one process. Each name gets a
// single-slot channel created on first use.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewLocalLocker creates an in-process locker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]chan struct{})}
}

func (l *LocalLocker) slot(name string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[name]
	if !ok {
		s = make(chan struct{}, 1)
		l.slots[name] = s
	}
	return s
}

// Acquire waits for the name's slot
func (l *LocalLocker) Acquire(ctx context.Context, name string) (func(), error) {
	s := l.slot(name)
	select {
	case s <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-s }) }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("acquire %q: %w", name, ctx.Err())
	}
}

var _ Locker = (*LocalLocker)(nil)
