// Package lock serializes writes per key. The scheduling engine keys locks
// by user so two edits to the same calendar never validate against a stale
// snapshot.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// CalendarKey is the lock every write to a user's calendar shares.
func CalendarKey(userID uuid.UUID) string {
	return "schedule:" + userID.String()
}

// ErrNotAcquired is returned when the lock could not be taken before the
// context ended.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker hands out exclusive locks by key.
type Locker interface {
	// Acquire blocks until key is held or ctx is done. The returned release
	// func is safe to call more than once.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// LocalLocker is an in-process Locker. It is enough when a single process
// owns the database, which is always the case for the SQLite store.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker creates an empty LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*slot)}
}

// Acquire takes the lock for key.
func (l *LocalLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, s)
		return nil, fmt.Errorf("%w: %s: %w", ErrNotAcquired, key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.unref(key, s)
		})
	}, nil
}

func (l *LocalLocker) unref(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// held reports how many keys are tracked; used by tests to check cleanup.
func (l *LocalLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
