// Package roomlock serializes conflict-checked writes per room. A lock is held from the
// moment occurrences are loaded for a conflict check until the resulting write commits.
package roomlock

import (
	"context"
	"errors"
	"sync"
)

// ErrNotAcquired is returned when a lock could not be obtained before the context ended.
var ErrNotAcquired = errors.New("roomlock: lock not acquired")

// Locker acquires the lock of one room. The returned function releases it and is safe to
// call more than once.
type Locker interface {
	Lock(ctx context.Context, roomID string) (func(), error)
}

// LocalLocker serializes rooms within a single process.
type LocalLocker struct {
	mu    sync.Mutex
	rooms map[string]*roomSlot
}

type roomSlot struct {
	ch      chan struct{}
	waiters int
}

// NewLocalLocker returns an in-process Locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{rooms: make(map[string]*roomSlot)}
}

// Lock blocks until roomID is free or ctx is done.
func (l *LocalLocker) Lock(ctx context.Context, roomID string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.rooms[roomID]
	if !ok {
		slot = &roomSlot{ch: make(chan struct{}, 1)}
		l.rooms[roomID] = slot
	}
	slot.waiters++
	l.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
	case <-ctx.Done():
		l.forget(roomID, slot)
		return nil, errors.Join(ErrNotAcquired, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.ch
			l.forget(roomID, slot)
		})
	}, nil
}

// forget drops the slot once nobody holds or waits for it.
func (l *LocalLocker) forget(roomID string, slot *roomSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.waiters--
	if slot.waiters == 0 && l.rooms[roomID] == slot {
		delete(l.rooms, roomID)
	}
}

// held reports how many rooms currently have a holder or waiter.
func (l *LocalLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rooms)
}
