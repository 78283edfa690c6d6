package roomlock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestLocalLocker_SerializesRoom(t *testing.T) {
	t.Parallel()

	locker := NewLocalLocker()
	var (
		wg      sync.WaitGroup
		inside  atomic.Int32
		maxSeen atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), "room-1")
			if err != nil {
				t.Errorf("Lock failed: %v", err)
				return
			}
			n := inside.Add(1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()

	if maxSeen.Load() != 1 {
		t.Fatalf("expected one holder at a time, saw %d", maxSeen.Load())
	}
	if locker.held() != 0 {
		t.Fatalf("expected slots to be cleaned up, have %d", locker.held())
	}
}

func TestLocalLocker_RoomsAreIndependent(t *testing.T) {
	t.Parallel()

	locker := NewLocalLocker()
	unlockA, err := locker.Lock(context.Background(), "a")
	if err != nil {
		t.Fatalf("Lock(a) failed: %v", err)
	}
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := locker.Lock(ctx, "b")
	if err != nil {
		t.Fatalf("expected other room to be free, got %v", err)
	}
	unlockB()
}

func TestLocalLocker_ContextCancelled(t *testing.T) {
	t.Parallel()

	locker := NewLocalLocker()
	unlock, err := locker.Lock(context.Background(), "a")
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(ctx, "a"); !errors.Is(err, ErrNotAcquired) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected ErrNotAcquired with deadline, got %v", err)
	}

	unlock()
	unlock()
	if locker.held() != 0 {
		t.Fatalf("expected slots to be cleaned up, have %d", locker.held())
	}
}

func TestRedisLocker_Defaults(t *testing.T) {
	t.Parallel()

	locker := NewRedisLocker(nil, RedisConfig{Prefix: "  "}, nil)
	if locker.cfg.TTL != 10*time.Second || locker.cfg.RetryInterval != 25*time.Millisecond {
		t.Fatalf("unexpected defaults: %+v", locker.cfg)
	}
	if got := locker.key("r1"); got != "roombooking:lock:r1" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestRedisLocker_UnreachableServer(t *testing.T) {
	t.Parallel()

	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer rdb.Close()
	locker := NewRedisLocker(rdb, RedisConfig{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := locker.Lock(ctx, "r1"); err == nil {
		t.Fatalf("expected error from unreachable redis")
	}
}
