package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func TestLocal_SerializesSameKey(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "msg-1")
			if err != nil {
				t.Errorf("Lock: %v", err)
				return
			}
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxSeen)
	}
	if n := l.size(); n != 0 {
		t.Errorf("%d lock entries left behind, want 0", n)
	}
}

func TestLocal_DifferentKeysDoNotBlock(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	unlockA, err := l.Lock(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	defer unlockA()

	ctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	unlockB, err := l.Lock(ctx, "b")
	if err != nil {
		t.Fatalf("lock on other key blocked: %v", err)
	}
	unlockB()
}

func TestLocal_ContextCancelled(t *testing.T) {
	l := NewLocal()
	unlock, err := l.Lock(context.Background(), "k")
	if err != nil {
		t.Fatal(err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, "k"); !errors.Is(err, ErrNotAcquired) {
		t.Errorf("err = %v, want ErrNotAcquired", err)
	}
}

func TestLocal_UnlockIsIdempotent(t *testing.T) {
	l := NewLocal()
	unlock, err := l.Lock(context.Background(), "k")
	if err != nil {
		t.Fatal(err)
	}
	unlock()
	unlock()

	if n := l.size(); n != 0 {
		t.Errorf("%d entries left, want 0", n)
	}
}

func TestRedis_FallsBackWhenUnreachable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	r := NewRedis(rdb, time.Second, zap.NewNop())
	unlock, err := r.Lock(context.Background(), "msg-1")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if n := r.fallback.size(); n != 1 {
		t.Errorf("fallback holds %d locks, want 1", n)
	}
	unlock()
	if n := r.fallback.size(); n != 0 {
		t.Errorf("fallback holds %d locks after unlock, want 0", n)
	}
}
