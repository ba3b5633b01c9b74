package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemory_SerializesSameKey(t *testing.T) {
	m := NewMemory()

	var (
		inside  int32
		maxSeen int32
		wg      sync.WaitGroup
	)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := m.Lock(context.Background(), "user:1:2025-06-02")
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			if n > atomic.LoadInt32(&maxSeen) {
				atomic.StoreInt32(&maxSeen, n)
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Fatalf("expected at most one holder, saw %d", maxSeen)
	}
	if m.Size() != 0 {
		t.Fatalf("expected no leftover keys, got %d", m.Size())
	}
}

func TestMemory_DifferentKeysDoNotBlock(t *testing.T) {
	m := NewMemory()

	unlockA, err := m.Lock(context.Background(), "a")
	if err != nil {
		t.Fatalf("lock a: %v", err)
	}
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	unlockB, err := m.Lock(ctx, "b")
	if err != nil {
		t.Fatalf("lock b should not wait for a: %v", err)
	}
	unlockB()
}

func TestMemory_ContextCancelWhileWaiting(t *testing.T) {
	m := NewMemory()

	unlock, err := m.Lock(context.Background(), "k")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := m.Lock(ctx, "k"); err == nil {
		t.Fatal("expected context error while key is held")
	}

	unlock()
	unlock() // повторный вызов безопасен

	if m.Size() != 0 {
		t.Fatalf("expected no leftover keys, got %d", m.Size())
	}
}
