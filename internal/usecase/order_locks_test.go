package usecase

import (
	"sync"
	"testing"
)

func TestOrderLocks_SerializesSameKey(t *testing.T) {
	locks := newOrderLocks()
	var (
		wg      sync.WaitGroup
		inside  int
		maxSeen int
		mu      sync.Mutex
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("ord-1")
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Fatalf("expected exclusive access, saw %d holders", maxSeen)
	}
	if locks.size() != 0 {
		t.Fatalf("expected lock table to drain, got %d", locks.size())
	}
}

func TestOrderLocks_DistinctKeysDoNotBlock(t *testing.T) {
	locks := newOrderLocks()
	unlockA := locks.Lock("a")
	done := make(chan struct{})
	go func() {
		unlock := locks.Lock("b")
		unlock()
		close(done)
	}()
	<-done
	unlockA()
}
