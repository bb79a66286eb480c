package session

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/aretw0/sessiond/pkg/adapters/memory"
	"github.com/aretw0/sessiond/pkg/domain"
)

func TestRegistry_LockLifecycle(t *testing.T) {
	reg, err := NewRegistry(memory.NewStore())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		s, err := reg.Create(ctx, fmt.Sprintf("owner-%d", i), domain.Payload{})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		_, _ = reg.Get(ctx, s.ID)
		reg.Delete(ctx, s.ID)
	}

	// Locks are reference counted; every one must be gone once nobody holds it.
	if n := reg.locks.len(); n != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", n)
	}
}

func TestKeyedLocks_SerializeSameKey(t *testing.T) {
	locks := newKeyedLocks()
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
			_ = locks.with("same", func() error {
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("expected at most one holder at a time, saw %d", maxSeen)
	}
	if locks.len() != 0 {
		t.Errorf("expected no lock entries left, got %d", locks.len())
	}
}
