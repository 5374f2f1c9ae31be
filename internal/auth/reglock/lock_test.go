package reglock

import (
	"sync"
	"testing"
	"time"
)

func TestLock_AcquireRelease(t *testing.T) {
	l := New(time.Minute)

	if !l.Acquire("hong") {
		t.Fatalf("first acquire should succeed")
	}
	if l.Acquire("hong") {
		t.Fatalf("second acquire of a held key should fail")
	}
	if !l.Acquire("kim") {
		t.Fatalf("a different key should be free")
	}

	l.Release("hong")
	if !l.Acquire("hong") {
		t.Fatalf("released key should be acquirable again")
	}
}

func TestLock_EmptyKey(t *testing.T) {
	l := New(time.Minute)
	if l.Acquire("") {
		t.Fatalf("empty key must never be held")
	}
}

func TestLock_ReleaseIdempotent(t *testing.T) {
	l := New(time.Minute)

	l.Release("never-held")
	if !l.Acquire("hong") {
		t.Fatalf("acquire: key should be free")
	}
	l.Release("hong")
	l.Release("hong")
	if l.Len() != 0 {
		t.Fatalf("held count: got %d want 0", l.Len())
	}
}

func TestLock_ConcurrentAcquireYieldsOneWinner(t *testing.T) {
	l := New(time.Minute)

	const workers = 32
	var wg sync.WaitGroup
	wins := make(chan struct{}, workers)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Acquire("contested") {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for range wins {
		won++
	}
	if won != 1 {
		t.Fatalf("winners: got %d want 1", won)
	}
}

func TestLock_AutoExpiry(t *testing.T) {
	l := New(20 * time.Millisecond)

	if !l.Acquire("hong") {
		t.Fatalf("acquire: key should be free")
	}

	deadline := time.Now().Add(2 * time.Second)
	for !l.Acquire("hong") {
		if time.Now().After(deadline) {
			t.Fatalf("key was not auto-released within the window")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLock_StaleTimerDoesNotEvictNewHolder(t *testing.T) {
	l := New(10 * time.Millisecond)

	if !l.Acquire("hong") {
		t.Fatalf("acquire: key should be free")
	}

	// Hold the mutex across the timer firing, so its callback is parked
	// waiting for the lock while the key changes hands underneath it.
	l.mu.Lock()
	time.Sleep(30 * time.Millisecond)

	// Simulate an explicit Release plus a fresh Acquire winning the race
	// (inlined: the real methods would deadlock on the held mutex).
	old := l.held["hong"]
	old.timer.Stop()
	delete(l.held, "hong")

	l.gen++
	gen := l.gen
	l.held["hong"] = entry{
		acquiredAt: time.Now(),
		gen:        gen,
		timer:      time.AfterFunc(time.Minute, func() { l.expire("hong", gen) }),
	}
	l.mu.Unlock()

	// Let the parked callback run; it must see a foreign generation and
	// leave the new holder's entry alone.
	time.Sleep(30 * time.Millisecond)

	if l.Acquire("hong") {
		t.Fatalf("stale timer evicted the new holder's entry")
	}
	l.Release("hong")
}

func TestLock_Sweep(t *testing.T) {
	l := New(time.Minute)

	if !l.Acquire("hong") {
		t.Fatalf("acquire: key should be free")
	}
	if !l.Acquire("kim") {
		t.Fatalf("acquire: key should be free")
	}

	// Nothing is older than the window yet.
	if n := l.Sweep(time.Now()); n != 0 {
		t.Fatalf("early sweep released %d, want 0", n)
	}

	// From a vantage point past the window, both entries are stale.
	if n := l.Sweep(time.Now().Add(2 * time.Minute)); n != 2 {
		t.Fatalf("late sweep released %d, want 2", n)
	}
	if l.Len() != 0 {
		t.Fatalf("held count after sweep: got %d want 0", l.Len())
	}
}
