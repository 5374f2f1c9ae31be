// Package reglock provides per-key mutual exclusion for in-flight
// registrations.
//
// A held key means a registration for that identity string is being
// processed; concurrent attempts for the same key are rejected until the
// holder releases it or the hold window elapses. Entries self-expire via a
// timer, and a periodic Sweep covers the case where a timer was lost.
//
// The lock is process-local by design. It is only a latency optimization in
// front of the store's uniqueness constraint and provides no cross-process
// guarantee; horizontally scaled deployments can swap in a distributed
// implementation of Locker without touching callers.
package reglock

import (
	"sync"
	"time"
)

// DefaultWindow bounds how long a key stays held without an explicit
// Release, so a crashed handler cannot deadlock an identity forever.
const DefaultWindow = 5 * time.Second

// Locker is the mutual-exclusion boundary consumed by registration flows.
type Locker interface {
	// Acquire records key as held and returns true, or returns false when
	// the key is already held.
	Acquire(key string) bool

	// Release clears the key and its timer. Idempotent.
	Release(key string)

	// Sweep releases every entry older than the hold window and returns the
	// number released. It is the safety net for lost timers.
	Sweep(now time.Time) int
}

type entry struct {
	acquiredAt time.Time
	gen        uint64
	timer      *time.Timer
}

// Lock is the in-process Locker implementation.
type Lock struct {
	mu     sync.Mutex
	window time.Duration
	held   map[string]entry
	gen    uint64
}

// New constructs a Lock with the given hold window; non-positive values fall
// back to DefaultWindow.
func New(window time.Duration) *Lock {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Lock{
		window: window,
		held:   make(map[string]entry),
	}
}

// Acquire takes the key if free. The check and the map write happen under
// one mutex hold, so concurrent acquires for the same key yield exactly one
// true.
func (l *Lock) Acquire(key string) bool {
	if key == "" {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return false
	}

	// Each hold gets a generation. The timer callback releases only its own
	// generation: a timer that fired while an explicit Release and a fresh
	// Acquire raced ahead of it must not evict the new holder.
	l.gen++
	gen := l.gen
	l.held[key] = entry{
		acquiredAt: time.Now(),
		gen:        gen,
		timer:      time.AfterFunc(l.window, func() { l.expire(key, gen) }),
	}
	return true
}

// expire is the timer callback path: release key only if it still holds the
// generation the timer was armed for.
func (l *Lock) expire(key string, gen uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.held[key]; ok && e.gen == gen {
		delete(l.held, key)
	}
}

// Release clears the key (idempotent) and stops its auto-release timer.
func (l *Lock) Release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.held[key]
	if !ok {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	delete(l.held, key)
}

// Sweep releases entries older than the hold window.
func (l *Lock) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	released := 0
	for key, e := range l.held {
		if now.Sub(e.acquiredAt) >= l.window {
			if e.timer != nil {
				e.timer.Stop()
			}
			delete(l.held, key)
			released++
		}
	}
	return released
}

// Len reports the number of held keys. Used by tests and metrics.
func (l *Lock) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.held)
}
