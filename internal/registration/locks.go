package registration

import (
	"sort"
	"sync"
)

// lockSet hands out in-process mutexes keyed by string. Callers take every
// key an operation needs in one call; keys are sorted first, so two
// operations sharing keys always lock them in the same order.
//
// The gate is held shared by every keyed operation and exclusively by bulk
// operations that touch all offerings.
type lockSet struct {
	gate sync.RWMutex

	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sync.Mutex
	refs int
}

func newLockSet() *lockSet {
	return &lockSet{locks: make(map[string]*keyLock)}
}

func offeringKey(id string) string { return "offering:" + id }
func studentKey(id string) string  { return "student:" + id }
func courseKey(id string) string   { return "course:" + id }

// acquire locks keys and returns the function that releases them.
func (l *lockSet) acquire(keys ...string) func() {
	keys = uniqueSorted(keys)

	l.gate.RLock()
	held := make([]*keyLock, 0, len(keys))
	for _, k := range keys {
		kl := l.ref(k)
		kl.Lock()
		held = append(held, kl)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
			l.unref(keys[i])
		}
		l.gate.RUnlock()
	}
}

// exclusive waits for every keyed operation to finish and blocks new ones.
func (l *lockSet) exclusive() func() {
	l.gate.Lock()
	return l.gate.Unlock
}

func (l *lockSet) ref(key string) *keyLock {
	l.mu.Lock()
	defer l.mu.Unlock()

	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{}
		l.locks[key] = kl
	}
	kl.refs++
	return kl
}

func (l *lockSet) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kl := l.locks[key]
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

func uniqueSorted(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
