package recency

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Defaults.
const (
	DefaultWindow   = 5 * time.Minute
	DefaultCapacity = 4096
)

// Tracker holds the devices seen within a trailing time window.
// Entries are bounded by capacity; the least recently marked identifier is dropped first.
type Tracker struct {
	seen *lru.Cache[string, time.Time]

	// expiring is set while Evict removes entries, so only capacity drops are counted.
	expiring   bool
	overflowed int
}

// New creates a tracker holding at most capacity identifiers.
func New(capacity int) *Tracker {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	t := &Tracker{}

	// lru.NewWithEvict only fails on a non-positive size.
	t.seen, _ = lru.NewWithEvict[string, time.Time](capacity, func(string, time.Time) {
		if !t.expiring {
			t.overflowed++
		}
	})

	return t
}

// Mark records or overwrites the last observed time of id.
func (t *Tracker) Mark(id string, at time.Time) {
	t.seen.Add(id, at)
}

// Evict drops every identifier last observed window or more before now
// and returns how many were removed.
func (t *Tracker) Evict(now time.Time, window time.Duration) int {
	removed := 0

	t.expiring = true
	defer func() { t.expiring = false }()

	for _, id := range t.seen.Keys() {
		at, ok := t.seen.Peek(id)
		if !ok {
			continue
		}

		if now.Sub(at) >= window {
			t.seen.Remove(id)

			removed++
		}
	}

	return removed
}

// Count returns the number of tracked identifiers.
func (t *Tracker) Count() int {
	return t.seen.Len()
}

// Seen reports whether id is currently tracked.
func (t *Tracker) Seen(id string) bool {
	return t.seen.Contains(id)
}

// Overflowed returns how many identifiers were dropped because the tracker was full,
// whether or not they were still inside the window.
func (t *Tracker) Overflowed() int {
	return t.overflowed
}
