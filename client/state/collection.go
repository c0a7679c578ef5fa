package state

import "sync"

// ItemState is the sync state of one cart or wishlist entry.
type ItemState int

const (
	// Absent entries are not stored; the value is only reported for lookups.
	Absent ItemState = iota
	// PendingAdd entries were created or changed locally and await the backend.
	PendingAdd
	// Committed entries match the backend, or local storage for guests.
	Committed
	// PendingRemove entries are hidden and deleted once the backend confirms.
	PendingRemove
)

func (s ItemState) String() string {
	switch s {
	case PendingAdd:
		return "pending-add"
	case Committed:
		return "committed"
	case PendingRemove:
		return "pending-remove"
	default:
		return "absent"
	}
}

type entry[T any] struct {
	value   T
	state   ItemState
	version uint64
}

// change records an entry before a mutation so it can be compensated.
type change[T any] struct {
	key     string
	prev    *entry[T]
	version uint64
}

// collection is an ordered set of entries keyed by product ID. Visible entries
// are every entry not pending removal.
type collection[T any] struct {
	mu      sync.Mutex
	keys    []string
	entries map[string]*entry[T]
	version uint64
}

func newCollection[T any]() *collection[T] {
	return &collection[T]{entries: make(map[string]*entry[T])}
}

func (c *collection[T]) visible(key string) (*entry[T], bool) {
	e, ok := c.entries[key]
	if !ok || e.state == PendingRemove {
		return nil, false
	}
	return e, true
}

func (c *collection[T]) get(key string) (T, ItemState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		var zero T
		return zero, Absent, false
	}
	return e.value, e.state, e.state != PendingRemove
}

func (c *collection[T]) list() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, 0, len(c.keys))
	for _, k := range c.keys {
		if e, ok := c.visible(k); ok {
			out = append(out, e.value)
		}
	}
	return out
}

// put sets key to the value computed by fn from the visible value, if any, and
// marks it with state.
func (c *collection[T]) put(key string, state ItemState, fn func(cur T, exists bool) T) change[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := change[T]{key: key}
	var cur T
	e, exists := c.entries[key]
	if exists {
		// reverting over a pending removal deletes the entry
		if e.state != PendingRemove {
			prev := *e
			ch.prev = &prev
			cur = e.value
		}
	} else {
		e = &entry[T]{}
		c.entries[key] = e
		c.keys = append(c.keys, key)
	}
	c.version++
	e.value = fn(cur, exists && e.state != PendingRemove)
	e.state = state
	e.version = c.version
	ch.version = c.version
	return ch
}

// remove hides key until settle confirms or reverts the removal. It reports
// false when key is not visible.
func (c *collection[T]) remove(key string) (change[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.visible(key)
	if !ok {
		return change[T]{}, false
	}
	prev := *e
	c.version++
	e.state = PendingRemove
	e.version = c.version
	return change[T]{key: key, prev: &prev, version: c.version}, true
}

// settle completes ch. On success pending entries become committed, or are
// deleted when pending removal, and update may amend the value. On failure the
// entry goes back to its previous state. Entries changed again since ch are
// left to the later mutation. settle reports whether the entry was touched.
func (c *collection[T]) settle(ch change[T], ok bool, update func(*T)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.entries[ch.key]
	if !exists || e.version != ch.version {
		return false
	}
	switch {
	case ok && e.state == PendingRemove:
		c.delete(ch.key)
	case ok:
		e.state = Committed
		if update != nil {
			update(&e.value)
		}
	case ch.prev == nil:
		c.delete(ch.key)
	default:
		*e = *ch.prev
		c.version++
		e.version = c.version
	}
	return true
}

func (c *collection[T]) delete(key string) {
	delete(c.entries, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			break
		}
	}
}

type snapshotOf[T any] struct {
	keys    []string
	entries map[string]entry[T]
}

// reset empties the collection and returns what it held.
func (c *collection[T]) reset() snapshotOf[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := snapshotOf[T]{keys: c.keys, entries: make(map[string]entry[T], len(c.entries))}
	for k, e := range c.entries {
		snap.entries[k] = *e
	}
	c.keys = nil
	c.entries = make(map[string]*entry[T])
	c.version++
	return snap
}

// restore puts back a snapshot taken by reset as committed entries. Entries
// added since are kept.
func (c *collection[T]) restore(snap snapshotOf[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, k := range snap.keys {
		if _, ok := c.entries[k]; ok {
			continue
		}
		e := snap.entries[k]
		if e.state == PendingRemove {
			continue
		}
		e.state = Committed
		c.version++
		e.version = c.version
		c.entries[k] = &e
		c.keys = append(c.keys, k)
	}
}

// replace sets the committed content of the collection.
func (c *collection[T]) replace(values []T, key func(T) string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.keys = make([]string, 0, len(values))
	c.entries = make(map[string]*entry[T], len(values))
	for _, v := range values {
		k := key(v)
		if _, dup := c.entries[k]; dup {
			continue
		}
		c.version++
		c.entries[k] = &entry[T]{value: v, state: Committed, version: c.version}
		c.keys = append(c.keys, k)
	}
}
