// Package index implements the positional index of the contact store: an
// open-addressing hash table that maps a record key to the byte range the
// record occupies in the backing file.
//
// Collisions are resolved with quadratic probing, (home + i*i) mod capacity.
// Removed entries leave a tombstone behind so that keys whose probe sequence
// ran through the removed slot stay reachable.
//
// The index is never persisted. The store rebuilds it on open by replaying
// the backing file.
package index

import "hash/fnv"

// Range is the half-open byte range [Start, End) of one serialized record.
type Range struct {
	Start uint64
	End   uint64
}

// Len returns the number of bytes covered by the range.
func (r Range) Len() uint64 {
	return r.End - r.Start
}

type slotState uint8

const (
	slotEmpty slotState = iota
	slotLive
	slotTombstone
)

type slot struct {
	state slotState
	key   string
	rng   Range
}

// Index is the open-addressing table. The zero value is not usable, use New.
//
// Index is not safe for concurrent use.
type Index struct {
	slots      []slot
	live       int
	tombstones int
}

// New returns an empty index with the given number of slots. A capacity
// below 1 is raised to 1.
func New(capacity int) *Index {
	if capacity < 1 {
		capacity = 1
	}
	return &Index{slots: make([]slot, capacity)}
}

// Len returns the number of live entries.
func (ix *Index) Len() int {
	return ix.live
}

// Capacity returns the current number of slots.
func (ix *Index) Capacity() int {
	return len(ix.slots)
}

// Insert stores r under key.
//
// When the live entries already fill half of the table, capacity is doubled
// and every live entry is rehashed before the new one goes in. Insert does
// not look for an existing entry under the same key: inserting a key twice
// leaves two entries, and keeping keys unique is up to the caller.
func (ix *Index) Insert(key string, r Range) {
	half := len(ix.slots) / 2
	switch {
	case ix.live >= half:
		ix.rehash(len(ix.slots) * 2)
	case ix.live+ix.tombstones >= half:
		// same capacity, tombstones dropped
		ix.rehash(len(ix.slots))
	}

	for {
		placed, reused := place(ix.slots, key, r)
		if placed {
			if reused {
				ix.tombstones--
			}
			ix.live++
			return
		}
		// every slot reachable from the key's home is taken
		ix.rehash(len(ix.slots) * 2)
	}
}

// Lookup returns the range stored under key. The first matching entry on the
// probe sequence wins; reaching an empty slot means the key is absent.
func (ix *Index) Lookup(key string) (Range, bool) {
	i, ok := ix.find(key)
	if !ok {
		return Range{}, false
	}
	return ix.slots[i].rng, true
}

// Remove deletes the entry Lookup would return for key and reports whether
// there was one. The slot becomes a tombstone, not an empty slot.
func (ix *Index) Remove(key string) bool {
	i, ok := ix.find(key)
	if !ok {
		return false
	}
	ix.slots[i] = slot{state: slotTombstone}
	ix.live--
	ix.tombstones++
	return true
}

// Each calls fn for every live entry, in slot order.
func (ix *Index) Each(fn func(key string, r Range)) {
	for _, s := range ix.slots {
		if s.state == slotLive {
			fn(s.key, s.rng)
		}
	}
}

func (ix *Index) find(key string) (int, bool) {
	capacity := len(ix.slots)
	home := homeSlot(key, capacity)

	// i*i mod capacity repeats with period capacity, so capacity probes
	// visit every reachable slot.
	for i := 0; i < capacity; i++ {
		idx := probe(home, i, capacity)
		s := &ix.slots[idx]
		switch s.state {
		case slotEmpty:
			return 0, false
		case slotLive:
			if s.key == key {
				return idx, true
			}
		}
	}
	return 0, false
}

func (ix *Index) rehash(capacity int) {
	old := ix.slots
	for {
		slots := make([]slot, capacity)
		if refill(slots, old) {
			ix.slots = slots
			ix.tombstones = 0
			return
		}
		capacity *= 2
	}
}

func refill(slots, old []slot) bool {
	for _, s := range old {
		if s.state != slotLive {
			continue
		}
		if placed, _ := place(slots, s.key, s.rng); !placed {
			return false
		}
	}
	return true
}

// place puts the entry in the first empty or tombstone slot along the key's
// probe sequence. reused reports that a tombstone was overwritten.
func place(slots []slot, key string, r Range) (placed, reused bool) {
	capacity := len(slots)
	home := homeSlot(key, capacity)

	for i := 0; i < capacity; i++ {
		idx := probe(home, i, capacity)
		switch slots[idx].state {
		case slotEmpty:
			slots[idx] = slot{state: slotLive, key: key, rng: r}
			return true, false
		case slotTombstone:
			slots[idx] = slot{state: slotLive, key: key, rng: r}
			return true, true
		}
	}
	return false, false
}

func probe(home, i, capacity int) int {
	return int((uint64(home) + uint64(i)*uint64(i)) % uint64(capacity))
}

func homeSlot(key string, capacity int) int {
	return int(hashKey(key) % uint64(capacity))
}

func hashKey(key string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return h.Sum64()
}
