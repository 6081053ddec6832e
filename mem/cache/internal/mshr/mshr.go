// Package mshr implements the miss-status-holding-register table that
// merges concurrent misses to the same cache line.
package mshr

import (
	"log"

	"github.com/sarchlab/memhier/mem"
)

type entry struct {
	requests  []mem.Handle
	hasAtomic bool
	ready     bool
}

// A Table tracks the outstanding misses of one cache. Entries are keyed by
// block address. Each entry merges up to maxMerge requests; the table
// holds up to numEntries entries.
type Table struct {
	numEntries int
	maxMerge   int

	entries   map[uint64]*entry
	responses []uint64
}

// NewTable creates an MSHR table with the given entry and merge caps.
func NewTable(numEntries, maxMerge int) *Table {
	return &Table{
		numEntries: numEntries,
		maxMerge:   maxMerge,
		entries:    make(map[uint64]*entry),
	}
}

// Probe returns true if an entry exists for the block address.
func (t *Table) Probe(blockAddr uint64) bool {
	_, ok := t.entries[blockAddr]
	return ok
}

// Full returns true if a request for the block address cannot be accepted:
// the existing entry is at its merge cap, or there is no free entry for a
// new block address.
func (t *Table) Full(blockAddr uint64) bool {
	if e, ok := t.entries[blockAddr]; ok {
		return len(e.requests) >= t.maxMerge
	}

	return len(t.entries) >= t.numEntries
}

// Add merges the request into the entry for the block address, creating
// the entry if needed. The caller must have checked Probe and Full;
// calling Add on a full table or entry is a fatal misuse.
func (t *Table) Add(blockAddr uint64, h mem.Handle, isAtomic bool) {
	if t.Full(blockAddr) {
		log.Panicf("adding to a full MSHR entry or table")
	}

	e, ok := t.entries[blockAddr]
	if !ok {
		e = &entry{}
		t.entries[blockAddr] = e
	}

	e.requests = append(e.requests, h)
	if isAtomic {
		e.hasAtomic = true
	}
}

// MarkReady flags the entry as filled and reports whether any merged
// request was an atomic operation. The merged requests are released
// afterward through NextAccess.
func (t *Table) MarkReady(blockAddr uint64) (hasAtomic bool) {
	e, ok := t.entries[blockAddr]
	if !ok {
		log.Panicf("marking ready an MSHR entry that does not exist")
	}

	if e.ready {
		log.Panicf("marking ready an MSHR entry twice")
	}

	e.ready = true
	t.responses = append(t.responses, blockAddr)

	return e.hasAtomic
}

// HasReadyAccesses returns true if any filled entry still holds merged
// requests to release.
func (t *Table) HasReadyAccesses() bool {
	return len(t.responses) > 0
}

// NextAccess releases the next merged request of the oldest filled entry.
// Once an entry is drained it is removed, freeing the slot.
func (t *Table) NextAccess() (mem.Handle, bool) {
	if len(t.responses) == 0 {
		return mem.Handle{}, false
	}

	blockAddr := t.responses[0]
	e := t.entries[blockAddr]

	h := e.requests[0]
	e.requests = e.requests[1:]

	if len(e.requests) == 0 {
		delete(t.entries, blockAddr)
		t.responses = t.responses[1:]
	}

	return h, true
}

// Len returns the number of outstanding entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Reset drops all entries.
func (t *Table) Reset() {
	t.entries = make(map[uint64]*entry)
	t.responses = nil
}
