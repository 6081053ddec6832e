package sim

import "github.com/google/btree"

// A TimedItem is an item that becomes ready at a certain cycle.
type TimedItem interface {
	ReadyCycle() uint64
}

type queuedItem struct {
	cycle uint64
	seq   uint64
	item  TimedItem
}

func lessQueuedItem(a, b queuedItem) bool {
	if a.cycle != b.cycle {
		return a.cycle < b.cycle
	}

	return a.seq < b.seq
}

// An InsertionQueue keeps items sorted by their ready cycle. Items that
// share a ready cycle keep their insertion order.
type InsertionQueue struct {
	tree    *btree.BTreeG[queuedItem]
	nextSeq uint64
}

// NewInsertionQueue returns a new, empty InsertionQueue.
func NewInsertionQueue() *InsertionQueue {
	return &InsertionQueue{
		tree: btree.NewG(2, lessQueuedItem),
	}
}

// Insert adds an item to the queue.
func (q *InsertionQueue) Insert(item TimedItem) {
	q.tree.ReplaceOrInsert(queuedItem{
		cycle: item.ReadyCycle(),
		seq:   q.nextSeq,
		item:  item,
	})
	q.nextSeq++
}

// Len returns the number of items in the queue.
func (q *InsertionQueue) Len() int {
	return q.tree.Len()
}

// PopReady removes and returns the earliest item whose ready cycle is at or
// before the given cycle. It returns nil if no item is ready.
func (q *InsertionQueue) PopReady(cycle uint64) TimedItem {
	first, ok := q.tree.Min()
	if !ok || first.cycle > cycle {
		return nil
	}

	q.tree.DeleteMin()

	return first.item
}

// PeekCycle returns the ready cycle of the earliest item in the queue.
func (q *InsertionQueue) PeekCycle() (uint64, bool) {
	first, ok := q.tree.Min()
	if !ok {
		return 0, false
	}

	return first.cycle, true
}
