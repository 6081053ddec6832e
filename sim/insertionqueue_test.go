package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type testTimedItem struct {
	cycle uint64
	tag   int
}

func (i testTimedItem) ReadyCycle() uint64 {
	return i.cycle
}

var _ = Describe("InsertionQueue", func() {
	var q *InsertionQueue

	BeforeEach(func() {
		q = NewInsertionQueue()
	})

	It("should pop items in ready-cycle order", func() {
		q.Insert(testTimedItem{cycle: 30, tag: 1})
		q.Insert(testTimedItem{cycle: 10, tag: 2})
		q.Insert(testTimedItem{cycle: 20, tag: 3})

		Expect(q.PopReady(100).(testTimedItem).tag).To(Equal(2))
		Expect(q.PopReady(100).(testTimedItem).tag).To(Equal(3))
		Expect(q.PopReady(100).(testTimedItem).tag).To(Equal(1))
		Expect(q.PopReady(100)).To(BeNil())
	})

	It("should not pop items that are not ready yet", func() {
		q.Insert(testTimedItem{cycle: 10, tag: 1})

		Expect(q.PopReady(9)).To(BeNil())
		Expect(q.Len()).To(Equal(1))
		Expect(q.PopReady(10)).NotTo(BeNil())
	})

	It("should keep insertion order within a cycle", func() {
		q.Insert(testTimedItem{cycle: 10, tag: 1})
		q.Insert(testTimedItem{cycle: 10, tag: 2})
		q.Insert(testTimedItem{cycle: 10, tag: 3})

		Expect(q.PopReady(10).(testTimedItem).tag).To(Equal(1))
		Expect(q.PopReady(10).(testTimedItem).tag).To(Equal(2))
		Expect(q.PopReady(10).(testTimedItem).tag).To(Equal(3))
	})

	It("should report the earliest ready cycle", func() {
		_, ok := q.PeekCycle()
		Expect(ok).To(BeFalse())

		q.Insert(testTimedItem{cycle: 42})

		cycle, ok := q.PeekCycle()
		Expect(ok).To(BeTrue())
		Expect(cycle).To(Equal(uint64(42)))
	})
})
