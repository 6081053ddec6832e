package tagging

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TagArray", func() {
	var tags *tagArrayImpl

	fullLine := AccessInfo{SectorMask: 0x1}

	BeforeEach(func() {
		tags = NewTagArray(Config{
			NumSets:       16,
			Associativity: 4,
			LineSize:      128,
			AllocOnMiss:   true,
		}).(*tagArrayImpl)
	})

	It("should miss on an empty array and reserve the victim", func() {
		result := tags.Access(0x100, 1, fullLine)

		Expect(result.Status).To(Equal(Miss))
		Expect(result.Writeback).To(BeFalse())

		block := tags.Block(result.Way)
		Expect(block.Tag).To(Equal(uint64(0x100)))
		Expect(block.IsReserved()).To(BeTrue())
	})

	It("should report hit-reserved while the miss is outstanding", func() {
		first := tags.Access(0x100, 1, fullLine)
		second := tags.Access(0x100, 2, fullLine)

		Expect(second.Status).To(Equal(HitReserved))
		Expect(second.Way).To(Equal(first.Way))
	})

	It("should hit after the fill resolves the reservation", func() {
		result := tags.Access(0x100, 1, fullLine)
		tags.Fill(result.Way, 5, 0x1)

		Expect(tags.Access(0x100, 6, fullLine).Status).To(Equal(Hit))
	})

	It("should fail the reservation when all ways are reserved", func() {
		// Addresses mapping to set 0: multiples of 16*128.
		stride := uint64(16 * 128)
		for i := uint64(0); i < 4; i++ {
			result := tags.Access(i*stride, 1, fullLine)
			Expect(result.Status).To(Equal(Miss))
		}

		result := tags.Access(4*stride, 2, fullLine)
		Expect(result.Status).To(Equal(ReservationFail))
		Expect(result.Way).To(Equal(-1))
	})

	It("should produce a writeback descriptor for a dirty victim", func() {
		stride := uint64(16 * 128)

		for i := uint64(0); i < 4; i++ {
			result := tags.Access(i*stride, 1, fullLine)
			tags.Fill(result.Way, 2, 0x1)
		}

		// Dirty one line.
		byteMask := make([]bool, 128)
		for i := 0; i < 32; i++ {
			byteMask[i] = true
		}
		hit := tags.Access(0, 3, AccessInfo{SectorMask: 0x1, IsWrite: true})
		Expect(hit.Status).To(Equal(Hit))
		tags.Block(hit.Way).SetModified(0x1, byteMask)

		// The LRU victim is the line with tag stride (least recently
		// used after the write touched tag 0).
		result := tags.Access(4*stride, 4, fullLine)
		Expect(result.Status).To(Equal(Miss))
		Expect(result.Writeback).To(BeFalse())

		// Evict until the dirty line is the victim.
		result = tags.Access(5*stride, 5, fullLine)
		Expect(result.Status).To(Equal(Miss))

		result = tags.Access(6*stride, 6, fullLine)
		Expect(result.Status).To(Equal(Miss))

		result = tags.Access(7*stride, 7, fullLine)
		Expect(result.Status).To(Equal(Miss))
		Expect(result.Writeback).To(BeTrue())
		Expect(result.Evicted.BlockAddr).To(Equal(uint64(0)))
		Expect(result.Evicted.ModifiedSize).To(Equal(uint64(32)))
	})

	It("should not mutate tags at miss time under on-fill allocation", func() {
		tags = NewTagArray(Config{
			NumSets:       16,
			Associativity: 4,
			LineSize:      128,
			AllocOnMiss:   false,
		}).(*tagArrayImpl)

		result := tags.Access(0x100, 1, fullLine)
		Expect(result.Status).To(Equal(Miss))

		for _, block := range tags.sets[2].blocks {
			Expect(block.IsInvalid()).To(BeTrue())
		}

		way := tags.FillByAddr(0x100, 5, 0x1)
		Expect(tags.Block(way).Tag).To(Equal(uint64(0x100)))
		Expect(tags.Access(0x100, 6, fullLine).Status).To(Equal(Hit))
	})

	It("should panic when filling a slot that holds no reservation", func() {
		Expect(func() { tags.Fill(0, 1, 0x1) }).To(Panic())
	})
})

var _ = Describe("TagArray in sector mode", func() {
	var tags *tagArrayImpl

	BeforeEach(func() {
		tags = NewTagArray(Config{
			NumSets:       16,
			Associativity: 4,
			LineSize:      128,
			NumSectors:    4,
			AllocOnMiss:   true,
		}).(*tagArrayImpl)
	})

	It("should report a sector miss for an unfetched sector", func() {
		result := tags.Access(0x100, 1, AccessInfo{SectorMask: 0x1})
		Expect(result.Status).To(Equal(Miss))
		tags.Fill(result.Way, 2, 0x1)

		result = tags.Access(0x100, 3, AccessInfo{SectorMask: 0x2})
		Expect(result.Status).To(Equal(SectorMiss))

		block := tags.Block(result.Way)
		Expect(block.IsSectorValid(0x1)).To(BeTrue())
		Expect(block.IsSectorReserved(0x2)).To(BeTrue())
	})

	It("should hit once all requested sectors are valid", func() {
		result := tags.Access(0x100, 1, AccessInfo{SectorMask: 0x3})
		tags.Fill(result.Way, 2, 0x3)

		Expect(tags.Access(0x100, 3, AccessInfo{SectorMask: 0x3}).Status).
			To(Equal(Hit))
		Expect(tags.Access(0x100, 4, AccessInfo{SectorMask: 0xc}).Status).
			To(Equal(SectorMiss))
	})
})

var _ = Describe("VictimFinder", func() {
	makeBlocks := func() []*Block {
		blocks := make([]*Block, 4)
		for i := range blocks {
			blocks[i] = newBlock(0, i, 1, 64)
		}

		return blocks
	}

	It("should prefer an empty block", func() {
		blocks := makeBlocks()
		blocks[0].Reserve(0x100, 1, 0x1)
		blocks[0].FillSectors(2, 0x1)

		victim, ok := NewLRUVictimFinder().FindVictim(blocks)
		Expect(ok).To(BeTrue())
		Expect(victim.WayID).To(Equal(1))
	})

	It("should pick the least recently used block", func() {
		blocks := makeBlocks()
		for i, block := range blocks {
			block.Reserve(uint64(0x100*(i+1)), uint64(10-i), 0x1)
			block.FillSectors(uint64(11-i), 0x1)
		}

		victim, ok := NewLRUVictimFinder().FindVictim(blocks)
		Expect(ok).To(BeTrue())
		Expect(victim.WayID).To(Equal(3))
	})

	It("should pick the earliest allocated block under FIFO", func() {
		blocks := makeBlocks()
		for i, block := range blocks {
			block.Reserve(uint64(0x100*(i+1)), uint64(10+i), 0x1)
			block.FillSectors(uint64(11+i), 0x1)
			block.lastAccessTime = uint64(100 - i)
		}

		victim, ok := NewFIFOVictimFinder().FindVictim(blocks)
		Expect(ok).To(BeTrue())
		Expect(victim.WayID).To(Equal(0))
	})

	It("should fail when every block is reserved", func() {
		blocks := makeBlocks()
		for i, block := range blocks {
			block.Reserve(uint64(0x100*(i+1)), 1, 0x1)
		}

		_, ok := NewLRUVictimFinder().FindVictim(blocks)
		Expect(ok).To(BeFalse())
	})
})
