package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/memhier/mem"
	"github.com/sarchlab/memhier/stats"
)

var _ = Describe("Comp", func() {
	var (
		mockCtrl *gomock.Controller
		port     *MockBottomPort
		arena    *mem.Arena
		c        *Comp
		released []mem.Handle
	)

	submit := func(
		addr uint64,
		kind mem.AccessKind,
		time uint64,
	) (mem.Handle, SubmitResult, []Event) {
		req := mem.RequestBuilder{}.
			WithAddress(addr).
			WithByteSize(64).
			WithKind(kind).
			Build()

		h := arena.Put(req, mem.OwnerIssuer)
		result, events := c.Submit(h, time)

		return h, result, events
	}

	// sendMiss pushes the miss-queue head to the lower level.
	sendMiss := func(h mem.Handle) {
		port.EXPECT().
			HasCapacity(uint64(128), false).
			Return(true)
		port.EXPECT().Enqueue(h)

		c.Cycle(0)
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		port = NewMockBottomPort(mockCtrl)
		arena = mem.NewArena()
		released = nil

		c = MakeBuilder().
			WithConfig(Config{
				NumSets:       8,
				Associativity: 2,
				LineSize:      128,
				Replacement:   LRU,
				Write:         WriteBack,
				Alloc:         AllocOnMiss,
				MSHREntries:   8,
				MSHRMaxMerge:  4,
				MissQueueSize: 4,
				DataPortWidth: 32,
			}).
			WithArena(arena).
			WithBottomPort(port).
			WithFillCallback(func(h mem.Handle) {
				released = append(released, h)
			}).
			Build("Cache")
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should queue a cold miss and send it downward", func() {
		h, result, events := submit(0x140, mem.GlobalRead, 1)

		Expect(result).To(Equal(SubmitMissQueued))
		Expect(events).To(HaveLen(1))
		Expect(events[0].Kind).To(Equal(ReadRequestSent))
		Expect(c.IsPending(h)).To(BeTrue())
		Expect(c.WaitingForFill(h)).To(BeTrue())
		Expect(c.Stats().Count(mem.GlobalRead, stats.Miss)).
			To(Equal(uint64(1)))

		req, _ := arena.Get(h)
		Expect(req.Address).To(Equal(uint64(0x100)))
		Expect(req.ByteSize).To(Equal(uint64(128)))
		Expect(req.Status).To(Equal(mem.StatusInMissQueue))

		sendMiss(h)

		Expect(req.Status).To(Equal(mem.StatusInInterconnect))

		owner, _ := arena.Owner(h)
		Expect(owner).To(Equal(mem.OwnerInterconnect))
	})

	It("should hold the miss when the lower level has no room", func() {
		h, _, _ := submit(0x140, mem.GlobalRead, 1)

		port.EXPECT().
			HasCapacity(uint64(128), false).
			Return(false)

		c.Cycle(0)

		req, _ := arena.Get(h)
		Expect(req.Status).To(Equal(mem.StatusInMissQueue))
	})

	It("should release a filled request back to the issuer", func() {
		h, _, _ := submit(0x140, mem.GlobalRead, 1)
		sendMiss(h)

		c.Fill(h, 2)

		Expect(c.WaitingForFill(h)).To(BeFalse())
		Expect(c.IsPending(h)).To(BeTrue())
		Expect(c.Stats().Count(mem.GlobalRead, stats.Fill)).
			To(Equal(uint64(1)))

		c.Cycle(3)

		Expect(released).To(Equal([]mem.Handle{h}))
		Expect(c.IsPending(h)).To(BeFalse())

		req, _ := arena.Get(h)
		Expect(req.Address).To(Equal(uint64(0x140)))
		Expect(req.ByteSize).To(Equal(uint64(64)))
		Expect(req.Status).To(Equal(mem.StatusCompleted))

		owner, _ := arena.Owner(h)
		Expect(owner).To(Equal(mem.OwnerIssuer))
	})

	It("should hit a line after the fill resolves it", func() {
		h, _, _ := submit(0x140, mem.GlobalRead, 1)
		sendMiss(h)
		c.Fill(h, 2)
		c.Cycle(3)

		_, result, events := submit(0x100, mem.GlobalRead, 4)

		Expect(result).To(Equal(SubmitHit))
		Expect(events).To(BeEmpty())
		Expect(c.Stats().Count(mem.GlobalRead, stats.Hit)).
			To(Equal(uint64(1)))
	})

	It("should merge a second access to an in-flight block", func() {
		h1, result1, _ := submit(0x100, mem.GlobalRead, 1)
		h2, result2, events := submit(0x140, mem.GlobalRead, 2)

		Expect(result1).To(Equal(SubmitMissQueued))
		Expect(result2).To(Equal(SubmitMerged))
		Expect(events).To(BeEmpty())
		Expect(c.Stats().Count(mem.GlobalRead, stats.MSHRHit)).
			To(Equal(uint64(1)))

		sendMiss(h1)
		c.Fill(h1, 3)

		c.Cycle(4)
		c.Cycle(5)

		Expect(released).To(Equal([]mem.Handle{h1, h2}))
	})

	It("should reject a merge past the merge capacity", func() {
		cfg := c.cfg
		cfg.MSHRMaxMerge = 2
		c = MakeBuilder().
			WithConfig(cfg).
			WithArena(arena).
			WithBottomPort(port).
			Build("Cache")

		_, result1, _ := submit(0x100, mem.GlobalRead, 1)
		_, result2, _ := submit(0x120, mem.GlobalRead, 2)
		_, result3, _ := submit(0x140, mem.GlobalRead, 3)

		Expect(result1).To(Equal(SubmitMissQueued))
		Expect(result2).To(Equal(SubmitMerged))
		Expect(result3).To(Equal(SubmitMSHRMergeEntryFail))
		Expect(result3.Failed()).To(BeTrue())
		Expect(c.Stats().Count(mem.GlobalRead, stats.MSHRMergeEntryFail)).
			To(Equal(uint64(1)))
	})

	It("should reject a new miss when the miss queue is full", func() {
		for i := uint64(0); i < 4; i++ {
			_, result, _ := submit(i*128, mem.GlobalRead, i)
			Expect(result).To(Equal(SubmitMissQueued))
		}

		_, result, events := submit(4*128, mem.GlobalRead, 5)

		Expect(result).To(Equal(SubmitMSHREntryFail))
		Expect(events).To(BeEmpty())
		Expect(c.Stats().Count(mem.GlobalRead, stats.MSHREntryFail)).
			To(Equal(uint64(1)))
		Expect(c.Stats().Count(mem.GlobalRead, stats.MissQueueFull)).
			To(Equal(uint64(1)))
	})

	It("should fail when every way of the set is reserved", func() {
		// 0x000, 0x400, and 0x800 map to the same two-way set.
		_, result1, _ := submit(0x000, mem.GlobalRead, 1)
		_, result2, _ := submit(0x400, mem.GlobalRead, 2)
		_, result3, _ := submit(0x800, mem.GlobalRead, 3)

		Expect(result1).To(Equal(SubmitMissQueued))
		Expect(result2).To(Equal(SubmitMissQueued))
		Expect(result3).To(Equal(SubmitReservationFail))
		Expect(c.Stats().Count(mem.GlobalRead, stats.LineAllocFail)).
			To(Equal(uint64(1)))
	})

	It("should write back a dirty victim", func() {
		h, _, _ := submit(0x000, mem.GlobalRead, 1)
		sendMiss(h)
		c.Fill(h, 2)
		c.Cycle(3)

		mask := make([]bool, 128)
		for i := 0; i < 64; i++ {
			mask[i] = true
		}

		wr := mem.RequestBuilder{}.
			WithAddress(0x000).
			WithByteSize(64).
			WithKind(mem.GlobalWrite).
			WithByteMask(mask).
			Build()
		wh := arena.Put(wr, mem.OwnerIssuer)

		result, events := c.Submit(wh, 4)
		Expect(result).To(Equal(SubmitHit))
		Expect(events).To(BeEmpty())

		// Fill the other way, then force an eviction of the dirty line.
		h2, _, _ := submit(0x400, mem.GlobalRead, 5)
		_, result3, events3 := submit(0x800, mem.GlobalRead, 6)
		_ = h2

		Expect(result3).To(Equal(SubmitMissQueued))

		wb, ok := WasWritebackSent(events3)
		Expect(ok).To(BeTrue())
		Expect(wb.Evicted.BlockAddr).To(Equal(uint64(0x000)))
		Expect(wb.Evicted.ModifiedSize).To(Equal(uint64(64)))
	})

	It("should emit a write request on a write-through hit", func() {
		cfg := c.cfg
		cfg.Write = WriteThrough
		c = MakeBuilder().
			WithConfig(cfg).
			WithArena(arena).
			WithBottomPort(port).
			Build("Cache")

		h, _, _ := submit(0x140, mem.GlobalRead, 1)
		sendMiss(h)
		c.Fill(h, 2)
		c.Cycle(3)

		_, result, events := submit(0x100, mem.GlobalWrite, 4)

		Expect(result).To(Equal(SubmitHit))
		Expect(events).To(HaveLen(1))
		Expect(events[0].Kind).To(Equal(WriteRequestSent))
	})

	It("should release at most one request per cycle", func() {
		h1, _, _ := submit(0x100, mem.GlobalRead, 1)
		sendMiss(h1)
		h2, _, _ := submit(0x300, mem.GlobalRead, 2)
		sendMiss(h2)

		c.Fill(h1, 3)
		c.Fill(h2, 3)

		c.Cycle(4)
		Expect(released).To(HaveLen(1))

		c.Cycle(5)
		Expect(released).To(Equal([]mem.Handle{h1, h2}))
	})

	It("should mark the line modified on an atomic fill", func() {
		req := mem.RequestBuilder{}.
			WithAddress(0x140).
			WithByteSize(4).
			WithAtomic().
			Build()
		h := arena.Put(req, mem.OwnerIssuer)

		result, _ := c.Submit(h, 1)
		Expect(result).To(Equal(SubmitMissQueued))

		port.EXPECT().HasCapacity(uint64(128), false).Return(true)
		port.EXPECT().Enqueue(h)
		c.Cycle(0)

		c.Fill(h, 2)
		c.Cycle(3)

		// A plain write to the same line hits and needs no allocation.
		_, result2, _ := submit(0x100, mem.GlobalWrite, 4)
		Expect(result2).To(Equal(SubmitHit))
	})

	Context("with a sector cache", func() {
		BeforeEach(func() {
			cfg := c.cfg
			cfg.SectorMode = true
			c = MakeBuilder().
				WithConfig(cfg).
				WithArena(arena).
				WithBottomPort(port).
				WithFillCallback(func(h mem.Handle) {
					released = append(released, h)
				}).
				Build("Cache")
		})

		fillChild := func(parent mem.Handle, sector uint64, time uint64) {
			child := mem.RequestBuilder{}.
				WithAddress(0x100 + sector*mem.SectorSize).
				WithByteSize(mem.SectorSize).
				WithKind(mem.GlobalRead).
				WithSectorMask(1 << sector).
				WithParent(parent).
				Build()

			c.Fill(arena.Put(child, mem.OwnerInterconnect), time)
		}

		It("should fetch only the missing sectors", func() {
			h, result, _ := submit(0x100, mem.GlobalRead, 1)

			Expect(result).To(Equal(SubmitMissQueued))

			req, _ := arena.Get(h)
			Expect(req.SectorMask).To(Equal(uint64(0b0011)))
			Expect(req.ByteSize).To(Equal(uint64(64)))
		})

		It("should finalize the fill only on the last sector", func() {
			h, _, _ := submit(0x100, mem.GlobalRead, 1)

			port.EXPECT().HasCapacity(uint64(64), false).Return(true)
			port.EXPECT().Enqueue(h)
			c.Cycle(0)

			fillChild(h, 0, 2)

			Expect(c.WaitingForFill(h)).To(BeTrue())

			// The sectors are still only reserved, so a same-sector
			// access merges instead of hitting.
			_, result, _ := submit(0x100, mem.GlobalRead, 3)
			Expect(result).To(Equal(SubmitMerged))

			fillChild(h, 1, 4)

			Expect(c.WaitingForFill(h)).To(BeFalse())

			c.Cycle(5)
			c.Cycle(6)
			Expect(released).To(HaveLen(2))

			_, result, _ = submit(0x100, mem.GlobalRead, 7)
			Expect(result).To(Equal(SubmitHit))
		})

		It("should miss on a valid line's unfetched sectors", func() {
			h, _, _ := submit(0x100, mem.GlobalRead, 1)
			port.EXPECT().HasCapacity(uint64(64), false).Return(true)
			port.EXPECT().Enqueue(h)
			c.Cycle(0)
			fillChild(h, 0, 2)
			fillChild(h, 1, 3)
			c.Cycle(4)

			_, result, events := submit(0x140, mem.GlobalRead, 5)

			Expect(result).To(Equal(SubmitMissQueued))
			Expect(events).To(HaveLen(1))
			Expect(c.Stats().Count(mem.GlobalRead, stats.SectorMiss)).
				To(Equal(uint64(1)))
		})
	})

	It("should report a merged request as pending until released", func() {
		h1, _, _ := submit(0x100, mem.GlobalRead, 1)
		h2, _, _ := submit(0x140, mem.GlobalRead, 2)

		Expect(c.IsPending(h2)).To(BeTrue())
		Expect(c.WaitingForFill(h2)).To(BeFalse())

		sendMiss(h1)
		c.Fill(h1, 3)
		c.Cycle(4)
		c.Cycle(5)

		Expect(c.IsPending(h2)).To(BeFalse())
	})
})
