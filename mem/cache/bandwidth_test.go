package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BandwidthManager", func() {
	var bm *BandwidthManager

	BeforeEach(func() {
		bm = NewBandwidthManager(Config{
			NumSets:       64,
			Associativity: 4,
			LineSize:      128,
			DataPortWidth: 32,
		})
	})

	It("should start with both ports free", func() {
		Expect(bm.DataPortFree()).To(BeTrue())
		Expect(bm.FillPortFree()).To(BeTrue())
	})

	It("should charge a hit by the accessed bytes", func() {
		bm.UseDataPort(64, Hit, nil)

		Expect(bm.DataPortFree()).To(BeFalse())

		bm.Replenish()
		Expect(bm.DataPortFree()).To(BeFalse())

		bm.Replenish()
		Expect(bm.DataPortFree()).To(BeTrue())
	})

	It("should round a partial-width hit up to one cycle", func() {
		bm.UseDataPort(4, Hit, nil)

		Expect(bm.DataPortFree()).To(BeFalse())

		bm.Replenish()
		Expect(bm.DataPortFree()).To(BeTrue())
	})

	It("should not charge a clean miss", func() {
		bm.UseDataPort(64, Miss, nil)

		Expect(bm.DataPortFree()).To(BeTrue())
	})

	It("should charge a miss by the displaced dirty bytes", func() {
		events := []Event{{
			Kind:    WriteBackRequestSent,
			Evicted: EvictedBlock{BlockAddr: 0x1000, ModifiedSize: 100},
		}}

		bm.UseDataPort(64, Miss, events)

		for i := 0; i < 3; i++ {
			Expect(bm.DataPortFree()).To(BeFalse())
			bm.Replenish()
		}

		Expect(bm.DataPortFree()).To(BeFalse())
		bm.Replenish()
		Expect(bm.DataPortFree()).To(BeTrue())
	})

	It("should not charge a sector miss", func() {
		bm.UseDataPort(64, SectorMiss, nil)

		Expect(bm.DataPortFree()).To(BeTrue())
	})

	It("should charge the fill port by the atom size", func() {
		bm.UseFillPort()

		for i := 0; i < 3; i++ {
			Expect(bm.FillPortFree()).To(BeFalse())
			bm.Replenish()
		}

		Expect(bm.FillPortFree()).To(BeFalse())
		bm.Replenish()
		Expect(bm.FillPortFree()).To(BeTrue())
	})

	It("should keep an idle port free across replenishes", func() {
		bm.Replenish()
		bm.Replenish()

		Expect(bm.DataPortFree()).To(BeTrue())
		Expect(bm.FillPortFree()).To(BeTrue())
	})
})
