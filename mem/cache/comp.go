package cache

import (
	"log"
	"math/bits"

	"github.com/sarchlab/memhier/mem"
	"github.com/sarchlab/memhier/mem/cache/internal/mshr"
	"github.com/sarchlab/memhier/mem/cache/internal/tagging"
	"github.com/sarchlab/memhier/sim"
	"github.com/sarchlab/memhier/stats"
)

//go:generate mockgen -destination "mock_cache_test.go" -package cache -write_package_comment=false -source comp.go BottomPort

// A BottomPort is the controller's gate toward the lower memory level. The
// capacity check mirrors the interconnect's admission control.
type BottomPort interface {
	HasCapacity(size uint64, isWrite bool) bool
	Enqueue(h mem.Handle)
}

// pendingRequest preserves the pre-miss-rewrite shape of one in-flight
// request so the fill can restore it.
type pendingRequest struct {
	blockAddr uint64
	addr      uint64
	byteSize  uint64
	way       int
}

// A Comp is one cache controller. All the state it mutates — tag array,
// MSHR table, port budgets, miss queue — is exclusively owned by this
// instance; a single driver advances it once per cycle.
type Comp struct {
	name string
	cfg  Config

	arena      *mem.Arena
	tags       tagging.TagArray
	mshrs      *mshr.Table
	bandwidth  *BandwidthManager
	missQueue  sim.Buffer
	bottomPort BottomPort

	pending  map[mem.Handle]pendingRequest
	groups   map[mem.Handle]*mem.SectorGroup
	inFlight map[mem.Handle]bool

	stats  *stats.CacheStats
	onFill func(h mem.Handle)
}

// Name returns the name of the cache.
func (c *Comp) Name() string {
	return c.name
}

// Stats returns the counters of the cache.
func (c *Comp) Stats() *stats.CacheStats {
	return c.stats
}

// DataPortFree reports whether the data port has budget left. Issuers
// must gate new hits on it.
func (c *Comp) DataPortFree() bool {
	return c.bandwidth.DataPortFree()
}

// FillPortFree reports whether the fill port has budget left. The
// response path must gate fills on it.
func (c *Comp) FillPortFree() bool {
	return c.bandwidth.FillPortFree()
}

// sectorMaskOf derives the sectors a request touches. Requests that do
// not declare a mask cover the sectors their address range falls in.
func (c *Comp) sectorMaskOf(req *mem.Request) uint64 {
	if !c.cfg.SectorMode {
		return 0x1
	}

	full := uint64(1)<<c.cfg.NumSectors() - 1
	if req.SectorMask != 0 {
		return req.SectorMask & full
	}

	offset := req.Address % c.cfg.LineSize
	first := offset / mem.SectorSize
	last := (offset + req.ByteSize - 1) / mem.SectorSize

	var mask uint64
	for i := first; i <= last && i < uint64(c.cfg.NumSectors()); i++ {
		mask |= 1 << i
	}

	return mask
}

// Submit classifies one request. The returned events tell the issuer what
// traffic the access produced toward the lower level. The issuer keeps
// ownership of the request unless the result is Merged or MissQueued.
func (c *Comp) Submit(h mem.Handle, time uint64) (SubmitResult, []Event) {
	req, ok := c.arena.Get(h)
	if !ok {
		log.Panicf("%s: submitting a request that is not in the arena", c.name)
	}

	blockAddr := c.cfg.BlockAddr(req.Address)
	info := tagging.AccessInfo{
		SectorMask: c.sectorMaskOf(req),
		IsWrite:    req.IsWrite(),
		ByteMask:   req.ByteMask,
	}

	probeStatus, _ := c.tags.Probe(blockAddr, info)

	switch probeStatus {
	case tagging.Hit:
		return c.processHit(req, blockAddr, info, time)
	case tagging.ReservationFail:
		c.stats.Inc(req.Kind, stats.LineAllocFail)
		return SubmitReservationFail, nil
	default:
		return c.sendReadRequest(h, req, blockAddr, info, time)
	}
}

func (c *Comp) processHit(
	req *mem.Request,
	blockAddr uint64,
	info tagging.AccessInfo,
	time uint64,
) (SubmitResult, []Event) {
	c.tags.Access(blockAddr, time, info)
	c.bandwidth.UseDataPort(req.ByteSize, Hit, nil)
	c.stats.Inc(req.Kind, stats.Hit)

	var events []Event
	if req.IsWrite() && c.cfg.Write == WriteThrough {
		events = append(events, Event{Kind: WriteRequestSent})
	}

	return SubmitHit, events
}

// sendReadRequest applies the miss decision table over the MSHR state and
// the miss queue room.
func (c *Comp) sendReadRequest(
	h mem.Handle,
	req *mem.Request,
	blockAddr uint64,
	info tagging.AccessInfo,
	time uint64,
) (SubmitResult, []Event) {
	mshrHit := c.mshrs.Probe(blockAddr)
	mshrAvail := !c.mshrs.Full(blockAddr)

	switch {
	case mshrHit && mshrAvail:
		c.tags.Access(blockAddr, time, info)
		c.mshrs.Add(blockAddr, h, req.IsAtomic)
		c.arena.Transfer(h, mem.OwnerIssuer, mem.OwnerMSHR)
		c.inFlight[h] = true
		c.stats.Inc(req.Kind, stats.MSHRHit)

		return SubmitMerged, nil
	case !mshrHit && mshrAvail && c.missQueue.CanPush():
		return c.queueMiss(h, req, blockAddr, info, time)
	case mshrHit && !mshrAvail:
		c.stats.Inc(req.Kind, stats.MSHRMergeEntryFail)
		return SubmitMSHRMergeEntryFail, nil
	default:
		if mshrAvail {
			c.stats.Inc(req.Kind, stats.MissQueueFull)
		}

		c.stats.Inc(req.Kind, stats.MSHREntryFail)

		return SubmitMSHREntryFail, nil
	}
}

func (c *Comp) queueMiss(
	h mem.Handle,
	req *mem.Request,
	blockAddr uint64,
	info tagging.AccessInfo,
	time uint64,
) (SubmitResult, []Event) {
	var events []Event

	result := c.tags.Access(blockAddr, time, info)

	if result.Writeback && c.cfg.Write != WriteThrough {
		events = append(events, Event{
			Kind: WriteBackRequestSent,
			Evicted: EvictedBlock{
				BlockAddr:    result.Evicted.BlockAddr,
				ModifiedSize: result.Evicted.ModifiedSize,
				SectorMask:   result.Evicted.SectorMask,
			},
		})
	}

	c.bandwidth.UseDataPort(
		req.ByteSize, statusFromTag(result.Status), events)

	c.pending[h] = pendingRequest{
		blockAddr: blockAddr,
		addr:      req.Address,
		byteSize:  req.ByteSize,
		way:       result.Way,
	}

	if c.cfg.SectorMode {
		c.groups[h] = mem.NewSectorGroup(
			h, bits.OnesCount64(info.SectorMask))
	}

	// Rewrite the request to fetch granularity for the lower level: the
	// whole line, or the missing sectors in sector mode.
	req.Address = blockAddr
	req.ByteSize = c.cfg.LineSize
	req.Status = mem.StatusInMissQueue

	if c.cfg.SectorMode {
		req.SectorMask = info.SectorMask
		req.ByteSize = uint64(bits.OnesCount64(info.SectorMask)) *
			mem.SectorSize
	}

	c.mshrs.Add(blockAddr, h, req.IsAtomic)
	c.missQueue.Push(h)
	c.arena.Transfer(h, mem.OwnerIssuer, mem.OwnerMissQueue)
	c.inFlight[h] = true

	// Write-allocate sub-requests issue their own events.
	writeAllocate := req.Kind == mem.L1WriteAlloc || req.Kind == mem.L2WriteAlloc
	if !writeAllocate {
		events = append(events, Event{Kind: ReadRequestSent})
	}

	c.stats.Inc(req.Kind, statName(result.Status))

	return SubmitMissQueued, events
}

func statName(s tagging.Status) string {
	switch s {
	case tagging.SectorMiss:
		return stats.SectorMiss
	case tagging.HitReserved:
		return stats.HitReserved
	default:
		return stats.Miss
	}
}

// Cycle advances the cache by one simulated tick: it sends the head of
// the miss queue to the lower level when the port has room, samples port
// utility, replenishes the port budgets, and releases one filled request
// back to the issuer.
func (c *Comp) Cycle(time uint64) {
	if item := c.missQueue.Peek(); item != nil {
		h := item.(mem.Handle)

		req, ok := c.arena.Get(h)
		if !ok {
			log.Panicf("%s: miss queue holds a stale handle", c.name)
		}

		if c.bottomPort.HasCapacity(req.ByteSize, req.IsWrite()) {
			c.missQueue.Pop()
			req.Status = mem.StatusInInterconnect
			c.arena.Transfer(h, mem.OwnerMissQueue, mem.OwnerInterconnect)
			c.bottomPort.Enqueue(h)
		}
	}

	c.stats.SamplePortUtility(
		!c.bandwidth.DataPortFree(), !c.bandwidth.FillPortFree())
	c.bandwidth.Replenish()

	c.releaseReady()
}

func (c *Comp) releaseReady() {
	if !c.mshrs.HasReadyAccesses() {
		return
	}

	h, _ := c.mshrs.NextAccess()
	c.arena.Transfer(h, mem.OwnerMSHR, mem.OwnerIssuer)

	req, ok := c.arena.Get(h)
	if !ok {
		log.Panicf("%s: MSHR released a stale handle", c.name)
	}

	req.Status = mem.StatusCompleted
	delete(c.inFlight, h)

	if c.onFill != nil {
		c.onFill(h)
	}
}

// Fill accepts a response from the lower level. For sector caches, only
// the last child response of a split finalizes the fill; earlier children
// are absorbed into the sector group and discarded.
func (c *Comp) Fill(h mem.Handle, time uint64) {
	if c.cfg.SectorMode {
		req, ok := c.arena.Get(h)
		if !ok {
			log.Panicf("%s: fill with a stale handle", c.name)
		}

		if req.IsSplit() {
			parent := req.Parent

			group, ok := c.groups[parent]
			if !ok {
				log.Panicf("%s: fill with no matching sector group", c.name)
			}

			child, _ := c.arena.Remove(h)
			if !group.Receive(child) {
				return
			}

			h = parent
		}
	}

	pend, ok := c.pending[h]
	if !ok {
		log.Panicf("%s: fill with no matching in-flight request", c.name)
	}

	req, ok := c.arena.Get(h)
	if !ok {
		log.Panicf("%s: fill with a stale handle", c.name)
	}

	c.arena.Transfer(h, mem.OwnerInterconnect, mem.OwnerMSHR)

	// Restore the pre-miss-rewrite shape.
	req.Address = pend.addr
	req.ByteSize = pend.byteSize
	req.Status = mem.StatusReturning

	mask := c.sectorMaskOf(req)

	switch c.cfg.Alloc {
	case AllocOnMiss:
		c.tags.Fill(pend.way, time, mask)
	case AllocOnFill:
		pend.way = c.tags.FillByAddr(pend.blockAddr, time, mask)
	}

	hasAtomic := c.mshrs.MarkReady(pend.blockAddr)
	if hasAtomic {
		if c.cfg.Alloc != AllocOnMiss {
			log.Panicf("%s: atomic fill requires on-miss allocation", c.name)
		}

		block := c.tags.Block(pend.way)
		block.SetModified(mask, req.ByteMask)
	}

	delete(c.pending, h)
	delete(c.groups, h)
	c.bandwidth.UseFillPort()
	c.stats.Inc(req.Kind, stats.Fill)
}

// WaitingForFill reports whether the request is waiting for a response
// from the lower level. Callers use it to avoid double dispatch.
func (c *Comp) WaitingForFill(h mem.Handle) bool {
	_, ok := c.pending[h]
	return ok
}

// IsPending reports whether an admitted request has not been released
// back to the issuer yet.
func (c *Comp) IsPending(h mem.Handle) bool {
	return c.inFlight[h]
}

// Flush drops the dirty state of every line.
func (c *Comp) Flush() {
	c.tags.Flush()
}

// Invalidate resets every line. It must not be called while misses are
// outstanding.
func (c *Comp) Invalidate() {
	if c.mshrs.Len() > 0 {
		log.Panicf("%s: invalidating with outstanding misses", c.name)
	}

	c.tags.Invalidate()
}
