package system

import (
	"log"

	"github.com/sarchlab/memhier/mem"
	"github.com/sarchlab/memhier/noc/switching"
	"github.com/sarchlab/memhier/sim"
)

// A pendingReply is one serviced request waiting out the partition's
// access latency.
type pendingReply struct {
	handle mem.Handle
	src    int
	ready  uint64
}

func (r pendingReply) ReadyCycle() uint64 {
	return r.ready
}

// A Partition is a fixed-latency memory node. It pulls requests from the
// request subnet, holds each for the configured latency, and pushes the
// response (split per sector when the request asks for sectors) onto the
// reply subnet.
type Partition struct {
	name    string
	node    int
	latency uint64

	sw    *switching.Comp
	arena *mem.Arena

	calendar *sim.InsertionQueue
}

// Name returns the name of the partition.
func (p *Partition) Name() string {
	return p.name
}

// Busy reports whether the partition still holds requests in service.
func (p *Partition) Busy() bool {
	return p.calendar.Len() > 0
}

// Tick services the partition for one cycle. It accepts at most one new
// request and releases every reply whose latency has elapsed.
func (p *Partition) Tick(cycle uint64) bool {
	madeProgress := p.acceptOne(cycle)

	for {
		item := p.calendar.PopReady(cycle)
		if item == nil {
			break
		}

		p.reply(item.(pendingReply), cycle)

		madeProgress = true
	}

	return madeProgress
}

func (p *Partition) acceptOne(cycle uint64) bool {
	pkt, ok := p.sw.Pop(p.node)
	if !ok {
		return false
	}

	h := pkt.Payload.(mem.Handle)

	req, ok := p.arena.Get(h)
	if !ok {
		log.Panicf("%s: popped a stale request handle", p.name)
	}

	req.Status = mem.StatusInPartition

	p.calendar.Insert(pendingReply{
		handle: h,
		src:    pkt.Src,
		ready:  cycle + p.latency,
	})

	return true
}

// reply pushes the response back toward the requesting core. A request
// carrying a sector mask is answered with one child response per
// requested sector; the parent itself stays in flight until the last
// child lands.
func (p *Partition) reply(r pendingReply, cycle uint64) {
	req, ok := p.arena.Get(r.handle)
	if !ok {
		log.Panicf("%s: replying with a stale request handle", p.name)
	}

	req.Status = mem.StatusReturning

	if req.SectorMask == 0 {
		p.push(r.src, r.handle, req.ByteSize)
		return
	}

	// Copies, not the arena pointer: putting children below may move the
	// parent's slot.
	addr, kind, mask := req.Address, req.Kind, req.SectorMask

	for sector := uint64(0); sector < 64; sector++ {
		if mask&(1<<sector) == 0 {
			continue
		}

		child := mem.RequestBuilder{}.
			WithAddress(addr + sector*mem.SectorSize).
			WithByteSize(mem.SectorSize).
			WithKind(kind).
			WithSectorMask(1 << sector).
			WithParent(r.handle).
			Build()

		p.push(r.src, p.arena.Put(child, mem.OwnerInterconnect), mem.SectorSize)
	}
}

func (p *Partition) push(dst int, h mem.Handle, size uint64) {
	if !p.sw.HasBuffer(p.node, size) {
		log.Panicf("%s: reply subnet has no buffer space", p.name)
	}

	p.sw.Push(p.node, dst, h, size)
}
