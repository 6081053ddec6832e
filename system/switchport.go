// Package system wires compute cores, caches, the interconnect switch,
// and memory partitions into a single-threaded cycle-driven model.
package system

import (
	"log"

	"github.com/sarchlab/memhier/mem"
	"github.com/sarchlab/memhier/noc/switching"
)

// A switchPort connects one core's cache to the interconnect. It
// implements the cache's lower-level port contract on top of the
// switch's admission control.
type switchPort struct {
	sw       *switching.Comp
	arena    *mem.Arena
	coreNode int

	numCores      int
	numPartitions int
	lineSize      uint64
}

// HasCapacity mirrors the switch's depth-only admission test on the
// injecting core's node.
func (p *switchPort) HasCapacity(size uint64, isWrite bool) bool {
	_ = isWrite

	return p.sw.HasBuffer(p.coreNode, size)
}

// partitionOf interleaves cache lines across memory partitions.
func (p *switchPort) partitionOf(blockAddr uint64) int {
	idx := int(blockAddr / p.lineSize % uint64(p.numPartitions))

	return p.numCores + idx
}

// Enqueue injects the miss into the request subnet, addressed to the
// partition that owns the line.
func (p *switchPort) Enqueue(h mem.Handle) {
	req, ok := p.arena.Get(h)
	if !ok {
		log.Panic("system: enqueueing a request that is not in the arena")
	}

	dst := p.partitionOf(req.Address)

	p.sw.Push(p.coreNode, dst, h, req.ByteSize)
}
