// Package cache implements the cache controller: hit/miss classification
// through the tag array, MSHR-based miss handling, port-bandwidth
// accounting, and the miss queue toward the lower memory level.
package cache

import (
	"log"

	"github.com/sarchlab/memhier/mem"
)

// A ReplacementPolicy selects how a victim line is chosen.
type ReplacementPolicy int

// Replacement policies.
const (
	LRU ReplacementPolicy = iota
	FIFO
)

// A WritePolicy selects how writes reach the lower level.
type WritePolicy int

// Write policies.
const (
	WriteBack WritePolicy = iota
	WriteThrough
)

// An AllocPolicy selects when a line slot is bound to a miss: at miss time
// or at fill time.
type AllocPolicy int

// Allocation policies.
const (
	AllocOnMiss AllocPolicy = iota
	AllocOnFill
)

// A Config holds the externally-owned configuration of one cache
// controller. It is immutable once the controller is built.
type Config struct {
	NumSets       int
	Associativity int
	LineSize      uint64

	Replacement ReplacementPolicy
	Write       WritePolicy
	Alloc       AllocPolicy

	MSHREntries   int
	MSHRMaxMerge  int
	MissQueueSize int
	DataPortWidth uint64

	SectorMode bool
}

// AtomSize is the granularity of one fill from the lower level: a sector
// for sector caches, the whole line otherwise.
func (c Config) AtomSize() uint64 {
	if c.SectorMode {
		return mem.SectorSize
	}

	return c.LineSize
}

// NumSectors returns the number of sectors per line.
func (c Config) NumSectors() int {
	if c.SectorMode {
		return int(c.LineSize / mem.SectorSize)
	}

	return 1
}

// BlockAddr returns the line-aligned address that keys the tag array and
// the MSHR table.
func (c Config) BlockAddr(addr uint64) uint64 {
	return mem.BlockAddr(addr, c.LineSize)
}

// MustValidate panics if the configuration is inconsistent.
func (c Config) MustValidate() {
	switch {
	case c.NumSets <= 0:
		log.Panicf("cache config: set count must be positive")
	case c.Associativity <= 0:
		log.Panicf("cache config: associativity must be positive")
	case c.LineSize == 0:
		log.Panicf("cache config: line size must be positive")
	case c.MSHREntries <= 0:
		log.Panicf("cache config: MSHR entry count must be positive")
	case c.MSHRMaxMerge <= 0:
		log.Panicf("cache config: MSHR max merge must be positive")
	case c.MissQueueSize <= 0:
		log.Panicf("cache config: miss queue depth must be positive")
	case c.DataPortWidth == 0:
		log.Panicf("cache config: data port width must be positive")
	}

	if c.SectorMode && c.LineSize%mem.SectorSize != 0 {
		log.Panicf("cache config: line size must be a multiple of %d",
			mem.SectorSize)
	}
}
