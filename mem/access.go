// Package mem defines the memory request model that the cache and
// interconnect components exchange: access kinds, requests, the arena that
// owns in-flight requests, and sector-split groups.
package mem

// SectorSize is the number of bytes in one sector of a sector cache line.
const SectorSize = 32

// An AccessKind tags a request with the traffic class it belongs to.
type AccessKind int

// Access kinds.
const (
	GlobalRead AccessKind = iota
	GlobalWrite
	TextureRead
	ConstRead
	InstRead
	L1WriteAlloc
	L1Writeback
	L2WriteAlloc
	L2Writeback
	AtomicRMW
	numAccessKinds
)

var accessKindNames = map[AccessKind]string{
	GlobalRead:   "GlobalRead",
	GlobalWrite:  "GlobalWrite",
	TextureRead:  "TextureRead",
	ConstRead:    "ConstRead",
	InstRead:     "InstRead",
	L1WriteAlloc: "L1WriteAlloc",
	L1Writeback:  "L1Writeback",
	L2WriteAlloc: "L2WriteAlloc",
	L2Writeback:  "L2Writeback",
	AtomicRMW:    "AtomicRMW",
}

func (k AccessKind) String() string {
	return accessKindNames[k]
}

// NumAccessKinds is the number of defined access kinds.
func NumAccessKinds() int {
	return int(numAccessKinds)
}

// IsWrite returns true if the access kind carries data toward memory.
func (k AccessKind) IsWrite() bool {
	switch k {
	case GlobalWrite, L1Writeback, L2Writeback:
		return true
	default:
		return false
	}
}

// A Status tracks where a request is in its lifecycle.
type Status int

// Request statuses.
const (
	StatusInitialized Status = iota
	StatusInMissQueue
	StatusInInterconnect
	StatusInPartition
	StatusReturning
	StatusCompleted
)

var statusNames = map[Status]string{
	StatusInitialized:    "Initialized",
	StatusInMissQueue:    "InMissQueue",
	StatusInInterconnect: "InInterconnect",
	StatusInPartition:    "InPartition",
	StatusReturning:      "Returning",
	StatusCompleted:      "Completed",
}

func (s Status) String() string {
	return statusNames[s]
}

// BlockAddr returns the address of the cache line that contains addr.
func BlockAddr(addr, lineSize uint64) uint64 {
	return addr / lineSize * lineSize
}
