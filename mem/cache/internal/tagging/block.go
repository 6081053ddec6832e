// Package tagging implements the per-cache associative metadata store:
// hit/miss classification, victim selection, and reservation tracking.
package tagging

// A State is the state of one sector of a cache line.
type State int

// Sector states. Reserved marks a sector with an outstanding miss. It is
// distinct from Valid and Modified.
const (
	Invalid State = iota
	Reserved
	Valid
	Modified
)

// A Block is the metadata associated with one cache line slot. A block
// holds exactly one tag at a time. Sector caches keep one state per
// sector; other caches treat the whole line as a single sector.
type Block struct {
	Tag   uint64
	SetID int
	WayID int

	states        []State
	dirtyByteMask []bool

	allocTime      uint64
	fillTime       uint64
	lastAccessTime uint64
}

func newBlock(setID, wayID, numSectors, lineSize int) *Block {
	return &Block{
		SetID:         setID,
		WayID:         wayID,
		states:        make([]State, numSectors),
		dirtyByteMask: make([]bool, lineSize),
	}
}

// IsInvalid returns true if no sector of the block holds data or a
// reservation.
func (b *Block) IsInvalid() bool {
	for _, s := range b.states {
		if s != Invalid {
			return false
		}
	}

	return true
}

// IsReserved returns true if any sector of the block has an outstanding
// miss.
func (b *Block) IsReserved() bool {
	for _, s := range b.states {
		if s == Reserved {
			return true
		}
	}

	return false
}

// IsSectorReserved returns true if any of the masked sectors has an
// outstanding miss.
func (b *Block) IsSectorReserved(mask uint64) bool {
	for i, s := range b.states {
		if mask&(1<<i) != 0 && s == Reserved {
			return true
		}
	}

	return false
}

// IsSectorValid returns true if every masked sector holds data.
func (b *Block) IsSectorValid(mask uint64) bool {
	for i, s := range b.states {
		if mask&(1<<i) == 0 {
			continue
		}

		if s != Valid && s != Modified {
			return false
		}
	}

	return true
}

// IsModified returns true if any sector of the block is dirty.
func (b *Block) IsModified() bool {
	for _, s := range b.states {
		if s == Modified {
			return true
		}
	}

	return false
}

// ModifiedSize returns the number of dirty bytes in the block.
func (b *Block) ModifiedSize() uint64 {
	var n uint64

	for _, dirty := range b.dirtyByteMask {
		if dirty {
			n++
		}
	}

	return n
}

// ModifiedSectorMask returns the mask of dirty sectors.
func (b *Block) ModifiedSectorMask() uint64 {
	var mask uint64

	for i, s := range b.states {
		if s == Modified {
			mask |= 1 << i
		}
	}

	return mask
}

// Reserve installs a new tag in the block and marks the masked sectors as
// having an outstanding miss. The remaining sectors become invalid.
func (b *Block) Reserve(tag uint64, time uint64, mask uint64) {
	b.Tag = tag
	b.allocTime = time
	b.lastAccessTime = time
	b.fillTime = 0

	for i := range b.states {
		if mask&(1<<i) != 0 {
			b.states[i] = Reserved
		} else {
			b.states[i] = Invalid
		}
	}

	for i := range b.dirtyByteMask {
		b.dirtyByteMask[i] = false
	}
}

// ReserveSectors marks the masked sectors of an already-allocated block as
// having an outstanding miss.
func (b *Block) ReserveSectors(time uint64, mask uint64) {
	b.lastAccessTime = time

	for i := range b.states {
		if mask&(1<<i) != 0 {
			b.states[i] = Reserved
		}
	}
}

// FillSectors installs data in the masked sectors, clearing their
// reservations.
func (b *Block) FillSectors(time uint64, mask uint64) {
	b.fillTime = time

	for i := range b.states {
		if mask&(1<<i) != 0 {
			b.states[i] = Valid
		}
	}
}

// SetModified marks the masked sectors dirty and records the modified
// bytes.
func (b *Block) SetModified(sectorMask uint64, byteMask []bool) {
	for i := range b.states {
		if sectorMask&(1<<i) != 0 {
			b.states[i] = Modified
		}
	}

	for i, dirty := range byteMask {
		if i >= len(b.dirtyByteMask) {
			break
		}

		if dirty {
			b.dirtyByteMask[i] = true
		}
	}
}

// Invalidate clears the whole block.
func (b *Block) Invalidate() {
	b.Tag = 0

	for i := range b.states {
		b.states[i] = Invalid
	}

	for i := range b.dirtyByteMask {
		b.dirtyByteMask[i] = false
	}
}
