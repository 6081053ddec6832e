package tagging

// A VictimFinder decides which block of a set should be evicted. Blocks
// with an outstanding reservation are never victims.
type VictimFinder interface {
	FindVictim(blocks []*Block) (*Block, bool)
}

// NewLRUVictimFinder returns a finder that evicts the least recently used
// block.
func NewLRUVictimFinder() VictimFinder {
	return &lruVictimFinder{}
}

type lruVictimFinder struct{}

func (f *lruVictimFinder) FindVictim(blocks []*Block) (*Block, bool) {
	// An empty block is always preferred.
	for _, block := range blocks {
		if block.IsInvalid() {
			return block, true
		}
	}

	var victim *Block

	for _, block := range blocks {
		if block.IsReserved() {
			continue
		}

		if victim == nil || block.lastAccessTime < victim.lastAccessTime {
			victim = block
		}
	}

	return victim, victim != nil
}

// NewFIFOVictimFinder returns a finder that evicts the earliest allocated
// block.
func NewFIFOVictimFinder() VictimFinder {
	return &fifoVictimFinder{}
}

type fifoVictimFinder struct{}

func (f *fifoVictimFinder) FindVictim(blocks []*Block) (*Block, bool) {
	for _, block := range blocks {
		if block.IsInvalid() {
			return block, true
		}
	}

	var victim *Block

	for _, block := range blocks {
		if block.IsReserved() {
			continue
		}

		if victim == nil || block.allocTime < victim.allocTime {
			victim = block
		}
	}

	return victim, victim != nil
}
