package tagging

import "log"

// A Status classifies the outcome of a tag-array access.
type Status int

// Access outcomes.
const (
	Hit Status = iota
	HitReserved
	Miss
	SectorMiss
	ReservationFail
)

var statusNames = map[Status]string{
	Hit:             "Hit",
	HitReserved:     "HitReserved",
	Miss:            "Miss",
	SectorMiss:      "SectorMiss",
	ReservationFail: "ReservationFail",
}

func (s Status) String() string {
	return statusNames[s]
}

// AccessInfo carries the request properties the tag array classifies on.
type AccessInfo struct {
	SectorMask uint64
	IsWrite    bool

	// ByteMask marks the bytes a write modifies. It sizes the writeback
	// when the line is later evicted.
	ByteMask []bool
}

// EvictedInfo describes a dirty victim that needs a writeback.
type EvictedInfo struct {
	BlockAddr    uint64
	ModifiedSize uint64
	SectorMask   uint64
}

// An AccessResult is the outcome of one tag-array access: the
// classification, the chosen line slot, and the writeback descriptor when
// a dirty victim was evicted.
type AccessResult struct {
	Status    Status
	Way       int
	Writeback bool
	Evicted   EvictedInfo
}

// A TagArray is the associative metadata store of one cache.
type TagArray interface {
	Probe(blockAddr uint64, info AccessInfo) (Status, int)
	Access(blockAddr uint64, time uint64, info AccessInfo) AccessResult
	Fill(way int, time uint64, mask uint64)
	FillByAddr(blockAddr uint64, time uint64, mask uint64) int
	Block(way int) *Block
	Flush()
	Invalidate()
}

// A Config holds the geometry and policies of a tag array.
type Config struct {
	NumSets       int
	Associativity int
	LineSize      int
	NumSectors    int
	AllocOnMiss   bool
	VictimFinder  VictimFinder
}

// NewTagArray creates a tag array with the given geometry.
func NewTagArray(cfg Config) TagArray {
	if cfg.NumSectors < 1 {
		cfg.NumSectors = 1
	}

	if cfg.VictimFinder == nil {
		cfg.VictimFinder = NewLRUVictimFinder()
	}

	t := &tagArrayImpl{Config: cfg}
	t.Invalidate()

	return t
}

type set struct {
	blocks []*Block
}

type tagArrayImpl struct {
	Config

	sets []set
}

func (t *tagArrayImpl) setOf(blockAddr uint64) (*set, int) {
	setID := int(blockAddr / uint64(t.LineSize) % uint64(t.NumSets))
	return &t.sets[setID], setID
}

// Block returns the block at a global line-slot index.
func (t *tagArrayImpl) Block(way int) *Block {
	setID := way / t.Associativity
	wayID := way % t.Associativity

	return t.sets[setID].blocks[wayID]
}

func (t *tagArrayImpl) index(b *Block) int {
	return b.SetID*t.Associativity + b.WayID
}

// Probe classifies an access without mutating any state. It returns the
// classification and the line slot involved, or -1 when every way of the
// set holds a reservation.
func (t *tagArrayImpl) Probe(
	blockAddr uint64,
	info AccessInfo,
) (Status, int) {
	status, block := t.probe(blockAddr, info)
	if block == nil {
		return status, -1
	}

	return status, t.index(block)
}

// probe classifies an access without mutating any state.
func (t *tagArrayImpl) probe(
	blockAddr uint64,
	info AccessInfo,
) (Status, *Block) {
	s, _ := t.setOf(blockAddr)

	for _, block := range s.blocks {
		if block.IsInvalid() || block.Tag != blockAddr {
			continue
		}

		if block.IsSectorValid(info.SectorMask) {
			return Hit, block
		}

		if block.IsSectorReserved(info.SectorMask) {
			return HitReserved, block
		}

		return SectorMiss, block
	}

	victim, ok := t.VictimFinder.FindVictim(s.blocks)
	if !ok {
		return ReservationFail, nil
	}

	return Miss, victim
}

func (t *tagArrayImpl) Access(
	blockAddr uint64,
	time uint64,
	info AccessInfo,
) AccessResult {
	status, block := t.probe(blockAddr, info)

	switch status {
	case Hit:
		block.lastAccessTime = time

		if info.IsWrite {
			block.SetModified(info.SectorMask, info.ByteMask)
		}

		return AccessResult{Status: Hit, Way: t.index(block)}
	case HitReserved:
		return AccessResult{Status: HitReserved, Way: t.index(block)}
	case SectorMiss:
		if t.AllocOnMiss {
			block.ReserveSectors(time, info.SectorMask)
		}

		return AccessResult{Status: SectorMiss, Way: t.index(block)}
	case Miss:
		result := AccessResult{Status: Miss, Way: t.index(block)}

		if !t.AllocOnMiss {
			return result
		}

		if block.IsModified() {
			result.Writeback = true
			result.Evicted = EvictedInfo{
				BlockAddr:    block.Tag,
				ModifiedSize: block.ModifiedSize(),
				SectorMask:   block.ModifiedSectorMask(),
			}
		}

		block.Reserve(blockAddr, time, info.SectorMask)

		return result
	case ReservationFail:
		return AccessResult{Status: ReservationFail, Way: -1}
	}

	log.Panicf("unreachable tag array status %d", status)

	return AccessResult{}
}

// Fill resolves the reservation on the line slot chosen at miss time.
func (t *tagArrayImpl) Fill(way int, time uint64, mask uint64) {
	block := t.Block(way)

	if !block.IsReserved() {
		log.Panicf("filling a line slot that holds no reservation")
	}

	block.FillSectors(time, mask)
}

// FillByAddr chooses the line slot at fill time and installs the tag and
// data there. It returns the chosen slot.
func (t *tagArrayImpl) FillByAddr(
	blockAddr uint64,
	time uint64,
	mask uint64,
) int {
	s, _ := t.setOf(blockAddr)

	for _, block := range s.blocks {
		if !block.IsInvalid() && block.Tag == blockAddr {
			block.FillSectors(time, mask)
			return t.index(block)
		}
	}

	victim, ok := t.VictimFinder.FindVictim(s.blocks)
	if !ok {
		log.Panicf("no line slot available at fill time")
	}

	victim.Reserve(blockAddr, time, mask)
	victim.FillSectors(time, mask)

	return t.index(victim)
}

// Flush drops the dirty state of every block.
func (t *tagArrayImpl) Flush() {
	for _, s := range t.sets {
		for _, block := range s.blocks {
			for i, state := range block.states {
				if state == Modified {
					block.states[i] = Valid
				}
			}

			for i := range block.dirtyByteMask {
				block.dirtyByteMask[i] = false
			}
		}
	}
}

// Invalidate resets every block of the tag array.
func (t *tagArrayImpl) Invalidate() {
	t.sets = make([]set, t.NumSets)

	for i := 0; i < t.NumSets; i++ {
		for j := 0; j < t.Associativity; j++ {
			t.sets[i].blocks = append(t.sets[i].blocks,
				newBlock(i, j, t.NumSectors, t.LineSize))
		}
	}
}
