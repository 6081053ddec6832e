package cache

import "log"

// A BandwidthManager models the shared data (read) port and the shared
// fill (write) port of one cache. Using a port adds its service cost to
// the budget; Replenish burns one cycle of budget per simulated cycle.
type BandwidthManager struct {
	cfg Config

	dataPortOccupiedCycles int64
	fillPortOccupiedCycles int64
}

// NewBandwidthManager returns a bandwidth manager for the configuration.
func NewBandwidthManager(cfg Config) *BandwidthManager {
	return &BandwidthManager{cfg: cfg}
}

func ceilDiv(bytes, width uint64) int64 {
	return int64((bytes + width - 1) / width)
}

// UseDataPort charges the data port based on the access outcome and the
// events the submit produced. A hit reads the accessed bytes; a miss that
// displaced a dirty victim reads the modified bytes out for the writeback.
// Sector misses and reservation failures consume no bandwidth.
func (b *BandwidthManager) UseDataPort(
	dataSize uint64,
	outcome RequestStatus,
	events []Event,
) {
	switch outcome {
	case Hit:
		b.dataPortOccupiedCycles += ceilDiv(dataSize, b.cfg.DataPortWidth)
	case HitReserved, Miss:
		if wb, ok := WasWritebackSent(events); ok {
			b.dataPortOccupiedCycles +=
				ceilDiv(wb.Evicted.ModifiedSize, b.cfg.DataPortWidth)
		}
	case SectorMiss, ReservationFail:
		// Does not consume any port bandwidth.
	default:
		log.Panicf("unexpected access outcome %s", outcome)
	}
}

// UseFillPort charges the fill port for installing one atom.
func (b *BandwidthManager) UseFillPort() {
	b.fillPortOccupiedCycles += ceilDiv(b.cfg.AtomSize(), b.cfg.DataPortWidth)
}

// Replenish frees one cycle of budget on both ports. It is called once
// per simulated cycle.
func (b *BandwidthManager) Replenish() {
	if b.dataPortOccupiedCycles > 0 {
		b.dataPortOccupiedCycles--
	}

	if b.dataPortOccupiedCycles < 0 {
		log.Panicf("data port budget went negative")
	}

	if b.fillPortOccupiedCycles > 0 {
		b.fillPortOccupiedCycles--
	}

	if b.fillPortOccupiedCycles < 0 {
		log.Panicf("fill port budget went negative")
	}
}

// DataPortFree returns true if the data port has no outstanding budget.
func (b *BandwidthManager) DataPortFree() bool {
	return b.dataPortOccupiedCycles == 0
}

// FillPortFree returns true if the fill port has no outstanding budget.
func (b *BandwidthManager) FillPortFree() bool {
	return b.fillPortOccupiedCycles == 0
}
