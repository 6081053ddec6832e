// Package stats collects the named counters that the timing models update
// and external collectors consume.
package stats

import (
	"sort"

	"github.com/sarchlab/memhier/mem"
)

// Counter names updated by the cache controller.
const (
	Hit                = "hit"
	HitReserved        = "hit_reserved"
	Miss               = "miss"
	SectorMiss         = "sector_miss"
	MSHRHit            = "mshr_hit"
	MSHREntryFail      = "mshr_entry_fail"
	MSHRMergeEntryFail = "mshr_merge_entry_fail"
	MissQueueFull      = "miss_queue_full"
	LineAllocFail      = "line_alloc_fail"
	Fill               = "fill"
)

type counterKey struct {
	kind mem.AccessKind
	name string
}

// CacheStats holds the counters of one cache instance, keyed by access
// kind and counter name, plus the per-cycle port-utility samples.
type CacheStats struct {
	counters map[counterKey]uint64

	CycleSamples        uint64
	DataPortBusySamples uint64
	FillPortBusySamples uint64
}

// NewCacheStats returns an empty counter set.
func NewCacheStats() *CacheStats {
	return &CacheStats{
		counters: make(map[counterKey]uint64),
	}
}

// Inc adds one to the named counter for the access kind.
func (s *CacheStats) Inc(kind mem.AccessKind, name string) {
	s.counters[counterKey{kind: kind, name: name}]++
}

// Count returns the value of the named counter for the access kind.
func (s *CacheStats) Count(kind mem.AccessKind, name string) uint64 {
	return s.counters[counterKey{kind: kind, name: name}]
}

// Total returns the value of the named counter summed over all access
// kinds.
func (s *CacheStats) Total(name string) uint64 {
	var total uint64

	for key, value := range s.counters {
		if key.name == name {
			total += value
		}
	}

	return total
}

// SamplePortUtility records whether the data and fill ports were busy this
// cycle.
func (s *CacheStats) SamplePortUtility(dataBusy, fillBusy bool) {
	s.CycleSamples++

	if dataBusy {
		s.DataPortBusySamples++
	}

	if fillBusy {
		s.FillPortBusySamples++
	}
}

// A Row is one counter value, flattened for recording.
type Row struct {
	Kind    string
	Counter string
	Value   uint64
}

// Rows returns all non-zero counters in a deterministic order.
func (s *CacheStats) Rows() []Row {
	rows := make([]Row, 0, len(s.counters))

	for key, value := range s.counters {
		rows = append(rows, Row{
			Kind:    key.kind.String(),
			Counter: key.name,
			Value:   value,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Kind != rows[j].Kind {
			return rows[i].Kind < rows[j].Kind
		}

		return rows[i].Counter < rows[j].Counter
	})

	return rows
}
