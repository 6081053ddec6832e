package cache

// An EventKind tags a side effect that a submit produced toward the lower
// memory level.
type EventKind int

// Event kinds.
const (
	ReadRequestSent EventKind = iota
	WriteRequestSent
	WriteBackRequestSent
)

// An EvictedBlock describes the dirty victim a miss displaced. The issuer
// uses it to generate the writeback request.
type EvictedBlock struct {
	BlockAddr    uint64
	ModifiedSize uint64
	SectorMask   uint64
}

// An Event is one side effect of a submit.
type Event struct {
	Kind    EventKind
	Evicted EvictedBlock
}

// WasWritebackSent scans the events of one submit for a writeback and
// returns it.
func WasWritebackSent(events []Event) (Event, bool) {
	for _, e := range events {
		if e.Kind == WriteBackRequestSent {
			return e, true
		}
	}

	return Event{}, false
}
