package mem

import "log"

// An Owner identifies which part of the hierarchy currently owns an
// in-flight request. Exactly one owner holds a request at any instant.
type Owner int

// Owners of in-flight requests.
const (
	OwnerNone Owner = iota
	OwnerIssuer
	OwnerMissQueue
	OwnerMSHR
	OwnerInterconnect
)

var ownerNames = map[Owner]string{
	OwnerNone:         "None",
	OwnerIssuer:       "Issuer",
	OwnerMissQueue:    "MissQueue",
	OwnerMSHR:         "MSHR",
	OwnerInterconnect: "Interconnect",
}

func (o Owner) String() string {
	return ownerNames[o]
}

// A Handle refers to a request stored in an Arena. A handle taken before
// the request completed never aliases a later request that reuses the same
// slot; the generation tag tells them apart. The zero Handle refers to
// nothing.
type Handle struct {
	index      uint32
	generation uint32
}

type arenaSlot struct {
	generation uint32
	occupied   bool
	owner      Owner
	req        Request
}

// An Arena owns the storage of in-flight requests. Components refer to the
// requests through handles and record ownership transfers explicitly.
type Arena struct {
	slots []arenaSlot
	free  []uint32
	count int
}

// NewArena returns a new, empty Arena.
func NewArena() *Arena {
	return &Arena{}
}

// Put stores a request in the arena and returns its handle. The given
// owner holds the request until it is transferred or removed.
func (a *Arena) Put(req Request, owner Owner) Handle {
	var index uint32

	if len(a.free) > 0 {
		index = a.free[len(a.free)-1]
		a.free = a.free[:len(a.free)-1]
	} else {
		index = uint32(len(a.slots))
		a.slots = append(a.slots, arenaSlot{})
	}

	slot := &a.slots[index]
	slot.generation++
	slot.occupied = true
	slot.owner = owner
	slot.req = req
	a.count++

	return Handle{index: index, generation: slot.generation}
}

// Get resolves a handle to the request it refers to. A stale handle
// resolves to absent. The returned pointer is only valid until the next
// Put or Remove and must only be used by the current owner.
func (a *Arena) Get(h Handle) (*Request, bool) {
	slot := a.slot(h)
	if slot == nil {
		return nil, false
	}

	return &slot.req, true
}

// Owner returns the current owner of the request the handle refers to.
func (a *Arena) Owner(h Handle) (Owner, bool) {
	slot := a.slot(h)
	if slot == nil {
		return OwnerNone, false
	}

	return slot.owner, true
}

// Transfer moves the ownership of a request. Transferring from the wrong
// owner is a programming error.
func (a *Arena) Transfer(h Handle, from, to Owner) {
	slot := a.slot(h)
	if slot == nil {
		log.Panicf("transferring a request that is not in the arena")
	}

	if slot.owner != from {
		log.Panicf("request owned by %s, not %s", slot.owner, from)
	}

	slot.owner = to
}

// Remove takes the request out of the arena, invalidating all its handles.
func (a *Arena) Remove(h Handle) (Request, bool) {
	slot := a.slot(h)
	if slot == nil {
		return Request{}, false
	}

	req := slot.req
	slot.occupied = false
	slot.owner = OwnerNone
	slot.req = Request{}
	a.free = append(a.free, h.index)
	a.count--

	return req, true
}

// Len returns the number of requests in the arena.
func (a *Arena) Len() int {
	return a.count
}

func (a *Arena) slot(h Handle) *arenaSlot {
	if int(h.index) >= len(a.slots) {
		return nil
	}

	slot := &a.slots[h.index]
	if !slot.occupied || slot.generation != h.generation {
		return nil
	}

	return slot
}
