package mem

import "log"

// A SectorGroup tracks the sector-split children of one parent request.
// Children do not point back at the parent; the group records how many
// responses are expected and collects the child payloads it has received.
type SectorGroup struct {
	Parent   Handle
	Expected int

	received int
	children []Request
}

// NewSectorGroup returns a group expecting the given number of child
// responses for the parent request.
func NewSectorGroup(parent Handle, expected int) *SectorGroup {
	if expected <= 0 {
		log.Panicf("sector group must expect at least one response")
	}

	return &SectorGroup{
		Parent:   parent,
		Expected: expected,
	}
}

// Receive records one child response. It returns true when the group is
// complete and the parent can be finalized.
func (g *SectorGroup) Receive(child Request) bool {
	if g.received >= g.Expected {
		log.Panicf("sector group received more responses than expected")
	}

	g.received++
	g.children = append(g.children, child)

	return g.received == g.Expected
}

// Received returns the number of child responses received so far.
func (g *SectorGroup) Received() int {
	return g.received
}

// Children returns the child payloads received so far.
func (g *SectorGroup) Children() []Request {
	return g.children
}
