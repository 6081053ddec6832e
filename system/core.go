package system

import (
	"github.com/sarchlab/memhier/mem"
	"github.com/sarchlab/memhier/mem/cache"
	"github.com/sarchlab/memhier/noc/switching"
	"github.com/sarchlab/memhier/sim"
)

// A Core issues a synthetic stream of memory requests through its
// private cache and consumes the responses coming back over the reply
// subnet.
type Core struct {
	name string
	node int

	cache *cache.Comp
	arena *mem.Arena
	sw    *switching.Comp
	s     *sim.Simulation

	numRequests int
	startAddr   uint64
	stride      uint64
	kind        mem.AccessKind
	writeEvery  int

	issued    int
	completed int
	retry     mem.Handle

	readsSent      int
	writesSent     int
	writebacksSent int
}

// Name returns the name of the core.
func (c *Core) Name() string {
	return c.name
}

// Cache returns the core's private cache.
func (c *Core) Cache() *cache.Comp {
	return c.cache
}

// Done reports whether every request the core was configured to issue
// has completed.
func (c *Core) Done() bool {
	return c.completed == c.numRequests
}

// Completed returns the number of finished requests.
func (c *Core) Completed() int {
	return c.completed
}

// Total returns the number of requests the core is configured to issue.
func (c *Core) Total() int {
	return c.numRequests
}

// Tick advances the core by one cycle. Responses are drained before new
// requests are issued so a freed MSHR slot is reusable within the tick.
func (c *Core) Tick(cycle uint64) bool {
	madeProgress := c.collect(cycle)
	madeProgress = c.issue(cycle) || madeProgress
	c.cache.Cycle(cycle)

	return madeProgress
}

// collect pulls at most one response per cycle, gated by the fill port.
func (c *Core) collect(cycle uint64) bool {
	if !c.cache.FillPortFree() {
		return false
	}

	pkt, ok := c.sw.Pop(c.node)
	if !ok {
		return false
	}

	c.cache.Fill(pkt.Payload.(mem.Handle), cycle)

	return true
}

func (c *Core) issue(cycle uint64) bool {
	if !c.cache.DataPortFree() {
		return false
	}

	h := c.retry
	if h == (mem.Handle{}) {
		if c.issued >= c.numRequests {
			return false
		}

		h = c.arena.Put(c.nextRequest(), mem.OwnerIssuer)
		c.issued++
	}

	c.retry = mem.Handle{}

	result, events := c.cache.Submit(h, cycle)

	switch {
	case result == cache.SubmitHit:
		c.arena.Remove(h)
		c.completed++
	case result.Failed():
		c.retry = h
	}

	c.countEvents(events)

	return !result.Failed()
}

func (c *Core) nextRequest() mem.Request {
	kind := c.kind
	if c.writeEvery > 0 && (c.issued+1)%c.writeEvery == 0 {
		kind = mem.GlobalWrite
	}

	return mem.RequestBuilder{}.
		WithID(c.s.IDGenerator().Generate()).
		WithAddress(c.startAddr + uint64(c.issued)*c.stride).
		WithByteSize(32).
		WithKind(kind).
		Build()
}

func (c *Core) countEvents(events []cache.Event) {
	for _, e := range events {
		switch e.Kind {
		case cache.ReadRequestSent:
			c.readsSent++
		case cache.WriteRequestSent:
			c.writesSent++
		case cache.WriteBackRequestSent:
			c.writebacksSent++
		}
	}
}

// onFill receives a completed request back from the cache.
func (c *Core) onFill(h mem.Handle) {
	c.arena.Remove(h)
	c.completed++
}
