// Package switching provides the two-subnet packet switch that carries
// memory traffic between compute cores and memory partitions.
package switching

import "log"

// Subnet indices. Requests travel from cores to memory partitions on the
// request subnet; responses travel back on the reply subnet.
const (
	SubnetRequest = 0
	SubnetReply   = 1
)

// A Packet is one unit of traffic traveling through the switch. The
// payload is opaque to the switch.
type Packet struct {
	Src     int
	Dst     int
	Size    uint64
	Payload any
}

type channelQueue struct {
	packets []Packet
}

func (q *channelQueue) depth() int {
	return len(q.packets)
}

func (q *channelQueue) push(p Packet) {
	q.packets = append(q.packets, p)
}

func (q *channelQueue) pop() Packet {
	p := q.packets[0]
	q.packets = q.packets[1:]

	return p
}

// A Comp is a flow-controlled switch. It has one FIFO per (subnet, node,
// virtual channel) and one rotating service pointer per (subnet, node).
// It models no internal transit latency; all delay comes from admission
// control and the consumer's pull rate.
type Comp struct {
	name string

	numCores    int
	numNodes    int
	numChannels int
	capacity    int

	// queues[subnet][node][channel]
	queues [][][]channelQueue

	// turns[subnet][node]
	turns [][]int
}

// Name returns the name of the switch.
func (c *Comp) Name() string {
	return c.name
}

// NumNodes returns the number of attached nodes, cores first.
func (c *Comp) NumNodes() int {
	return c.numNodes
}

// subnetOf classifies a node acting as a traffic source. Memory nodes
// originate replies, cores originate requests.
func (c *Comp) subnetOf(node int) int {
	if node >= c.numCores {
		return SubnetReply
	}

	return SubnetRequest
}

func (c *Comp) mustBeValidNode(node int) {
	if node < 0 || node >= c.numNodes {
		log.Panicf("%s: node %d is out of range", c.name, node)
	}
}

// HasBuffer reports whether the node's channel-0 queue is within the
// configured depth. The size argument does not participate in the test;
// admission is controlled purely by queue depth.
func (c *Comp) HasBuffer(node int, size uint64) bool {
	c.mustBeValidNode(node)

	_ = size

	subnet := c.subnetOf(node)

	return c.queues[subnet][node][0].depth() <= c.capacity
}

// Push routes a packet from src to dst. The subnet is chosen by
// classifying src, and the packet always lands on dst's channel-0 queue.
// Callers must check HasBuffer on src first.
func (c *Comp) Push(src, dst int, payload any, size uint64) {
	c.mustBeValidNode(src)
	c.mustBeValidNode(dst)

	if !c.HasBuffer(src, size) {
		log.Panicf("%s: push from node %d without buffer space", c.name, src)
	}

	subnet := c.subnetOf(src)

	c.queues[subnet][dst][0].push(Packet{
		Src:     src,
		Dst:     dst,
		Size:    size,
		Payload: payload,
	})
}

// Pop returns the next packet addressed to the node, or false when every
// channel is empty. Cores pull from the reply subnet and memory nodes
// pull from the request subnet. Service across virtual channels is
// round-robin: the scan starts at the node's rotating pointer and the
// pointer advances past the serviced channel.
func (c *Comp) Pop(node int) (Packet, bool) {
	c.mustBeValidNode(node)

	subnet := SubnetRequest
	if node < c.numCores {
		subnet = SubnetReply
	}

	turn := c.turns[subnet][node]

	for i := 0; i < c.numChannels; i++ {
		q := &c.queues[subnet][node][turn]

		turn++
		if turn == c.numChannels {
			turn = 0
		}

		if q.depth() == 0 {
			continue
		}

		c.turns[subnet][node] = turn

		return q.pop(), true
	}

	return Packet{}, false
}

// Advance is a no-op. The switch has no internal transit stage.
func (c *Comp) Advance() {}

// Busy always reports idle. Packets never linger in a transit stage.
func (c *Comp) Busy() bool {
	return false
}
