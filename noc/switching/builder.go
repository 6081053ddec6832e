package switching

import "log"

// A Builder can build switches.
type Builder struct {
	numCores    int
	numMemories int
	numChannels int
	capacity    int
}

// MakeBuilder returns a builder with a single-channel default.
func MakeBuilder() Builder {
	return Builder{
		numChannels: 1,
		capacity:    8,
	}
}

// WithNumCores sets the number of compute cores attached to the switch.
// Cores occupy node indices [0, numCores).
func (b Builder) WithNumCores(n int) Builder {
	b.numCores = n
	return b
}

// WithNumMemories sets the number of memory partitions attached to the
// switch. They occupy node indices [numCores, numCores+numMemories).
func (b Builder) WithNumMemories(n int) Builder {
	b.numMemories = n
	return b
}

// WithNumChannels sets the number of virtual channels per node.
func (b Builder) WithNumChannels(n int) Builder {
	b.numChannels = n
	return b
}

// WithCapacity sets the admission depth of each channel-0 queue.
func (b Builder) WithCapacity(n int) Builder {
	b.capacity = n
	return b
}

// Build creates the switch and sizes its queue arrays.
func (b Builder) Build(name string) *Comp {
	if b.numCores <= 0 || b.numMemories <= 0 {
		log.Panic("switching: a switch needs cores and memory nodes")
	}

	if b.numChannels <= 0 {
		log.Panic("switching: a switch needs at least one virtual channel")
	}

	if b.capacity <= 0 {
		log.Panic("switching: queue capacity must be positive")
	}

	numNodes := b.numCores + b.numMemories

	queues := make([][][]channelQueue, 2)
	turns := make([][]int, 2)
	for subnet := 0; subnet < 2; subnet++ {
		queues[subnet] = make([][]channelQueue, numNodes)
		turns[subnet] = make([]int, numNodes)

		for node := 0; node < numNodes; node++ {
			queues[subnet][node] = make([]channelQueue, b.numChannels)
		}
	}

	return &Comp{
		name:        name,
		numCores:    b.numCores,
		numNodes:    numNodes,
		numChannels: b.numChannels,
		capacity:    b.capacity,
		queues:      queues,
		turns:       turns,
	}
}
