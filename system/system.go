package system

import (
	"fmt"
	"log"

	"github.com/sarchlab/memhier/mem"
	"github.com/sarchlab/memhier/mem/cache"
	"github.com/sarchlab/memhier/noc/switching"
	"github.com/sarchlab/memhier/sim"
)

// A System is the top-level model: per-core private caches, one switch,
// and a row of fixed-latency memory partitions. A single driver advances
// every component once per tick, in a fixed order.
type System struct {
	name string
	s    *sim.Simulation

	arena      *mem.Arena
	sw         *switching.Comp
	cores      []*Core
	partitions []*Partition
}

// Name returns the name of the system.
func (s *System) Name() string {
	return s.name
}

// Cores returns the compute cores, in node order.
func (s *System) Cores() []*Core {
	return s.cores
}

// Simulation returns the simulation context the system runs in.
func (s *System) Simulation() *sim.Simulation {
	return s.s
}

// Done reports whether every core has completed its request stream.
func (s *System) Done() bool {
	for _, c := range s.cores {
		if !c.Done() {
			return false
		}
	}

	return true
}

// Tick advances every component by one cycle: cores (drain responses,
// issue, cache cycle), then the switch, then the partitions.
func (s *System) Tick() bool {
	cycle := s.s.CurrentCycle()

	madeProgress := false
	for _, c := range s.cores {
		madeProgress = c.Tick(cycle) || madeProgress
	}

	s.sw.Advance()

	for _, p := range s.partitions {
		madeProgress = p.Tick(cycle) || madeProgress
	}

	s.s.AdvanceCycle()

	return madeProgress
}

// Run ticks the system until every core drains, or fails after maxCycles.
func (s *System) Run(maxCycles uint64) error {
	for !s.Done() {
		if s.s.CurrentCycle() >= maxCycles {
			return fmt.Errorf(
				"system %s did not drain within %d cycles",
				s.name, maxCycles)
		}

		s.Tick()
	}

	return nil
}

// A Builder can build systems.
type Builder struct {
	s *sim.Simulation

	numCores      int
	numPartitions int
	cacheConfig   cache.Config
	memLatency    uint64
	switchDepth   int
	numChannels   int

	requestsPerCore int
	startAddr       uint64
	stride          uint64
	kind            mem.AccessKind
	writeEvery      int
}

// MakeBuilder returns a builder with a small two-core default.
func MakeBuilder() Builder {
	return Builder{
		numCores:      2,
		numPartitions: 2,
		cacheConfig: cache.Config{
			NumSets:       16,
			Associativity: 4,
			LineSize:      128,
			Replacement:   cache.LRU,
			Write:         cache.WriteBack,
			Alloc:         cache.AllocOnMiss,
			MSHREntries:   8,
			MSHRMaxMerge:  4,
			MissQueueSize: 4,
			DataPortWidth: 32,
		},
		memLatency:      20,
		switchDepth:     8,
		numChannels:     1,
		requestsPerCore: 64,
		stride:          128,
		kind:            mem.GlobalRead,
	}
}

// WithSimulation sets the simulation context the system runs in.
func (b Builder) WithSimulation(s *sim.Simulation) Builder {
	b.s = s
	return b
}

// WithNumCores sets the number of compute cores.
func (b Builder) WithNumCores(n int) Builder {
	b.numCores = n
	return b
}

// WithNumPartitions sets the number of memory partitions.
func (b Builder) WithNumPartitions(n int) Builder {
	b.numPartitions = n
	return b
}

// WithCacheConfig sets the configuration of every per-core cache.
func (b Builder) WithCacheConfig(cfg cache.Config) Builder {
	b.cacheConfig = cfg
	return b
}

// WithMemLatency sets the fixed partition access latency in cycles.
func (b Builder) WithMemLatency(latency uint64) Builder {
	b.memLatency = latency
	return b
}

// WithSwitchDepth sets the admission depth of the switch queues.
func (b Builder) WithSwitchDepth(depth int) Builder {
	b.switchDepth = depth
	return b
}

// WithNumChannels sets the number of virtual channels in the switch.
func (b Builder) WithNumChannels(n int) Builder {
	b.numChannels = n
	return b
}

// WithRequestsPerCore sets how many requests each core issues.
func (b Builder) WithRequestsPerCore(n int) Builder {
	b.requestsPerCore = n
	return b
}

// WithStartAddress sets the first address each core touches.
func (b Builder) WithStartAddress(addr uint64) Builder {
	b.startAddr = addr
	return b
}

// WithStride sets the address step between consecutive requests.
func (b Builder) WithStride(stride uint64) Builder {
	b.stride = stride
	return b
}

// WithAccessKind sets the access kind of the generated traffic.
func (b Builder) WithAccessKind(kind mem.AccessKind) Builder {
	b.kind = kind
	return b
}

// WithWriteEvery makes every n-th request a write. Zero keeps the stream
// read-only.
func (b Builder) WithWriteEvery(n int) Builder {
	b.writeEvery = n
	return b
}

// Build wires the system together.
func (b Builder) Build(name string) *System {
	if b.numCores <= 0 || b.numPartitions <= 0 {
		log.Panic("system: a system needs cores and partitions")
	}

	if b.s == nil {
		b.s = sim.MakeSimulationBuilder().WithName(name).Build()
	}

	arena := mem.NewArena()

	sw := switching.MakeBuilder().
		WithNumCores(b.numCores).
		WithNumMemories(b.numPartitions).
		WithNumChannels(b.numChannels).
		WithCapacity(b.switchDepth).
		Build(fmt.Sprintf("%s.Switch", name))

	sys := &System{
		name:  name,
		s:     b.s,
		arena: arena,
		sw:    sw,
	}

	for i := 0; i < b.numCores; i++ {
		core := &Core{
			name:        fmt.Sprintf("%s.Core%d", name, i),
			node:        i,
			arena:       arena,
			sw:          sw,
			s:           b.s,
			numRequests: b.requestsPerCore,
			startAddr:   b.startAddr,
			stride:      b.stride,
			kind:        b.kind,
			writeEvery:  b.writeEvery,
		}

		port := &switchPort{
			sw:            sw,
			arena:         arena,
			coreNode:      i,
			numCores:      b.numCores,
			numPartitions: b.numPartitions,
			lineSize:      b.cacheConfig.LineSize,
		}

		core.cache = cache.MakeBuilder().
			WithConfig(b.cacheConfig).
			WithArena(arena).
			WithBottomPort(port).
			WithFillCallback(core.onFill).
			Build(fmt.Sprintf("%s.L1", core.name))

		sys.cores = append(sys.cores, core)
	}

	for i := 0; i < b.numPartitions; i++ {
		sys.partitions = append(sys.partitions, &Partition{
			name:     fmt.Sprintf("%s.Mem%d", name, i),
			node:     b.numCores + i,
			latency:  b.memLatency,
			sw:       sw,
			arena:    arena,
			calendar: sim.NewInsertionQueue(),
		})
	}

	return sys
}
