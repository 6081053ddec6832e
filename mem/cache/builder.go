package cache

import (
	"github.com/sarchlab/memhier/mem"
	"github.com/sarchlab/memhier/mem/cache/internal/mshr"
	"github.com/sarchlab/memhier/mem/cache/internal/tagging"
	"github.com/sarchlab/memhier/sim"
	"github.com/sarchlab/memhier/stats"
)

// A Builder can build cache controllers.
type Builder struct {
	cfg        Config
	arena      *mem.Arena
	bottomPort BottomPort
	onFill     func(h mem.Handle)
}

// MakeBuilder returns a builder with a small direct-mapped default
// configuration.
func MakeBuilder() Builder {
	return Builder{
		cfg: Config{
			NumSets:       64,
			Associativity: 4,
			LineSize:      128,
			MSHREntries:   32,
			MSHRMaxMerge:  8,
			MissQueueSize: 8,
			DataPortWidth: 32,
			Replacement:   LRU,
			Write:         WriteBack,
			Alloc:         AllocOnMiss,
		},
	}
}

// WithConfig replaces the whole configuration.
func (b Builder) WithConfig(cfg Config) Builder {
	b.cfg = cfg
	return b
}

// WithArena sets the arena that owns the in-flight requests.
func (b Builder) WithArena(arena *mem.Arena) Builder {
	b.arena = arena
	return b
}

// WithBottomPort sets the port toward the lower memory level.
func (b Builder) WithBottomPort(port BottomPort) Builder {
	b.bottomPort = port
	return b
}

// WithFillCallback sets the function invoked when a filled request is
// released back to the issuer.
func (b Builder) WithFillCallback(f func(h mem.Handle)) Builder {
	b.onFill = f
	return b
}

// Build returns a new cache controller.
func (b Builder) Build(name string) *Comp {
	b.cfg.MustValidate()

	if b.arena == nil {
		panic("cache: an arena is required")
	}

	if b.bottomPort == nil {
		panic("cache: a bottom port is required")
	}

	var finder tagging.VictimFinder
	switch b.cfg.Replacement {
	case FIFO:
		finder = tagging.NewFIFOVictimFinder()
	default:
		finder = tagging.NewLRUVictimFinder()
	}

	tags := tagging.NewTagArray(tagging.Config{
		NumSets:       b.cfg.NumSets,
		Associativity: b.cfg.Associativity,
		LineSize:      int(b.cfg.LineSize),
		NumSectors:    b.cfg.NumSectors(),
		AllocOnMiss:   b.cfg.Alloc == AllocOnMiss,
		VictimFinder:  finder,
	})

	return &Comp{
		name:       name,
		cfg:        b.cfg,
		arena:      b.arena,
		tags:       tags,
		mshrs:      mshr.NewTable(b.cfg.MSHREntries, b.cfg.MSHRMaxMerge),
		bandwidth:  NewBandwidthManager(b.cfg),
		missQueue:  sim.NewBuffer(name+".MissQueue", b.cfg.MissQueueSize),
		bottomPort: b.bottomPort,
		pending:    make(map[mem.Handle]pendingRequest),
		groups:     make(map[mem.Handle]*mem.SectorGroup),
		inFlight:   make(map[mem.Handle]bool),
		stats:      stats.NewCacheStats(),
		onFill:     b.onFill,
	}
}
