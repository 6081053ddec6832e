package sim

import (
	"io"
	"log"
	"math/rand"
	"os"
)

// A Simulation carries the state that is shared by all the components of
// one simulation run: the current cycle, the logger, the ID generator, and
// the random number source. It replaces ambient package-level state so
// that two simulations can run in one process without interfering.
type Simulation struct {
	name    string
	cycle   uint64
	logger  *log.Logger
	idGen   IDGenerator
	rand    *rand.Rand
	cleanup []func()
}

// A SimulationBuilder can build a Simulation.
type SimulationBuilder struct {
	name          string
	logOutput     io.Writer
	seed          int64
	sequentialIDs bool
}

// MakeSimulationBuilder creates a SimulationBuilder with default
// parameters.
func MakeSimulationBuilder() SimulationBuilder {
	return SimulationBuilder{
		name:      "memhier",
		logOutput: os.Stderr,
		seed:      1,
	}
}

// WithName sets the name of the simulation.
func (b SimulationBuilder) WithName(name string) SimulationBuilder {
	b.name = name
	return b
}

// WithLogOutput sets where the simulation log is written.
func (b SimulationBuilder) WithLogOutput(w io.Writer) SimulationBuilder {
	b.logOutput = w
	return b
}

// WithSeed sets the seed of the random number source.
func (b SimulationBuilder) WithSeed(seed int64) SimulationBuilder {
	b.seed = seed
	return b
}

// WithSequentialIDs makes the simulation generate deterministic,
// sequential request IDs.
func (b SimulationBuilder) WithSequentialIDs() SimulationBuilder {
	b.sequentialIDs = true
	return b
}

// Build returns a new Simulation.
func (b SimulationBuilder) Build() *Simulation {
	s := &Simulation{
		name:   b.name,
		logger: log.New(b.logOutput, b.name+": ", log.Lmsgprefix),
	}

	if b.sequentialIDs {
		s.idGen = NewSequentialIDGenerator()
	} else {
		s.idGen = NewXIDGenerator()
	}

	s.rand = rand.New(rand.NewSource(b.seed))

	return s
}

// Name returns the name of the simulation.
func (s *Simulation) Name() string {
	return s.name
}

// CurrentCycle returns the current simulated cycle.
func (s *Simulation) CurrentCycle() uint64 {
	return s.cycle
}

// AdvanceCycle moves the simulation to the next cycle.
func (s *Simulation) AdvanceCycle() {
	s.cycle++
}

// Logger returns the logger of the simulation.
func (s *Simulation) Logger() *log.Logger {
	return s.logger
}

// IDGenerator returns the ID generator of the simulation.
func (s *Simulation) IDGenerator() IDGenerator {
	return s.idGen
}

// Rand returns the random number source of the simulation.
func (s *Simulation) Rand() *rand.Rand {
	return s.rand
}

// RegisterCleanup registers a function to run when the simulation
// terminates.
func (s *Simulation) RegisterCleanup(f func()) {
	s.cleanup = append(s.cleanup, f)
}

// Terminate runs the registered cleanup functions in reverse order.
func (s *Simulation) Terminate() {
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		s.cleanup[i]()
	}

	s.cleanup = nil
}
