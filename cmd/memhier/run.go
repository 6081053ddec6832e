package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sarchlab/memhier/datarecording"
	"github.com/sarchlab/memhier/mem/cache"
	"github.com/sarchlab/memhier/monitoring"
	"github.com/sarchlab/memhier/sim"
	"github.com/sarchlab/memhier/stats"
	"github.com/sarchlab/memhier/system"
)

var runFlags = struct {
	numCores      int
	numPartitions int
	requests      int
	startAddr     uint64
	stride        uint64
	writeEvery    int
	memLatency    uint64
	maxCycles     uint64
	sectorMode    bool
	seed          int64

	record      bool
	dbPath      string
	monitorPort int
	dashboard   bool
}{}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation and report cache statistics",
	RunE: func(_ *cobra.Command, _ []string) error {
		return runSimulation()
	},
}

func init() {
	f := runCmd.Flags()
	f.IntVar(&runFlags.numCores, "cores", 2, "number of compute cores")
	f.IntVar(&runFlags.numPartitions, "partitions", 2,
		"number of memory partitions")
	f.IntVar(&runFlags.requests, "requests", 1024,
		"requests issued per core")
	f.Uint64Var(&runFlags.startAddr, "start-address", 0,
		"first address each core touches")
	f.Uint64Var(&runFlags.stride, "stride", 128,
		"address step between requests")
	f.IntVar(&runFlags.writeEvery, "write-every", 0,
		"make every n-th request a write (0 = read-only)")
	f.Uint64Var(&runFlags.memLatency, "mem-latency", 100,
		"memory partition latency in cycles")
	f.Uint64Var(&runFlags.maxCycles, "max-cycles", 10000000,
		"abort if the run does not drain within this many cycles")
	f.BoolVar(&runFlags.sectorMode, "sector", false,
		"use sectored cache lines")
	f.Int64Var(&runFlags.seed, "seed", 0, "random seed")
	f.BoolVar(&runFlags.record, "record", false,
		"record statistics into an SQLite database")
	f.StringVar(&runFlags.dbPath, "db", os.Getenv("MEMHIER_DB"),
		"database file name, without extension")
	f.IntVar(&runFlags.monitorPort, "monitor-port", 0,
		"serve the live monitor on this port (0 = off)")
	f.BoolVar(&runFlags.dashboard, "dashboard", false,
		"open the monitor in a browser")

	rootCmd.AddCommand(runCmd)
}

func runSimulation() error {
	s := sim.MakeSimulationBuilder().
		WithName("memhier").
		WithSeed(runFlags.seed).
		Build()
	defer s.Terminate()

	cfg := cache.Config{
		NumSets:       64,
		Associativity: 4,
		LineSize:      128,
		Replacement:   cache.LRU,
		Write:         cache.WriteBack,
		Alloc:         cache.AllocOnMiss,
		MSHREntries:   32,
		MSHRMaxMerge:  8,
		MissQueueSize: 8,
		DataPortWidth: 32,
		SectorMode:    runFlags.sectorMode,
	}

	sys := system.MakeBuilder().
		WithSimulation(s).
		WithNumCores(runFlags.numCores).
		WithNumPartitions(runFlags.numPartitions).
		WithCacheConfig(cfg).
		WithMemLatency(runFlags.memLatency).
		WithRequestsPerCore(runFlags.requests).
		WithStartAddress(runFlags.startAddr).
		WithStride(runFlags.stride).
		WithWriteEvery(runFlags.writeEvery).
		Build("memhier")

	if runFlags.monitorPort != 0 || runFlags.dashboard {
		monitor := monitoring.NewMonitor()
		if runFlags.monitorPort != 0 {
			monitor = monitor.WithPortNumber(runFlags.monitorPort)
		}
		monitor.RegisterSystem(sys)

		if _, err := monitor.StartServer(); err != nil {
			return err
		}

		if runFlags.dashboard {
			if err := monitor.OpenDashboard(); err != nil {
				fmt.Fprintf(os.Stderr,
					"Cannot open the dashboard: %s\n", err)
			}
		}
	}

	if err := sys.Run(runFlags.maxCycles); err != nil {
		return err
	}

	printSummary(sys)

	if runFlags.record {
		recordStats(sys)
	}

	return nil
}

func printSummary(sys *system.System) {
	title := color.New(color.FgCyan, color.Bold)
	title.Printf("\n%s finished in %d cycles\n\n",
		sys.Name(), sys.Simulation().CurrentCycle())

	for _, core := range sys.Cores() {
		s := core.Cache().Stats()

		color.New(color.Bold).Printf("%s\n", core.Cache().Name())
		fmt.Printf("  completed requests: %d\n", core.Completed())
		fmt.Printf("  hits:   %d\n", s.Total(stats.Hit))
		fmt.Printf("  misses: %d (sector misses: %d, merged: %d)\n",
			s.Total(stats.Miss),
			s.Total(stats.SectorMiss),
			s.Total(stats.MSHRHit))
		fmt.Printf("  stalls: mshr %d, merge %d, queue %d, alloc %d\n",
			s.Total(stats.MSHREntryFail),
			s.Total(stats.MSHRMergeEntryFail),
			s.Total(stats.MissQueueFull),
			s.Total(stats.LineAllocFail))

		if s.CycleSamples > 0 {
			fmt.Printf("  port busy: data %.1f%%, fill %.1f%%\n",
				100*float64(s.DataPortBusySamples)/float64(s.CycleSamples),
				100*float64(s.FillPortBusySamples)/float64(s.CycleSamples))
		}
	}
}

func recordStats(sys *system.System) {
	recorder := datarecording.New(runFlags.dbPath)
	writer := datarecording.NewStatsWriter(recorder)

	writer.RecordRun(datarecording.RunEntry{
		Name:       sys.Name(),
		Cycles:     sys.Simulation().CurrentCycle(),
		Cores:      len(sys.Cores()),
		Partitions: runFlags.numPartitions,
	})

	for _, core := range sys.Cores() {
		writer.RecordCacheStats(core.Cache().Name(), core.Cache().Stats())
	}

	writer.Flush()
}
