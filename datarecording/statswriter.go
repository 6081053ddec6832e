package datarecording

import "github.com/sarchlab/memhier/stats"

// A CacheCounterEntry is one cache counter value in the output database.
type CacheCounterEntry struct {
	Cache   string
	Kind    string
	Counter string
	Value   uint64
}

// A PortUtilityEntry summarizes the port business of one cache.
type PortUtilityEntry struct {
	Cache        string
	Cycles       uint64
	DataPortBusy uint64
	FillPortBusy uint64
}

// A RunEntry describes one completed simulation run.
type RunEntry struct {
	Name       string
	Cycles     uint64
	Cores      int
	Partitions int
}

// A StatsWriter dumps cache statistics into a DataRecorder.
type StatsWriter struct {
	recorder DataRecorder
}

// NewStatsWriter prepares the result tables on the recorder.
func NewStatsWriter(recorder DataRecorder) *StatsWriter {
	recorder.CreateTable("cache_counters", CacheCounterEntry{})
	recorder.CreateTable("port_utility", PortUtilityEntry{})
	recorder.CreateTable("runs", RunEntry{})

	return &StatsWriter{recorder: recorder}
}

// RecordRun stores the run summary row.
func (w *StatsWriter) RecordRun(entry RunEntry) {
	w.recorder.InsertData("runs", entry)
}

// RecordCacheStats stores every non-zero counter of one cache, plus its
// port-utility samples.
func (w *StatsWriter) RecordCacheStats(cacheName string, s *stats.CacheStats) {
	for _, row := range s.Rows() {
		w.recorder.InsertData("cache_counters", CacheCounterEntry{
			Cache:   cacheName,
			Kind:    row.Kind,
			Counter: row.Counter,
			Value:   row.Value,
		})
	}

	w.recorder.InsertData("port_utility", PortUtilityEntry{
		Cache:        cacheName,
		Cycles:       s.CycleSamples,
		DataPortBusy: s.DataPortBusySamples,
		FillPortBusy: s.FillPortBusySamples,
	})
}

// Flush forces the buffered rows out to the database.
func (w *StatsWriter) Flush() {
	w.recorder.Flush()
}
