// Package sim provides the support infrastructure that the timing models
// build on: bounded FIFO buffers, ID generation, the simulation context,
// and a time-ordered insertion queue.
package sim

// Named is an object that has a name.
type Named interface {
	Name() string
}
