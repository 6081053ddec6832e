package sim

import (
	"strconv"

	"github.com/rs/xid"
)

// IDGenerator can generate IDs.
type IDGenerator interface {
	// Generate an ID
	Generate() string
}

// NewXIDGenerator returns an IDGenerator that generates globally unique
// IDs. The IDs are not deterministic across runs.
func NewXIDGenerator() IDGenerator {
	return &xidGenerator{}
}

// NewSequentialIDGenerator returns an IDGenerator that generates IDs in
// sequential. Simulations that need deterministic IDs should use this
// generator.
func NewSequentialIDGenerator() IDGenerator {
	return &sequentialIDGenerator{}
}

type xidGenerator struct{}

func (g *xidGenerator) Generate() string {
	return xid.New().String()
}

type sequentialIDGenerator struct {
	nextID uint64
}

func (g *sequentialIDGenerator) Generate() string {
	id := strconv.FormatUint(g.nextID, 10)
	g.nextID++

	return id
}
