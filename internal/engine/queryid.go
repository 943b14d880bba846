package engine

import (
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces query IDs for log correlation.
// Implemented by UUIDv7Generator (production), FixedGenerator (tests) and
// StaticGenerator (harness scenarios).
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 query IDs.
//
// UUIDv7 embeds a timestamp in the most significant bits, so IDs sort by
// creation time in logs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined query IDs for testing.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
//
// Example:
//
//	gen := NewFixedGenerator("q-1", "q-2")
//	gen.Generate() // "q-1"
//	gen.Generate() // "q-2"
//	gen.Generate() // panic: all ids exhausted
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined ID.
//
// Panics if all IDs have been consumed, which means the test executed
// more queries than it declared.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

// StaticGenerator hands out the same query ID on every call. Scenario
// traces carry the query ID, so a constant keeps golden output stable.
//
// Thread-safety: StaticGenerator is immutable and safe for concurrent use.
type StaticGenerator struct {
	id string
}

// DefaultStaticID is returned by a StaticGenerator built with an empty id.
const DefaultStaticID = "test-query-default"

// NewStaticGenerator creates a generator returning id, or DefaultStaticID
// when id is empty.
func NewStaticGenerator(id string) *StaticGenerator {
	if id == "" {
		id = DefaultStaticID
	}
	return &StaticGenerator{id: id}
}

// Generate returns the configured query ID.
func (g *StaticGenerator) Generate() string {
	return g.id
}
