// Package recordid hands out unique, monotonically increasing identifiers
// for persisted error records.
//
// The first identifier a Generator issues is seeded from the wall clock:
// the unix time in seconds occupies the upper 32 bits, so identifiers stay
// ahead of those issued by an earlier run of the process as long as that
// run issued fewer than 2^32 of them per second of uptime. Every later
// identifier is the previous one plus one.
package recordid

import (
	"sync/atomic"
	"time"
)

// Generator issues record identifiers. The zero value is not usable; call
// New. A Generator is safe for concurrent use.
type Generator struct {
	now  func() time.Time
	last atomic.Uint64
}

// New returns a generator seeded lazily from now. A nil now uses
// time.Now.
func New(now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{now: now}
}

// Seed returns the base an empty generator starts from for the given time.
// A time at or before the epoch still yields a nonzero seed.
func Seed(t time.Time) uint64 {
	secs := t.Unix()
	if secs <= 0 {
		secs = 1
	}
	return uint64(secs) << 32
}

// Next returns the next identifier. Identifiers are never zero and never
// repeat for the life of the generator.
func (g *Generator) Next() uint64 {
	g.seed()
	return g.last.Add(1)
}

// seed installs the clock seed on first use. Losing the race is fine; the
// winner's seed is used by everyone.
func (g *Generator) seed() {
	if g.last.Load() == 0 {
		g.last.CompareAndSwap(0, Seed(g.now()))
	}
}

// Observe advances the generator past id so identifiers recovered from an
// existing log are never reissued. An id below the clock seed changes
// nothing.
func (g *Generator) Observe(id uint64) {
	g.seed()
	for {
		cur := g.last.Load()
		if cur >= id {
			return
		}
		if g.last.CompareAndSwap(cur, id) {
			return
		}
	}
}

var defaultGenerator = New(nil)

// Next returns an identifier from the process-wide generator.
func Next() uint64 { return defaultGenerator.Next() }
