package obs

import (
	"sync/atomic"
	"time"
)

// TraceGenerator creates monotonically increasing trace IDs used to correlate
// the snapshot, quote and fill events of one tick in the journal.
type TraceGenerator struct {
	next uint64
}

// NewTraceGenerator returns a generator seeded with the given value, or with
// the current wall clock when the seed is zero.
func NewTraceGenerator(seed uint64) *TraceGenerator {
	if seed == 0 {
		seed = uint64(time.Now().UTC().UnixNano())
	}
	return &TraceGenerator{next: seed}
}

// Next returns the next trace ID.
func (g *TraceGenerator) Next() uint64 {
	if g == nil {
		return 0
	}
	return atomic.AddUint64(&g.next, 1)
}
