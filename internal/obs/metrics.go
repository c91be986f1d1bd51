package obs

import (
	"sync/atomic"
	"time"
)

// Metrics collects lightweight counters and latency stats for one simulation.
type Metrics struct {
	ticks        uint64
	activeQuotes uint64
	bidFills     uint64
	askFills     uint64
	adverseFills uint64
	journalDrops uint64

	decideLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	Ticks         uint64
	ActiveQuotes  uint64
	BidFills      uint64
	AskFills      uint64
	AdverseFills  uint64
	JournalDrops  uint64
	DecideLatency LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// ObserveTick counts one pipeline iteration and whether it produced an active quote.
func (m *Metrics) ObserveTick(activeQuote bool) {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.ticks, 1)
	if activeQuote {
		atomic.AddUint64(&m.activeQuotes, 1)
	}
}

// ObserveFill counts one executed fill.
func (m *Metrics) ObserveFill(buySide, adverse bool) {
	if m == nil {
		return
	}
	if buySide {
		atomic.AddUint64(&m.bidFills, 1)
	} else {
		atomic.AddUint64(&m.askFills, 1)
	}
	if adverse {
		atomic.AddUint64(&m.adverseFills, 1)
	}
}

// IncJournalDrop records a journal append that could not be enqueued.
func (m *Metrics) IncJournalDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.journalDrops, 1)
}

// ObserveDecide measures one kernel decision latency.
func (m *Metrics) ObserveDecide(d time.Duration) {
	if m == nil {
		return
	}
	m.decideLatency.Observe(d)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		Ticks:         atomic.LoadUint64(&m.ticks),
		ActiveQuotes:  atomic.LoadUint64(&m.activeQuotes),
		BidFills:      atomic.LoadUint64(&m.bidFills),
		AskFills:      atomic.LoadUint64(&m.askFills),
		AdverseFills:  atomic.LoadUint64(&m.adverseFills),
		JournalDrops:  atomic.LoadUint64(&m.journalDrops),
		DecideLatency: m.decideLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
