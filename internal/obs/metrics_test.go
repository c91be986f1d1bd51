package obs

import (
	"testing"
	"time"
)

func TestCountersAccumulate(t *testing.T) {
	m := NewMetrics()

	m.ObserveTick(true)
	m.ObserveTick(false)
	m.ObserveTick(true)
	m.ObserveFill(true, false)
	m.ObserveFill(false, true)
	m.IncJournalDrop()

	snap := m.Snapshot()
	if snap.Ticks != 3 || snap.ActiveQuotes != 2 {
		t.Fatalf("tick counters mismatch: %+v", snap)
	}
	if snap.BidFills != 1 || snap.AskFills != 1 || snap.AdverseFills != 1 {
		t.Fatalf("fill counters mismatch: %+v", snap)
	}
	if snap.JournalDrops != 1 {
		t.Fatalf("journal drop counter mismatch: %+v", snap)
	}
}

func TestLatencyStats(t *testing.T) {
	var stats LatencyStats

	stats.Observe(100 * time.Nanosecond)
	stats.Observe(300 * time.Nanosecond)
	stats.Observe(200 * time.Nanosecond)

	snap := stats.Snapshot()
	if snap.Count != 3 {
		t.Fatalf("count mismatch: %+v", snap)
	}
	if snap.Min != 100 || snap.Max != 300 || snap.Avg != 200 {
		t.Fatalf("aggregate mismatch: %+v", snap)
	}
}

func TestEmptyLatencySnapshot(t *testing.T) {
	var stats LatencyStats
	if snap := stats.Snapshot(); snap != (LatencySnapshot{}) {
		t.Fatalf("empty stats should snapshot to zero: %+v", snap)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveTick(true)
	m.ObserveFill(true, true)
	m.IncJournalDrop()
	m.ObserveDecide(time.Millisecond)
	if snap := m.Snapshot(); snap != (Snapshot{}) {
		t.Fatalf("nil metrics should snapshot to zero: %+v", snap)
	}
}
