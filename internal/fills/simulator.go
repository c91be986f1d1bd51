// Package fills models when resting quotes would execute against the market.
// The model is deliberately conservative: at most one fill per side per tick,
// always for the full quoted size, with no queue priority, partial fills or
// trade-through modeling. That makes it a backtest harness, not an execution
// engine, and the boundary must stay that way.
package fills

import (
	"main/internal/ledger"
	"main/internal/schema"
)

// adverseProximityTicks is the heuristic window for flagging a fill as adverse
// selection: the opposite side of the market sitting within this many ticks of
// the fill price suggests the market traded through our level rather than
// bouncing off it. Diagnostic only, never a decision input.
const adverseProximityTicks = 2

// Result reports what executed during one tick.
type Result struct {
	Bid       schema.Fill
	Ask       schema.Fill
	BidFilled bool
	AskFilled bool
}

// Simulator applies the fill model to a quote intent.
type Simulator struct {
	maxPosition int64
}

// NewSimulator creates a simulator honoring the given position bound.
func NewSimulator(maxPosition int64) *Simulator {
	if maxPosition <= 0 {
		maxPosition = 1
	}
	return &Simulator{maxPosition: maxPosition}
}

// CheckFills evaluates both resting sides against the snapshot the intent was
// quoted into, mutating the ledger for every execution. A resting bid fills
// when the market's own best bid drops to or through our limit, modeling a
// counterparty crossing into us; the ask is mirrored. Both sides are checked
// independently and may fill in the same tick. The position-age counter
// advances here as well, keeping the ledger's mutation ownership in one place.
func (s *Simulator) CheckFills(tob schema.TopOfBook, led *ledger.Ledger, q schema.QuoteIntent) Result {
	var res Result

	if q.BidLive() && led.Position < s.maxPosition && tob.BidPrice <= q.BidLimit {
		fill := schema.Fill{
			Side:    schema.SideBuy,
			Price:   q.BidLimit,
			Qty:     q.BidSize,
			Adverse: withinTicks(tob.AskPrice, q.BidLimit, adverseProximityTicks),
		}
		if led.ApplyFill(fill, s.maxPosition) {
			res.Bid = fill
			res.BidFilled = true
		}
	}

	if q.AskLive() && led.Position > -s.maxPosition && tob.AskPrice >= q.AskLimit {
		fill := schema.Fill{
			Side:    schema.SideSell,
			Price:   q.AskLimit,
			Qty:     q.AskSize,
			Adverse: withinTicks(tob.BidPrice, q.AskLimit, adverseProximityTicks),
		}
		if led.ApplyFill(fill, s.maxPosition) {
			res.Ask = fill
			res.AskFilled = true
		}
	}

	led.AdvanceAge()
	return res
}

func withinTicks(a, b schema.Price, ticks int64) bool {
	d := int64(a) - int64(b)
	if d < 0 {
		d = -d
	}
	return d <= ticks
}
