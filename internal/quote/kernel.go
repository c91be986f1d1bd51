// Package quote implements the market-making decision kernel. Decide is a pure
// function of the snapshot, signal state and risk view; it performs no dynamic
// allocation and writes its result into a caller-owned intent. This is a hard
// latency contract: the kernel runs once per incoming market event.
package quote

import (
	"main/internal/schema"
	"main/internal/signal"
)

// Config defines the fixed quoting parameters. All values are integer ticks
// or pure integers; the decision path never touches floating point.
type Config struct {
	TickSize              int64 `json:"tickSize"`
	MaxPosition           int64 `json:"maxPosition"`
	QuoteSize             int64 `json:"quoteSize"`
	RiskFactor            int64 `json:"riskFactor"`
	BaseHalfSpread        int64 `json:"baseHalfSpread"`
	MinSpread             int64 `json:"minSpread"`
	MaxSpread             int64 `json:"maxSpread"`
	InventoryWidthDivisor int64 `json:"inventoryWidthDivisor"`
	RequiredEdge          int64 `json:"requiredEdge"`
}

// DefaultConfig returns conservative quoting parameters.
func DefaultConfig() Config {
	return Config{
		TickSize:              1,
		MaxPosition:           100,
		QuoteSize:             1,
		RiskFactor:            5,
		BaseHalfSpread:        1,
		MinSpread:             1,
		MaxSpread:             5,
		InventoryWidthDivisor: 20,
		RequiredEdge:          0,
	}
}

// RiskView is the read-only slice of ledger state the kernel consumes.
type RiskView struct {
	Position int64
	AgeTicks int64
}

// Kernel turns snapshots into quote intents.
type Kernel struct {
	cfg Config
}

// NewKernel creates a kernel with validated parameters.
func NewKernel(cfg Config) *Kernel {
	if cfg.MaxPosition <= 0 {
		cfg.MaxPosition = 1
	}
	if cfg.QuoteSize <= 0 {
		cfg.QuoteSize = 1
	}
	if cfg.InventoryWidthDivisor <= 0 {
		cfg.InventoryWidthDivisor = 20
	}
	if cfg.MinSpread <= 0 {
		cfg.MinSpread = 1
	}
	if cfg.MaxSpread < cfg.MinSpread {
		cfg.MaxSpread = cfg.MinSpread
	}
	return &Kernel{cfg: cfg}
}

// Config returns the kernel parameters.
func (k *Kernel) Config() Config {
	return k.cfg
}

// Decide computes the quote intent for one snapshot, overwriting out in place.
// Degenerate input (crossed, locked or empty books) is never an error: the
// clamps below always leave a well-formed, non-crossed intent or an explicit
// no-quote state.
func (k *Kernel) Decide(tob schema.TopOfBook, sig *signal.State, view RiskView, out *schema.QuoteIntent) {
	mid := int64(tob.Mid())

	// Book imbalance as a percentage in [-100, 100].
	totalQty := int64(tob.BidQty) + int64(tob.AskQty)
	var imbalance int64
	if totalQty != 0 {
		imbalance = (int64(tob.BidQty) - int64(tob.AskQty)) * 100 / totalQty
	}

	trend := clamp((sig.EMAMidFast-sig.EMAMidSlow)/10, -2, 2)
	fair := mid + imbalance*k.cfg.TickSize/100 + trend

	pos := view.Position
	skew := k.totalSkew(pos, view.AgeTicks)
	center := fair - skew

	halfWidth := clamp(
		k.cfg.BaseHalfSpread+sig.VolatilityProxy/2+abs(pos)/k.cfg.InventoryWidthDivisor,
		k.cfg.MinSpread,
		k.cfg.MaxSpread,
	)

	bidLimit := center - halfWidth
	askLimit := center + halfWidth

	// Safety clamps, in order, each correcting only if needed.
	if bidLimit >= askLimit {
		bidLimit = center - 1
		askLimit = center + 1
	}
	if bidLimit >= int64(tob.AskPrice) {
		bidLimit = int64(tob.AskPrice) - 1
	}
	if askLimit <= int64(tob.BidPrice) {
		askLimit = int64(tob.BidPrice) + 1
	}

	bidSize := k.cfg.QuoteSize
	askSize := k.cfg.QuoteSize

	// The edge gate applies only to the side that would grow the position;
	// the reducing side may quote arbitrarily close to fair value.
	if k.cfg.RequiredEdge > 0 {
		if pos >= 0 && fair-bidLimit < k.cfg.RequiredEdge {
			bidLimit, bidSize = 0, 0
		}
		if pos <= 0 && askLimit-fair < k.cfg.RequiredEdge {
			askLimit, askSize = 0, 0
		}
	}

	if pos >= k.cfg.MaxPosition {
		bidLimit, bidSize = 0, 0
	}
	if pos <= -k.cfg.MaxPosition {
		askLimit, askSize = 0, 0
	}

	out.BidLimit = schema.Price(bidLimit)
	out.AskLimit = schema.Price(askLimit)
	out.BidSize = schema.Quantity(bidSize)
	out.AskSize = schema.Quantity(askSize)
	out.Active = bidSize > 0 || askSize > 0
}

// totalSkew composes the linear, quadratic and age penalties. All three are
// sign-matched to the position so the center only ever moves to discourage
// further accumulation.
func (k *Kernel) totalSkew(pos, ageTicks int64) int64 {
	linear := pos * k.cfg.RiskFactor / 10
	quadratic := pos * abs(pos) * k.cfg.RiskFactor / (10 * k.cfg.MaxPosition)

	var age int64
	switch {
	case pos > 0:
		age = ageTicks * k.cfg.RiskFactor / 1000
	case pos < 0:
		age = -(ageTicks * k.cfg.RiskFactor / 1000)
	}

	return linear + quadratic + age
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
