// Package mdg generates the synthetic tick stream: an Ornstein-Uhlenbeck
// mean-reverting mid price rendered down to integer-tick snapshots. This is
// the only component allowed to use floating point; it models continuous-time
// dynamics, not decision logic, and its randomness is an injected stream of
// uniform variates so runs stay reproducible.
package mdg

import (
	"fmt"
	"math"

	"main/internal/schema"
)

// UniformSource supplies uniform variates in [0, 1). *rand.Rand satisfies it.
type UniformSource interface {
	Float64() float64
}

// Config defines the market process parameters. Prices are integer ticks.
type Config struct {
	MeanPrice   int64   `json:"meanPrice"`
	Reversion   float64 `json:"reversion"`
	Volatility  float64 `json:"volatility"`
	HalfSpread  int64   `json:"halfSpread"`
	BaseDepth   int64   `json:"baseDepth"`
	DepthJitter int64   `json:"depthJitter"`
}

// DefaultConfig returns a gently mean-reverting market around the given price.
func DefaultConfig(meanPrice int64) Config {
	return Config{
		MeanPrice:   meanPrice,
		Reversion:   0.05,
		Volatility:  2.0,
		HalfSpread:  1,
		BaseDepth:   100,
		DepthJitter: 400,
	}
}

// Generator produces the next top-of-book snapshot on demand.
type Generator struct {
	cfg Config
	src UniformSource
	mid float64

	spare    float64
	hasSpare bool
}

// NewGenerator creates a generator seeded at the mean price.
func NewGenerator(cfg Config, src UniformSource) (*Generator, error) {
	if src == nil {
		return nil, fmt.Errorf("uniform source is nil")
	}
	if cfg.MeanPrice <= 0 {
		return nil, fmt.Errorf("mean price must be > 0")
	}
	if cfg.Reversion < 0 || cfg.Reversion > 1 {
		return nil, fmt.Errorf("reversion must be in [0, 1]")
	}
	if cfg.Volatility < 0 {
		return nil, fmt.Errorf("volatility must be >= 0")
	}
	if cfg.HalfSpread <= 0 {
		cfg.HalfSpread = 1
	}
	if cfg.BaseDepth <= 0 {
		cfg.BaseDepth = 1
	}
	if cfg.DepthJitter < 0 {
		cfg.DepthJitter = 0
	}
	return &Generator{
		cfg: cfg,
		src: src,
		mid: float64(cfg.MeanPrice),
	}, nil
}

// Next advances the process one step and synthesizes a snapshot. The mid
// follows dX = reversion*(mean-X) + volatility*dW; the book is symmetric at
// HalfSpread ticks with jittered depth on each side.
func (g *Generator) Next() schema.TopOfBook {
	g.mid += g.cfg.Reversion*(float64(g.cfg.MeanPrice)-g.mid) + g.cfg.Volatility*g.gaussian()

	floor := float64(g.cfg.HalfSpread + 1)
	if g.mid < floor {
		g.mid = floor
	}

	mid := int64(math.Round(g.mid))
	return schema.TopOfBook{
		BidPrice: schema.Price(mid - g.cfg.HalfSpread),
		BidQty:   schema.Quantity(g.depth()),
		AskPrice: schema.Price(mid + g.cfg.HalfSpread),
		AskQty:   schema.Quantity(g.depth()),
	}
}

func (g *Generator) depth() int64 {
	if g.cfg.DepthJitter == 0 {
		return g.cfg.BaseDepth
	}
	return g.cfg.BaseDepth + int64(g.src.Float64()*float64(g.cfg.DepthJitter))
}

// gaussian draws a standard normal via Box-Muller from two uniform variates,
// caching the paired draw.
func (g *Generator) gaussian() float64 {
	if g.hasSpare {
		g.hasSpare = false
		return g.spare
	}

	u1 := g.src.Float64()
	for u1 <= 0 {
		u1 = g.src.Float64()
	}
	u2 := g.src.Float64()

	r := math.Sqrt(-2 * math.Log(u1))
	theta := 2 * math.Pi * u2
	g.spare = r * math.Sin(theta)
	g.hasSpare = true
	return r * math.Cos(theta)
}
