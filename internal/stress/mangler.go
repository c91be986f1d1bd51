// Package stress mangles a tick stream with degenerate books: crossed and
// locked markets and empty depth. The kernel is contractually required to
// absorb all of these without error, so the mangler exists to exercise that
// path under long runs, not to model any real venue behavior.
package stress

import (
	"fmt"

	"main/internal/mdg"
	"main/internal/schema"
)

// Config controls how often each degenerate shape is injected. Rates are
// probabilities per tick and their sum must stay within [0, 1].
type Config struct {
	Seed       int64   `json:"seed"`
	CrossRate  float64 `json:"crossRate"`
	LockRate   float64 `json:"lockRate"`
	EmptyRate  float64 `json:"emptyRate"`
	CrossTicks int64   `json:"crossTicks"`
}

// Validate ensures the config is within supported ranges.
func (c Config) Validate() error {
	if c.CrossRate < 0 || c.LockRate < 0 || c.EmptyRate < 0 {
		return fmt.Errorf("rates must be >= 0")
	}
	if c.CrossRate+c.LockRate+c.EmptyRate > 1 {
		return fmt.Errorf("rates must sum to <= 1")
	}
	return nil
}

// Source produces snapshots. mdg.Generator satisfies it.
type Source interface {
	Next() schema.TopOfBook
}

// Mangler wraps a tick source and occasionally deforms its output.
type Mangler struct {
	cfg Config
	src mdg.UniformSource
	in  Source
}

// NewMangler creates a mangler over the given source.
func NewMangler(cfg Config, in Source, src mdg.UniformSource) (*Mangler, error) {
	if in == nil {
		return nil, fmt.Errorf("tick source is nil")
	}
	if src == nil {
		return nil, fmt.Errorf("uniform source is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.CrossTicks <= 0 {
		cfg.CrossTicks = 2
	}
	return &Mangler{cfg: cfg, src: src, in: in}, nil
}

// Next produces the next tick, possibly deformed.
func (m *Mangler) Next() schema.TopOfBook {
	tob := m.in.Next()

	u := m.src.Float64()
	switch {
	case u < m.cfg.CrossRate:
		// Bid through the ask.
		tob.BidPrice = tob.AskPrice + schema.Price(m.cfg.CrossTicks)
	case u < m.cfg.CrossRate+m.cfg.LockRate:
		tob.AskPrice = tob.BidPrice
	case u < m.cfg.CrossRate+m.cfg.LockRate+m.cfg.EmptyRate:
		tob.BidQty = 0
		tob.AskQty = 0
	}
	return tob
}
