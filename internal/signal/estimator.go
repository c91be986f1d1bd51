package signal

import "main/internal/schema"

// Config defines the EMA smoothing weights in parts-per-thousand.
type Config struct {
	AlphaFast int64 `json:"alphaFast"`
	AlphaSlow int64 `json:"alphaSlow"`
}

// DefaultConfig returns the standard smoothing weights.
func DefaultConfig() Config {
	return Config{AlphaFast: 300, AlphaSlow: 50}
}

// State holds the smoothed view of the market. All fields are integer ticks.
// EMA fields use zero as the uninitialized sentinel and snap to the first
// observed value; prices are assumed strictly positive so a legitimate zero
// EMA cannot occur.
type State struct {
	EMAMidFast      int64
	EMAMidSlow      int64
	VolatilityProxy int64
	LastMid         int64
	TickCount       int64
}

// Estimator maintains smoothed price and volatility state from raw snapshots.
// It is stateful, deterministic and allocation-free.
type Estimator struct {
	cfg Config
}

// NewEstimator creates an estimator with the given weights.
func NewEstimator(cfg Config) *Estimator {
	if cfg.AlphaFast <= 0 || cfg.AlphaFast > 1000 {
		cfg.AlphaFast = 300
	}
	if cfg.AlphaSlow <= 0 || cfg.AlphaSlow > 1000 {
		cfg.AlphaSlow = 50
	}
	return &Estimator{cfg: cfg}
}

// Update folds one snapshot into the state. The mid price uses truncating
// integer division. LastMid stores the fast EMA as it was before this update,
// which the kernel uses for trend detection.
func (e *Estimator) Update(tob schema.TopOfBook, s *State) {
	mid := int64(tob.Mid())

	s.LastMid = s.EMAMidFast
	s.EMAMidFast = ema(s.EMAMidFast, mid, e.cfg.AlphaFast)
	s.EMAMidSlow = ema(s.EMAMidSlow, mid, e.cfg.AlphaSlow)

	dev := mid - s.EMAMidFast
	if dev < 0 {
		dev = -dev
	}
	s.VolatilityProxy = ema(s.VolatilityProxy, dev, e.cfg.AlphaSlow)

	s.TickCount++
}

// ema applies the parts-per-thousand smoothing rule with the zero-sentinel
// cold start: an uninitialized tracker snaps to the first observation.
func ema(old, current, alpha int64) int64 {
	if old == 0 {
		return current
	}
	return (alpha*current + (1000-alpha)*old) / 1000
}
