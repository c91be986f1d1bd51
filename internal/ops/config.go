package ops

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/yanun0323/decimal"

	"main/internal/mdg"
	"main/internal/quote"
	"main/internal/signal"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Strategy quote.Config  `json:"strategy"`
	Signal   signal.Config `json:"signal"`
	Market   MarketConfig  `json:"market"`
	Report   ReportConfig  `json:"report"`
	Store    StoreConfig   `json:"store"`
	Feed     FeedConfig    `json:"feed"`
}

// MarketConfig describes the synthetic market process. MeanPrice is a human
// decimal string converted to integer ticks at PriceScale.
type MarketConfig struct {
	MeanPrice   decimal.Decimal `json:"meanPrice"`
	PriceScale  int             `json:"priceScale"`
	Reversion   float64         `json:"reversion"`
	Volatility  float64         `json:"volatility"`
	HalfSpread  int64           `json:"halfSpread"`
	BaseDepth   int64           `json:"baseDepth"`
	DepthJitter int64           `json:"depthJitter"`
	Seed        int64           `json:"seed"`
	Ticks       int64           `json:"ticks"`
}

// ReportConfig controls the periodic running report.
type ReportConfig struct {
	EveryTicks int64 `json:"everyTicks"`
}

// StoreConfig describes the optional PostgreSQL result store.
type StoreConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslMode"`
}

// FeedConfig describes the optional live depth feed.
type FeedConfig struct {
	URL        string `json:"url"`
	Symbol     string `json:"symbol"`
	PriceScale int    `json:"priceScale"`
	Depth      int    `json:"depth"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Strategy    quote.Config
	Signal      signal.Config
	Market      mdg.Config
	PriceScale  int
	Seed        int64
	Ticks       int64
	ReportEvery int64
	Store       StoreConfig
	Feed        FeedConfig
}

// Default returns a runnable configuration without a config file.
func Default() Loaded {
	return Loaded{
		Strategy:    quote.DefaultConfig(),
		Signal:      signal.DefaultConfig(),
		Market:      mdg.DefaultConfig(10000),
		PriceScale:  2,
		Seed:        1,
		Ticks:       10000,
		ReportEvery: 1000,
	}
}

// Load reads a JSON config file and resolves it. An empty path yields the
// default configuration.
func Load(path string) (Loaded, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, err
	}
	return resolve(cfg)
}

func resolve(cfg FileConfig) (Loaded, error) {
	loaded := Default()

	if err := validateStrategy(cfg.Strategy); err != nil {
		return Loaded{}, err
	}
	loaded.Strategy = cfg.Strategy

	if cfg.Signal.AlphaFast != 0 || cfg.Signal.AlphaSlow != 0 {
		if err := validateSignal(cfg.Signal); err != nil {
			return Loaded{}, err
		}
		loaded.Signal = cfg.Signal
	}

	market, scale, err := resolveMarket(cfg.Market)
	if err != nil {
		return Loaded{}, err
	}
	loaded.Market = market
	loaded.PriceScale = scale
	loaded.Seed = cfg.Market.Seed
	if loaded.Seed == 0 {
		loaded.Seed = 1
	}
	loaded.Ticks = cfg.Market.Ticks
	if loaded.Ticks <= 0 {
		loaded.Ticks = 10000
	}

	if cfg.Report.EveryTicks > 0 {
		loaded.ReportEvery = cfg.Report.EveryTicks
	}
	loaded.Store = cfg.Store
	loaded.Feed = cfg.Feed
	return loaded, nil
}

func validateStrategy(cfg quote.Config) error {
	if cfg.TickSize <= 0 {
		return fmt.Errorf("strategy tickSize must be > 0")
	}
	if cfg.MaxPosition <= 0 {
		return fmt.Errorf("strategy maxPosition must be > 0")
	}
	if cfg.QuoteSize <= 0 {
		return fmt.Errorf("strategy quoteSize must be > 0")
	}
	if cfg.MinSpread <= 0 {
		return fmt.Errorf("strategy minSpread must be > 0")
	}
	if cfg.MaxSpread < cfg.MinSpread {
		return fmt.Errorf("strategy maxSpread must be >= minSpread")
	}
	if cfg.InventoryWidthDivisor <= 0 {
		return fmt.Errorf("strategy inventoryWidthDivisor must be > 0")
	}
	if cfg.RequiredEdge < 0 {
		return fmt.Errorf("strategy requiredEdge must be >= 0")
	}
	return nil
}

func validateSignal(cfg signal.Config) error {
	if cfg.AlphaFast <= 0 || cfg.AlphaFast > 1000 {
		return fmt.Errorf("signal alphaFast must be in (0, 1000]")
	}
	if cfg.AlphaSlow <= 0 || cfg.AlphaSlow > 1000 {
		return fmt.Errorf("signal alphaSlow must be in (0, 1000]")
	}
	return nil
}

func resolveMarket(cfg MarketConfig) (mdg.Config, int, error) {
	scale := cfg.PriceScale
	if scale < 0 {
		return mdg.Config{}, 0, fmt.Errorf("market priceScale must be >= 0")
	}

	meanTicks := Default().Market.MeanPrice
	if meanStr := strings.TrimSpace(cfg.MeanPrice.String()); meanStr != "" && meanStr != "0" {
		ticks, err := scaledTicks(meanStr, scale)
		if err != nil {
			return mdg.Config{}, 0, fmt.Errorf("market meanPrice: %w", err)
		}
		if ticks <= 0 {
			return mdg.Config{}, 0, fmt.Errorf("market meanPrice must be > 0")
		}
		meanTicks = ticks
	}

	market := mdg.DefaultConfig(meanTicks)
	if cfg.Reversion != 0 {
		market.Reversion = cfg.Reversion
	}
	if cfg.Volatility != 0 {
		market.Volatility = cfg.Volatility
	}
	if cfg.HalfSpread > 0 {
		market.HalfSpread = cfg.HalfSpread
	}
	if cfg.BaseDepth > 0 {
		market.BaseDepth = cfg.BaseDepth
	}
	if cfg.DepthJitter > 0 {
		market.DepthJitter = cfg.DepthJitter
	}
	return market, scale, nil
}

// scaledTicks converts a decimal string into an integer tick count at the
// given scale, rejecting excess fractional digits instead of rounding them.
func scaledTicks(s string, scale int) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, fmt.Errorf("empty price")
	}

	neg := false
	if s[0] == '+' || s[0] == '-' {
		neg = s[0] == '-'
		s = s[1:]
	}

	intPart := s
	fracPart := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		intPart = s[:idx]
		fracPart = s[idx+1:]
	}
	if len(fracPart) > scale {
		return 0, fmt.Errorf("price %q has more than %d fractional digits", s, scale)
	}
	for len(fracPart) < scale {
		fracPart += "0"
	}
	if intPart == "" {
		intPart = "0"
	}

	value, err := strconv.ParseInt(intPart+fracPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", s, err)
	}
	if neg {
		value = -value
	}
	return value, nil
}
