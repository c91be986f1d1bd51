// Package store persists backtest run summaries to PostgreSQL so parameter
// sweeps can be compared after the fact. Entirely optional; the simulation
// never depends on it.
package store

import (
	"time"

	"main/internal/errors"
	"main/internal/ops"
	"main/internal/sim"
	"main/pkg/conn"
)

// RunRecord is the persisted shape of one completed run.
type RunRecord struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Seed  int64
	Ticks int64

	RiskFactor     int64
	MaxPosition    int64
	BaseHalfSpread int64
	RequiredEdge   int64
	AlphaFast      int64
	AlphaSlow      int64

	Position        int64
	PeakAbsPosition int64
	Cash            int64
	Equity          int64
	FillCount       uint64
	BuyFills        uint64
	SellFills       uint64
	AdverseFills    uint64
	RejectedFills   uint64
	Volume          uint64
}

// Store writes run records through a shared connection pool.
type Store struct {
	client *conn.Client
}

// New opens the connection and migrates the run table.
func New(cfg ops.StoreConfig) (*Store, error) {
	client, err := conn.New(conn.Option{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		Database: cfg.Database,
		SSLMode:  cfg.SSLMode,
	})
	if err != nil {
		return nil, errors.Wrap(err, "connect result store")
	}
	if err := client.DB().AutoMigrate(&RunRecord{}); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "migrate result store")
	}
	return &Store{client: client}, nil
}

// SaveRun persists one completed run summary with its parameter fingerprint.
func (s *Store) SaveRun(loaded ops.Loaded, summary sim.Summary) error {
	record := RunRecord{
		Seed:            loaded.Seed,
		Ticks:           loaded.Ticks,
		RiskFactor:      loaded.Strategy.RiskFactor,
		MaxPosition:     loaded.Strategy.MaxPosition,
		BaseHalfSpread:  loaded.Strategy.BaseHalfSpread,
		RequiredEdge:    loaded.Strategy.RequiredEdge,
		AlphaFast:       loaded.Signal.AlphaFast,
		AlphaSlow:       loaded.Signal.AlphaSlow,
		Position:        summary.Position,
		PeakAbsPosition: summary.PeakAbsPosition,
		Cash:            int64(summary.Cash),
		Equity:          int64(summary.Equity),
		FillCount:       summary.FillCount,
		BuyFills:        summary.BuyFills,
		SellFills:       summary.SellFills,
		AdverseFills:    summary.AdverseFills,
		RejectedFills:   summary.RejectedFills,
		Volume:          summary.Volume,
	}
	if err := s.client.DB().Create(&record).Error; err != nil {
		return errors.Wrap(err, "save run record")
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.client.Close()
}
