// Package ledger tracks position, cash and fill statistics. The ledger is
// exclusively owned by one simulation loop and is only mutated by confirmed
// fills; quoting reads it but never writes.
package ledger

import "main/internal/schema"

// Ledger is the mutable risk and inventory state.
type Ledger struct {
	Position          int64
	Cash              schema.Cash
	Volume            uint64
	FillCount         uint64
	BuyFillCount      uint64
	SellFillCount     uint64
	AdverseFillCount  uint64
	RejectedFillCount uint64
	PeakAbsPosition   int64
	PositionAgeTicks  int64
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// ApplyFill records one execution. A fill that would push |position| beyond
// maxPosition is rejected outright, never clamped, and leaves every other
// field untouched.
func (l *Ledger) ApplyFill(f schema.Fill, maxPosition int64) bool {
	qty := int64(f.Qty)
	if qty <= 0 || f.Side == schema.SideUnknown {
		return false
	}

	next := l.Position
	switch f.Side {
	case schema.SideBuy:
		next += qty
	case schema.SideSell:
		next -= qty
	}
	if absInt64(next) > maxPosition {
		l.RejectedFillCount++
		return false
	}

	notional := int64(f.Price) * qty
	switch f.Side {
	case schema.SideBuy:
		l.Cash -= schema.Cash(notional)
		l.BuyFillCount++
	case schema.SideSell:
		l.Cash += schema.Cash(notional)
		l.SellFillCount++
	}

	l.Position = next
	l.Volume += uint64(qty)
	l.FillCount++
	if f.Adverse {
		l.AdverseFillCount++
	}
	if peak := absInt64(next); peak > l.PeakAbsPosition {
		l.PeakAbsPosition = peak
	}
	return true
}

// AdvanceAge ticks the position-age counter: it grows while inventory is held
// and resets the moment the book is flat.
func (l *Ledger) AdvanceAge() {
	if l.Position != 0 {
		l.PositionAgeTicks++
	} else {
		l.PositionAgeTicks = 0
	}
}

// Equity marks the ledger to the given price: cash plus inventory value.
func (l *Ledger) Equity(mark schema.Price) schema.Cash {
	return l.Cash + schema.Cash(l.Position*int64(mark))
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
