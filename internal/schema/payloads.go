package schema

// TopOfBook is the payload for EventTopOfBook: an immutable per-tick snapshot
// of the best bid and ask. A crossed or locked book is representable and must
// be tolerated by consumers.
type TopOfBook struct {
	BidPrice Price
	BidQty   Quantity
	AskPrice Price
	AskQty   Quantity
}

// Mid returns the truncating integer mid price. Truncation toward zero is
// intentional and part of the decision-path arithmetic contract.
func (t TopOfBook) Mid() Price {
	return (t.BidPrice + t.AskPrice) / 2
}

// Side describes fill direction.
type Side uint16

const (
	SideUnknown Side = iota
	SideBuy
	SideSell
)

// QuoteIntent is the payload for EventQuote: the kernel's quoting decision for
// one tick. A side with Limit 0 and Size 0 is disabled. While Active is true
// any live side satisfies BidLimit < AskLimit and is never immediately
// marketable against the snapshot it was computed from.
type QuoteIntent struct {
	BidLimit Price
	AskLimit Price
	BidSize  Quantity
	AskSize  Quantity
	Active   bool
}

// BidLive reports whether the bid side is quoting.
func (q QuoteIntent) BidLive() bool {
	return q.Active && q.BidSize > 0 && q.BidLimit > 0
}

// AskLive reports whether the ask side is quoting.
func (q QuoteIntent) AskLive() bool {
	return q.Active && q.AskSize > 0 && q.AskLimit > 0
}

// Fill is the payload for EventFill: a confirmed simulated execution of one
// resting side.
type Fill struct {
	Side    Side
	Price   Price
	Qty     Quantity
	Adverse bool
}
