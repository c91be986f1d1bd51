package quote

import (
	"math/rand"
	"testing"

	"main/internal/schema"
	"main/internal/signal"
)

func freshState(mid int64) *signal.State {
	return &signal.State{EMAMidFast: mid, EMAMidSlow: mid, LastMid: mid, TickCount: 1}
}

func TestBalancedBookQuotesAroundFairValue(t *testing.T) {
	k := NewKernel(DefaultConfig())
	tob := schema.TopOfBook{BidPrice: 9999, BidQty: 500, AskPrice: 10001, AskQty: 500}

	var intent schema.QuoteIntent
	k.Decide(tob, freshState(10000), RiskView{}, &intent)

	if !intent.Active {
		t.Fatalf("intent should be active: %+v", intent)
	}
	if !(intent.BidLimit < 10000 && 10000 < intent.AskLimit) {
		t.Fatalf("quotes should straddle fair value 10000: %+v", intent)
	}
	width := int64(intent.AskLimit-intent.BidLimit) / 2
	if width < 1 || width > 5 {
		t.Fatalf("half width out of [1, 5]: %d", width)
	}
}

func TestCrossedInputIsAbsorbed(t *testing.T) {
	k := NewKernel(DefaultConfig())
	tob := schema.TopOfBook{BidPrice: 100, BidQty: 10, AskPrice: 99, AskQty: 10}

	var intent schema.QuoteIntent
	k.Decide(tob, freshState(99), RiskView{}, &intent)

	if !intent.Active {
		t.Fatalf("crossed input must still yield an active intent: %+v", intent)
	}
	if intent.BidLive() && intent.AskLive() && intent.BidLimit >= intent.AskLimit {
		t.Fatalf("intent crossed: %+v", intent)
	}
}

func TestZeroQuantityBookIsAbsorbed(t *testing.T) {
	k := NewKernel(DefaultConfig())
	tob := schema.TopOfBook{BidPrice: 9999, AskPrice: 10001}

	var intent schema.QuoteIntent
	k.Decide(tob, freshState(10000), RiskView{}, &intent)

	if !intent.Active {
		t.Fatalf("zero-depth input must still yield an active intent: %+v", intent)
	}
}

func TestMaxLongPositionDisablesBid(t *testing.T) {
	cfg := DefaultConfig()
	k := NewKernel(cfg)
	tob := schema.TopOfBook{BidPrice: 9999, BidQty: 500, AskPrice: 10001, AskQty: 500}

	var intent schema.QuoteIntent
	k.Decide(tob, freshState(10000), RiskView{Position: cfg.MaxPosition}, &intent)

	if intent.BidLive() {
		t.Fatalf("bid must be disabled at max position: %+v", intent)
	}
	if !intent.AskLive() {
		t.Fatalf("ask must stay live at max long position: %+v", intent)
	}
	if intent.AskLimit <= tob.BidPrice {
		t.Fatalf("ask is marketable: %+v", intent)
	}
}

func TestMaxShortPositionDisablesAsk(t *testing.T) {
	cfg := DefaultConfig()
	k := NewKernel(cfg)
	tob := schema.TopOfBook{BidPrice: 9999, BidQty: 500, AskPrice: 10001, AskQty: 500}

	var intent schema.QuoteIntent
	k.Decide(tob, freshState(10000), RiskView{Position: -cfg.MaxPosition}, &intent)

	if intent.AskLive() {
		t.Fatalf("ask must be disabled at max short position: %+v", intent)
	}
	if !intent.BidLive() {
		t.Fatalf("bid must stay live at max short position: %+v", intent)
	}
}

func TestSkewMonotonicInPosition(t *testing.T) {
	k := NewKernel(DefaultConfig())

	prev := int64(1 << 62)
	for pos := int64(0); pos <= 100; pos++ {
		skew := k.totalSkew(pos, 0)
		center := 10000 - skew
		if center > prev {
			t.Fatalf("center rose from %d to %d at position %d", prev, center, pos)
		}
		prev = center
	}
}

func TestAgePenaltyEscalatesSkew(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RiskFactor = 100
	k := NewKernel(cfg)

	young := k.totalSkew(10, 0)
	old := k.totalSkew(10, 500)
	if old <= young {
		t.Fatalf("age penalty did not escalate: young=%d old=%d", young, old)
	}

	youngShort := k.totalSkew(-10, 0)
	oldShort := k.totalSkew(-10, 500)
	if oldShort >= youngShort {
		t.Fatalf("age penalty wrong sign when short: young=%d old=%d", youngShort, oldShort)
	}
}

func TestRequiredEdgeGatesAccumulatingSideOnly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequiredEdge = 100
	k := NewKernel(cfg)
	tob := schema.TopOfBook{BidPrice: 9999, BidQty: 500, AskPrice: 10001, AskQty: 500}

	// Flat: neither side can show the required edge with a 1-tick half width.
	var intent schema.QuoteIntent
	k.Decide(tob, freshState(10000), RiskView{}, &intent)
	if intent.Active {
		t.Fatalf("flat intent should abstain when edge is unreachable: %+v", intent)
	}

	// Long: the ask reduces inventory and must not be gated.
	k.Decide(tob, freshState(10000), RiskView{Position: 10}, &intent)
	if intent.BidLive() {
		t.Fatalf("bid should be gated while long: %+v", intent)
	}
	if !intent.AskLive() {
		t.Fatalf("ask must not be gated while long: %+v", intent)
	}
}

func TestInvariantsHoldUnderRandomInput(t *testing.T) {
	cfg := DefaultConfig()
	k := NewKernel(cfg)
	rng := rand.New(rand.NewSource(42))

	var intent schema.QuoteIntent
	for i := 0; i < 100000; i++ {
		mid := int64(100 + rng.Intn(20000))
		tob := schema.TopOfBook{
			BidPrice: schema.Price(mid - int64(rng.Intn(5)) + int64(rng.Intn(3))),
			BidQty:   schema.Quantity(rng.Intn(1000)),
			AskPrice: schema.Price(mid + int64(rng.Intn(5)) - int64(rng.Intn(3))),
			AskQty:   schema.Quantity(rng.Intn(1000)),
		}
		sig := &signal.State{
			EMAMidFast:      mid + int64(rng.Intn(41)) - 20,
			EMAMidSlow:      mid + int64(rng.Intn(41)) - 20,
			VolatilityProxy: int64(rng.Intn(10)),
			TickCount:       int64(i + 1),
		}
		view := RiskView{
			Position: int64(rng.Intn(int(2*cfg.MaxPosition+1))) - cfg.MaxPosition,
			AgeTicks: int64(rng.Intn(1000)),
		}

		k.Decide(tob, sig, view, &intent)
		if !intent.Active {
			continue
		}
		if intent.BidLive() && intent.AskLive() && intent.BidLimit >= intent.AskLimit {
			t.Fatalf("crossed intent %+v for book %+v view %+v", intent, tob, view)
		}
		if intent.BidLive() && intent.BidLimit >= tob.AskPrice {
			t.Fatalf("marketable bid %+v for book %+v", intent, tob)
		}
		if intent.AskLive() && intent.AskLimit <= tob.BidPrice {
			t.Fatalf("marketable ask %+v for book %+v", intent, tob)
		}
	}
}

func TestDecideAllocationFree(t *testing.T) {
	k := NewKernel(DefaultConfig())
	tob := schema.TopOfBook{BidPrice: 9999, BidQty: 500, AskPrice: 10001, AskQty: 500}
	sig := freshState(10000)
	view := RiskView{Position: 7, AgeTicks: 13}

	var intent schema.QuoteIntent
	allocs := testing.AllocsPerRun(1000, func() {
		k.Decide(tob, sig, view, &intent)
	})
	if allocs != 0 {
		t.Fatalf("decide path allocated %.1f times per run", allocs)
	}
}
