// Package sim runs the per-tick pipeline: snapshot in, estimator update,
// kernel decision, fill check. The loop is single-threaded and owns every
// piece of mutable state; running several instruments in parallel means one
// fully independent Session per instrument, never shared sub-steps.
package sim

import (
	"context"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/codec"
	"main/internal/errors"
	"main/internal/fills"
	"main/internal/journal"
	"main/internal/ledger"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/quote"
	"main/internal/schema"
	"main/internal/signal"
)

// sourceSim identifies session-produced events in journal headers.
const sourceSim uint16 = 1

// TickSource produces the next snapshot. mdg.Generator satisfies it.
type TickSource interface {
	Next() schema.TopOfBook
}

// Summary is the final state of one run.
type Summary struct {
	Ticks           uint64
	ActiveQuotes    uint64
	FillCount       uint64
	BuyFills        uint64
	SellFills       uint64
	AdverseFills    uint64
	RejectedFills   uint64
	Volume          uint64
	Position        int64
	PeakAbsPosition int64
	Cash            schema.Cash
	Equity          schema.Cash
	LastMid         schema.Price
	DecideLatency   obs.LatencySnapshot
}

// Session owns one instrument's full pipeline state.
type Session struct {
	estimator *signal.Estimator
	kernel    *quote.Kernel
	simulator *fills.Simulator
	led       *ledger.Ledger

	sig    signal.State
	intent schema.QuoteIntent

	metrics *obs.Metrics
	traces  *obs.TraceGenerator
	writer  *journal.Writer

	priceScale  int
	reportEvery int64
	seq         uint64
	lastMid     schema.Price

	payloadBuf []byte
	reportBuf  []byte
}

// NewSession builds a session from resolved configuration. The journal writer
// is optional; pass nil to skip recording.
func NewSession(loaded ops.Loaded, writer *journal.Writer) *Session {
	return &Session{
		estimator:   signal.NewEstimator(loaded.Signal),
		kernel:      quote.NewKernel(loaded.Strategy),
		simulator:   fills.NewSimulator(loaded.Strategy.MaxPosition),
		led:         ledger.New(),
		metrics:     obs.NewMetrics(),
		traces:      obs.NewTraceGenerator(uint64(loaded.Seed)),
		writer:      writer,
		priceScale:  loaded.PriceScale,
		reportEvery: loaded.ReportEvery,
		payloadBuf:  make([]byte, 0, codec.TopOfBookPayloadSize),
	}
}

// Ledger exposes the session's risk state for inspection after a run.
func (s *Session) Ledger() *ledger.Ledger {
	return s.led
}

// Metrics exposes the session's counters.
func (s *Session) Metrics() *obs.Metrics {
	return s.metrics
}

// Step processes exactly one snapshot through the pipeline.
func (s *Session) Step(tob schema.TopOfBook) error {
	s.estimator.Update(tob, &s.sig)

	view := quote.RiskView{
		Position: s.led.Position,
		AgeTicks: s.led.PositionAgeTicks,
	}
	start := time.Now()
	s.kernel.Decide(tob, &s.sig, view, &s.intent)
	s.metrics.ObserveDecide(time.Since(start))
	s.metrics.ObserveTick(s.intent.Active)

	result := s.simulator.CheckFills(tob, s.led, s.intent)
	if result.BidFilled {
		s.metrics.ObserveFill(true, result.Bid.Adverse)
	}
	if result.AskFilled {
		s.metrics.ObserveFill(false, result.Ask.Adverse)
	}

	s.lastMid = tob.Mid()

	if s.writer != nil {
		if err := s.record(tob, result); err != nil {
			return errors.Wrap(err, "journal tick")
		}
	}

	if s.reportEvery > 0 && s.sig.TickCount%s.reportEvery == 0 {
		s.report()
	}
	return nil
}

// Run drives the pipeline for the given number of ticks.
func (s *Session) Run(ctx context.Context, src TickSource, ticks int64) (Summary, error) {
	for i := int64(0); i < ticks; i++ {
		if i&1023 == 0 {
			if err := ctx.Err(); err != nil {
				return s.Summary(), err
			}
		}
		if err := s.Step(src.Next()); err != nil {
			return s.Summary(), err
		}
	}
	return s.Summary(), nil
}

// Summary captures the current run state.
func (s *Session) Summary() Summary {
	m := s.metrics.Snapshot()
	return Summary{
		Ticks:           m.Ticks,
		ActiveQuotes:    m.ActiveQuotes,
		FillCount:       s.led.FillCount,
		BuyFills:        s.led.BuyFillCount,
		SellFills:       s.led.SellFillCount,
		AdverseFills:    s.led.AdverseFillCount,
		RejectedFills:   s.led.RejectedFillCount,
		Volume:          s.led.Volume,
		Position:        s.led.Position,
		PeakAbsPosition: s.led.PeakAbsPosition,
		Cash:            s.led.Cash,
		Equity:          s.led.Equity(s.lastMid),
		LastMid:         s.lastMid,
		DecideLatency:   m.DecideLatency,
	}
}

func (s *Session) record(tob schema.TopOfBook, result fills.Result) error {
	now := time.Now().UTC().UnixNano()
	traceID := s.traces.Next()

	s.payloadBuf = codec.EncodeTopOfBook(s.payloadBuf, tob)
	if err := s.append(schema.EventTopOfBook, now, traceID, s.payloadBuf); err != nil {
		return err
	}

	s.payloadBuf = codec.EncodeQuote(s.payloadBuf, s.intent)
	if err := s.append(schema.EventQuote, now, traceID, s.payloadBuf); err != nil {
		return err
	}

	if result.BidFilled {
		s.payloadBuf = codec.EncodeFill(s.payloadBuf, result.Bid)
		if err := s.append(schema.EventFill, now, traceID, s.payloadBuf); err != nil {
			return err
		}
	}
	if result.AskFilled {
		s.payloadBuf = codec.EncodeFill(s.payloadBuf, result.Ask)
		if err := s.append(schema.EventFill, now, traceID, s.payloadBuf); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) append(eventType schema.EventType, ts int64, traceID uint64, payload []byte) error {
	s.seq++
	header := schema.NewHeader(eventType, sourceSim, s.seq, ts, ts)
	header.TraceID = traceID
	if err := s.writer.Append(header, payload); err != nil {
		s.metrics.IncJournalDrop()
		return err
	}
	return nil
}

func (s *Session) report() {
	equity := s.led.Equity(s.lastMid)

	s.reportBuf = s.reportBuf[:0]
	s.reportBuf = equity.AppendString(s.priceScale, s.reportBuf)
	logs.Infof("tick=%d pos=%d equity=%s fills=%d (buy=%d sell=%d adverse=%d) peak=%d age=%d",
		s.sig.TickCount,
		s.led.Position,
		s.reportBuf,
		s.led.FillCount,
		s.led.BuyFillCount,
		s.led.SellFillCount,
		s.led.AdverseFillCount,
		s.led.PeakAbsPosition,
		s.led.PositionAgeTicks,
	)
}
