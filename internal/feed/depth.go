// Package feed adapts a live websocket depth stream into top-of-book
// snapshots. Observation only: quotes computed from a live feed are logged,
// never routed anywhere.
package feed

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
	"github.com/yanun0323/pkg/ws"

	"main/internal/bus"
	"main/internal/errors"
	"main/internal/schema"
)

// DepthFeed subscribes to a partial book depth stream and publishes the top
// level as ticks.
type DepthFeed struct {
	wss        *ws.WebSocket
	priceScale int
}

// New creates a feed for the given websocket endpoint. Prices on the wire are
// decimal strings; priceScale converts them to integer ticks.
func New(ctx context.Context, url string, priceScale int) *DepthFeed {
	return &DepthFeed{
		wss:        ws.New(ctx, url),
		priceScale: priceScale,
	}
}

// Len returns the number of active subscriptions.
func (f *DepthFeed) Len() int {
	return f.wss.Len()
}

// Close tears down the websocket.
func (f *DepthFeed) Close() {
	f.wss.Close()
}

// Start connects the websocket.
func (f *DepthFeed) Start(ctx context.Context) error {
	if err := f.wss.Start(ctx); err != nil {
		return errors.Wrap(err, "start wss")
	}

	return nil
}

type depthSubscribeRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int64    `json:"id"`
}

type depthSubscribeResponse struct {
	ID     int64 `json:"id"`
	Result any   `json:"result"`
}

// depthUpdate is a partial book depth payload: rows of [price, quantity]
// decimal strings, best level first.
type depthUpdate struct {
	LastUpdateID int64       `json:"lastUpdateId"`
	Bids         [][2]string `json:"bids"`
	Asks         [][2]string `json:"asks"`
}

// SubscribeDepth subscribes the partial book depth stream for a symbol.
func (f *DepthFeed) SubscribeDepth(ctx context.Context, symbol string, depth int) error {
	if depth <= 0 {
		depth = 5
	}
	if err := f.wss.SendAndWait(ctx, ws.Sidecar{
		Sender: func(ctx context.Context, client *ws.WebSocket) error {
			payload := depthSubscribeRequest{
				Method: "SUBSCRIBE",
				Params: []string{
					fmt.Sprintf("%s@depth%d@100ms", strings.ToLower(symbol), depth),
				},
				ID: 1,
			}

			if err := client.WriteJSON(payload); err != nil {
				return errors.Wrap(err, "write subscribe payload")
			}

			return nil
		},
		Waiter: func(ctx context.Context, m ws.Message) (bool, error) {
			resp, ok := ws.ReadMessage[depthSubscribeResponse](m)
			if !ok || resp.ID != 1 {
				return false, nil
			}

			if resp.Result != nil {
				return false, fmt.Errorf("subscribe rejected: %+v", resp.Result)
			}
			return true, nil
		},
	}); err != nil {
		return errors.Wrap(err, "send and wait")
	}

	return nil
}

// ObserveTopOfBook publishes the best level of every depth update into the
// queue until the context is done. Ticks that do not fit are dropped so the
// feed never stalls.
func (f *DepthFeed) ObserveTopOfBook(ctx context.Context, queue *bus.Queue, now func() int64) (unsubscribe func()) {
	ch, cancel := f.wss.Subscribe()

	go func() {
		defer cancel()
		for {
			select {
			case <-sys.Shutdown():
				return
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}

				update, ok := ws.ReadMessage[depthUpdate](m)
				if !ok || len(update.Bids) == 0 || len(update.Asks) == 0 {
					continue
				}

				tob, err := f.topOfBook(update)
				if err != nil {
					logs.Errorf("normalize depth update, err: %+v", err)
					continue
				}

				if err := queue.TryPublish(bus.Tick{Book: tob, TsRecv: now()}); err != nil {
					if errors.Is(err, bus.ErrQueueClosed) {
						return
					}
					logs.Errorf("publish tick, err: %+v", err)
				}
			}
		}
	}()

	return cancel
}

func (f *DepthFeed) topOfBook(update depthUpdate) (schema.TopOfBook, error) {
	bidPrice, err := parseScaled(update.Bids[0][0], f.priceScale)
	if err != nil {
		return schema.TopOfBook{}, errors.Wrap(err, "bid price")
	}
	bidQty, err := parseScaled(update.Bids[0][1], 0)
	if err != nil {
		return schema.TopOfBook{}, errors.Wrap(err, "bid qty")
	}
	askPrice, err := parseScaled(update.Asks[0][0], f.priceScale)
	if err != nil {
		return schema.TopOfBook{}, errors.Wrap(err, "ask price")
	}
	askQty, err := parseScaled(update.Asks[0][1], 0)
	if err != nil {
		return schema.TopOfBook{}, errors.Wrap(err, "ask qty")
	}

	return schema.TopOfBook{
		BidPrice: schema.Price(bidPrice),
		BidQty:   schema.Quantity(bidQty),
		AskPrice: schema.Price(askPrice),
		AskQty:   schema.Quantity(askQty),
	}, nil
}

// parseScaled converts a decimal string into a scaled integer, truncating any
// fractional digits beyond the scale.
func parseScaled(s string, scale int) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}

	intPart := s
	fracPart := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		intPart = s[:idx]
		fracPart = s[idx+1:]
	}
	if len(fracPart) > scale {
		fracPart = fracPart[:scale]
	}
	for len(fracPart) < scale {
		fracPart += "0"
	}
	if intPart == "" {
		intPart = "0"
	}

	value, err := strconv.ParseInt(intPart+fracPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, err)
	}
	return value, nil
}
