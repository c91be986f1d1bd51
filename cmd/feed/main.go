package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"main/internal/bus"
	"main/internal/feed"
	"main/internal/ops"
	"main/internal/sim"
)

// Runs the strategy pipeline against a live depth feed in paper mode: fills
// are still simulated against the observed book, nothing is ever sent to the
// venue.
func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	url := flag.String("url", "", "Websocket URL override (default: config feed.url)")
	symbol := flag.String("symbol", "", "Symbol override (default: config feed.symbol)")
	queueSize := flag.Int("queue-size", 1024, "Tick queue capacity")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loaded, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *url != "" {
		loaded.Feed.URL = *url
	}
	if *symbol != "" {
		loaded.Feed.Symbol = *symbol
	}
	if loaded.Feed.URL == "" || loaded.Feed.Symbol == "" {
		log.Fatalf("feed url and symbol are required")
	}

	depthFeed := feed.New(ctx, loaded.Feed.URL, loaded.Feed.PriceScale)
	if err := depthFeed.Start(ctx); err != nil {
		log.Fatalf("feed start failed: %v", err)
	}
	defer depthFeed.Close()

	if err := depthFeed.SubscribeDepth(ctx, loaded.Feed.Symbol, loaded.Feed.Depth); err != nil {
		log.Fatalf("subscribe failed: %v", err)
	}

	queue := bus.NewQueue(*queueSize)
	now := func() int64 { return time.Now().UTC().UnixNano() }
	unsubscribe := depthFeed.ObserveTopOfBook(ctx, queue, now)
	defer unsubscribe()

	session := sim.NewSession(loaded, nil)
	queue.Run(ctx, func(t bus.Tick) {
		if err := session.Step(t.Book); err != nil {
			log.Printf("step failed: %v", err)
		}
	})

	summary := session.Summary()
	log.Printf("feed session ended: ticks=%d fills=%d pos=%d equity=%d",
		summary.Ticks, summary.FillCount, summary.Position, summary.Equity,
	)
}
