package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"main/internal/codec"
	"main/internal/journal"
	"main/internal/ops"
	"main/internal/schema"
	"main/internal/sim"
)

// Replays the snapshot stream of a recorded run through a fresh pipeline.
// Strategy parameters come from the config, so the same market tape can be
// re-evaluated under different quoting settings. Recorded quote and fill
// events belong to the original run's decisions and are skipped.
func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	dir := flag.String("dir", "", "Journal directory to replay")
	prefix := flag.String("prefix", "", "Journal file prefix (default: journal)")
	noChecksum := flag.Bool("no-checksum", false, "Disable checksum validation")
	maxPayload := flag.Int("max-payload", 0, "Max payload size in bytes (0=unlimited)")
	flag.Parse()

	if *dir == "" {
		log.Fatalf("dir is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loaded, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	playback, err := journal.NewPlayback(journal.PlaybackConfig{
		Dir:             *dir,
		FilePrefix:      *prefix,
		DisableChecksum: *noChecksum,
		MaxPayloadSize:  *maxPayload,
	})
	if err != nil {
		log.Fatalf("playback init failed: %v", err)
	}

	session := sim.NewSession(loaded, nil)
	var snapshots uint64
	err = playback.Run(ctx, func(header schema.EventHeader, payload []byte) error {
		if header.Type != schema.EventTopOfBook {
			return nil
		}
		tob, ok := codec.DecodeTopOfBook(payload)
		if !ok {
			return fmt.Errorf("decode snapshot at seq %d", header.Seq)
		}
		snapshots++
		return session.Step(tob)
	})
	if err != nil {
		log.Fatalf("replay failed: %v", err)
	}

	summary := session.Summary()
	log.Printf("replay completed: snapshots=%d fills=%d (buy=%d sell=%d adverse=%d) pos=%d peak=%d cash=%d equity=%d",
		snapshots, summary.FillCount, summary.BuyFills, summary.SellFills,
		summary.AdverseFills, summary.Position, summary.PeakAbsPosition,
		summary.Cash, summary.Equity,
	)
}
