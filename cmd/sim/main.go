package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	pyroscope "github.com/grafana/pyroscope-go"

	"main/internal/journal"
	"main/internal/mdg"
	"main/internal/ops"
	"main/internal/sim"
	"main/internal/store"
	"main/internal/stress"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	ticks := flag.Int64("ticks", 0, "Tick count override (0=use config)")
	seed := flag.Int64("seed", 0, "Seed override (0=use config)")
	journalDir := flag.String("journal-dir", "", "Record the run to this journal directory")
	useStore := flag.Bool("store", false, "Persist the run summary to the configured result store")
	profileAddr := flag.String("profile-addr", "", "Pyroscope server address (empty=disable profiling)")
	stressCross := flag.Float64("stress-cross", 0, "Probability per tick of a crossed book")
	stressLock := flag.Float64("stress-lock", 0, "Probability per tick of a locked book")
	stressEmpty := flag.Float64("stress-empty", 0, "Probability per tick of an empty book")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loaded, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *ticks > 0 {
		loaded.Ticks = *ticks
	}
	if *seed != 0 {
		loaded.Seed = *seed
	}

	if *profileAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "mmsim",
			ServerAddress:   *profileAddr,
			Logger:          emptyLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	var writer *journal.Writer
	if *journalDir != "" {
		writer, err = journal.NewWriter(journal.DefaultConfig(*journalDir))
		if err != nil {
			log.Fatalf("journal init failed: %v", err)
		}
	}

	generator, err := mdg.NewGenerator(loaded.Market, rand.New(rand.NewSource(loaded.Seed)))
	if err != nil {
		log.Fatalf("generator init failed: %v", err)
	}

	var source sim.TickSource = generator
	if *stressCross > 0 || *stressLock > 0 || *stressEmpty > 0 {
		mangler, err := stress.NewMangler(stress.Config{
			CrossRate: *stressCross,
			LockRate:  *stressLock,
			EmptyRate: *stressEmpty,
		}, generator, rand.New(rand.NewSource(loaded.Seed+1)))
		if err != nil {
			log.Fatalf("stress init failed: %v", err)
		}
		source = mangler
	}

	session := sim.NewSession(loaded, writer)
	summary, runErr := session.Run(ctx, source, loaded.Ticks)
	if writer != nil {
		if err := writer.Close(); err != nil {
			log.Fatalf("journal close failed: %v", err)
		}
	}
	if runErr != nil {
		log.Fatalf("run failed: %v", runErr)
	}

	log.Printf("run completed: ticks=%d fills=%d (buy=%d sell=%d adverse=%d rejected=%d) pos=%d peak=%d cash=%d equity=%d decide_avg=%s",
		summary.Ticks, summary.FillCount, summary.BuyFills, summary.SellFills,
		summary.AdverseFills, summary.RejectedFills, summary.Position,
		summary.PeakAbsPosition, summary.Cash, summary.Equity,
		summary.DecideLatency.Avg,
	)

	if *useStore {
		if !loaded.Store.Enabled {
			log.Fatalf("store requested but not enabled in config")
		}
		db, err := store.New(loaded.Store)
		if err != nil {
			log.Fatalf("store init failed: %v", err)
		}
		defer db.Close()
		if err := db.SaveRun(loaded, summary); err != nil {
			log.Fatalf("store save failed: %v", err)
		}
		log.Printf("run summary persisted")
	}
}

type emptyLogger struct{}

func (emptyLogger) Infof(_ string, _ ...interface{})  {}
func (emptyLogger) Debugf(_ string, _ ...interface{}) {}
func (emptyLogger) Errorf(_ string, _ ...interface{}) {}
