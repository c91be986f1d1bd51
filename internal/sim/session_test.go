package sim

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/codec"
	"main/internal/journal"
	"main/internal/mdg"
	"main/internal/ops"
	"main/internal/schema"
)

func quietConfig() ops.Loaded {
	loaded := ops.Default()
	loaded.ReportEvery = 0
	return loaded
}

func newSource(t *testing.T, loaded ops.Loaded, seed int64) *mdg.Generator {
	t.Helper()
	g, err := mdg.NewGenerator(loaded.Market, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return g
}

func TestRunInvariants(t *testing.T) {
	loaded := quietConfig()
	session := NewSession(loaded, nil)

	summary, err := session.Run(context.Background(), newSource(t, loaded, 5), 5000)
	require.NoError(t, err)

	assert.Equal(t, uint64(5000), summary.Ticks)
	assert.Equal(t, summary.BuyFills+summary.SellFills, summary.FillCount)
	assert.Equal(t, summary.FillCount*uint64(loaded.Strategy.QuoteSize), summary.Volume)
	assert.LessOrEqual(t, summary.PeakAbsPosition, loaded.Strategy.MaxPosition)
	if summary.Position < 0 {
		assert.GreaterOrEqual(t, summary.Position, -loaded.Strategy.MaxPosition)
	} else {
		assert.LessOrEqual(t, summary.Position, loaded.Strategy.MaxPosition)
	}
	assert.Equal(t, summary.Cash+schema.Cash(summary.Position*int64(summary.LastMid)), summary.Equity)
	assert.Greater(t, summary.ActiveQuotes, uint64(0))
}

func TestRunDeterministicBySeed(t *testing.T) {
	loaded := quietConfig()

	a, err := NewSession(loaded, nil).Run(context.Background(), newSource(t, loaded, 17), 3000)
	require.NoError(t, err)
	b, err := NewSession(loaded, nil).Run(context.Background(), newSource(t, loaded, 17), 3000)
	require.NoError(t, err)

	a.DecideLatency = b.DecideLatency
	assert.Equal(t, a, b)
}

func TestRunStopsOnCancel(t *testing.T) {
	loaded := quietConfig()
	session := NewSession(loaded, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := session.Run(ctx, newSource(t, loaded, 1), 100000)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJournalReplayReproducesRun(t *testing.T) {
	loaded := quietConfig()
	dir := t.TempDir()

	writer, err := journal.NewWriter(journal.DefaultConfig(dir))
	require.NoError(t, err)

	recorded := NewSession(loaded, writer)
	original, err := recorded.Run(context.Background(), newSource(t, loaded, 23), 2000)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	playback, err := journal.NewPlayback(journal.PlaybackConfig{Dir: dir})
	require.NoError(t, err)

	// Only snapshots are re-evaluated; recorded quote and fill events carry
	// the original run's decisions and are skipped.
	replayed := NewSession(loaded, nil)
	err = playback.Run(context.Background(), func(header schema.EventHeader, payload []byte) error {
		if header.Type != schema.EventTopOfBook {
			return nil
		}
		tob, ok := codec.DecodeTopOfBook(payload)
		require.True(t, ok)
		return replayed.Step(tob)
	})
	require.NoError(t, err)

	replaySummary := replayed.Summary()
	replaySummary.DecideLatency = original.DecideLatency
	assert.Equal(t, original, replaySummary)
}

func TestStepJournalsFillsWithSharedTrace(t *testing.T) {
	loaded := quietConfig()
	dir := t.TempDir()

	writer, err := journal.NewWriter(journal.DefaultConfig(dir))
	require.NoError(t, err)

	session := NewSession(loaded, writer)
	_, err = session.Run(context.Background(), newSource(t, loaded, 31), 2000)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	playback, err := journal.NewPlayback(journal.PlaybackConfig{Dir: dir})
	require.NoError(t, err)

	var fillEvents int
	tickTraces := make(map[uint64]bool)
	err = playback.Run(context.Background(), func(header schema.EventHeader, _ []byte) error {
		switch header.Type {
		case schema.EventTopOfBook:
			tickTraces[header.TraceID] = true
		case schema.EventFill:
			fillEvents++
			require.True(t, tickTraces[header.TraceID], "fill trace %d has no snapshot", header.TraceID)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int(session.Ledger().FillCount), fillEvents)
}
