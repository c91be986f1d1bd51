package journal

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/codec"
	"main/internal/schema"
)

func TestWriteThenPlayback(t *testing.T) {
	dir := t.TempDir()

	writer, err := NewWriter(DefaultConfig(dir))
	require.NoError(t, err)

	books := []schema.TopOfBook{
		{BidPrice: 9999, BidQty: 100, AskPrice: 10001, AskQty: 200},
		{BidPrice: 10000, BidQty: 150, AskPrice: 10002, AskQty: 50},
		{BidPrice: 9998, BidQty: 90, AskPrice: 10000, AskQty: 110},
	}
	var buf []byte
	for i, tob := range books {
		buf = codec.EncodeTopOfBook(buf, tob)
		header := schema.NewHeader(schema.EventTopOfBook, 1, uint64(i+1), int64(i), int64(i))
		header.TraceID = uint64(100 + i)
		require.NoError(t, writer.Append(header, buf))
	}
	require.NoError(t, writer.Close())

	playback, err := NewPlayback(PlaybackConfig{Dir: dir})
	require.NoError(t, err)

	var got []schema.TopOfBook
	var seqs []uint64
	err = playback.Run(context.Background(), func(header schema.EventHeader, payload []byte) error {
		require.Equal(t, schema.EventTopOfBook, header.Type)
		require.Equal(t, schema.SchemaVersion, header.Version)
		tob, ok := codec.DecodeTopOfBook(payload)
		require.True(t, ok)
		got = append(got, tob)
		seqs = append(seqs, header.Seq)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, books, got)
	assert.Equal(t, []uint64{1, 2, 3}, seqs)
}

func TestSegmentRotationBySize(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig(dir)
	cfg.SegmentMaxBytes = 256
	writer, err := NewWriter(cfg)
	require.NoError(t, err)

	var buf []byte
	for i := 0; i < 20; i++ {
		buf = codec.EncodeTopOfBook(buf, schema.TopOfBook{BidPrice: schema.Price(i)})
		require.NoError(t, writer.Append(schema.NewHeader(schema.EventTopOfBook, 1, uint64(i), 0, 0), buf))
	}
	require.NoError(t, writer.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Greater(t, len(entries), 1, "expected multiple segments")

	playback, err := NewPlayback(PlaybackConfig{Dir: dir})
	require.NoError(t, err)

	var count int
	var lastSeq uint64
	err = playback.Run(context.Background(), func(header schema.EventHeader, _ []byte) error {
		if count > 0 {
			require.Equal(t, lastSeq+1, header.Seq, "records out of order across segments")
		}
		lastSeq = header.Seq
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 20, count)
}

func TestChecksumDetectsCorruption(t *testing.T) {
	dir := t.TempDir()

	writer, err := NewWriter(DefaultConfig(dir))
	require.NoError(t, err)
	payload := codec.EncodeTopOfBook(nil, schema.TopOfBook{BidPrice: 9999, AskPrice: 10001})
	require.NoError(t, writer.Append(schema.NewHeader(schema.EventTopOfBook, 1, 1, 0, 0), payload))
	require.NoError(t, writer.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	path := filepath.Join(dir, entries[0].Name())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[recordHeaderSize+3] ^= 0xFF
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	_, _, err = NewReader(file, ReaderOptions{}).Next()
	assert.ErrorIs(t, err, ErrChecksumMismatch)

	file2, err := os.Open(path)
	require.NoError(t, err)
	defer file2.Close()

	_, _, err = NewReader(file2, ReaderOptions{DisableChecksum: true}).Next()
	assert.NoError(t, err)
}

func TestReaderRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()

	writer, err := NewWriter(DefaultConfig(dir))
	require.NoError(t, err)
	require.NoError(t, writer.Append(schema.NewHeader(schema.EventQuote, 1, 1, 0, 0), []byte{1, 2, 3, 4}))
	require.NoError(t, writer.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	path := filepath.Join(dir, entries[0].Name())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[0] = 'X'
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	_, _, err = NewReader(file, ReaderOptions{}).Next()
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestReaderPayloadSizeLimit(t *testing.T) {
	dir := t.TempDir()

	writer, err := NewWriter(DefaultConfig(dir))
	require.NoError(t, err)
	require.NoError(t, writer.Append(schema.NewHeader(schema.EventQuote, 1, 1, 0, 0), make([]byte, 64)))
	require.NoError(t, writer.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	file, err := os.Open(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	defer file.Close()

	_, _, err = NewReader(file, ReaderOptions{MaxPayloadSize: 32}).Next()
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestWriterRejectsAfterClose(t *testing.T) {
	writer, err := NewWriter(DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	err = writer.Append(schema.NewHeader(schema.EventQuote, 1, 1, 0, 0), nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestEmptyPayloadRecord(t *testing.T) {
	dir := t.TempDir()

	writer, err := NewWriter(DefaultConfig(dir))
	require.NoError(t, err)
	require.NoError(t, writer.Append(schema.NewHeader(schema.EventQuote, 1, 7, 0, 0), nil))
	require.NoError(t, writer.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	file, err := os.Open(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	defer file.Close()

	reader := NewReader(file, ReaderOptions{})
	header, payload, err := reader.Next()
	require.NoError(t, err)
	assert.Equal(t, uint64(7), header.Seq)
	assert.Empty(t, payload)

	_, _, err = reader.Next()
	assert.ErrorIs(t, err, io.EOF)
}
