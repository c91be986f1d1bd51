// Package journal records a simulation's event stream (snapshots, quotes,
// fills) to segment files and plays it back for deterministic re-evaluation.
// The writer is synchronous: the pipeline is single-threaded and a background
// queue would only blur the per-tick ordering the replay depends on.
package journal

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"main/internal/schema"
)

var (
	ErrClosed          = errors.New("journal writer closed")
	ErrPayloadTooLarge = errors.New("journal payload too large")
)

const maxPayloadLen = uint64(^uint32(0))

const (
	defaultSegmentMaxBytes int64 = 1 << 30
	defaultBufferSize            = 256 * 1024
	defaultFilePrefix            = "journal"
)

// Config controls journal writer behavior.
type Config struct {
	Dir             string
	SegmentMaxBytes int64
	BufferSize      int
	FilePrefix      string
}

// DefaultConfig returns a baseline configuration for the journal writer.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:             dir,
		SegmentMaxBytes: defaultSegmentMaxBytes,
		BufferSize:      defaultBufferSize,
		FilePrefix:      defaultFilePrefix,
	}
}

func (c Config) withDefaults() Config {
	if c.SegmentMaxBytes <= 0 {
		c.SegmentMaxBytes = defaultSegmentMaxBytes
	}
	if c.BufferSize <= 0 {
		c.BufferSize = defaultBufferSize
	}
	if c.FilePrefix == "" {
		c.FilePrefix = defaultFilePrefix
	}
	return c
}

// Validate checks if the configuration is usable.
func (c Config) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("invalid journal config: Dir is empty")
	}
	if c.FilePrefix == "" {
		return fmt.Errorf("invalid journal config: FilePrefix is empty")
	}
	return nil
}

// Writer appends framed, checksummed events to journal segments.
type Writer struct {
	cfg Config

	file     *os.File
	buf      *bufio.Writer
	size     int64
	segID    uint64
	openedAt time.Time
	closed   bool

	headerBuf   [recordHeaderSize]byte
	checksumBuf [recordChecksumSize]byte
}

// NewWriter creates a journal writer and ensures the target directory exists.
func NewWriter(cfg Config) (*Writer, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}
	return &Writer{cfg: cfg}, nil
}

// Append writes one event record, rotating segments by size.
func (w *Writer) Append(header schema.EventHeader, payload []byte) error {
	if w.closed {
		return ErrClosed
	}
	if uint64(len(payload)) > maxPayloadLen {
		return ErrPayloadTooLarge
	}
	if header.Version == 0 {
		header.Version = schema.SchemaVersion
	}

	recordSize := int64(recordHeaderSize + len(payload) + recordChecksumSize)
	if w.file == nil || (w.cfg.SegmentMaxBytes > 0 && w.size+recordSize > w.cfg.SegmentMaxBytes) {
		if err := w.rotate(); err != nil {
			return err
		}
	}

	encodeHeader(w.headerBuf[:], header, len(payload))
	sum := checksum(w.headerBuf[:], payload)
	binary.LittleEndian.PutUint32(w.checksumBuf[:], sum)

	if _, err := w.buf.Write(w.headerBuf[:]); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := w.buf.Write(payload); err != nil {
			return err
		}
	}
	if _, err := w.buf.Write(w.checksumBuf[:]); err != nil {
		return err
	}

	w.size += recordSize
	return nil
}

// Close flushes and syncs the open segment.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.closeSegment()
}

func (w *Writer) rotate() error {
	if err := w.closeSegment(); err != nil {
		return err
	}
	now := time.Now().UTC()
	ts := now.Format("20060102-150405")
	for {
		w.segID++
		name := fmt.Sprintf("%s-%s-%06d.seg", w.cfg.FilePrefix, ts, w.segID)
		path := filepath.Join(w.cfg.Dir, name)
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				continue
			}
			return err
		}
		w.file = file
		w.buf = bufio.NewWriterSize(file, w.cfg.BufferSize)
		w.size = 0
		w.openedAt = now
		return nil
	}
}

func (w *Writer) closeSegment() error {
	if w.file == nil {
		return nil
	}
	file := w.file
	w.file = nil
	if err := w.buf.Flush(); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
