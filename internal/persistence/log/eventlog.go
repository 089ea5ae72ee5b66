// Package log writes the engine's periodic stats and edit audit records as
// zstd-compressed JSONL. Block data never goes through here; this is
// observability output only.
package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// StatsEntry is one scheduler tick summary.
type StatsEntry struct {
	TS        string `json:"ts"`
	Tick      uint64 `json:"tick"`
	Active    int    `json:"active"`
	Generated int    `json:"generated"`
	Meshed    int    `json:"meshed"`
	Released  int    `json:"released"`
	Deferred  int    `json:"deferred"`
	GenQueue  int    `json:"gen_queue"`
	MeshQueue int    `json:"mesh_queue"`
	Pending   int    `json:"pending_diffs"`
}

// SaveEntry records a completed save session.
type SaveEntry struct {
	TS     string `json:"ts"`
	Tick   uint64 `json:"tick"`
	Path   string `json:"path"`
	Chunks int    `json:"chunks"`
}

// Now formats a timestamp the way every entry expects it.
func Now() string { return time.Now().UTC().Format(time.RFC3339Nano) }

// EventLog appends JSON lines to one zstd stream. Safe for concurrent use;
// the engine loop and the HTTP layer both write to it.
type EventLog struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

func Open(path string) (*EventLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &EventLog{
		f:   f,
		enc: enc,
		w:   bufio.NewWriterSize(enc, 64*1024),
	}, nil
}

func (l *EventLog) Write(v any) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := l.w.Write(b); err != nil {
		return err
	}
	if err := l.w.WriteByte('\n'); err != nil {
		return err
	}
	return l.w.Flush()
}

func (l *EventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.w.Flush(); err != nil {
		return err
	}
	if err := l.enc.Close(); err != nil {
		return err
	}
	return l.f.Close()
}
