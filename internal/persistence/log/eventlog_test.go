package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestEventLog_WriteAndReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl.zst")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	entries := []StatsEntry{
		{TS: Now(), Tick: 100, Active: 13, Generated: 4},
		{TS: Now(), Tick: 200, Active: 13, Meshed: 6},
	}
	for _, e := range entries {
		if err := l.Write(e); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := l.Write(SaveEntry{TS: Now(), Tick: 200, Path: "x.save.vxlf", Chunks: 2}); err != nil {
		t.Fatalf("Write save entry: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer dec.Close()

	var lines []map[string]any
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("bad json line: %v", err)
		}
		lines = append(lines, m)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}

	if len(lines) != 3 {
		t.Fatalf("read %d lines, want 3", len(lines))
	}
	if lines[0]["tick"].(float64) != 100 || lines[1]["tick"].(float64) != 200 {
		t.Fatalf("tick order wrong: %v %v", lines[0]["tick"], lines[1]["tick"])
	}
	if lines[2]["path"] != "x.save.vxlf" {
		t.Fatalf("save entry: %v", lines[2])
	}
}

func TestEventLog_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "events.jsonl.zst")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("log file missing: %v", err)
	}
}
