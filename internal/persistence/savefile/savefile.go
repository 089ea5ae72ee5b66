// Package savefile is the file driver for the diff-based persistence surface.
// It stores sparse edits only; the terrain baseline regenerates from the seed.
package savefile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"voxelforge.dev/internal/geom"
	"voxelforge.dev/internal/world"
)

// Magic identifies a voxelforge savefile ("VXLF").
const Magic int32 = 0x56584C46

// maxChunkRecords guards header-driven allocations against corrupt files.
const maxChunkRecords = 1 << 20

// Header is a savefile's fixed prefix.
type Header struct {
	Seed       int32
	ChunkCount int32
}

// Record is one chunk's diff blob.
type Record struct {
	Coord geom.ChunkCoord
	Blob  []byte
}

// Save writes every dirty chunk's diff to path, atomically via a temp file.
// Chunks whose live buffer matches the baseline are skipped (their dirty flag
// clears inside WriteChunkDiff). Written coordinates stay dirty: the flag
// means "differs from baseline", and they still do.
func Save(path string, w *world.World) (int, error) {
	coords := w.CollectDirtyChunks(nil)

	var records []Record
	for _, coord := range coords {
		if blob, ok := w.WriteChunkDiff(coord); ok {
			records = append(records, Record{Coord: coord, Blob: blob})
		}
	}
	if len(records) == 0 {
		// Nothing diverged from the generator; don't leave an empty file.
		return 0, nil
	}

	var buf bytes.Buffer
	writeInt32(&buf, Magic)
	writeInt32(&buf, int32(w.Seed()))
	writeInt32(&buf, int32(len(records)))
	for _, r := range records {
		writeInt32(&buf, int32(r.Coord.X))
		writeInt32(&buf, int32(r.Coord.Y))
		writeInt32(&buf, int32(r.Coord.Z))
		writeInt32(&buf, int32(len(r.Blob)))
		buf.Write(r.Blob)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return 0, fmt.Errorf("write savefile: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return 0, fmt.Errorf("commit savefile: %w", err)
	}
	return len(records), nil
}

// Load replays a savefile into the world. The entire stream is parsed and
// every diff validated before any world state changes, so a bad magic number
// or corrupt record leaves the world exactly as it was.
func Load(path string, w *world.World) (int, error) {
	hdr, records, err := ReadFile(path)
	if err != nil {
		return 0, err
	}
	if int64(hdr.Seed) != w.Seed() {
		return 0, fmt.Errorf("savefile %s: seed %d does not match world seed %d", path, hdr.Seed, w.Seed())
	}
	for _, r := range records {
		if err := world.ValidateChunkDiff(r.Blob, geom.ChunkVolume); err != nil {
			return 0, fmt.Errorf("savefile %s: chunk (%d,%d,%d): %w", path, r.Coord.X, r.Coord.Y, r.Coord.Z, err)
		}
	}
	for _, r := range records {
		if err := w.ApplyChunkDiff(r.Coord, r.Blob); err != nil {
			// Unreachable after the validation pass; surfaced anyway.
			return 0, err
		}
	}
	return len(records), nil
}

// ReadFile parses a savefile without touching any world.
func ReadFile(path string) (Header, []Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Header{}, nil, err
	}
	r := bytes.NewReader(raw)

	magic, err := readInt32(r)
	if err != nil {
		return Header{}, nil, fmt.Errorf("savefile %s: %w", path, err)
	}
	if magic != Magic {
		return Header{}, nil, fmt.Errorf("savefile %s: bad magic 0x%08x", path, uint32(magic))
	}
	seed, err := readInt32(r)
	if err != nil {
		return Header{}, nil, fmt.Errorf("savefile %s: %w", path, err)
	}
	count, err := readInt32(r)
	if err != nil {
		return Header{}, nil, fmt.Errorf("savefile %s: %w", path, err)
	}
	if count < 0 || count > maxChunkRecords {
		return Header{}, nil, fmt.Errorf("savefile %s: chunk count %d out of range", path, count)
	}

	records := make([]Record, 0, count)
	for i := int32(0); i < count; i++ {
		rec, err := readRecord(r)
		if err != nil {
			return Header{}, nil, fmt.Errorf("savefile %s: record %d: %w", path, i, err)
		}
		records = append(records, rec)
	}
	return Header{Seed: seed, ChunkCount: count}, records, nil
}

func readRecord(r *bytes.Reader) (Record, error) {
	var vals [4]int32
	for i := range vals {
		v, err := readInt32(r)
		if err != nil {
			return Record{}, err
		}
		vals[i] = v
	}
	n := vals[3]
	if n < 0 || int(n) > r.Len() {
		return Record{}, fmt.Errorf("diff length %d out of range", n)
	}
	blob := make([]byte, n)
	if _, err := io.ReadFull(r, blob); err != nil {
		return Record{}, fmt.Errorf("truncated diff: %w", err)
	}
	return Record{
		Coord: geom.ChunkCoord{X: int(vals[0]), Y: int(vals[1]), Z: int(vals[2])},
		Blob:  blob,
	}, nil
}

func writeInt32(buf *bytes.Buffer, v int32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	buf.Write(b[:])
}

// readInt32 insists on all four bytes; a short read mid-field means the file
// was truncated, never a smaller value.
func readInt32(r *bytes.Reader) (int32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("truncated: %w", err)
	}
	return int32(binary.LittleEndian.Uint32(b[:])), nil
}
