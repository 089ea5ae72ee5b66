package world

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"voxelforge.dev/internal/catalogs"
)

// Run-length diff codec. Persistence never stores full chunk buffers: a diff
// records maximal runs of "differs from baseline" against a buffer the
// generation pipeline can reproduce from the seed alone.
//
// Wire form (little-endian): runCount:int32, then per run flag:uint8,
// length:int32, and for changed runs the literal block bytes.

// EncodeChunkDiff diffs live against base. It returns (nil, false) when the
// buffers are identical, i.e. a single unchanged run would span the volume.
func EncodeChunkDiff(live, base []catalogs.BlockID) ([]byte, bool) {
	if len(live) != len(base) {
		panic(fmt.Sprintf("world: diff buffers of %d vs %d blocks", len(live), len(base)))
	}

	type run struct {
		changed bool
		length  int
	}
	var runs []run
	for i := 0; i < len(live); {
		changed := live[i] != base[i]
		j := i + 1
		for j < len(live) && (live[j] != base[j]) == changed {
			j++
		}
		runs = append(runs, run{changed: changed, length: j - i})
		i = j
	}

	if len(runs) == 1 && !runs[0].changed {
		return nil, false
	}

	var buf bytes.Buffer
	var scratch [4]byte
	binary.LittleEndian.PutUint32(scratch[:], uint32(len(runs)))
	buf.Write(scratch[:])

	cursor := 0
	for _, r := range runs {
		if r.changed {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
		binary.LittleEndian.PutUint32(scratch[:], uint32(r.length))
		buf.Write(scratch[:])
		if r.changed {
			seg := live[cursor : cursor+r.length]
			buf.Write(blockBytes(seg))
		}
		cursor += r.length
	}
	return buf.Bytes(), true
}

// DecodeChunkDiff replays a diff blob onto dst: unchanged runs advance the
// cursor, changed runs overwrite with the stored literals. The run stream is
// fully validated; a malformed blob returns an error with dst untouched.
func DecodeChunkDiff(dst []catalogs.BlockID, blob []byte) error {
	if err := ValidateChunkDiff(blob, len(dst)); err != nil {
		return err
	}

	cursor := 0
	off := 4
	runCount := int(binary.LittleEndian.Uint32(blob[:4]))
	for r := 0; r < runCount; r++ {
		flag := blob[off]
		length := int(binary.LittleEndian.Uint32(blob[off+1 : off+5]))
		off += 5
		if flag == 1 {
			copy(dst[cursor:cursor+length], bytesToBlocks(blob[off:off+length]))
			off += length
		}
		cursor += length
	}
	return nil
}

// ValidateChunkDiff walks the run stream without touching any buffer and
// rejects anything that would read or write out of bounds.
func ValidateChunkDiff(blob []byte, volume int) error {
	if len(blob) < 4 {
		return fmt.Errorf("chunk diff: truncated header (%d bytes)", len(blob))
	}
	runCount := int(binary.LittleEndian.Uint32(blob[:4]))
	if runCount < 1 || runCount > volume {
		return fmt.Errorf("chunk diff: run count %d out of range", runCount)
	}

	off := 4
	cursor := 0
	for r := 0; r < runCount; r++ {
		if off+5 > len(blob) {
			return fmt.Errorf("chunk diff: truncated run %d", r)
		}
		flag := blob[off]
		if flag > 1 {
			return fmt.Errorf("chunk diff: run %d has flag %d", r, flag)
		}
		length := int(binary.LittleEndian.Uint32(blob[off+1 : off+5]))
		off += 5
		if length < 1 || cursor+length > volume {
			return fmt.Errorf("chunk diff: run %d length %d overruns volume %d", r, length, volume)
		}
		if flag == 1 {
			if off+length > len(blob) {
				return fmt.Errorf("chunk diff: run %d literals truncated", r)
			}
			off += length
		}
		cursor += length
	}
	if cursor != volume {
		return fmt.Errorf("chunk diff: runs cover %d of %d blocks", cursor, volume)
	}
	if off != len(blob) {
		return fmt.Errorf("chunk diff: %d trailing bytes", len(blob)-off)
	}
	return nil
}

// DiffHasChanges reports whether a validated blob carries any changed run.
// The canonical "no changes" form is a single unchanged run spanning the
// volume; drivers skip such records entirely.
func DiffHasChanges(blob []byte) bool {
	if len(blob) < 9 {
		return false
	}
	runCount := int(binary.LittleEndian.Uint32(blob[:4]))
	return !(runCount == 1 && blob[4] == 0)
}

func blockBytes(b []catalogs.BlockID) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[i] = byte(v)
	}
	return out
}

func bytesToBlocks(b []byte) []catalogs.BlockID {
	out := make([]catalogs.BlockID, len(b))
	for i, v := range b {
		out[i] = catalogs.BlockID(v)
	}
	return out
}
