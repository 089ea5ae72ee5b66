package indexdb

import (
	"path/filepath"
	"testing"
)

func openTestIndex(t *testing.T) *SaveIndex {
	t.Helper()
	idx, err := Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestLatest_EmptyDB(t *testing.T) {
	idx := openTestIndex(t)
	if _, ok, err := idx.Latest(1337); err != nil || ok {
		t.Fatalf("Latest on empty db: ok=%v err=%v", ok, err)
	}
}

func TestRecordSave_LatestPicksNewest(t *testing.T) {
	idx := openTestIndex(t)

	if _, err := idx.RecordSave("/data/saves/100.save.vxlf", 1337, 3); err != nil {
		t.Fatalf("RecordSave: %v", err)
	}
	id2, err := idx.RecordSave("/data/saves/200.save.vxlf", 1337, 5)
	if err != nil {
		t.Fatalf("RecordSave: %v", err)
	}

	rec, ok, err := idx.Latest(1337)
	if err != nil || !ok {
		t.Fatalf("Latest: ok=%v err=%v", ok, err)
	}
	if rec.ID != id2 || rec.Path != "/data/saves/200.save.vxlf" || rec.ChunkCount != 5 {
		t.Fatalf("Latest = %+v", rec)
	}
	if rec.CreatedAt.IsZero() {
		t.Fatal("created_at not parsed")
	}
}

func TestLatest_FiltersBySeed(t *testing.T) {
	idx := openTestIndex(t)
	if _, err := idx.RecordSave("/data/saves/1.save.vxlf", 1, 1); err != nil {
		t.Fatalf("RecordSave: %v", err)
	}
	if _, ok, err := idx.Latest(2); err != nil || ok {
		t.Fatalf("Latest leaked another seed's save: ok=%v err=%v", ok, err)
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("empty path accepted")
	}
}
