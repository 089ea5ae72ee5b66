// Package indexdb keeps save metadata in a small sqlite database next to the
// save data: which files exist, for which seed, and when. Purely a read
// model; losing it never loses world data.
package indexdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type SaveIndex struct {
	db *sql.DB
}

// SaveRecord is one recorded save session.
type SaveRecord struct {
	ID         string
	Path       string
	Seed       int64
	ChunkCount int
	CreatedAt  time.Time
}

func Open(path string) (*SaveIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA busy_timeout=5000;`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("pragma: %w", err)
		}
	}

	const schema = `
CREATE TABLE IF NOT EXISTS saves (
	id          TEXT PRIMARY KEY,
	path        TEXT NOT NULL,
	seed        INTEGER NOT NULL,
	chunk_count INTEGER NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_saves_created ON saves(created_at);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SaveIndex{db: db}, nil
}

func (x *SaveIndex) Close() error { return x.db.Close() }

// RecordSave registers a completed save and returns its session id.
func (x *SaveIndex) RecordSave(path string, seed int64, chunkCount int) (string, error) {
	id := uuid.NewString()
	_, err := x.db.Exec(
		`INSERT INTO saves (id, path, seed, chunk_count, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, path, seed, chunkCount, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("record save: %w", err)
	}
	return id, nil
}

// Latest returns the most recent save for a seed, if any.
func (x *SaveIndex) Latest(seed int64) (SaveRecord, bool, error) {
	row := x.db.QueryRow(
		`SELECT id, path, seed, chunk_count, created_at FROM saves WHERE seed = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		seed,
	)
	var rec SaveRecord
	var created string
	err := row.Scan(&rec.ID, &rec.Path, &rec.Seed, &rec.ChunkCount, &created)
	if err == sql.ErrNoRows {
		return SaveRecord{}, false, nil
	}
	if err != nil {
		return SaveRecord{}, false, err
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return rec, true, nil
}
