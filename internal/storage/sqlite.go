// Package storage provides a SQLite-backed persistent embedding store.
package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists document embeddings in SQLite so they survive
// process restarts. Entries are keyed by document ID; the same ID must
// always refer to the same content.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS embeddings (
		id TEXT PRIMARY KEY,
		tokens INTEGER NOT NULL,
		dimensions INTEGER NOT NULL,
		vectors BLOB NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_embeddings_created_at ON embeddings(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// Get returns the embedding stored under id, reporting whether it was found.
func (s *SQLiteStore) Get(ctx context.Context, id string) ([][]float32, bool, error) {
	var tokens, dimensions int
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT tokens, dimensions, vectors FROM embeddings WHERE id = ?`, id,
	).Scan(&tokens, &dimensions, &blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	emb, err := decodeVectors(blob, tokens, dimensions)
	if err != nil {
		return nil, false, fmt.Errorf("corrupt embedding %s: %w", id, err)
	}
	return emb, true, nil
}

// Put stores the embedding under id, replacing any previous entry.
func (s *SQLiteStore) Put(ctx context.Context, id string, embedding [][]float32) error {
	tokens := len(embedding)
	dimensions := 0
	if tokens > 0 {
		dimensions = len(embedding[0])
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO embeddings (id, tokens, dimensions, vectors, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		id, tokens, dimensions, encodeVectors(embedding, dimensions), time.Now(),
	)
	return err
}

// Delete removes the embedding stored under id, if any.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM embeddings WHERE id = ?`, id)
	return err
}

// Count returns the number of stored embeddings.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings`).Scan(&n)
	return n, err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// encodeVectors flattens rows into a little-endian float32 blob.
func encodeVectors(embedding [][]float32, dimensions int) []byte {
	buf := make([]byte, 0, len(embedding)*dimensions*4)
	for _, row := range embedding {
		for _, v := range row {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}
	return buf
}

func decodeVectors(blob []byte, tokens, dimensions int) ([][]float32, error) {
	if len(blob) != tokens*dimensions*4 {
		return nil, fmt.Errorf("blob is %d bytes, want %d", len(blob), tokens*dimensions*4)
	}
	emb := make([][]float32, tokens)
	pos := 0
	for i := range emb {
		row := make([]float32, dimensions)
		for j := range row {
			row[j] = math.Float32frombits(binary.LittleEndian.Uint32(blob[pos:]))
			pos += 4
		}
		emb[i] = row
	}
	return emb, nil
}
