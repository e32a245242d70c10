// Package cache is a content-addressed store of upstream responses.
//
// DESIGN: The cache key is a SHA-256 fingerprint of the request fields that
// influence the response text. Entries are immutable once written; a second
// store under the same fingerprint replaces the row. There is no TTL and no
// capacity bound; pruning is explicit via PruneOlderThan.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/sjson"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// Key holds the request fields that affect the response and therefore
// participate in the fingerprint.
type Key struct {
	Prompt      string
	Model       string
	Temperature float64
	System      string
	MaxTokens   int
}

// Response is the cached portion of an upstream result.
type Response struct {
	Text             string  `json:"text"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalCost        float64 `json:"total_cost"`
	Model            string  `json:"model"`
	LatencyMs        int64   `json:"latency_ms"`
}

// Entry is one cached response plus the instant it was stored.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Response  Response  `json:"response"`
}

// Fingerprint derives the deterministic cache key for a request. The
// canonical document is built field by field in a fixed order so that two
// logically identical requests always hash identically.
func Fingerprint(k Key) string {
	doc := "{}"
	doc, _ = sjson.Set(doc, "prompt", k.Prompt)
	doc, _ = sjson.Set(doc, "model", k.Model)
	doc, _ = sjson.Set(doc, "temperature", k.Temperature)
	doc, _ = sjson.Set(doc, "system", k.System)
	doc, _ = sjson.Set(doc, "max_tokens", k.MaxTokens)

	sum := sha256.Sum256([]byte(doc))
	return hex.EncodeToString(sum[:])
}

// Store is a SQLite-backed response cache.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache database at path and applies the
// schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache schema failed: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Lookup returns the entry under fingerprint, or ok=false when absent.
func (s *Store) Lookup(fingerprint string) (Entry, bool, error) {
	var payload string
	err := s.db.QueryRow(
		`SELECT payload FROM responses WHERE fingerprint = ?`, fingerprint,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("cache lookup failed: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal([]byte(payload), &entry); err != nil {
		return Entry{}, false, fmt.Errorf("cache entry corrupt: %w", err)
	}
	return entry, true, nil
}

// Put stores an entry under fingerprint, replacing any existing row.
func (s *Store) Put(fingerprint string, entry Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO responses (fingerprint, created_at, payload) VALUES (?, ?, ?)`,
		fingerprint, entry.Timestamp.UTC(), string(payload),
	)
	if err != nil {
		return fmt.Errorf("cache store failed: %w", err)
	}
	return nil
}

// PruneOlderThan deletes entries stored more than age ago and returns the
// number removed. Pruning is never automatic.
func (s *Store) PruneOlderThan(age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age).UTC()
	res, err := s.db.Exec(`DELETE FROM responses WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cache prune failed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cache prune failed: %w", err)
	}
	return n, nil
}
