package memo

import (
	"bytes"
	"database/sql"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// stateSchemaVersion stamps the on-disk layout. Load rejects files written
// with a different version: derived artifacts are always recomputable, so no
// migration is attempted.
const stateSchemaVersion = 1

// ErrIncompatibleState reports a state file written by an incompatible
// version. The caller falls back to recomputation.
var ErrIncompatibleState = errors.New("incompatible analyzer state file")

const createStateSQL = `
CREATE TABLE entries (
	key        TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	created_at TEXT NOT NULL
)`

// payload wraps the artifact so gob can encode the interface value. Concrete
// artifact types register themselves with gob in their owning package.
type payload struct {
	Value any
}

// Save serializes the cache state to a SQLite file at path. The write goes
// to a temporary file that is renamed into place after a clean close, so a
// failed save never leaves a partial file a later Load would accept.
func (c *Cache) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	tmp := path + ".tmp"
	os.Remove(tmp)

	if err := c.saveTo(tmp); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("publishing state file: %w", err)
	}

	log.Info().Str("path", path).Int("entries", c.Len()).Msg("analyzer state saved")
	return nil
}

func (c *Cache) saveTo(path string) error {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("creating state file: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Exec(createStateSQL); err != nil {
		return fmt.Errorf("creating state schema: %w", err)
	}
	if _, err := conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", stateSchemaVersion)); err != nil {
		return fmt.Errorf("stamping state version: %w", err)
	}

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning state write: %w", err)
	}
	stmt, err := tx.Prepare("INSERT INTO entries (key, payload, created_at) VALUES (?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing state insert: %w", err)
	}

	// Keys() iterates oldest to newest, which preserves recency order when
	// Load replays the entries.
	for _, key := range c.entries.Keys() {
		entry, ok := c.entries.Peek(key)
		if !ok {
			continue
		}
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(payload{Value: entry.Value}); err != nil {
			stmt.Close()
			tx.Rollback()
			return fmt.Errorf("encoding entry %s: %w", key, err)
		}
		if _, err := stmt.Exec(key, buf.Bytes(), entry.CreatedAt.Format(time.RFC3339Nano)); err != nil {
			stmt.Close()
			tx.Rollback()
			return fmt.Errorf("writing entry %s: %w", key, err)
		}
	}
	stmt.Close()

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing state: %w", err)
	}
	return nil
}

// Load restores cache state from a file written by Save, replacing the
// current entries. A missing, corrupt, or version-incompatible file returns
// an error and leaves the cache unchanged.
func (c *Cache) Load(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("state file not found: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening state file: %w", err)
	}
	defer conn.Close()

	var version int
	if err := conn.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading state version: %w", err)
	}
	if version != stateSchemaVersion {
		return fmt.Errorf("state file %s has version %d, want %d: %w",
			path, version, stateSchemaVersion, ErrIncompatibleState)
	}

	// Insertion order is recency order; replaying oldest first restores it.
	rows, err := conn.Query("SELECT key, payload, created_at FROM entries ORDER BY rowid")
	if err != nil {
		return fmt.Errorf("reading state entries: %w", err)
	}
	defer rows.Close()

	type loaded struct {
		key   string
		entry Entry
	}
	var restored []loaded
	for rows.Next() {
		var key, createdAt string
		var blob []byte
		if err := rows.Scan(&key, &blob, &createdAt); err != nil {
			return fmt.Errorf("scanning state entry: %w", err)
		}
		var p payload
		if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&p); err != nil {
			return fmt.Errorf("decoding entry %s: %w", key, err)
		}
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return fmt.Errorf("parsing entry %s timestamp: %w", key, err)
		}
		restored = append(restored, loaded{key: key, entry: Entry{Value: p.Value, CreatedAt: ts}})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading state entries: %w", err)
	}

	c.entries.Purge()
	for _, l := range restored {
		c.entries.Add(l.key, l.entry)
	}

	log.Info().Str("path", path).Int("entries", len(restored)).Msg("analyzer state loaded")
	return nil
}
