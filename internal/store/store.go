// Package store persists the merged analysis table in a DuckDB file, a
// columnar format suited to the analytic scans the analyzer runs over it.
// The table is immutable once written and replaced wholesale on each run.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog/log"

	"github.com/nchevrel/marmithon/internal/etl"
)

const createAnalysisSQL = `
CREATE TABLE analysis (
	user_id       BIGINT NOT NULL,
	recipe_id     BIGINT NOT NULL,
	date          VARCHAR,
	rating        DOUBLE NOT NULL,
	review        VARCHAR NOT NULL,
	recipe_name   VARCHAR NOT NULL,
	minutes       BIGINT NOT NULL,
	n_steps       INTEGER NOT NULL,
	ingredients   VARCHAR,
	nutrition     VARCHAR,
	time_category VARCHAR NOT NULL
)`

// DB wraps a read-only connection to a persisted analysis table.
type DB struct {
	conn *sql.DB
	path string
}

// Open opens an existing analysis table for reading. A missing or corrupt
// file is an error; the caller treats it as "no cached data available" and
// rebuilds from the raw sources.
func Open(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("analysis table not found at %s: %w", path, err)
	}

	conn, err := sql.Open("duckdb", path+"?access_mode=read_only")
	if err != nil {
		return nil, fmt.Errorf("opening analysis table: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening analysis table: %w", err)
	}

	db := &DB{conn: conn, path: path}
	if err := db.verify(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// verify confirms the analysis table exists in the opened file.
func (db *DB) verify() error {
	var n int
	err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_name = 'analysis'",
	).Scan(&n)
	if err != nil {
		return fmt.Errorf("verifying analysis table: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("file %s holds no analysis table", db.path)
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the analysis table file path.
func (db *DB) Path() string {
	return db.path
}

// Write persists rows as the analysis table at path. The write is atomic from
// the caller's perspective: rows go to a temporary file that is renamed over
// the final path only after a clean close, so readers never observe a partial
// table.
func Write(path string, rows []etl.AnalysisRow) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating processed-data directory: %w", err)
	}

	tmp := path + ".tmp"
	// A leftover temp file from a failed run is stale by definition.
	os.Remove(tmp)

	if err := writeTable(tmp, rows); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("publishing analysis table: %w", err)
	}

	log.Info().Str("path", path).Int("rows", len(rows)).Msg("analysis table written")
	return nil
}

func writeTable(path string, rows []etl.AnalysisRow) error {
	conn, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("creating analysis table file: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Exec(createAnalysisSQL); err != nil {
		return fmt.Errorf("creating analysis table: %w", err)
	}

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning insert: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO analysis
			(user_id, recipe_id, date, rating, review, recipe_name,
			 minutes, n_steps, ingredients, nutrition, time_category)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing insert: %w", err)
	}

	for _, row := range rows {
		_, err := stmt.Exec(
			row.UserID, row.RecipeID, row.Date, row.Rating, row.Review,
			row.RecipeName, row.Minutes, row.NSteps,
			joinList(row.Ingredients), joinFloats(row.Nutrition),
			string(row.TimeCategory),
		)
		if err != nil {
			stmt.Close()
			tx.Rollback()
			return fmt.Errorf("inserting analysis row: %w", err)
		}
	}
	stmt.Close()

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing analysis rows: %w", err)
	}
	return nil
}
