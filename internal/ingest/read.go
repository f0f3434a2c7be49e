// Package ingest reads the raw tabular sources and validates them against
// their required-column schemas before any transformation runs.
package ingest

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Table is a raw tabular source held in memory: a header plus string rows.
// The pipeline is a full-batch recompute, so sources are read once per run.
type Table struct {
	Source string
	Header []string
	Rows   [][]string
}

// ReadTable reads a delimited-text source from path. The file may be a plain
// CSV or a zip archive containing a single CSV.
func ReadTable(path string) (*Table, error) {
	rc, err := openSource(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r := csv.NewReader(rc)
	r.FieldsPerRecord = -1 // ragged rows are handled per-row by validation
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("reading %s: empty source", path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s header: %w", path, err)
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		rows = append(rows, row)
	}

	t := &Table{Source: filepath.Base(path), Header: header, Rows: rows}
	log.Info().Str("source", t.Source).Int("rows", len(t.Rows)).Msg("source loaded")
	return t, nil
}

// openSource opens path for reading, unwrapping a single-file zip archive.
func openSource(path string) (io.ReadCloser, error) {
	if !strings.HasSuffix(path, ".zip") {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening source: %w", err)
		}
		return f, nil
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", path, err)
	}
	if len(zr.File) == 0 {
		zr.Close()
		return nil, fmt.Errorf("archive %s is empty", path)
	}
	inner, err := zr.File[0].Open()
	if err != nil {
		zr.Close()
		return nil, fmt.Errorf("opening %s in %s: %w", zr.File[0].Name, path, err)
	}
	return &zipEntryReader{inner: inner, archive: zr}, nil
}

type zipEntryReader struct {
	inner   io.ReadCloser
	archive *zip.ReadCloser
}

func (z *zipEntryReader) Read(p []byte) (int, error) { return z.inner.Read(p) }

func (z *zipEntryReader) Close() error {
	if err := z.inner.Close(); err != nil {
		z.archive.Close()
		return err
	}
	return z.archive.Close()
}
