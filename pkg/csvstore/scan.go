package csvstore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

type Summary struct {
	Path        string
	Exists      bool
	HeaderValid bool
	Header      []string
	Rows        []Record
	// Malformed counts data lines whose column count differs from Header.
	Malformed int
}

func (s Summary) RowCount() int {
	return len(s.Rows)
}

// Scan reads the whole file back. A leading UTF-8 byte order mark, as added
// by some spreadsheet tools on save, is ignored. encoding/csv reads a CRLF
// inside a quoted field as LF, so such values come back with "\n" where
// "\r\n" was written; the bytes on disk are unchanged. Scan holds the append
// lock and stops with ctx's error when ctx ends mid-file.
func (s *Store) Scan(ctx context.Context) (*Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mu := locationLock(s.key)
	mu.Lock()
	defer mu.Unlock()

	summary := &Summary{Path: s.path}

	f, err := s.fs.open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return summary, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csvstore: open %s: %w", s.path, err)
	}
	defer f.Close()

	summary.Exists = true

	reader := csv.NewReader(transform.NewReader(f, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	reader.FieldsPerRecord = -1

	first := true
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csvstore: parse %s: %w", s.path, err)
		}

		if first {
			first = false
			summary.Header = row
			summary.HeaderValid = isCanonicalHeader(row)
			if summary.HeaderValid {
				continue
			}
		}

		record, ok := recordFromRow(row)
		if !ok {
			summary.Malformed++
			continue
		}
		summary.Rows = append(summary.Rows, record)
	}

	return summary, nil
}
