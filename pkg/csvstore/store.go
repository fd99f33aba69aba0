package csvstore

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Store appends records to a single CSV file, writing Header exactly once
// when the file has no content yet.
type Store struct {
	path string
	dir  string
	key  string
	fs   fileSystem
}

// locations holds one mutex per absolute file path, shared by every Store in
// the process that points at the same file.
var locations sync.Map

func locationLock(key string) *sync.Mutex {
	mu, _ := locations.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func New(path string) *Store {
	cleaned := filepath.Clean(path)

	key, err := filepath.Abs(cleaned)
	if err != nil {
		key = cleaned
	}

	return &Store{
		path: path,
		dir:  filepath.Dir(cleaned),
		key:  key,
		fs:   osFileSystem(),
	}
}

// Path returns the location as it was configured, which may be relative.
func (s *Store) Path() string {
	return s.path
}

// EnsureReady verifies the containing directory exists and is writable,
// creating it when absent.
func (s *Store) EnsureReady(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := s.fs.stat(s.dir)
	switch {
	case err == nil && !info.IsDir():
		return newError(KindDirectoryCreateFailed, DetailDirectoryCreateFailed, s.dir, fmt.Errorf("%s exists and is not a directory", s.dir))
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		if mkErr := s.fs.mkdirAll(s.dir, dirPerm); mkErr != nil {
			return newError(KindDirectoryCreateFailed, DetailDirectoryCreateFailed, s.dir, mkErr)
		}
	default:
		return newError(KindDirectoryCreateFailed, DetailDirectoryCreateFailed, s.dir, err)
	}

	if !s.fs.writable(s.dir) {
		return newError(KindDirectoryUnwritable, DetailDirectoryUnwritable, s.dir, nil)
	}

	return nil
}

// CheckWritable reports whether an append could succeed right now without
// creating anything. A missing directory passes when its nearest existing
// ancestor is a writable directory.
func (s *Store) CheckWritable(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := s.fs.stat(s.dir)
	switch {
	case err == nil && !info.IsDir():
		return newError(KindDirectoryCreateFailed, DetailDirectoryCreateFailed, s.dir, fmt.Errorf("%s exists and is not a directory", s.dir))
	case err == nil:
		if !s.fs.writable(s.dir) {
			return newError(KindDirectoryUnwritable, DetailDirectoryUnwritable, s.dir, nil)
		}
	case errors.Is(err, fs.ErrNotExist):
		return s.checkCreatable()
	default:
		return newError(KindDirectoryCreateFailed, DetailDirectoryCreateFailed, s.dir, err)
	}

	info, err = s.fs.stat(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return newError(KindOpenFailed, DetailOpenFailed, s.path, err)
	case info.IsDir() || !s.fs.writable(s.path):
		return newError(KindFileUnwritable, DetailFileUnwritable, s.path, nil)
	}
	return nil
}

// checkCreatable walks up from the missing store directory to the first
// path that exists.
func (s *Store) checkCreatable() error {
	for dir := filepath.Dir(s.dir); ; dir = filepath.Dir(dir) {
		info, err := s.fs.stat(dir)
		switch {
		case err == nil && !info.IsDir():
			return newError(KindDirectoryCreateFailed, DetailDirectoryCreateFailed, s.dir, fmt.Errorf("%s exists and is not a directory", dir))
		case err == nil && !s.fs.writable(dir):
			return newError(KindDirectoryCreateFailed, DetailDirectoryCreateFailed, s.dir, fmt.Errorf("%s is not writable", dir))
		case err == nil:
			return nil
		case !errors.Is(err, fs.ErrNotExist):
			return newError(KindDirectoryCreateFailed, DetailDirectoryCreateFailed, s.dir, err)
		}
		if parent := filepath.Dir(dir); parent == dir {
			return newError(KindDirectoryCreateFailed, DetailDirectoryCreateFailed, s.dir, fmt.Errorf("no existing ancestor of %s", s.dir))
		}
	}
}

// Append writes record as one CSV line, preceded by Header when the file is
// new or empty. On failure nothing written by this call is left behind.
func (s *Store) Append(ctx context.Context, record Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mu := locationLock(s.key)
	mu.Lock()
	defer mu.Unlock()

	_, statErr := s.fs.stat(s.path)
	exists := statErr == nil
	if statErr != nil && !errors.Is(statErr, fs.ErrNotExist) {
		return newError(KindOpenFailed, DetailOpenFailed, s.path, statErr)
	}

	if exists && !s.fs.writable(s.path) {
		return newError(KindFileUnwritable, DetailFileUnwritable, s.path, nil)
	}

	if !s.fs.writable(s.dir) {
		return newError(KindDirectoryUnwritable, DetailDirectoryUnwritable, s.dir, nil)
	}

	f, err := s.fs.openFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return newError(KindOpenFailed, DetailOpenFailed, s.path, err)
	}
	defer f.Close()

	unlock, err := lockHandle(f)
	if err != nil {
		return newError(KindOpenFailed, DetailOpenFailed, s.path, err)
	}
	defer unlock()

	// Size is read under both locks so the header decision cannot race
	// another writer's first append.
	info, err := f.Stat()
	if err != nil {
		return newError(KindOpenFailed, DetailOpenFailed, s.path, err)
	}
	committed := info.Size()

	if committed == 0 {
		if err := writeLine(f, Header); err != nil {
			return s.rollback(f, committed, newError(KindWriteFailed, DetailHeaderWriteFailed, s.path, err))
		}
	}

	if err := writeLine(f, record.CSVRow()); err != nil {
		return s.rollback(f, committed, newError(KindWriteFailed, DetailRowWriteFailed, s.path, err))
	}

	if err := f.Sync(); err != nil {
		return s.rollback(f, committed, newError(KindWriteFailed, DetailRowWriteFailed, s.path, err))
	}

	return nil
}

func (s *Store) rollback(f appendFile, size int64, cause *Error) error {
	if err := f.Truncate(size); err != nil {
		cause.Err = errors.Join(cause.Err, fmt.Errorf("truncate to %d: %w", size, err))
	}
	return cause
}

func writeLine(w io.Writer, fields []string) error {
	line, err := encodeLine(fields)
	if err != nil {
		return err
	}

	n, err := w.Write(line)
	if err != nil {
		return err
	}
	if n != len(line) {
		return io.ErrShortWrite
	}
	return nil
}

func encodeLine(fields []string) ([]byte, error) {
	var buf bytes.Buffer

	w := csv.NewWriter(&buf)
	if err := w.Write(fields); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
