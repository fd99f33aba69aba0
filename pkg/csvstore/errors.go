package csvstore

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindDirectoryUnwritable   Kind = "DIRECTORY_UNWRITABLE"
	KindDirectoryCreateFailed Kind = "DIRECTORY_CREATE_FAILED"
	KindFileUnwritable        Kind = "FILE_UNWRITABLE"
	KindOpenFailed            Kind = "OPEN_FAILED"
	KindWriteFailed           Kind = "WRITE_FAILED"
)

const (
	DetailDirectoryUnwritable   = "Media directory is not writable"
	DetailDirectoryCreateFailed = "Failed to create media directory"
	DetailFileUnwritable        = "CSV file is not writable"
	DetailOpenFailed            = "Could not open file for writing. Check permissions."
	DetailHeaderWriteFailed     = "Failed to write CSV headers"
	DetailRowWriteFailed        = "Failed to write CSV data"
)

// Error is returned for every storage failure. Detail is safe to show to
// clients; Err holds the OS-level cause and belongs in logs only.
type Error struct {
	Kind   Kind
	Detail string
	Path   string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("csvstore: %s (%s): %v", e.Detail, e.Path, e.Err)
	}
	return fmt.Sprintf("csvstore: %s (%s)", e.Detail, e.Path)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, detail, path string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Path: path, Err: err}
}

// KindOf returns the storage failure kind of err, or "" if err is not a storage error.
func KindOf(err error) Kind {
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
