package csvstore

import (
	"io"
	"io/fs"
	"os"
)

const (
	dirPerm  fs.FileMode = 0o755
	filePerm fs.FileMode = 0o644
)

type appendFile interface {
	io.Writer
	io.Closer
	Stat() (fs.FileInfo, error)
	Truncate(size int64) error
	Sync() error
}

// fileSystem holds the OS calls the store makes. Tests swap individual
// functions to simulate permission and I/O failures regardless of the
// privileges the tests run with.
type fileSystem struct {
	stat     func(name string) (fs.FileInfo, error)
	mkdirAll func(path string, perm fs.FileMode) error
	writable func(path string) bool
	openFile func(name string, flag int, perm fs.FileMode) (appendFile, error)
	open     func(name string) (io.ReadCloser, error)
}

func osFileSystem() fileSystem {
	return fileSystem{
		stat:     os.Stat,
		mkdirAll: os.MkdirAll,
		writable: isWritable,
		openFile: func(name string, flag int, perm fs.FileMode) (appendFile, error) {
			return os.OpenFile(name, flag, perm)
		},
		open: func(name string) (io.ReadCloser, error) {
			return os.Open(name)
		},
	}
}
