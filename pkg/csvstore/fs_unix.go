//go:build unix

package csvstore

import (
	"os"

	"golang.org/x/sys/unix"
)

func isWritable(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}

// lockHandle takes an exclusive advisory lock so writers in other processes
// sharing the same file are serialized too.
func lockHandle(f appendFile) (func(), error) {
	osFile, ok := f.(*os.File)
	if !ok {
		return func() {}, nil
	}

	fd := int(osFile.Fd())
	if err := unix.Flock(fd, unix.LOCK_EX); err != nil {
		return nil, err
	}

	return func() {
		_ = unix.Flock(fd, unix.LOCK_UN)
	}, nil
}
