package catalog

import (
	"os"

	"golang.org/x/sys/unix"

	vecerr "github.com/rdmurugan/d-vecDB/pkg/errors"
)

// lockFile holds an advisory, exclusive OS lock on a data directory so
// a second daemon process started against the same directory fails
// fast instead of corrupting the registry and collection files.
type lockFile struct {
	f *os.File
}

func acquireLock(path string) (*lockFile, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, vecerr.Wrap(vecerr.KindStoreIoError, "catalog.acquireLock", "failed to open lock file", err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, vecerr.Wrap(vecerr.KindCollectionUnavailable, "catalog.acquireLock", "data directory is locked by another process", err)
	}
	return &lockFile{f: f}, nil
}

func (l *lockFile) release() error {
	if err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN); err != nil {
		l.f.Close()
		return err
	}
	return l.f.Close()
}
