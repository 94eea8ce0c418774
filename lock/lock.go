package lock

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// DefaultPath is the well-known lock file guarding concurrent runs.
const DefaultPath = "/run/lock/sigpatch.lock"

// ErrHeld means another process holds the lock. Callers treat this as
// "nothing to do" and exit successfully.
var ErrHeld = errors.New("lock is held by another process")

// Lock is an exclusive advisory flock on a file. Mutual exclusion keys off
// the flock itself, not file presence, so a stale file left by a crashed
// run does not block acquisition.
type Lock struct {
	path string
	file *os.File
}

// Acquire opens or creates the lock file and takes a non-blocking exclusive
// lock on it. Returns ErrHeld when the lock is unavailable.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create lock directory for %s", path)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open lock file %s", path)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, ErrHeld
		}
		return nil, errors.Wrapf(err, "failed to lock %s", path)
	}

	return &Lock{path: path, file: f}, nil
}

// Release drops the lock, closes the file, and removes it. Removal failures
// are ignored; the flock is gone either way. Safe to call more than once.
func (l *Lock) Release() {
	if l == nil || l.file == nil {
		return
	}
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	_ = l.file.Close()
	_ = os.Remove(l.path)
	l.file = nil
}
