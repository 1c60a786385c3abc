//go:build unix

package cookiestate

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// probeFileLock asks the kernel whether a write lock on the whole file
// would block, via fcntl(F_GETLK). SQLite uses POSIX record locks, so a
// held SQLite write lock is visible here. The probe itself takes no lock.
func probeFileLock(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	lk := unix.Flock_t{
		Type:   unix.F_WRLCK,
		Whence: int16(io.SeekStart),
	}
	if err := unix.FcntlFlock(f.Fd(), unix.F_GETLK, &lk); err != nil {
		return false
	}
	return lk.Type != unix.F_UNLCK
}
