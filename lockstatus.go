package cookiestate

import "os"

// LockStatus describes the lock state of a state store file.
type LockStatus struct {
	Path string

	// Exists reports whether the file exists.
	Exists bool

	// Locked reports whether another process holds a write lock on the
	// file. Always false on platforms without a lock probe.
	Locked bool

	// HasSidecars reports whether WAL/SHM sidecar files are present,
	// which usually means a writer has the store open in WAL mode.
	HasSidecars bool
}

// StoreLockStatus inspects the lock state of the state store at path
// without taking a lock of its own.
func StoreLockStatus(path string) LockStatus {
	status := LockStatus{Path: path}

	if !fileExists(path) {
		return status
	}
	status.Exists = true
	status.HasSidecars = fileExists(path+"-wal") || fileExists(path+"-shm")
	status.Locked = probeFileLock(path)
	return status
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !fi.IsDir()
}
