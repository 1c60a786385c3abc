//go:build !unix

package cookiestate

// probeFileLock has no portable implementation here; LockStatus.Locked is
// always false on this platform.
func probeFileLock(string) bool { return false }
