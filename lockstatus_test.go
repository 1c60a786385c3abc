package cookiestate

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStoreLockStatus_Missing(t *testing.T) {
	status := StoreLockStatus(filepath.Join(t.TempDir(), "absent.db"))
	if status.Exists || status.Locked || status.HasSidecars {
		t.Fatalf("unexpected status: %#v", status)
	}
}

func TestStoreLockStatus_PlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	status := StoreLockStatus(path)
	if !status.Exists {
		t.Fatalf("want Exists: %#v", status)
	}
	if status.Locked {
		t.Fatalf("nobody holds a lock: %#v", status)
	}
	if status.HasSidecars {
		t.Fatalf("no sidecars present: %#v", status)
	}
}

func TestStoreLockStatus_Sidecars(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.db")
	for _, p := range []string{path, path + "-wal"} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	status := StoreLockStatus(path)
	if !status.Exists || !status.HasSidecars {
		t.Fatalf("unexpected status: %#v", status)
	}
}

func TestStoreLockStatus_Directory(t *testing.T) {
	status := StoreLockStatus(t.TempDir())
	if status.Exists {
		t.Fatalf("directories are not stores: %#v", status)
	}
}
