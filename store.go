package cookiestate

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"
	_ "modernc.org/sqlite" // SQLite driver (pure Go).
)

// storeDebounceWait is how long SetDebounced coalesces staged writes
// before flushing them.
const storeDebounceWait = 500 * time.Millisecond

// storeFlushTimeout bounds the background flush triggered by the debouncer.
const storeFlushTimeout = 5 * time.Second

// ErrStoreClosed is returned by Store methods after Close.
var ErrStoreClosed = errors.New("cookiestate: store is closed")

// Store is a SQLite-backed key/value state store. It plays the role a
// browser's localStorage plays client-side: small string state keyed by
// name, with JSON helpers for structured values.
//
// Writes can be staged with SetDebounced so bursts of state changes
// collapse into a single flush.
type Store struct {
	db   *sql.DB
	path string

	mu      sync.Mutex
	closed  bool
	pending map[string]string
	flush   func(func())
}

// OpenStore opens (creating if needed) a state store at path.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("cookiestate: create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+filepath.ToSlash(path)+"?mode=rwc")
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS state (key TEXT PRIMARY KEY, value TEXT NOT NULL)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cookiestate: create state table: %w", err)
	}

	return &Store{
		db:      db,
		path:    path,
		pending: make(map[string]string),
		flush:   debounce.New(storeDebounceWait),
	}, nil
}

// Path returns the store's file path.
func (s *Store) Path() string { return s.path }

// Get returns the value for key and whether it exists.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set writes key to value immediately.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO state (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	return err
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM state WHERE key = ?`, key)
	return err
}

// Keys returns all keys in the store, sorted by SQLite's default ordering.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM state ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		out = append(out, key)
	}
	return out, rows.Err()
}

// GetJSON decodes the JSON value stored under key into v. It reports
// whether the key exists.
func (s *Store) GetJSON(ctx context.Context, key string, v any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return ok, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return true, fmt.Errorf("cookiestate: decode %q: %w", key, err)
	}
	return true, nil
}

// SetJSON JSON-encodes v and writes it under key.
func (s *Store) SetJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cookiestate: encode %q: %w", key, err)
	}
	return s.Set(ctx, key, string(raw))
}

// SetDebounced stages a write and schedules a trailing flush. Repeated
// calls within the debounce window collapse into one flush; the last
// staged value per key wins. Use Flush to force staged writes out.
func (s *Store) SetDebounced(key, value string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.pending[key] = value
	s.mu.Unlock()

	s.flush(func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeFlushTimeout)
		defer cancel()
		_ = s.Flush(ctx)
	})
}

// Flush writes all staged values immediately.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	staged := s.pending
	s.pending = make(map[string]string)
	s.mu.Unlock()

	for key, value := range staged {
		if err := s.Set(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes staged writes and closes the store.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), storeFlushTimeout)
	defer cancel()
	flushErr := s.Flush(ctx)

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	if err := s.db.Close(); err != nil {
		return err
	}
	return flushErr
}

// ReadStoreSnapshot reads every key/value pair from a state store that may
// be open in another process. The store file and its WAL/SHM sidecars are
// copied to a temporary directory and read there, so the live store is
// never locked or mutated by the read.
func ReadStoreSnapshot(ctx context.Context, path string) (map[string]string, []string, error) {
	var warnings []string

	dir, err := os.MkdirTemp("", "cookiestate-store-")
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = os.RemoveAll(dir) }()

	target := filepath.Join(dir, "state.db")
	if err := copyFile(path, target); err != nil {
		warnings = append(warnings, fmt.Sprintf("cookiestate: failed to copy state store: %v", err))
		return nil, warnings, err
	}

	// With WAL mode enabled, recent writes may live in sidecars.
	_ = copyFileIfExists(path+"-wal", target+"-wal")
	_ = copyFileIfExists(path+"-shm", target+"-shm")

	db, err := sql.Open("sqlite", "file:"+filepath.ToSlash(target)+"?mode=ro")
	if err != nil {
		return nil, warnings, err
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, `SELECT key, value FROM state`)
	if err != nil {
		return nil, warnings, err
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, warnings, err
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, warnings, err
	}
	return out, warnings, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

func copyFileIfExists(src, dst string) error {
	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return copyFile(src, dst)
}
