package cookiestate

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := OpenStore(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, "theme", "dark"); err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.Get(ctx, "theme")
	if err != nil || !ok || got != "dark" {
		t.Fatalf("got %q ok=%v err=%v", got, ok, err)
	}

	// Overwrite.
	if err := s.Set(ctx, "theme", "light"); err != nil {
		t.Fatal(err)
	}
	got, _, _ = s.Get(ctx, "theme")
	if got != "light" {
		t.Fatalf("overwrite failed: %q", got)
	}

	if err := s.Delete(ctx, "theme"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get(ctx, "theme"); ok {
		t.Fatalf("key survived delete")
	}
	if err := s.Delete(ctx, "theme"); err != nil {
		t.Fatalf("deleting missing key: %v", err)
	}
}

func TestStore_Keys(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for _, key := range []string{"b", "a", "c"} {
		if err := s.Set(ctx, key, "1"); err != nil {
			t.Fatal(err)
		}
	}
	keys, err := s.Keys(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(keys, []string{"a", "b", "c"}) {
		t.Fatalf("got %v", keys)
	}
}

func TestStore_JSON(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	in := map[string]string{"OpenAI": "sk-1"}
	if err := s.SetJSON(ctx, "apiKeys", in); err != nil {
		t.Fatal(err)
	}

	var out map[string]string
	ok, err := s.GetJSON(ctx, "apiKeys", &out)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Fatalf("got %#v want %#v", out, in)
	}

	ok, err = s.GetJSON(ctx, "missing", &out)
	if err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, "broken", "{nope"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetJSON(ctx, "broken", &out); err == nil {
		t.Fatalf("want decode error")
	}
}

func TestStore_DebouncedLastWins(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	s.SetDebounced("draft", "v1")
	s.SetDebounced("draft", "v2")
	s.SetDebounced("other", "x")

	if err := s.Flush(ctx); err != nil {
		t.Fatal(err)
	}

	got, _, _ := s.Get(ctx, "draft")
	if got != "v2" {
		t.Fatalf("got %q want %q", got, "v2")
	}
	got, _, _ = s.Get(ctx, "other")
	if got != "x" {
		t.Fatalf("got %q", got)
	}
}

func TestStore_CloseFlushesAndIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := OpenStore(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}

	s.SetDebounced("draft", "v1")
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	reopened, err := OpenStore(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = reopened.Close() }()

	got, ok, err := reopened.Get(context.Background(), "draft")
	if err != nil || !ok || got != "v1" {
		t.Fatalf("staged write lost: got %q ok=%v err=%v", got, ok, err)
	}
}

func TestStore_SetDebouncedAfterClose(t *testing.T) {
	s := openTestStore(t)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	// Must not panic or schedule anything.
	s.SetDebounced("draft", "v1")
}

func TestReadStoreSnapshot(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := OpenStore(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s.Close() }()

	if err := s.Set(ctx, "apiKeys", `{"OpenAI":"sk-1"}`); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "theme", "dark"); err != nil {
		t.Fatal(err)
	}

	// Snapshot while the store is still open.
	state, warnings, err := ReadStoreSnapshot(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	want := map[string]string{"apiKeys": `{"OpenAI":"sk-1"}`, "theme": "dark"}
	if !reflect.DeepEqual(state, want) {
		t.Fatalf("got %#v want %#v", state, want)
	}
}

func TestReadStoreSnapshot_MissingFile(t *testing.T) {
	_, _, err := ReadStoreSnapshot(context.Background(), filepath.Join(t.TempDir(), "absent.db"))
	if err == nil {
		t.Fatalf("want error")
	}
}
