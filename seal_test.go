package cookiestate

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func TestDeriveSealKey_Deterministic(t *testing.T) {
	a := DeriveSealKey("pass", []byte("salt"))
	b := DeriveSealKey("pass", []byte("salt"))
	if !bytes.Equal(a, b) {
		t.Fatalf("same inputs must derive the same key")
	}
	if len(a) != sealKeyLen {
		t.Fatalf("want %d-byte key got %d", sealKeyLen, len(a))
	}

	c := DeriveSealKey("pass", []byte("other"))
	if bytes.Equal(a, c) {
		t.Fatalf("different salts must derive different keys")
	}
}

func TestSealValue_RoundTrip(t *testing.T) {
	key := DeriveSealKey("pass", []byte("salt"))
	sealed, err := SealValue(key, `{"OpenAI":"sk-1"}`)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(sealed, sealPrefix) {
		t.Fatalf("missing prefix: %q", sealed)
	}

	plain, err := OpenValue(key, sealed)
	if err != nil {
		t.Fatal(err)
	}
	if plain != `{"OpenAI":"sk-1"}` {
		t.Fatalf("got %q", plain)
	}
}

func TestSealValue_RandomNonce(t *testing.T) {
	key := DeriveSealKey("pass", []byte("salt"))
	a, err := SealValue(key, "same")
	if err != nil {
		t.Fatal(err)
	}
	b, err := SealValue(key, "same")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatalf("sealing must not be deterministic")
	}
}

func TestOpenValue_NotSealed(t *testing.T) {
	key := DeriveSealKey("pass", []byte("salt"))
	if _, err := OpenValue(key, "plain value"); !errors.Is(err, ErrNotSealed) {
		t.Fatalf("want ErrNotSealed got %v", err)
	}
}

func TestOpenValue_BadEncoding(t *testing.T) {
	key := DeriveSealKey("pass", []byte("salt"))
	if _, err := OpenValue(key, sealPrefix+"!!!not base64!!!"); err == nil {
		t.Fatalf("want error")
	}
}

func TestOpenValue_TooShort(t *testing.T) {
	key := DeriveSealKey("pass", []byte("salt"))
	short := sealPrefix + base64.RawURLEncoding.EncodeToString([]byte("tiny"))
	if _, err := OpenValue(key, short); err == nil {
		t.Fatalf("want error")
	}
}

func TestOpenValue_Tampered(t *testing.T) {
	key := DeriveSealKey("pass", []byte("salt"))
	sealed, err := SealValue(key, "secret")
	if err != nil {
		t.Fatal(err)
	}

	payload, err := base64.RawURLEncoding.DecodeString(sealed[len(sealPrefix):])
	if err != nil {
		t.Fatal(err)
	}
	payload[len(payload)-1] ^= 0xff
	tampered := sealPrefix + base64.RawURLEncoding.EncodeToString(payload)

	if _, err := OpenValue(key, tampered); err == nil {
		t.Fatalf("want authentication failure")
	}
}

func TestOpenValue_WrongKey(t *testing.T) {
	key := DeriveSealKey("pass", []byte("salt"))
	sealed, err := SealValue(key, "secret")
	if err != nil {
		t.Fatal(err)
	}

	other := DeriveSealKey("wrong", []byte("salt"))
	if _, err := OpenValue(other, sealed); err == nil {
		t.Fatalf("want authentication failure")
	}
}

func TestSealValue_BadKeyLength(t *testing.T) {
	if _, err := SealValue([]byte("short"), "x"); err == nil {
		t.Fatalf("want error for bad key length")
	}
}
