package cookiestate

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	sealPrefix        = "s1:"
	sealKeyLen        = 32
	sealNonceLen      = 12
	sealKeyIterations = 4096
)

// ErrNotSealed is returned by OpenValue for values without the seal prefix.
var ErrNotSealed = errors.New("cookiestate: value is not sealed")

// DeriveSealKey derives a 32-byte seal key from a passphrase and salt via
// PBKDF2-SHA256. The same passphrase and salt always yield the same key.
func DeriveSealKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, sealKeyIterations, sealKeyLen, sha256.New)
}

// SealValue encrypts a cookie value with AES-GCM under key, using a random
// nonce. The output is "s1:" followed by base64url(nonce || ciphertext).
func SealValue(key []byte, plaintext string) (string, error) {
	aead, err := sealAEAD(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, sealNonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("cookiestate: nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealPrefix + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// OpenValue reverses SealValue. It fails for values without the seal
// prefix, truncated payloads, and authentication failures (tampering or a
// wrong key).
func OpenValue(key []byte, sealed string) (string, error) {
	if !strings.HasPrefix(sealed, sealPrefix) {
		return "", ErrNotSealed
	}

	payload, err := base64.RawURLEncoding.DecodeString(sealed[len(sealPrefix):])
	if err != nil {
		return "", fmt.Errorf("cookiestate: sealed value encoding: %w", err)
	}
	if len(payload) < sealNonceLen {
		return "", errors.New("cookiestate: sealed value too short")
	}

	aead, err := sealAEAD(key)
	if err != nil {
		return "", err
	}

	plain, err := aead.Open(nil, payload[:sealNonceLen], payload[sealNonceLen:], nil)
	if err != nil {
		return "", fmt.Errorf("cookiestate: open sealed value: %w", err)
	}
	return string(plain), nil
}

func sealAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cookiestate: seal key: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return aead, nil
}
