package cookiestate

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
)

// keyringService is the service name API keys are filed under in the OS
// keyring.
const keyringService = "cookiestate"

// ErrNoKeyringKey is returned when neither the environment nor the OS
// keyring holds an API key for a provider.
var ErrNoKeyringKey = errors.New("cookiestate: no API key in env or keyring")

// KeyringAPIKey returns the API key for a provider from outside the
// cookie layer. An environment override (COOKIESTATE_API_KEY_<PROVIDER>)
// is consulted first so CI and scripted runs stay deterministic; the OS
// keyring is consulted second and may prompt the user.
func KeyringAPIKey(provider string) (string, error) {
	if override := strings.TrimSpace(os.Getenv(envKeyAPIKey(provider))); override != "" {
		return override, nil
	}

	secret, err := keyring.Get(keyringService, provider)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoKeyringKey
		}
		return "", err
	}
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return "", ErrNoKeyringKey
	}
	return secret, nil
}

// keyringAPIKeyTimeout bounds KeyringAPIKey, which may block on a keyring
// prompt. The underlying lookup cannot be interrupted; on timeout it is
// abandoned and its eventual result discarded.
func keyringAPIKeyTimeout(ctx context.Context, provider string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type lookup struct {
		secret string
		err    error
	}
	ch := make(chan lookup, 1)
	go func() {
		secret, err := KeyringAPIKey(provider)
		ch <- lookup{secret: secret, err: err}
	}()

	select {
	case r := <-ch:
		return r.secret, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// SetKeyringAPIKey stores a provider's API key in the OS keyring.
func SetKeyringAPIKey(provider, secret string) error {
	return keyring.Set(keyringService, provider, secret)
}

// DeleteKeyringAPIKey removes a provider's API key from the OS keyring.
// Deleting a missing key is not an error.
func DeleteKeyringAPIKey(provider string) error {
	err := keyring.Delete(keyringService, provider)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// envKeyAPIKey maps a provider name to its environment override variable,
// uppercasing and replacing anything outside [A-Z0-9] with "_".
func envKeyAPIKey(provider string) string {
	var b strings.Builder
	b.WriteString("COOKIESTATE_API_KEY_")
	for _, r := range strings.ToUpper(provider) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
