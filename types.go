package cookiestate

import (
	"time"

	"github.com/rs/zerolog"
)

// Source identifies where provider state is read from.
type Source string

const (
	// SourceHeader reads the raw Cookie header passed in Options.
	SourceHeader Source = "header"
	// SourceStore reads a local state store file (snapshot, read-only).
	SourceStore Source = "store"
	// SourceKeyring reads provider API keys from the OS keyring.
	SourceKeyring Source = "keyring"
	// SourceEnv reads provider API keys from environment variables.
	SourceEnv Source = "env"
)

// Mode controls how results from multiple sources are combined.
type Mode string

const (
	// ModeMerge consults every source; the first source to define a
	// provider wins for that provider.
	ModeMerge Mode = "merge"
	// ModeFirst returns once at least one source yields data.
	ModeFirst Mode = "first"
)

// CookieNames holds the cookie names the typed accessors read. The names
// are configuration, not protocol.
type CookieNames struct {
	// APIKeys names the cookie carrying a JSON object of
	// provider-name → API-key-string pairs.
	APIKeys string

	// ProviderSettings names the cookie carrying a JSON object of
	// provider-name → settings-object pairs.
	ProviderSettings string
}

// DefaultCookieNames returns the conventional cookie names.
func DefaultCookieNames() CookieNames {
	return CookieNames{
		APIKeys:          "apiKeys",
		ProviderSettings: "providerSettings",
	}
}

func (n CookieNames) withDefaults() CookieNames {
	defaults := DefaultCookieNames()
	if n.APIKeys == "" {
		n.APIKeys = defaults.APIKeys
	}
	if n.ProviderSettings == "" {
		n.ProviderSettings = defaults.ProviderSettings
	}
	return n
}

// Options configures Load.
type Options struct {
	// Header is the raw Cookie header content, if any.
	Header string

	// Names overrides the cookie names read by the header and store
	// sources. Zero fields fall back to DefaultCookieNames.
	Names CookieNames

	// Providers is an allowlist of provider names (empty means "all").
	// It is also the enumeration basis for the keyring and env sources,
	// which cannot list providers on their own.
	Providers []string

	// Sources is a priority list. If empty, DefaultSources() is used.
	Sources []Source

	// Mode controls how multiple sources are combined.
	Mode Mode

	// StorePath is the local state store consulted by SourceStore.
	StorePath string

	// SealKey, when set, lets the header source open sealed ("s1:")
	// cookie values before decoding them.
	SealKey []byte

	// Timeout bounds OS keyring calls.
	Timeout time.Duration

	// Logger receives diagnostics for recoverable failures. Nil means
	// no diagnostics.
	Logger *zerolog.Logger
}

// Result is returned by Load.
type Result struct {
	// APIKeys maps provider name to API-key string.
	APIKeys map[string]string

	// Settings maps provider name to its raw settings object.
	Settings map[string]RawSettings

	// Warnings describe sources that were skipped or failed.
	Warnings []string
}

// DefaultSources returns the default source priority order.
func DefaultSources() []Source {
	return []Source{SourceHeader, SourceStore, SourceKeyring, SourceEnv}
}
