package cookiestate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrNoSource is returned when Load has nothing to read from.
var ErrNoSource = errors.New("cookiestate: Header, StorePath, or Providers required")

// Load gathers provider API keys and settings from the configured sources
// and returns a filtered, merged result.
//
// Sources are consulted in priority order; the first source to define a
// provider wins for that provider. Source failures become Warnings, never
// errors — the only error Load returns is ErrNoSource for an unusable
// Options value.
func Load(ctx context.Context, opts Options) (Result, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	if opts.Mode == "" {
		opts.Mode = ModeMerge
	}
	names := opts.Names.withDefaults()

	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	if opts.Header == "" && opts.StorePath == "" && len(opts.Providers) == 0 {
		return Result{}, ErrNoSource
	}

	var allowlist map[string]struct{}
	if len(opts.Providers) > 0 {
		allowlist = make(map[string]struct{}, len(opts.Providers))
		for _, provider := range opts.Providers {
			provider = strings.TrimSpace(provider)
			if provider == "" {
				continue
			}
			allowlist[provider] = struct{}{}
		}
	}

	sources := opts.Sources
	if len(sources) == 0 {
		sources = DefaultSources()
	}
	sources = slices.Compact(sources)

	res := Result{
		APIKeys:  make(map[string]string),
		Settings: make(map[string]RawSettings),
	}

	for _, src := range sources {
		keys, settings, warnings := readFromSource(ctx, src, names, opts, log)
		res.Warnings = append(res.Warnings, warnings...)

		mergeMissing(res.APIKeys, filterProviders(allowlist, keys))
		mergeMissing(res.Settings, filterProviders(allowlist, settings))

		if opts.Mode == ModeFirst && (len(res.APIKeys) > 0 || len(res.Settings) > 0) {
			return res, nil
		}
	}

	return res, nil
}

func readFromSource(ctx context.Context, src Source, names CookieNames, opts Options, log zerolog.Logger) (map[string]string, map[string]RawSettings, []string) {
	switch src {
	case SourceHeader:
		return readHeaderSource(names, opts, log)
	case SourceStore:
		return readStoreSource(ctx, names, opts, log)
	case SourceKeyring:
		return readKeyringSource(ctx, opts)
	case SourceEnv:
		return readEnvSource(opts)
	default:
		return nil, nil, []string{fmt.Sprintf("cookiestate: unsupported source %q", src)}
	}
}

func readHeaderSource(names CookieNames, opts Options, log zerolog.Logger) (map[string]string, map[string]RawSettings, []string) {
	if opts.Header == "" {
		return nil, nil, nil
	}
	accessor := NewAccessor(AccessorOptions{
		Names:   names,
		SealKey: opts.SealKey,
		Logger:  &log,
	})
	return accessor.APIKeys(opts.Header), accessor.ProviderSettings(opts.Header), nil
}

func readStoreSource(ctx context.Context, names CookieNames, opts Options, log zerolog.Logger) (map[string]string, map[string]RawSettings, []string) {
	if opts.StorePath == "" {
		return nil, nil, nil
	}
	if !fileExists(opts.StorePath) {
		return nil, nil, []string{fmt.Sprintf("cookiestate: state store %q not found", opts.StorePath)}
	}

	state, warnings, err := ReadStoreSnapshot(ctx, opts.StorePath)
	if err != nil {
		return nil, nil, append(warnings, fmt.Sprintf("cookiestate: failed to read state store: %v", err))
	}

	var keys map[string]string
	if raw, ok := openStateValue(opts.SealKey, state, names.APIKeys, log); ok {
		keys = decodeObject[string](log, names.APIKeys, raw)
	}
	var settings map[string]RawSettings
	if raw, ok := openStateValue(opts.SealKey, state, names.ProviderSettings, log); ok {
		settings = decodeObject[RawSettings](log, names.ProviderSettings, raw)
	}
	return keys, settings, warnings
}

// openStateValue looks a key up in a state snapshot and unseals it when a
// seal key is configured and the value carries the seal prefix.
func openStateValue(sealKey []byte, state map[string]string, key string, log zerolog.Logger) (string, bool) {
	raw, ok := state[key]
	if !ok {
		return "", false
	}
	if len(sealKey) > 0 && strings.HasPrefix(raw, sealPrefix) {
		plain, err := OpenValue(sealKey, raw)
		if err != nil {
			log.Warn().Str("key", key).Err(err).Msg("failed to open sealed state value")
			return "", false
		}
		return plain, true
	}
	return raw, true
}

func readKeyringSource(ctx context.Context, opts Options) (map[string]string, map[string]RawSettings, []string) {
	if len(opts.Providers) == 0 {
		return nil, nil, []string{"cookiestate: keyring source requires Providers"}
	}

	keys := make(map[string]string)
	var warnings []string
	for _, provider := range opts.Providers {
		secret, err := keyringAPIKeyTimeout(ctx, provider, opts.Timeout)
		if err != nil {
			if !errors.Is(err, ErrNoKeyringKey) {
				warnings = append(warnings, fmt.Sprintf("cookiestate: keyring lookup for %q: %v", provider, err))
			}
			continue
		}
		keys[provider] = secret
	}
	return keys, nil, warnings
}

func readEnvSource(opts Options) (map[string]string, map[string]RawSettings, []string) {
	if len(opts.Providers) == 0 {
		return nil, nil, []string{"cookiestate: env source requires Providers"}
	}

	keys := make(map[string]string)
	for _, provider := range opts.Providers {
		if secret := strings.TrimSpace(os.Getenv(envKeyAPIKey(provider))); secret != "" {
			keys[provider] = secret
		}
	}
	return keys, nil, nil
}

// filterProviders drops entries outside the allowlist. A nil allowlist
// keeps everything.
func filterProviders[V any](allow map[string]struct{}, m map[string]V) map[string]V {
	if allow == nil || len(m) == 0 {
		return m
	}
	out := make(map[string]V, len(m))
	for provider, v := range m {
		if _, ok := allow[provider]; ok {
			out[provider] = v
		}
	}
	return out
}

// mergeMissing copies entries from src that dst does not define yet, so
// earlier sources keep precedence.
func mergeMissing[V any](dst, src map[string]V) {
	for provider, v := range src {
		if _, ok := dst[provider]; ok {
			continue
		}
		dst[provider] = v
	}
}
