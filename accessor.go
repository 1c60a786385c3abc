package cookiestate

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"
)

// RawSettings is a single provider's settings object, kept as raw JSON.
// Callers consuming specific fields decode and validate them themselves.
type RawSettings = json.RawMessage

// AccessorOptions configures an Accessor.
type AccessorOptions struct {
	// Names overrides the cookie names. Zero fields fall back to
	// DefaultCookieNames.
	Names CookieNames

	// SealKey, when set, transparently opens sealed ("s1:") cookie
	// values before decoding.
	SealKey []byte

	// Logger receives diagnostics for decode and shape failures. Nil
	// means no diagnostics.
	Logger *zerolog.Logger
}

// Accessor extracts typed JSON-object cookies from raw Cookie headers.
// Every failure mode (missing cookie, invalid JSON, non-object shape,
// unsealable value) resolves to an empty map and, at most, a logged
// diagnostic; nothing escapes the accessor as an error.
type Accessor struct {
	names   CookieNames
	sealKey []byte
	log     zerolog.Logger
}

// NewAccessor returns an Accessor for the given options.
func NewAccessor(opts AccessorOptions) *Accessor {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &Accessor{
		names:   opts.Names.withDefaults(),
		sealKey: opts.SealKey,
		log:     log,
	}
}

// APIKeys returns the provider-name → API-key mapping carried by the API
// keys cookie, or an empty map if the cookie is absent or unusable.
func (a *Accessor) APIKeys(header string) map[string]string {
	return objectCookie[string](a, header, a.names.APIKeys)
}

// ProviderSettings returns the provider-name → settings-object mapping
// carried by the provider settings cookie, or an empty map if the cookie
// is absent or unusable. Settings objects are not validated beyond being
// well-formed JSON.
func (a *Accessor) ProviderSettings(header string) map[string]RawSettings {
	return objectCookie[RawSettings](a, header, a.names.ProviderSettings)
}

// rawValue returns the decoded (and, if configured, unsealed) value of a
// named cookie.
func (a *Accessor) rawValue(header, name string) (string, bool) {
	value, ok := cookieValue(header, name)
	if !ok {
		return "", false
	}
	if len(a.sealKey) > 0 && strings.HasPrefix(value, sealPrefix) {
		plain, err := OpenValue(a.sealKey, value)
		if err != nil {
			a.log.Warn().Str("cookie", name).Err(err).Msg("failed to open sealed cookie value")
			return "", false
		}
		return plain, true
	}
	return value, true
}

// objectCookie decodes a named cookie as a JSON object with V-typed
// members. A missing cookie is not a diagnostic; everything else that
// goes wrong is logged and yields an empty map.
func objectCookie[V any](a *Accessor, header, name string) map[string]V {
	raw, ok := a.rawValue(header, name)
	if !ok {
		return map[string]V{}
	}
	return decodeObject[V](a.log, name, raw)
}

// decodeObject decodes raw JSON that must be a plain object. The shape
// check is done on the generic decoding first so null, arrays, and
// scalars are rejected explicitly rather than half-accepted.
func decodeObject[V any](log zerolog.Logger, name, raw string) map[string]V {
	empty := map[string]V{}

	var probe any
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		log.Warn().Str("cookie", name).Err(err).Msg("cookie value is not valid JSON")
		return empty
	}
	if _, isObject := probe.(map[string]any); !isObject {
		log.Warn().Str("cookie", name).Str("kind", jsonKind(probe)).Msg("cookie value is not a JSON object")
		return empty
	}

	out := make(map[string]V)
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		log.Warn().Str("cookie", name).Err(err).Msg("cookie object has unexpected member types")
		return empty
	}
	return out
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "unknown"
	}
}

var defaultAccessor = NewAccessor(AccessorOptions{})

// GetAPIKeys reads the default API keys cookie from a raw Cookie header.
func GetAPIKeys(header string) map[string]string {
	return defaultAccessor.APIKeys(header)
}

// GetProviderSettings reads the default provider settings cookie from a
// raw Cookie header.
func GetProviderSettings(header string) map[string]RawSettings {
	return defaultAccessor.ProviderSettings(header)
}
