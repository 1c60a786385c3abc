// Package cookiestate parses client state carried in HTTP Cookie headers:
// a tokenizer for raw `name=value; ...` header strings and typed accessors
// for JSON-object cookies (per-provider API keys and provider settings).
//
// Around that core it provides the supporting pieces a web app's state
// layer needs: sealed (encrypted) cookie values, a SQLite-backed local
// state store with debounced writes, lock-status checks for state files,
// and an OS-keyring source for provider secrets. Parsing never fails:
// absent, malformed, or corrupt cookie content resolves to empty results,
// with failures reported through an injected logger only.
package cookiestate
