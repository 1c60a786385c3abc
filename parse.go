package cookiestate

import (
	"net/url"
	"sort"
	"strings"
)

// ParseCookies splits a raw Cookie header into a name → value map.
//
// Segments are delimited by ";" and trimmed. Within a segment only the
// first "=" separates name from value, so values may contain "=" verbatim.
// Names and values are trimmed and percent-decoded independently ("%XX"
// escapes only; "+" is kept as-is). Segments with no "=", an empty name,
// or a malformed percent-escape in either half are skipped without
// affecting sibling segments. Duplicate names keep the last occurrence.
//
// The result is always a fresh, non-nil map; ParseCookies never fails.
func ParseCookies(header string) map[string]string {
	out := make(map[string]string)
	if header == "" {
		return out
	}

	for _, segment := range strings.Split(header, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		rawName, rawValue, found := strings.Cut(segment, "=")
		if !found {
			continue
		}
		rawName = strings.TrimSpace(rawName)
		if rawName == "" {
			continue
		}
		rawValue = strings.TrimSpace(rawValue)

		name, err := url.PathUnescape(rawName)
		if err != nil {
			continue
		}
		value, err := url.PathUnescape(rawValue)
		if err != nil {
			continue
		}

		out[name] = value
	}

	return out
}

// BuildHeader is the inverse of ParseCookies: it percent-encodes names and
// values and joins them with "; " in sorted name order so the output is
// deterministic. ParseCookies(BuildHeader(m)) reproduces m.
func BuildHeader(cookies map[string]string) string {
	if len(cookies) == 0 {
		return ""
	}

	names := make([]string, 0, len(cookies))
	for name := range cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		// PathEscape leaves "=" alone; escape it in the name so the
		// first-"=" split finds the real delimiter.
		escapedName := strings.ReplaceAll(url.PathEscape(name), "=", "%3D")
		pairs = append(pairs, escapedName+"="+url.PathEscape(cookies[name]))
	}
	return strings.Join(pairs, "; ")
}

// cookieValue returns a single decoded cookie value from a raw header.
func cookieValue(header, name string) (string, bool) {
	value, ok := ParseCookies(header)[name]
	return value, ok
}
