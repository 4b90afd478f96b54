package content

import (
	"net/url"
	"sort"
	"strings"
)

// Key derives a deterministic cache key from an endpoint and its query
// parameters.
//
// Format: content:<endpoint>?<canonical-query> (the "?" part is omitted
// when no parameters survive canonicalization).
func Key(endpoint string, params map[string]string) string {
	return "content:" + RequestPath(endpoint, params)
}

// RequestPath builds the canonical request path for an endpoint and its
// query parameters: parameters sorted by name, empty names and values
// dropped, values percent-encoded. Logically identical requests always
// produce the same path regardless of map iteration order.
func RequestPath(endpoint string, params map[string]string) string {
	var b strings.Builder
	b.WriteString(endpoint)

	names := make([]string, 0, len(params))
	for name, value := range params {
		if name == "" || value == "" {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return b.String()
	}
	sort.Strings(names)

	b.WriteByte('?')
	for i, name := range names {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[name]))
	}
	return b.String()
}
