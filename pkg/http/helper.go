package http

import (
	"net/http"
	"strings"
)

// QueryValues returns the trimmed, non-empty query parameters among keys.
func QueryValues(r *http.Request, keys ...string) map[string]string {
	query := r.URL.Query()
	values := make(map[string]string, len(keys))
	for _, key := range keys {
		if v := strings.TrimSpace(query.Get(key)); v != "" {
			values[key] = v
		}
	}
	return values
}
