package app

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// APIKeyHeader may carry the key instead of the ?key= query parameter.
const APIKeyHeader = "X-Api-Key"

// APIKeyFromRequest returns the key from the query string, falling back to the header.
func APIKeyFromRequest(r *http.Request) string {
	if key := strings.TrimSpace(r.URL.Query().Get("key")); key != "" {
		return key
	}
	return strings.TrimSpace(r.Header.Get(APIKeyHeader))
}

func (app *Application) RequestHasInvalidAPIKey(r *http.Request) bool {
	return app.IsInvalidAPIKey(APIKeyFromRequest(r))
}

func (app *Application) IsInvalidAPIKey(key string) bool {
	if key == "" {
		return true
	}

	valid := false
	for _, candidate := range app.Config.ApiKeys {
		// constant time so response timing does not leak key prefixes
		if subtle.ConstantTimeCompare([]byte(key), []byte(candidate)) == 1 {
			valid = true
		}
	}
	return !valid
}
