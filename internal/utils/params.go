package utils

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ExtractIDFromParams returns the {id} path value without an optional ".json" suffix.
func ExtractIDFromParams(r *http.Request) string {
	return strings.TrimSuffix(strings.TrimSpace(r.PathValue("id")), ".json")
}

// ValidateID rejects blank ids and ids with control characters.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("id is required")
	}
	if len(id) > 256 {
		return fmt.Errorf("id is too long")
	}
	for _, c := range id {
		if c < 0x20 || c == 0x7f {
			return fmt.Errorf("id contains invalid characters")
		}
	}
	return nil
}

// ParseFloatParam reads an optional float query parameter. A malformed value is
// recorded in fieldErrors and reported as absent.
func ParseFloatParam(params url.Values, key string, fieldErrors map[string][]string) (float64, bool) {
	raw := strings.TrimSpace(params.Get(key))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("invalid %s: %q", key, raw))
		return 0, false
	}
	return v, true
}

// ParseIntParam reads an optional integer query parameter.
func ParseIntParam(params url.Values, key string, fieldErrors map[string][]string) (int, bool) {
	raw := strings.TrimSpace(params.Get(key))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("invalid %s: %q", key, raw))
		return 0, false
	}
	return v, true
}
