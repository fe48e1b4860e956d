package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

// MaxJSONBodyBytes bounds JSON request bodies; document payloads can be large
const MaxJSONBodyBytes = 10 << 20

// ParseJSON decodes JSON from the request body into the given destination.
// Bodies over MaxJSONBodyBytes are rejected.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodyBytes)

	decoder := json.NewDecoder(r.Body)
	// Unknown fields are allowed: metadata bags carry arbitrary keys
	if err := decoder.Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}

// QueryBool reads a boolean query parameter, falling back to def when the
// parameter is absent or malformed.
func QueryBool(r *http.Request, name string, def bool) bool {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}
