package database

import (
	"fmt"
	"strings"
)

// DSN is the driver-prefixed connection string shorthand: "prefix:value".
type DSN struct {
	// Prefix identifies the driver ("sqlite", "mysql", "pgsql").
	Prefix string

	// Value is everything after the first colon.
	Value string
}

// ParseDSN splits s at the first colon.
//
// Returns:
//   - DSN: Prefix and value
//   - error: ErrInvalidDSN if s has no prefix
func ParseDSN(s string) (DSN, error) {
	prefix, value, found := strings.Cut(s, ":")
	if !found || prefix == "" {
		return DSN{}, fmt.Errorf("%w: %q", ErrInvalidDSN, s)
	}
	return DSN{Prefix: prefix, Value: value}, nil
}

// String reassembles the DSN as prefix:value.
func (d DSN) String() string {
	return d.Prefix + ":" + d.Value
}

// parseKeywords parses a PDO-style "key=value;key=value" list.
// Keys are lower-cased; empty segments are skipped.
func parseKeywords(value string) map[string]string {
	out := make(map[string]string)
	for _, part := range strings.Split(value, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, _ := strings.Cut(part, "=")
		out[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return out
}
