package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ParseVector turns a serialized embedding back into a float slice.
// Stored vectors are normally native, but legacy rows may hold a JSON
// array or loose bracket notation; both are healed here. A dim of 0
// skips the length check.
func ParseVector(raw string, dim int) ([]float32, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty vector text")
	}
	vec, err := parseJSONArray(raw)
	if err != nil {
		vec, err = parseBracketNotation(raw)
	}
	if err != nil {
		return nil, err
	}
	if dim > 0 && len(vec) != dim {
		return nil, fmt.Errorf("vector length %d does not match dimensionality %d", len(vec), dim)
	}
	return vec, nil
}

func parseJSONArray(raw string) ([]float32, error) {
	var vec []float32
	if err := json.Unmarshal([]byte(raw), &vec); err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("empty vector array")
	}
	return vec, nil
}

// parseBracketNotation extracts the first [...] or {...} span and
// parses its comma-separated numbers.
func parseBracketNotation(raw string) ([]float32, error) {
	open := strings.IndexAny(raw, "[{")
	close := strings.LastIndexAny(raw, "]}")
	if open < 0 || close <= open {
		return nil, fmt.Errorf("no bracketed vector found")
	}
	inner := raw[open+1 : close]
	parts := strings.Split(inner, ",")
	vec := make([]float32, 0, len(parts))
	for _, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return nil, fmt.Errorf("bad vector component %q: %w", part, err)
		}
		vec = append(vec, float32(f))
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("empty bracketed vector")
	}
	return vec, nil
}
