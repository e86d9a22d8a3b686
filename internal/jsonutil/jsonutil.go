// Copyright (c) 2026 Josecore Authors

// Package jsonutil provides typed extraction helpers over a parsed JSON
// object (map[string]any), used by the header and claims models to pull
// out well-typed fields while preserving everything else verbatim.
//
// Marshaling/unmarshaling itself is delegated to goccy/go-json, a
// drop-in encoding/json-compatible codec already present in the JOSE
// dependency graph this library's teacher pulls in transitively.
package jsonutil

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Marshal is the json.Marshal used throughout this module.
func Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal is the json.Unmarshal used throughout this module.
func Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// UnmarshalObject parses data as a JSON object and returns it as
// map[string]any. It fails if the top-level value is not a JSON object.
func UnmarshalObject(data []byte) (map[string]any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("jsonutil: top-level JSON value is not an object")
	}
	return obj, nil
}

// String returns obj[key] as a string. Returns ("", false, nil) if absent,
// and an error if present with a non-string type.
func String(obj map[string]any, key string) (string, bool, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", true, fmt.Errorf("jsonutil: field %q is not a string", key)
	}
	return s, true, nil
}

// Int64 returns obj[key] as an int64, truncating floats toward zero.
// Accepts either a JSON number or, rarely, an already-decoded int64.
func Int64(obj map[string]any, key string) (int64, bool, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	switch n := v.(type) {
	case float64:
		return int64(n), true, nil
	case int64:
		return n, true, nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, true, fmt.Errorf("jsonutil: field %q is not numeric: %w", key, err)
		}
		return int64(f), true, nil
	default:
		return 0, true, fmt.Errorf("jsonutil: field %q is not a number", key)
	}
}

// StringArray returns obj[key] as a []string. A lone JSON string is
// accepted and promoted to a one-element slice when allowSingle is true
// (the JWT "aud" compatibility rule); otherwise a bare string is an error.
// A value that is already a []string (as Header.ToJSON emits) is copied.
func StringArray(obj map[string]any, key string, allowSingle bool) ([]string, bool, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil, false, nil
	}
	switch t := v.(type) {
	case string:
		if !allowSingle {
			return nil, true, fmt.Errorf("jsonutil: field %q is not an array", key)
		}
		return []string{t}, true, nil
	case []string:
		return append([]string(nil), t...), true, nil
	case []any:
		out := make([]string, 0, len(t))
		for _, elem := range t {
			s, ok := elem.(string)
			if !ok {
				return nil, true, fmt.Errorf("jsonutil: field %q contains a non-string element", key)
			}
			out = append(out, s)
		}
		return out, true, nil
	default:
		return nil, true, fmt.Errorf("jsonutil: field %q is not a string or array", key)
	}
}

// Object returns obj[key] as a nested map[string]any.
func Object(obj map[string]any, key string) (map[string]any, bool, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil, false, nil
	}
	nested, ok := v.(map[string]any)
	if !ok {
		return nil, true, fmt.Errorf("jsonutil: field %q is not an object", key)
	}
	return nested, true, nil
}

// AsObject asserts v (typically an element of a decoded JSON array) is a
// JSON object and returns it as map[string]any.
func AsObject(v any) (map[string]any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("jsonutil: value is not an object")
	}
	return obj, nil
}

// Bool returns obj[key] as a bool.
func Bool(obj map[string]any, key string) (bool, bool, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return false, false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, true, fmt.Errorf("jsonutil: field %q is not a boolean", key)
	}
	return b, true, nil
}
