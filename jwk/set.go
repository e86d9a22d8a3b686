// Copyright (c) 2026 Josecore Authors

package jwk

import (
	"fmt"

	"josecore/internal/apperr"
	"josecore/internal/jsonutil"
)

// Set is an ordered, immutable sequence of JWKs, with primary lookup by
// kid and secondary lookup by (kty, alg, use).
type Set struct {
	keys []*JWK
}

// NewSet builds a Set from keys in declaration order. The slice is
// copied; the returned Set is immutable.
func NewSet(keys []*JWK) *Set {
	cp := make([]*JWK, len(keys))
	copy(cp, keys)
	return &Set{keys: cp}
}

// ParseSet decodes a JWK Set document: a top-level object with a "keys"
// array (RFC 7517 §5).
func ParseSet(obj map[string]any) (*Set, error) {
	raw, ok := obj["keys"]
	if !ok {
		return nil, fmt.Errorf("%w: jwk set missing keys array", apperr.ErrMalformedJose)
	}
	arr, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: jwk set keys is not an array", apperr.ErrMalformedJose)
	}
	keys := make([]*JWK, 0, len(arr))
	for _, el := range arr {
		obj, err := jsonutil.AsObject(el)
		if err != nil {
			return nil, fmt.Errorf("%w: jwk set element: %w", apperr.ErrMalformedJose, err)
		}
		k, err := ParseJWK(obj)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return &Set{keys: keys}, nil
}

// Keys returns the set's members in declaration order. The returned
// slice is a defensive copy.
func (s *Set) Keys() []*JWK {
	out := make([]*JWK, len(s.keys))
	copy(out, s.keys)
	return out
}

func (s *Set) Len() int { return len(s.keys) }

// Matcher narrows a Set's keys by zero or more criteria, each empty
// field meaning "don't care".
type Matcher struct {
	Kid string
	Kty string
	Alg string
	Use Use
}

// Match returns the members of s satisfying every non-zero field of m,
// in declaration order. A key whose own Alg or Use is empty is not
// excluded by the Alg or Use criterion.
func (s *Set) Match(m Matcher) []*JWK {
	var out []*JWK
	for _, k := range s.keys {
		if m.Kid != "" && k.Kid != m.Kid {
			continue
		}
		if m.Kty != "" && string(k.Kty) != m.Kty {
			continue
		}
		if m.Alg != "" && k.Alg != "" && k.Alg != m.Alg {
			continue
		}
		if m.Use != "" && k.Use != "" && k.Use != m.Use {
			continue
		}
		out = append(out, k)
	}
	return out
}
