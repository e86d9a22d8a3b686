// Copyright (c) 2026 Josecore Authors

// Package jwt implements the JWT claims-set data model (RFC 7519): a
// typed value with JSON round-trip, a builder, and the default
// validity-window claims verifier.
package jwt

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"josecore/internal/apperr"
	"josecore/internal/jsonutil"
)

// Registered claim names (RFC 7519 §4.1).
const (
	ClaimIss = "iss"
	ClaimSub = "sub"
	ClaimAud = "aud"
	ClaimExp = "exp"
	ClaimNbf = "nbf"
	ClaimIat = "iat"
	ClaimJti = "jti"
)

var registeredClaims = map[string]bool{
	ClaimIss: true, ClaimSub: true, ClaimAud: true, ClaimExp: true,
	ClaimNbf: true, ClaimIat: true, ClaimJti: true,
}

// Claims is an ordered claim-name-to-value mapping (RFC 7519 §4). Values
// are JSON-native (string, float64, bool,
// []any, map[string]any) except aud, which is normalized to []string,
// and exp/nbf/iat, normalized to int64 seconds since epoch.
type Claims struct {
	names  []string
	values map[string]any
}

// NewClaims returns an empty claims set.
func NewClaims() *Claims {
	return &Claims{values: map[string]any{}}
}

func (c *Claims) set(name string, value any) {
	if _, exists := c.values[name]; !exists {
		c.names = append(c.names, name)
	}
	c.values[name] = value
}

func (c *Claims) WithIssuer(iss string) *Claims   { c.set(ClaimIss, iss); return c }
func (c *Claims) WithSubject(sub string) *Claims  { c.set(ClaimSub, sub); return c }
func (c *Claims) WithAudience(aud ...string) *Claims {
	c.set(ClaimAud, append([]string{}, aud...))
	return c
}
func (c *Claims) WithExpiry(exp int64) *Claims    { c.set(ClaimExp, exp); return c }
func (c *Claims) WithNotBefore(nbf int64) *Claims { c.set(ClaimNbf, nbf); return c }
func (c *Claims) WithIssuedAt(iat int64) *Claims  { c.set(ClaimIat, iat); return c }
func (c *Claims) WithID(jti string) *Claims       { c.set(ClaimJti, jti); return c }

// WithGeneratedID sets jti to a freshly generated random UUID, the
// default identifier source for claims builders that don't supply one.
func (c *Claims) WithGeneratedID() *Claims { return c.WithID(uuid.NewString()) }

// WithClaim adds a custom claim. Returns an error if name collides with
// a registered claim name.
func (c *Claims) WithClaim(name string, value any) (*Claims, error) {
	if registeredClaims[name] {
		return nil, fmt.Errorf("%w: %q is a registered claim name", apperr.ErrMalformedClaims, name)
	}
	c.set(name, value)
	return c, nil
}

// Names returns the claim names in insertion order.
func (c *Claims) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

func (c *Claims) Has(name string) bool { _, ok := c.values[name]; return ok }

func (c *Claims) Issuer() (string, bool)  { v, ok := c.values[ClaimIss].(string); return v, ok }
func (c *Claims) Subject() (string, bool) { v, ok := c.values[ClaimSub].(string); return v, ok }
func (c *Claims) ID() (string, bool)      { v, ok := c.values[ClaimJti].(string); return v, ok }

func (c *Claims) Audience() ([]string, bool) {
	v, ok := c.values[ClaimAud].([]string)
	return v, ok
}

func (c *Claims) Expiry() (int64, bool)     { return c.instant(ClaimExp) }
func (c *Claims) NotBefore() (int64, bool)  { return c.instant(ClaimNbf) }
func (c *Claims) IssuedAt() (int64, bool)   { return c.instant(ClaimIat) }

func (c *Claims) instant(name string) (int64, bool) {
	switch v := c.values[name].(type) {
	case int64:
		return v, true
	default:
		return 0, false
	}
}

// Claim returns a custom claim's raw value.
func (c *Claims) Claim(name string) (any, bool) {
	v, ok := c.values[name]
	return v, ok
}

// StringClaim returns a claim as a string: ("", false, nil) when absent,
// MalformedClaims when present with another kind.
func (c *Claims) StringClaim(name string) (string, bool, error) {
	v, ok := c.values[name]
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", true, fmt.Errorf("%w: %s is not a string", apperr.ErrMalformedClaims, name)
	}
	return s, true, nil
}

// BoolClaim returns a claim as a bool, requiring a JSON boolean.
func (c *Claims) BoolClaim(name string) (bool, bool, error) {
	v, ok := c.values[name]
	if !ok {
		return false, false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, true, fmt.Errorf("%w: %s is not a boolean", apperr.ErrMalformedClaims, name)
	}
	return b, true, nil
}

// Int64Claim returns a claim as an int64, narrowing from any numeric
// value by truncation.
func (c *Claims) Int64Claim(name string) (int64, bool, error) {
	f, present, err := c.Float64Claim(name)
	return int64(f), present, err
}

// Float64Claim returns a claim as a float64, accepting any numeric value.
func (c *Claims) Float64Claim(name string) (float64, bool, error) {
	v, ok := c.values[name]
	if !ok {
		return 0, false, nil
	}
	switch n := v.(type) {
	case float64:
		return n, true, nil
	case int64:
		return float64(n), true, nil
	default:
		return 0, true, fmt.Errorf("%w: %s is not numeric", apperr.ErrMalformedClaims, name)
	}
}

// ToJSON renders c to its canonical JSON object form: instants as
// integer seconds, aud as a single string when len==1 else an array,
// claims with nil values omitted.
func (c *Claims) ToJSON() map[string]any {
	obj := map[string]any{}
	for _, name := range c.names {
		v := c.values[name]
		if v == nil {
			continue
		}
		if name == ClaimAud {
			aud := v.([]string)
			if len(aud) == 1 {
				obj[name] = aud[0]
			} else {
				obj[name] = aud
			}
			continue
		}
		obj[name] = v
	}
	return obj
}

// ParseClaims decodes a JWT payload JSON object into a Claims value,
// rejecting wrong-kind registered claims with MalformedClaims.
func ParseClaims(obj map[string]any) (*Claims, error) {
	c := NewClaims()
	for name, raw := range obj {
		v, err := normalizeClaim(name, raw)
		if err != nil {
			return nil, err
		}
		c.set(name, v)
	}
	return c, nil
}

func normalizeClaim(name string, raw any) (any, error) {
	switch name {
	case ClaimIss, ClaimSub, ClaimJti:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a string", apperr.ErrMalformedClaims, name)
		}
		return s, nil

	case ClaimAud:
		switch t := raw.(type) {
		case string:
			return []string{t}, nil
		case []any:
			out := make([]string, 0, len(t))
			for _, el := range t {
				s, ok := el.(string)
				if !ok {
					return nil, fmt.Errorf("%w: aud array must contain only strings", apperr.ErrMalformedClaims)
				}
				out = append(out, s)
			}
			return out, nil
		default:
			return nil, fmt.Errorf("%w: aud must be a string or array of strings", apperr.ErrMalformedClaims)
		}

	case ClaimExp, ClaimNbf, ClaimIat:
		return numericToInstant(name, raw)

	default:
		return raw, nil
	}
}

func numericToInstant(name string, raw any) (int64, error) {
	switch n := raw.(type) {
	case float64:
		return int64(math.Floor(n)), nil
	case int64:
		return n, nil
	default:
		return 0, fmt.Errorf("%w: %s must be numeric", apperr.ErrMalformedClaims, name)
	}
}

// MarshalJSON / UnmarshalJSON round-trip Claims through jsonutil
// (goccy/go-json), matching the rest of the module's JSON codec.
func (c *Claims) MarshalJSON() ([]byte, error) {
	return jsonutil.Marshal(c.ToJSON())
}

func (c *Claims) UnmarshalJSON(data []byte) error {
	obj, err := jsonutil.UnmarshalObject(data)
	if err != nil {
		return fmt.Errorf("%w: claims payload is not a JSON object: %w", apperr.ErrMalformedClaims, err)
	}
	parsed, err := ParseClaims(obj)
	if err != nil {
		return err
	}
	*c = *parsed
	return nil
}
