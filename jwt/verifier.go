// Copyright (c) 2026 Josecore Authors

package jwt

import (
	"fmt"

	"josecore/internal/apperr"
)

// DefaultSkew is the default clock-skew tolerance applied around exp
// and nbf.
const DefaultSkew = 60

// ClaimsVerifier checks a claims set against an instant. The built-in
// Default and WithSkew wrap the validity-window rules of Verify; callers may supply
// any function with this signature as a pluggable check.
type ClaimsVerifier func(claims *Claims, now int64) error

// Verify is the default validity-window verifier: a pure function over
// (claims, now, skew) that never reads an ambient clock.
// If exp is present and exp+skew <= now, rejects with Expired. If nbf
// is present and nbf-skew > now, rejects with NotYetValid.
func Verify(claims *Claims, now, skew int64) error {
	if exp, ok := claims.Expiry(); ok && exp+skew <= now {
		return fmt.Errorf("%w: exp=%d skew=%d now=%d", apperr.ErrExpired, exp, skew, now)
	}
	if nbf, ok := claims.NotBefore(); ok && nbf-skew > now {
		return fmt.Errorf("%w: nbf=%d skew=%d now=%d", apperr.ErrNotYetValid, nbf, skew, now)
	}
	return nil
}

// Default is the ClaimsVerifier the processor uses unless overridden:
// Verify with DefaultSkew.
func Default(claims *Claims, now int64) error { return Verify(claims, now, DefaultSkew) }

// WithSkew returns a ClaimsVerifier applying Verify with a caller-chosen
// skew.
func WithSkew(skew int64) ClaimsVerifier {
	return func(claims *Claims, now int64) error { return Verify(claims, now, skew) }
}
