// Copyright (c) 2026 Josecore Authors

// Package apperr defines the flat, disjoint error taxonomy used across the
// jose, jwk, jwt and jwtprocessor packages. Every exported error is a
// sentinel suitable for errors.Is; call sites wrap it with fmt.Errorf and
// "%w" to attach context without losing the ability to classify the
// failure.
package apperr

import "errors"

var (
	// ErrCantBeNil is wrapped when a required argument is a nil pointer,
	// slice or interface.
	ErrCantBeNil = errors.New("can't be nil")
	// ErrCantBeEmpty is wrapped when a required argument is non-nil but
	// has zero length.
	ErrCantBeEmpty = errors.New("can't be empty")

	// ErrMalformedJose covers wrong segment counts, bad base64url, and a
	// header segment that does not decode to a JSON object.
	ErrMalformedJose = errors.New("malformed JOSE object")
	// ErrUnsupportedAlgorithm covers an alg/enc the dispatch layer has no
	// primitive for.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
	// ErrCriticalParamUnsupported covers a crit entry the caller did not
	// whitelist.
	ErrCriticalParamUnsupported = errors.New("critical parameter not understood")
	// ErrHeaderNotAccepted covers a header parameter outside the union of
	// the built-in recognized, caller-accepted and crit-whitelisted
	// parameters.
	ErrHeaderNotAccepted = errors.New("header parameter not accepted")
	// ErrKeyTypeMismatch covers a key whose kind does not match the
	// algorithm that selected it.
	ErrKeyTypeMismatch = errors.New("key type mismatch for algorithm")
	// ErrNoKeySelector covers a processor missing a required key selector.
	ErrNoKeySelector = errors.New("no key selector configured")
	// ErrNoVerifierFactory covers a processor missing a verifier factory.
	ErrNoVerifierFactory = errors.New("no verifier factory configured")
	// ErrNoDecrypterFactory covers a processor missing a decrypter factory.
	ErrNoDecrypterFactory = errors.New("no decrypter factory configured")
	// ErrNoMatchingKey covers a key selector returning zero candidates.
	ErrNoMatchingKey = errors.New("no matching key")
	// ErrNoSuitableVerifier covers every candidate key failing to produce
	// a verifier.
	ErrNoSuitableVerifier = errors.New("no suitable verifier for any candidate key")
	// ErrNoSuitableDecrypter covers every candidate key failing to produce
	// a decrypter.
	ErrNoSuitableDecrypter = errors.New("no suitable decrypter for any candidate key")
	// ErrInvalidSignature covers every candidate verifier returning false.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrDecryptionFailed covers every candidate decrypter failing.
	ErrDecryptionFailed = errors.New("decryption failed")
	// ErrMalformedClaims covers a payload that is not a JSON object, or a
	// registered claim with the wrong JSON kind.
	ErrMalformedClaims = errors.New("malformed claims")
	// ErrExpired covers exp + skew <= now.
	ErrExpired = errors.New("token expired")
	// ErrNotYetValid covers nbf - skew > now.
	ErrNotYetValid = errors.New("token not yet valid")
	// ErrUnsecuredRejected covers an unsecured (alg=none) JWT reaching the
	// default processor.
	ErrUnsecuredRejected = errors.New("unsecured JWT rejected by default policy")
	// ErrCryptoError wraps an underlying primitive failure.
	ErrCryptoError = errors.New("cryptographic operation failed")
	// ErrRemoteFetchFailed covers a remote JWK set retrieval failure.
	ErrRemoteFetchFailed = errors.New("remote JWK set fetch failed")
	// ErrIllegalState covers an API call made against a JOSE object in the
	// wrong state machine state. Always a programmer error.
	ErrIllegalState = errors.New("illegal state for operation")
)

// IsAppErr reports whether target is (wraps) one of the sentinels above.
func IsAppErr(target error) bool {
	if target == nil {
		return false
	}
	for _, sentinel := range all {
		if errors.Is(target, sentinel) {
			return true
		}
	}
	return false
}

var all = []error{
	ErrCantBeNil, ErrCantBeEmpty, ErrMalformedJose, ErrUnsupportedAlgorithm,
	ErrCriticalParamUnsupported, ErrHeaderNotAccepted, ErrKeyTypeMismatch,
	ErrNoKeySelector, ErrNoVerifierFactory, ErrNoDecrypterFactory,
	ErrNoMatchingKey, ErrNoSuitableVerifier, ErrNoSuitableDecrypter,
	ErrInvalidSignature, ErrDecryptionFailed, ErrMalformedClaims, ErrExpired,
	ErrNotYetValid, ErrUnsecuredRejected, ErrCryptoError, ErrRemoteFetchFailed,
	ErrIllegalState,
}

// ContainsError reports whether target is present in errs, by ==, not by
// errors.Is — callers comparing against a known slice of concrete errors
// generally want identity, not unwrapping.
func ContainsError(errs []error, target error) bool {
	if target == nil {
		return false
	}
	for _, e := range errs {
		if e == target {
			return true
		}
	}
	return false
}
