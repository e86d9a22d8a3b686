// Copyright (c) 2026 Josecore Authors

package jose

// Verifier checks a signature/MAC over a JWS signing input for a fixed
// (header, key) pair. Verify must compare the full signature in time
// independent of the first differing byte, and must fail with an error
// only on key/algorithm misuse, never on a bad signature — a bad
// signature is reported by returning (false, nil).
type Verifier interface {
	Verify(header *Header, signingInput, signature []byte) (bool, error)
}

// VerifierFactory maps a (header, key) pair to a Verifier. It returns
// (nil, nil) when key's type cannot plausibly match header's algorithm
// at all (so callers iterating candidates can skip silently), and an
// error for a definite, reportable misconfiguration.
type VerifierFactory interface {
	NewVerifier(header *Header, key any) (Verifier, error)
}
