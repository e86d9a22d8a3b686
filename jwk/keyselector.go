// Copyright (c) 2026 Josecore Authors

package jwk

import (
	"context"
	"fmt"

	"josecore/internal/apperr"
	"josecore/jose"
)

// Selector derives candidate native keys from a header and an opaque
// security context. Selectors never reveal why a key did not match;
// they only return candidates, in a deterministic order (usually JWK
// set declaration order).
type Selector interface {
	Select(ctx context.Context, header *jose.Header, secCtx any) ([]any, error)
}

// VerificationSelector is the built-in JWS key selector. It is
// constrained at construction to a set of expected JWS algorithms: a
// header whose alg is outside that set is rejected before the key
// source is consulted, so a substituted algorithm can never steer key
// selection. Matching keys are converted to native keys: the private
// key where the JWK carries private material, otherwise the public key.
type VerificationSelector struct {
	Source   Source
	Expected []jose.JWSAlgorithm
}

// NewVerificationSelector builds a selector serving only the expected
// algorithms.
func NewVerificationSelector(source Source, expected ...jose.JWSAlgorithm) *VerificationSelector {
	return &VerificationSelector{Source: source, Expected: expected}
}

func (s *VerificationSelector) Select(ctx context.Context, header *jose.Header, secCtx any) ([]any, error) {
	alg, ok := jose.ParseJWSAlgorithm(header.Alg)
	if !ok || alg == jose.AlgNone {
		return nil, fmt.Errorf("%w: %q", apperr.ErrUnsupportedAlgorithm, header.Alg)
	}
	if !containsJWSAlg(s.Expected, alg) {
		return nil, fmt.Errorf("%w: %q not among the selector's expected JWS algorithms", apperr.ErrUnsupportedAlgorithm, header.Alg)
	}
	m := Matcher{Kid: header.Kid, Alg: string(alg), Use: UseSig}
	keys, err := s.Source.Get(ctx, m, secCtx)
	if err != nil {
		return nil, err
	}
	return nativeKeys(keys)
}

// DecryptionSelector is the built-in JWE key selector: parallel to
// VerificationSelector, constrained at construction to an expected set
// of JWE key-management algorithms and content-encryption methods.
type DecryptionSelector struct {
	Source      Source
	Expected    []jose.JWEAlgorithm
	ExpectedEnc []jose.EncryptionMethod
}

// NewDecryptionSelector builds a selector serving only the expected
// (alg, enc) combinations.
func NewDecryptionSelector(source Source, expected []jose.JWEAlgorithm, expectedEnc []jose.EncryptionMethod) *DecryptionSelector {
	return &DecryptionSelector{Source: source, Expected: expected, ExpectedEnc: expectedEnc}
}

func (s *DecryptionSelector) Select(ctx context.Context, header *jose.Header, secCtx any) ([]any, error) {
	alg, ok := jose.ParseJWEAlgorithm(header.Alg)
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperr.ErrUnsupportedAlgorithm, header.Alg)
	}
	if !containsJWEAlg(s.Expected, alg) {
		return nil, fmt.Errorf("%w: %q not among the selector's expected JWE algorithms", apperr.ErrUnsupportedAlgorithm, header.Alg)
	}
	enc, ok := jose.ParseEncryptionMethod(header.Enc)
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperr.ErrUnsupportedAlgorithm, header.Enc)
	}
	if !containsEnc(s.ExpectedEnc, enc) {
		return nil, fmt.Errorf("%w: %q not among the selector's expected encryption methods", apperr.ErrUnsupportedAlgorithm, header.Enc)
	}
	m := Matcher{Kid: header.Kid, Alg: string(alg), Use: UseEnc}
	keys, err := s.Source.Get(ctx, m, secCtx)
	if err != nil {
		return nil, err
	}
	return nativeKeys(keys)
}

func containsJWSAlg(set []jose.JWSAlgorithm, alg jose.JWSAlgorithm) bool {
	for _, a := range set {
		if a == alg {
			return true
		}
	}
	return false
}

func containsJWEAlg(set []jose.JWEAlgorithm, alg jose.JWEAlgorithm) bool {
	for _, a := range set {
		if a == alg {
			return true
		}
	}
	return false
}

func containsEnc(set []jose.EncryptionMethod, enc jose.EncryptionMethod) bool {
	for _, e := range set {
		if e == enc {
			return true
		}
	}
	return false
}

func nativeKeys(keys []*JWK) ([]any, error) {
	out := make([]any, 0, len(keys))
	for _, k := range keys {
		var native any
		var err error
		if k.IsPrivate() {
			native, err = k.PrivateKey()
		} else {
			native, err = k.PublicKey()
		}
		if err != nil {
			continue // unconvertible JWK kinds are skipped, not fatal: a later candidate may still match
		}
		out = append(out, native)
	}
	return out, nil
}
