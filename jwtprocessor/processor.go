// Copyright (c) 2026 Josecore Authors

// Package jwtprocessor implements the end-to-end JWT processing
// pipeline: parse -> classify -> select keys -> verify/decrypt ->
// verify claims, with nested-JWT handling.
package jwtprocessor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"josecore/internal/apperr"
	"josecore/internal/jsonutil"
	"josecore/internal/logging"
	"josecore/jose"
	"josecore/jwk"
	"josecore/jwt"
)

// Processor runs the pipeline against a compact token. It is safe for
// concurrent use across goroutines; Process itself holds no mutable
// state.
type Processor struct {
	JWSKeySelector   jwk.Selector
	JWEKeySelector   jwk.Selector
	VerifierFactory  jose.VerifierFactory
	DecrypterFactory jose.DecrypterFactory
	ClaimsVerifier   jwt.ClaimsVerifier // nil disables claims verification
	// HeaderPolicy is enforced against the outermost JWS/JWE header of
	// every object this Processor handles, including nested JWTs
	// recursed into from continueAfterDecrypt. The zero value rejects
	// any crit entry and any header parameter outside the built-in
	// recognized set (see jose.DefaultHeaderPolicy).
	HeaderPolicy jose.HeaderPolicy
	Now          func() int64
	Logger       *slog.Logger
}

// New builds a Processor with the built-in verifier/decrypter factories,
// the default validity-window claims verifier, and the default (strict)
// header acceptance policy; callers override fields as needed.
func New(jwsSelector, jweSelector jwk.Selector, now func() int64) *Processor {
	return &Processor{
		JWSKeySelector:   jwsSelector,
		JWEKeySelector:   jweSelector,
		VerifierFactory:  jose.DefaultVerifierFactory{},
		DecrypterFactory: jose.DefaultDecrypterFactory{},
		ClaimsVerifier:   jwt.Default,
		HeaderPolicy:     jose.DefaultHeaderPolicy(),
		Now:              now,
		Logger:           logging.Discard(),
	}
}

// NewWithHandlers is New for callers that want dispatch-decision
// diagnostics (verifier/decrypter factory misses) delivered to more
// than one slog.Handler at once, fanned out via logging.New.
func NewWithHandlers(jwsSelector, jweSelector jwk.Selector, now func() int64, level slog.Level, handlers ...slog.Handler) *Processor {
	p := New(jwsSelector, jweSelector, now)
	p.Logger = logging.New(level, io.Discard, handlers...)
	return p
}

// Process parses, verifies/decrypts, and validates compact, returning
// its claims set or a precisely classified error.
func (p *Processor) Process(ctx context.Context, compact string, secCtx any) (*jwt.Claims, error) {
	obj, err := jose.Parse(compact)
	if err != nil {
		return nil, err
	}
	return p.processObject(ctx, obj, secCtx)
}

func (p *Processor) processObject(ctx context.Context, obj *jose.Object, secCtx any) (*jwt.Claims, error) {
	switch obj.Kind() {
	case jose.KindUnsecured:
		return nil, fmt.Errorf("%w", apperr.ErrUnsecuredRejected)

	case jose.KindJWS:
		return p.processJWS(ctx, obj, secCtx)

	case jose.KindJWE:
		return p.processJWE(ctx, obj, secCtx)

	default:
		return nil, fmt.Errorf("%w: unknown object kind", apperr.ErrIllegalState)
	}
}

func (p *Processor) processJWS(ctx context.Context, obj *jose.Object, secCtx any) (*jwt.Claims, error) {
	if p.JWSKeySelector == nil {
		return nil, fmt.Errorf("%w", apperr.ErrNoKeySelector)
	}
	if p.VerifierFactory == nil {
		return nil, fmt.Errorf("%w", apperr.ErrNoVerifierFactory)
	}

	header := obj.Header()
	if err := p.HeaderPolicy.Check(header); err != nil {
		return nil, err
	}

	candidates, err := p.JWSKeySelector.Select(ctx, header, secCtx)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w", apperr.ErrNoMatchingKey)
	}

	signingInput, err := obj.SigningInput()
	if err != nil {
		return nil, err
	}
	signature, err := obj.Signature()
	if err != nil {
		return nil, err
	}

	sawVerifier := false
	for i, key := range candidates {
		verifier, err := p.VerifierFactory.NewVerifier(header, key)
		if err != nil {
			p.Logger.Debug("jwtprocessor: verifier factory error", "error", err)
			continue
		}
		if verifier == nil {
			continue
		}
		sawVerifier = true
		ok, err := verifier.Verify(header, signingInput, signature)
		if err != nil {
			if i == len(candidates)-1 {
				return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidSignature, err)
			}
			continue
		}
		if ok {
			return p.claimsFromPayload(obj.Payload(), header)
		}
		if i == len(candidates)-1 {
			return nil, fmt.Errorf("%w", apperr.ErrInvalidSignature)
		}
	}
	if !sawVerifier {
		return nil, fmt.Errorf("%w", apperr.ErrNoSuitableVerifier)
	}
	return nil, fmt.Errorf("%w", apperr.ErrInvalidSignature)
}

func (p *Processor) processJWE(ctx context.Context, obj *jose.Object, secCtx any) (*jwt.Claims, error) {
	if p.JWEKeySelector == nil {
		return nil, fmt.Errorf("%w", apperr.ErrNoKeySelector)
	}
	if p.DecrypterFactory == nil {
		return nil, fmt.Errorf("%w", apperr.ErrNoDecrypterFactory)
	}

	header := obj.Header()
	if err := p.HeaderPolicy.Check(header); err != nil {
		return nil, err
	}

	enc, ok := jose.ParseEncryptionMethod(header.Enc)
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperr.ErrUnsupportedAlgorithm, header.Enc)
	}

	candidates, err := p.JWEKeySelector.Select(ctx, header, secCtx)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w", apperr.ErrNoMatchingKey)
	}

	encryptedKey, iv, ciphertext, tag, err := obj.EncryptedSegments()
	if err != nil {
		return nil, err
	}
	aad, err := obj.HeaderSegment()
	if err != nil {
		return nil, err
	}

	sawDecrypter := false
	for i, key := range candidates {
		decrypter, err := p.DecrypterFactory.NewDecrypter(header, key)
		if err != nil {
			p.Logger.Debug("jwtprocessor: decrypter factory error", "error", err)
			continue
		}
		if decrypter == nil {
			continue
		}
		sawDecrypter = true
		cek, err := decrypter.Decrypt(header, enc, encryptedKey)
		if err != nil {
			if i == len(candidates)-1 {
				return nil, fmt.Errorf("%w: %w", apperr.ErrDecryptionFailed, err)
			}
			continue
		}
		plaintext, err := jose.ContentDecrypt(enc, cek, iv, ciphertext, tag, []byte(aad))
		if err != nil {
			if i == len(candidates)-1 {
				return nil, fmt.Errorf("%w: %w", apperr.ErrDecryptionFailed, err)
			}
			continue
		}
		if err := obj.MarkDecrypted(plaintext); err != nil {
			return nil, err
		}
		return p.continueAfterDecrypt(ctx, plaintext, header, secCtx)
	}
	if !sawDecrypter {
		return nil, fmt.Errorf("%w", apperr.ErrNoSuitableDecrypter)
	}
	return nil, fmt.Errorf("%w", apperr.ErrDecryptionFailed)
}

// continueAfterDecrypt handles nested JWTs: a cty=="JWT" plaintext is
// reinterpreted as a nested compact JWS/JWE and the pipeline recurses
// from classification; otherwise the plaintext is parsed directly as a
// claims set.
func (p *Processor) continueAfterDecrypt(ctx context.Context, plaintext []byte, header *jose.Header, secCtx any) (*jwt.Claims, error) {
	if strings.EqualFold(header.Cty, "JWT") {
		inner, err := jose.Parse(string(plaintext))
		if err != nil {
			return nil, fmt.Errorf("%w: nested JWT: %w", apperr.ErrMalformedJose, err)
		}
		return p.processObject(ctx, inner, secCtx)
	}
	return p.claimsFromPayload(plaintext, header)
}

func (p *Processor) claimsFromPayload(payload []byte, header *jose.Header) (*jwt.Claims, error) {
	obj, err := jsonutil.UnmarshalObject(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrMalformedClaims, err)
	}
	claims, err := jwt.ParseClaims(obj)
	if err != nil {
		return nil, err
	}
	if p.ClaimsVerifier != nil {
		now := int64(0)
		if p.Now != nil {
			now = p.Now()
		}
		if err := p.ClaimsVerifier(claims, now); err != nil {
			return nil, err
		}
	}
	return claims, nil
}
