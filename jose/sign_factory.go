// Copyright (c) 2026 Josecore Authors

package jose

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"fmt"

	"josecore/internal/apperr"
)

// DefaultSignerFactory maps (header, key) to the built-in HMAC / RSA-PKCS1
// / RSA-PSS / ECDSA signer for header.Alg. It is safe for concurrent use
// (it holds no mutable state).
type DefaultSignerFactory struct{}

// DefaultVerifierFactory is DefaultSignerFactory's read side.
type DefaultVerifierFactory struct{}

func (DefaultSignerFactory) NewSigner(header *Header, key any) (Signer, error) {
	alg, ok := ParseJWSAlgorithm(header.Alg)
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperr.ErrUnsupportedAlgorithm, header.Alg)
	}
	switch {
	case alg.IsHMAC():
		secret, ok := key.([]byte)
		if !ok {
			return nil, fmt.Errorf("%w: HMAC signer requires []byte key, got %T", apperr.ErrKeyTypeMismatch, key)
		}
		if minBytes := jwsRegistry[alg].hashBits / 8; len(secret) < minBytes {
			return nil, fmt.Errorf("%w: HMAC key shorter than hash output (%d bytes)", apperr.ErrKeyTypeMismatch, minBytes)
		}
		return &hmacSigner{alg: alg, key: secret}, nil

	case alg.IsRSAPKCS1():
		priv, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: RSA signer requires *rsa.PrivateKey, got %T", apperr.ErrKeyTypeMismatch, key)
		}
		return &rsaPKCS1Signer{alg: alg, priv: priv, pub: &priv.PublicKey}, nil

	case alg.IsRSAPSS():
		priv, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: RSA signer requires *rsa.PrivateKey, got %T", apperr.ErrKeyTypeMismatch, key)
		}
		return &rsaPSSSigner{alg: alg, priv: priv, pub: &priv.PublicKey}, nil

	case alg.IsECDSA():
		priv, ok := key.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: ECDSA signer requires *ecdsa.PrivateKey, got %T", apperr.ErrKeyTypeMismatch, key)
		}
		return &ecdsaSigner{alg: alg, priv: priv, pub: &priv.PublicKey}, nil

	default:
		return nil, fmt.Errorf("%w: %q", apperr.ErrUnsupportedAlgorithm, header.Alg)
	}
}

func (DefaultVerifierFactory) NewVerifier(header *Header, key any) (Verifier, error) {
	alg, ok := ParseJWSAlgorithm(header.Alg)
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperr.ErrUnsupportedAlgorithm, header.Alg)
	}
	switch {
	case alg.IsHMAC():
		secret, ok := key.([]byte)
		if !ok {
			return nil, nil // key kind cannot possibly match; let the caller try the next candidate
		}
		return &hmacSigner{alg: alg, key: secret}, nil

	case alg.IsRSAPKCS1():
		pub, ok := rsaPublicKey(key)
		if !ok {
			return nil, nil
		}
		return &rsaPKCS1Signer{alg: alg, pub: pub}, nil

	case alg.IsRSAPSS():
		pub, ok := rsaPublicKey(key)
		if !ok {
			return nil, nil
		}
		return &rsaPSSSigner{alg: alg, pub: pub}, nil

	case alg.IsECDSA():
		pub, ok := ecdsaPublicKey(key)
		if !ok {
			return nil, nil
		}
		return &ecdsaSigner{alg: alg, pub: pub}, nil

	default:
		return nil, fmt.Errorf("%w: %q", apperr.ErrUnsupportedAlgorithm, header.Alg)
	}
}

func rsaPublicKey(key any) (*rsa.PublicKey, bool) {
	switch k := key.(type) {
	case *rsa.PublicKey:
		return k, true
	case *rsa.PrivateKey:
		return &k.PublicKey, true
	default:
		return nil, false
	}
}

func ecdsaPublicKey(key any) (*ecdsa.PublicKey, bool) {
	switch k := key.(type) {
	case *ecdsa.PublicKey:
		return k, true
	case *ecdsa.PrivateKey:
		return &k.PublicKey, true
	default:
		return nil, false
	}
}
