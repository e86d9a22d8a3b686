// Copyright (c) 2026 Josecore Authors

package jose

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"fmt"
	"math/big"

	"josecore/internal/apperr"
)

// Signer produces a signature/MAC over a JWS signing input for a fixed
// (header, key) pair.
type Signer interface {
	Sign(header *Header, signingInput []byte) ([]byte, error)
}

// SignerFactory maps a (header, key) pair to a Signer.
type SignerFactory interface {
	NewSigner(header *Header, key any) (Signer, error)
}

func hashForBits(bits int) (crypto.Hash, func() []byte, error) {
	switch bits {
	case 256:
		return crypto.SHA256, nil, nil
	case 384:
		return crypto.SHA384, nil, nil
	case 512:
		return crypto.SHA512, nil, nil
	default:
		return 0, nil, fmt.Errorf("%w: unsupported hash size %d", apperr.ErrCryptoError, bits)
	}
}

func sum(bits int, data []byte) ([]byte, crypto.Hash, error) {
	h, _, err := hashForBits(bits)
	if err != nil {
		return nil, 0, err
	}
	switch bits {
	case 256:
		d := sha256.Sum256(data)
		return d[:], h, nil
	case 384:
		d := sha512.Sum384(data)
		return d[:], h, nil
	case 512:
		d := sha512.Sum512(data)
		return d[:], h, nil
	}
	return nil, 0, fmt.Errorf("%w: unreachable hash size %d", apperr.ErrCryptoError, bits)
}

// hmacSigner implements HS256/384/512 (RFC 7518 §3.2).
type hmacSigner struct {
	alg JWSAlgorithm
	key []byte
}

func (s *hmacSigner) Sign(_ *Header, signingInput []byte) ([]byte, error) {
	hash, _, _ := hashForBits(jwsRegistry[s.alg].hashBits)
	mac := hmac.New(hash.New, s.key)
	mac.Write(signingInput)
	return mac.Sum(nil), nil
}

func (s *hmacSigner) Verify(_ *Header, signingInput, signature []byte) (bool, error) {
	expected, err := (&hmacSigner{alg: s.alg, key: s.key}).Sign(nil, signingInput)
	if err != nil {
		return false, err
	}
	return ConstantTimeEqual(expected, signature), nil
}

// rsaPKCS1Signer implements RS256/384/512 (RFC 7518 §3.3).
type rsaPKCS1Signer struct {
	alg     JWSAlgorithm
	priv    *rsa.PrivateKey
	pub     *rsa.PublicKey
}

func (s *rsaPKCS1Signer) Sign(_ *Header, signingInput []byte) ([]byte, error) {
	digest, hash, err := sum(jwsRegistry[s.alg].hashBits, signingInput)
	if err != nil {
		return nil, err
	}
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.priv, hash, digest)
	if err != nil {
		return nil, fmt.Errorf("%w: RSA PKCS1 sign: %w", apperr.ErrCryptoError, err)
	}
	return sig, nil
}

func (s *rsaPKCS1Signer) Verify(_ *Header, signingInput, signature []byte) (bool, error) {
	digest, hash, err := sum(jwsRegistry[s.alg].hashBits, signingInput)
	if err != nil {
		return false, err
	}
	err = rsa.VerifyPKCS1v15(s.pub, hash, digest, signature)
	return err == nil, nil
}

// rsaPSSSigner implements PS256/384/512 (RFC 7518 §3.5).
type rsaPSSSigner struct {
	alg  JWSAlgorithm
	priv *rsa.PrivateKey
	pub  *rsa.PublicKey
}

func (s *rsaPSSSigner) opts() (*rsa.PSSOptions, crypto.Hash) {
	hash, _, _ := hashForBits(jwsRegistry[s.alg].hashBits)
	return &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash, Hash: hash}, hash
}

func (s *rsaPSSSigner) Sign(_ *Header, signingInput []byte) ([]byte, error) {
	digest, hash, err := sum(jwsRegistry[s.alg].hashBits, signingInput)
	if err != nil {
		return nil, err
	}
	opts, _ := s.opts()
	sig, err := rsa.SignPSS(rand.Reader, s.priv, hash, digest, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: RSA-PSS sign: %w", apperr.ErrCryptoError, err)
	}
	return sig, nil
}

func (s *rsaPSSSigner) Verify(_ *Header, signingInput, signature []byte) (bool, error) {
	digest, _, err := sum(jwsRegistry[s.alg].hashBits, signingInput)
	if err != nil {
		return false, err
	}
	opts, hash := s.opts()
	err = rsa.VerifyPSS(s.pub, hash, digest, signature, opts)
	return err == nil, nil
}

// ecdsaSigner implements ES256/384/512 (RFC 7518 §3.4), emitting/expecting
// the fixed-width r||s encoding (left-zero-padded to the curve's
// coordinate width), not the ASN.1 DER encoding crypto/ecdsa produces.
type ecdsaSigner struct {
	alg  JWSAlgorithm
	priv *ecdsa.PrivateKey
	pub  *ecdsa.PublicKey
}

func ecdsaCoordWidth(curveBits int) int {
	return (curveBits + 7) / 8
}

func (s *ecdsaSigner) Sign(_ *Header, signingInput []byte) ([]byte, error) {
	digest, _, err := sum(jwsRegistry[s.alg].hashBits, signingInput)
	if err != nil {
		return nil, err
	}
	r, sVal, err := ecdsa.Sign(rand.Reader, s.priv, digest)
	if err != nil {
		return nil, fmt.Errorf("%w: ECDSA sign: %w", apperr.ErrCryptoError, err)
	}
	width := ecdsaCoordWidth(jwsRegistry[s.alg].ecCurveBits)
	out := make([]byte, 2*width)
	r.FillBytes(out[:width])
	sVal.FillBytes(out[width:])
	return out, nil
}

func (s *ecdsaSigner) Verify(_ *Header, signingInput, signature []byte) (bool, error) {
	width := ecdsaCoordWidth(jwsRegistry[s.alg].ecCurveBits)
	if len(signature) != 2*width {
		return false, nil
	}
	digest, _, err := sum(jwsRegistry[s.alg].hashBits, signingInput)
	if err != nil {
		return false, err
	}
	r := new(big.Int).SetBytes(signature[:width])
	sVal := new(big.Int).SetBytes(signature[width:])
	return ecdsa.Verify(s.pub, digest, r, sVal), nil
}

// ConstantTimeEqual reports whether a and b are equal, comparing in time
// independent of the position of the first differing byte.
func ConstantTimeEqual(a, b []byte) bool {
	return len(a) == len(b) && subtle.ConstantTimeCompare(a, b) == 1
}
