// Copyright (c) 2026 Josecore Authors

// Package jwk implements the JSON Web Key and JWK Set value model (RFC
// 7517), conversion to platform-native key objects, and the key
// sources and selectors the jwtprocessor pipeline consults to find
// candidate verification/decryption keys.
package jwk

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"josecore/internal/apperr"
	"josecore/internal/b64"
	"josecore/internal/jsonutil"
	"josecore/jose"
)

// Use is the JWK "use" (public key use) parameter value.
type Use string

const (
	UseSig Use = "sig"
	UseEnc Use = "enc"
)

// JWK is a typed key descriptor (RFC 7517): RSA, EC, OKP, or symmetric
// octet material, carrying algorithm, intended use, key ID, and either
// public, private, or symmetric key bytes. JWKs are immutable after
// construction.
type JWK struct {
	Kty jose.KeyType
	Use Use
	Kid string
	Alg string

	Crv string // EC, OKP

	// RSA
	N, E, D, P, Q, Dp, Dq, Qi string
	// EC / OKP
	X, Y string
	// EC / OKP private
	ECOKPD string
	// oct
	K string
}

// ParseJWK decodes a single JWK JSON object.
func ParseJWK(obj map[string]any) (*JWK, error) {
	kty, present, err := jsonutil.String(obj, "kty")
	if err != nil || !present {
		return nil, fmt.Errorf("%w: jwk missing kty", apperr.ErrMalformedJose)
	}
	k := &JWK{Kty: jose.KeyType(kty)}

	str := func(name string) (string, error) {
		v, _, err := jsonutil.String(obj, name)
		return v, err
	}

	var errs [14]error
	k.Use, _ = func() (Use, error) { s, err := str("use"); return Use(s), err }()
	k.Kid, errs[0] = str("kid")
	k.Alg, errs[1] = str("alg")
	k.Crv, errs[2] = str("crv")
	k.N, errs[3] = str("n")
	k.E, errs[4] = str("e")
	k.D, errs[5] = str("d")
	k.X, errs[6] = str("x")
	k.Y, errs[7] = str("y")
	k.K, errs[8] = str("k")
	k.P, errs[9] = str("p")
	k.Q, errs[10] = str("q")
	k.Dp, errs[11] = str("dp")
	k.Dq, errs[12] = str("dq")
	k.Qi, errs[13] = str("qi")
	for _, e := range errs {
		if e != nil {
			return nil, fmt.Errorf("%w: %w", apperr.ErrMalformedJose, e)
		}
	}
	if k.Kty == jose.KtyEC || k.Kty == jose.KtyOKP {
		k.ECOKPD = k.D
	}
	switch k.Kty {
	case jose.KtyRSA:
		if k.N == "" || k.E == "" {
			return nil, fmt.Errorf("%w: RSA jwk requires n and e", apperr.ErrMalformedJose)
		}
	case jose.KtyEC:
		if k.Crv == "" || k.X == "" || k.Y == "" {
			return nil, fmt.Errorf("%w: EC jwk requires crv, x and y", apperr.ErrMalformedJose)
		}
	case jose.KtyOKP:
		if k.Crv == "" || k.X == "" {
			return nil, fmt.Errorf("%w: OKP jwk requires crv and x", apperr.ErrMalformedJose)
		}
	case jose.KtyOCT:
		if k.K == "" {
			return nil, fmt.Errorf("%w: oct jwk requires k", apperr.ErrMalformedJose)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported kty %q", apperr.ErrUnsupportedAlgorithm, kty)
	}
	return k, nil
}

// NewKid generates a random key ID for a JWK that doesn't carry one, so
// key rotation can mint distinguishable kids without caller bookkeeping.
func NewKid() string { return uuid.NewString() }

// IsPrivate reports whether k carries private/symmetric material usable
// for signing, decrypting, or unwrapping.
func (k *JWK) IsPrivate() bool {
	switch k.Kty {
	case jose.KtyRSA:
		return k.D != ""
	case jose.KtyEC, jose.KtyOKP:
		return k.ECOKPD != ""
	case jose.KtyOCT:
		return k.K != ""
	default:
		return false
	}
}

func ecdsaCurve(crv string) (elliptic.Curve, int, bool) {
	switch crv {
	case "P-256":
		return elliptic.P256(), 256, true
	case "P-384":
		return elliptic.P384(), 384, true
	case "P-521":
		return elliptic.P521(), 521, true
	default:
		return nil, 0, false
	}
}

// PublicKey converts k to its platform-native public key representation:
// *rsa.PublicKey, *ecdsa.PublicKey, or []byte (oct, returned as-is since
// a symmetric key has no public/private distinction). OKP (Ed25519/X25519)
// is parsed but not yet convertible; ErrUnsupportedAlgorithm is returned.
func (k *JWK) PublicKey() (any, error) {
	switch k.Kty {
	case jose.KtyRSA:
		n, err := b64.DecodeToUnsignedBigInt(k.N)
		if err != nil {
			return nil, fmt.Errorf("%w: jwk.n: %w", apperr.ErrMalformedJose, err)
		}
		e, err := b64.DecodeToUnsignedBigInt(k.E)
		if err != nil {
			return nil, fmt.Errorf("%w: jwk.e: %w", apperr.ErrMalformedJose, err)
		}
		return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil

	case jose.KtyEC:
		curve, width, ok := ecdsaCurve(k.Crv)
		if !ok {
			return nil, fmt.Errorf("%w: unsupported EC curve %q", apperr.ErrUnsupportedAlgorithm, k.Crv)
		}
		x, err := b64.FixedWidth(k.X, (width+7)/8)
		if err != nil {
			return nil, fmt.Errorf("%w: jwk.x: %w", apperr.ErrMalformedJose, err)
		}
		y, err := b64.FixedWidth(k.Y, (width+7)/8)
		if err != nil {
			return nil, fmt.Errorf("%w: jwk.y: %w", apperr.ErrMalformedJose, err)
		}
		return &ecdsa.PublicKey{Curve: curve, X: new(big.Int).SetBytes(x), Y: new(big.Int).SetBytes(y)}, nil

	case jose.KtyOCT:
		key, err := b64.Decode(k.K)
		if err != nil {
			return nil, fmt.Errorf("%w: jwk.k: %w", apperr.ErrMalformedJose, err)
		}
		return key, nil

	default:
		return nil, fmt.Errorf("%w: PublicKey not supported for kty %q", apperr.ErrUnsupportedAlgorithm, k.Kty)
	}
}

// PrivateKey converts k to its platform-native private key
// representation: *rsa.PrivateKey, *ecdsa.PrivateKey, or []byte (oct).
// Requires IsPrivate().
func (k *JWK) PrivateKey() (any, error) {
	if !k.IsPrivate() {
		return nil, fmt.Errorf("%w: jwk carries no private material", apperr.ErrKeyTypeMismatch)
	}
	switch k.Kty {
	case jose.KtyRSA:
		pub, err := k.PublicKey()
		if err != nil {
			return nil, err
		}
		d, err := b64.DecodeToUnsignedBigInt(k.D)
		if err != nil {
			return nil, fmt.Errorf("%w: jwk.d: %w", apperr.ErrMalformedJose, err)
		}
		priv := &rsa.PrivateKey{PublicKey: *pub.(*rsa.PublicKey), D: d}
		if k.P != "" && k.Q != "" {
			p, err := b64.DecodeToUnsignedBigInt(k.P)
			if err != nil {
				return nil, fmt.Errorf("%w: jwk.p: %w", apperr.ErrMalformedJose, err)
			}
			q, err := b64.DecodeToUnsignedBigInt(k.Q)
			if err != nil {
				return nil, fmt.Errorf("%w: jwk.q: %w", apperr.ErrMalformedJose, err)
			}
			priv.Primes = []*big.Int{p, q}
		}
		priv.Precompute()
		return priv, nil

	case jose.KtyEC:
		pub, err := k.PublicKey()
		if err != nil {
			return nil, err
		}
		d, err := b64.DecodeToUnsignedBigInt(k.ECOKPD)
		if err != nil {
			return nil, fmt.Errorf("%w: jwk.d: %w", apperr.ErrMalformedJose, err)
		}
		return &ecdsa.PrivateKey{PublicKey: *pub.(*ecdsa.PublicKey), D: d}, nil

	case jose.KtyOCT:
		return k.PublicKey()

	default:
		return nil, fmt.Errorf("%w: PrivateKey not supported for kty %q", apperr.ErrUnsupportedAlgorithm, k.Kty)
	}
}
