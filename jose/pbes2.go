// Copyright (c) 2026 Josecore Authors

package jose

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

	"golang.org/x/crypto/pbkdf2"

	"josecore/internal/apperr"
)

// maxPBES2Iterations caps the PBKDF2 iteration count a decrypter will
// honor from an attacker-controlled p2c header value. A compliant
// sender never needs more than a few hundred thousand iterations
// (pbes2Iterations in encrypt_factory.go is the encrypt-side default);
// anything past this ceiling only serves to burn CPU on decrypt.
const maxPBES2Iterations = 10_000_000

// pbes2DerivedKey derives the AES key-wrap key for a PBES2-HS*+A*KW
// algorithm (RFC 7518 §4.8.1.1): PBKDF2 over the passphrase, with salt
// = UTF8(alg) || 0x00 || p2s, and iteration count p2c.
func pbes2DerivedKey(alg JWEAlgorithm, passphrase, p2s []byte, p2c int) ([]byte, error) {
	wrapAlg, prfBits := alg.PBES2KeyWrap()
	if wrapAlg == "" {
		return nil, fmt.Errorf("%w: %q is not a PBES2 algorithm", apperr.ErrUnsupportedAlgorithm, alg)
	}
	if p2c <= 0 {
		return nil, fmt.Errorf("%w: PBES2 iteration count must be positive", apperr.ErrMalformedJose)
	}
	if p2c > maxPBES2Iterations {
		return nil, fmt.Errorf("%w: PBES2 iteration count %d exceeds maximum %d", apperr.ErrMalformedJose, p2c, maxPBES2Iterations)
	}
	var prf func() hash.Hash
	switch prfBits {
	case 256:
		prf = sha256.New
	case 384:
		prf = sha512.New384
	case 512:
		prf = sha512.New
	default:
		return nil, fmt.Errorf("%w: unsupported PBES2 PRF size %d", apperr.ErrCryptoError, prfBits)
	}

	salt := make([]byte, 0, len(alg)+1+len(p2s))
	salt = append(salt, []byte(alg)...)
	salt = append(salt, 0x00)
	salt = append(salt, p2s...)

	keyBits := aesKeyBitsForWrap(wrapAlg)
	return pbkdf2.Key(passphrase, salt, p2c, keyBits/8, prf), nil
}
