// Copyright (c) 2026 Josecore Authors

package jose

import (
	"crypto/aes"
	"encoding/binary"
	"fmt"

	"josecore/internal/apperr"
)

// aesKWDefaultIV is the RFC 3394 §2.2.3.1 default integrity-check value.
var aesKWDefaultIV = [8]byte{0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6}

// AESKeyWrap wraps plaintextKey (a CEK) under kek using the RFC 3394 key
// wrap algorithm (RFC 7518 §4.4, "A*KW"). plaintextKey must be a multiple
// of 8 bytes and at least 16 bytes.
func AESKeyWrap(kek, plaintextKey []byte) ([]byte, error) {
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, fmt.Errorf("%w: AES key-wrap cipher: %w", apperr.ErrCryptoError, err)
	}
	if len(plaintextKey) < 16 || len(plaintextKey)%8 != 0 {
		return nil, fmt.Errorf("%w: key-wrap input must be a multiple of 8 bytes, at least 16", apperr.ErrCryptoError)
	}
	n := len(plaintextKey) / 8

	r := make([][]byte, n)
	for i := range r {
		r[i] = append([]byte{}, plaintextKey[i*8:(i+1)*8]...)
	}

	a := append([]byte{}, aesKWDefaultIV[:]...)
	buf := make([]byte, 16)
	for j := 0; j <= 5; j++ {
		for i := 1; i <= n; i++ {
			copy(buf[:8], a)
			copy(buf[8:], r[i-1])
			block.Encrypt(buf, buf)
			t := uint64(n*j + i)
			a = xorT(buf[:8], t)
			r[i-1] = append([]byte{}, buf[8:]...)
		}
	}

	out := make([]byte, 0, 8+len(plaintextKey))
	out = append(out, a...)
	for _, blk := range r {
		out = append(out, blk...)
	}
	return out, nil
}

// AESKeyUnwrap reverses AESKeyWrap, failing with ErrCryptoError if the
// integrity check value does not match (the wrapped key was forged,
// corrupted, or wrapped under a different kek).
func AESKeyUnwrap(kek, wrapped []byte) ([]byte, error) {
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, fmt.Errorf("%w: AES key-wrap cipher: %w", apperr.ErrCryptoError, err)
	}
	if len(wrapped) < 24 || len(wrapped)%8 != 0 {
		return nil, fmt.Errorf("%w: wrapped key must be a multiple of 8 bytes, at least 24", apperr.ErrCryptoError)
	}
	n := len(wrapped)/8 - 1

	a := append([]byte{}, wrapped[:8]...)
	r := make([][]byte, n)
	for i := range r {
		r[i] = append([]byte{}, wrapped[(i+1)*8:(i+2)*8]...)
	}

	buf := make([]byte, 16)
	for j := 5; j >= 0; j-- {
		for i := n; i >= 1; i-- {
			t := uint64(n*j + i)
			copy(buf[:8], xorT(a, t))
			copy(buf[8:], r[i-1])
			block.Decrypt(buf, buf)
			a = append([]byte{}, buf[:8]...)
			r[i-1] = append([]byte{}, buf[8:]...)
		}
	}

	if !ConstantTimeEqual(a, aesKWDefaultIV[:]) {
		return nil, fmt.Errorf("%w: AES key-unwrap integrity check failed", apperr.ErrCryptoError)
	}

	out := make([]byte, 0, 8*n)
	for _, blk := range r {
		out = append(out, blk...)
	}
	return out, nil
}

func xorT(a []byte, t uint64) []byte {
	out := append([]byte{}, a...)
	var tb [8]byte
	binary.BigEndian.PutUint64(tb[:], t)
	for i := range out {
		out[i] ^= tb[i]
	}
	return out
}
