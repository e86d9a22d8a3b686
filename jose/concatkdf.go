// Copyright (c) 2026 Josecore Authors

package jose

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"josecore/internal/apperr"
)

// ConcatKDFParams carries the OtherInfo inputs for the Concat KDF (NIST
// SP 800-56A, as profiled by RFC 7518 Appendix C), used to derive the
// ECDH-ES agreed key from a shared secret Z.
type ConcatKDFParams struct {
	AlgorithmID string // the JWE "alg" (ECDH-ES) or key-wrap alg (ECDH-ES+A*KW)
	PartyUInfo  []byte // Apu, decoded
	PartyVInfo  []byte // Apv, decoded
	KeyDataLen  int    // desired output length in bits
}

// ConcatKDF derives KeyDataLen bits from shared secret z using SHA-256 in
// the single-round-per-32-bytes counter-mode construction of RFC 7518
// Appendix C: each round hashes round-counter(4 bytes BE) || Z ||
// OtherInfo, where OtherInfo is
// AlgorithmID || PartyUInfo || PartyVInfo || SuppPubInfo.
func ConcatKDF(z []byte, p ConcatKDFParams) ([]byte, error) {
	if p.KeyDataLen <= 0 || p.KeyDataLen%8 != 0 {
		return nil, fmt.Errorf("%w: ConcatKDF key data length must be a whole number of bytes", apperr.ErrCryptoError)
	}
	otherInfo := concatKDFOtherInfo(p)
	outLen := p.KeyDataLen / 8

	hashLen := sha256.Size
	rounds := (outLen + hashLen - 1) / hashLen
	out := make([]byte, 0, rounds*hashLen)
	for counter := uint32(1); counter <= uint32(rounds); counter++ {
		h := sha256.New()
		var cb [4]byte
		binary.BigEndian.PutUint32(cb[:], counter)
		h.Write(cb[:])
		h.Write(z)
		h.Write(otherInfo)
		out = append(out, h.Sum(nil)...)
	}
	return out[:outLen], nil
}

func concatKDFOtherInfo(p ConcatKDFParams) []byte {
	var out []byte
	out = append(out, lengthPrefixed([]byte(p.AlgorithmID))...)
	out = append(out, lengthPrefixed(p.PartyUInfo)...)
	out = append(out, lengthPrefixed(p.PartyVInfo)...)
	out = append(out, uint32BE(uint32(p.KeyDataLen))...) // SuppPubInfo
	// SuppPrivInfo is empty for the JWE profile.
	return out
}

func lengthPrefixed(data []byte) []byte {
	out := make([]byte, 0, 4+len(data))
	out = append(out, uint32BE(uint32(len(data)))...)
	out = append(out, data...)
	return out
}

func uint32BE(v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return b[:]
}
