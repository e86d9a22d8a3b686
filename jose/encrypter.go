// Copyright (c) 2026 Josecore Authors

package jose

// Encrypter performs JWE key management for a fixed (header, key) pair:
// it determines or agrees the content-encryption key, mutates header
// in place with any algorithm-specific parameters (epk, p2s, p2c, iv,
// tag), and returns the CEK plus the (possibly empty) encrypted-key
// segment (RFC 7516 §5.1 key management).
type Encrypter interface {
	Encrypt(header *Header, enc EncryptionMethod) (cek, encryptedKey []byte, err error)
}

// EncrypterFactory maps a (header, key) pair to an Encrypter.
type EncrypterFactory interface {
	NewEncrypter(header *Header, key any) (Encrypter, error)
}
