// Copyright (c) 2026 Josecore Authors

package jose

// Decrypter reverses an Encrypter: given the header (as received) and
// the encrypted-key segment, it recovers the content-encryption key.
type Decrypter interface {
	Decrypt(header *Header, enc EncryptionMethod, encryptedKey []byte) (cek []byte, err error)
}

// DecrypterFactory maps a (header, key) pair to a Decrypter. Like
// VerifierFactory, it returns (nil, nil) when key's type cannot
// plausibly match header's algorithm, letting callers try the next
// candidate key silently.
type DecrypterFactory interface {
	NewDecrypter(header *Header, key any) (Decrypter, error)
}
