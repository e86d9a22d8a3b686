// Copyright (c) 2026 Josecore Authors

package jose

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"hash"

	"josecore/internal/apperr"
)

// GenerateCEK returns a random content-encryption key of the size enc
// requires.
func GenerateCEK(enc EncryptionMethod) ([]byte, error) {
	cek := make([]byte, encRegistry[enc].cekBits/8)
	if _, err := rand.Read(cek); err != nil {
		return nil, fmt.Errorf("%w: generating CEK: %w", apperr.ErrCryptoError, err)
	}
	return cek, nil
}

// ContentEncrypt encrypts plaintext under cek with the method enc,
// authenticating aad (the ASCII JWE protected-header segment), and
// returns the IV, ciphertext and authentication tag (RFC 7518 §5.2/§5.3).
func ContentEncrypt(enc EncryptionMethod, cek, plaintext, aad []byte) (iv, ciphertext, tag []byte, err error) {
	if enc.IsGCM() {
		return gcmEncrypt(cek, plaintext, aad)
	}
	return cbcHMACEncrypt(enc, cek, plaintext, aad)
}

// ContentDecrypt reverses ContentEncrypt, failing with ErrCryptoError if
// authentication fails.
func ContentDecrypt(enc EncryptionMethod, cek, iv, ciphertext, tag, aad []byte) ([]byte, error) {
	if enc.IsGCM() {
		return gcmDecrypt(cek, iv, ciphertext, tag, aad)
	}
	return cbcHMACDecrypt(enc, cek, iv, ciphertext, tag, aad)
}

func gcmEncrypt(cek, plaintext, aad []byte) (iv, ciphertext, tag []byte, err error) {
	block, err := aes.NewCipher(cek)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: AES-GCM key: %w", apperr.ErrCryptoError, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: AES-GCM init: %w", apperr.ErrCryptoError, err)
	}
	iv = make([]byte, gcm.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: generating IV: %w", apperr.ErrCryptoError, err)
	}
	sealed := gcm.Seal(nil, iv, plaintext, aad)
	ciphertext = sealed[:len(sealed)-gcm.Overhead()]
	tag = sealed[len(sealed)-gcm.Overhead():]
	return iv, ciphertext, tag, nil
}

func gcmDecrypt(cek, iv, ciphertext, tag, aad []byte) ([]byte, error) {
	block, err := aes.NewCipher(cek)
	if err != nil {
		return nil, fmt.Errorf("%w: AES-GCM key: %w", apperr.ErrCryptoError, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: AES-GCM init: %w", apperr.ErrCryptoError, err)
	}
	if len(iv) != gcm.NonceSize() {
		return nil, fmt.Errorf("%w: AES-GCM IV length", apperr.ErrCryptoError)
	}
	sealed := append(append([]byte{}, ciphertext...), tag...)
	plaintext, err := gcm.Open(nil, iv, sealed, aad)
	if err != nil {
		return nil, fmt.Errorf("%w: AES-GCM authentication failed: %w", apperr.ErrCryptoError, err)
	}
	return plaintext, nil
}

// cbcHMACEncrypt implements A*CBC-HS* (RFC 7518 §5.2.2.1): the CEK is
// MAC_KEY || ENC_KEY, the tag is the leftmost half of
// HMAC(MAC_KEY, AAD || IV || E || AAD-bit-length-as-uint64-BE).
func cbcHMACEncrypt(enc EncryptionMethod, cek, plaintext, aad []byte) (iv, ciphertext, tag []byte, err error) {
	macKey, encKey, hashNew, tagLen, err := cbcHMACKeys(enc, cek)
	if err != nil {
		return nil, nil, nil, err
	}
	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: AES-CBC key: %w", apperr.ErrCryptoError, err)
	}
	iv = make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: generating IV: %w", apperr.ErrCryptoError, err)
	}
	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext = make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	mac := hmac.New(hashNew, macKey)
	mac.Write(cbcHMACInput(aad, iv, ciphertext))
	tag = mac.Sum(nil)[:tagLen]
	return iv, ciphertext, tag, nil
}

func cbcHMACDecrypt(enc EncryptionMethod, cek, iv, ciphertext, tag, aad []byte) ([]byte, error) {
	macKey, encKey, hashNew, tagLen, err := cbcHMACKeys(enc, cek)
	if err != nil {
		return nil, err
	}
	mac := hmac.New(hashNew, macKey)
	mac.Write(cbcHMACInput(aad, iv, ciphertext))
	expected := mac.Sum(nil)[:tagLen]
	if !ConstantTimeEqual(expected, tag) {
		return nil, fmt.Errorf("%w: AES-CBC-HMAC authentication failed", apperr.ErrCryptoError)
	}
	if len(iv) != aes.BlockSize || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: AES-CBC ciphertext/IV length", apperr.ErrCryptoError)
	}
	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, fmt.Errorf("%w: AES-CBC key: %w", apperr.ErrCryptoError, err)
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)
	return pkcs7Unpad(plaintext)
}

// cbcHMACKeys splits cek into the leading MAC_KEY half and trailing
// ENC_KEY half and selects the matching HMAC hash and truncated tag
// length (RFC 7518 §5.2.2.1): A128CBC-HS256 uses HMAC-SHA256 truncated
// to 16 bytes, A192CBC-HS384 HMAC-SHA384 truncated to 24 bytes,
// A256CBC-HS512 HMAC-SHA512 truncated to 32 bytes.
func cbcHMACKeys(enc EncryptionMethod, cek []byte) (macKey, encKey []byte, hashNew func() hash.Hash, tagLen int, err error) {
	info, ok := encRegistry[enc]
	if !ok || info.gcm {
		return nil, nil, nil, 0, fmt.Errorf("%w: %q is not an AES-CBC-HMAC method", apperr.ErrUnsupportedAlgorithm, enc)
	}
	half := info.cekBits / 8 / 2
	if len(cek) != 2*half {
		return nil, nil, nil, 0, fmt.Errorf("%w: CEK length mismatch for %q", apperr.ErrCryptoError, enc)
	}
	switch enc {
	case EncA128CBCHS256:
		return cek[:half], cek[half:], sha256.New, 16, nil
	case EncA192CBCHS384:
		return cek[:half], cek[half:], sha512.New384, 24, nil
	case EncA256CBCHS512:
		return cek[:half], cek[half:], sha512.New, 32, nil
	default:
		return nil, nil, nil, 0, fmt.Errorf("%w: %q is not an AES-CBC-HMAC method", apperr.ErrUnsupportedAlgorithm, enc)
	}
}

func cbcHMACInput(aad, iv, ciphertext []byte) []byte {
	al := make([]byte, 8)
	binary.BigEndian.PutUint64(al, uint64(len(aad))*8)
	out := make([]byte, 0, len(aad)+len(iv)+len(ciphertext)+8)
	out = append(out, aad...)
	out = append(out, iv...)
	out = append(out, ciphertext...)
	out = append(out, al...)
	return out
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty plaintext block", apperr.ErrCryptoError)
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > len(data) || padLen > aes.BlockSize {
		return nil, fmt.Errorf("%w: invalid PKCS7 padding", apperr.ErrCryptoError)
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("%w: invalid PKCS7 padding", apperr.ErrCryptoError)
		}
	}
	return data[:len(data)-padLen], nil
}
