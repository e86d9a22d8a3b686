// Copyright (c) 2026 Josecore Authors

package jose

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"fmt"

	"josecore/internal/apperr"
	"josecore/internal/b64"
)

// pbes2Iterations is the PBKDF2 iteration count DefaultEncrypterFactory
// uses for new PBES2-HS*+A*KW encryptions (RFC 7518 §4.8.1.2 recommends
// "as large as possible"); 310000 matches current OWASP guidance for
// PBKDF2-HMAC-SHA256.
const pbes2Iterations = 310000

// pbes2SaltLength is the random per-message salt input length in bytes,
// concatenated with the algorithm name to form the PBKDF2 salt.
const pbes2SaltLength = 16

// DefaultEncrypterFactory maps (header, key) to the built-in JWE key
// management Encrypter for header.Alg. It is safe for concurrent use.
type DefaultEncrypterFactory struct{}

// DefaultDecrypterFactory is DefaultEncrypterFactory's read side.
type DefaultDecrypterFactory struct{}

func (DefaultEncrypterFactory) NewEncrypter(header *Header, key any) (Encrypter, error) {
	alg, ok := ParseJWEAlgorithm(header.Alg)
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperr.ErrUnsupportedAlgorithm, header.Alg)
	}
	switch {
	case alg == AlgDir:
		secret, ok := key.([]byte)
		if !ok {
			return nil, fmt.Errorf("%w: dir encryption requires []byte key, got %T", apperr.ErrKeyTypeMismatch, key)
		}
		return &dirEncrypter{key: secret}, nil

	case alg.IsAESKW():
		kek, ok := key.([]byte)
		if !ok {
			return nil, fmt.Errorf("%w: AES key wrap requires []byte key, got %T", apperr.ErrKeyTypeMismatch, key)
		}
		return &aesKWEncrypter{alg: alg, kek: kek}, nil

	case alg.IsAESGCMKW():
		kek, ok := key.([]byte)
		if !ok {
			return nil, fmt.Errorf("%w: AES-GCM key wrap requires []byte key, got %T", apperr.ErrKeyTypeMismatch, key)
		}
		return &aesGCMKWEncrypter{alg: alg, kek: kek}, nil

	case alg.IsRSA():
		pub, ok := rsaPublicKey(key)
		if !ok {
			return nil, fmt.Errorf("%w: RSA encryption requires an RSA public key, got %T", apperr.ErrKeyTypeMismatch, key)
		}
		return &rsaEncrypter{alg: alg, pub: pub}, nil

	case alg.IsECDHES():
		pub, curve, ok := ecdhPublicKey(key)
		if !ok {
			return nil, fmt.Errorf("%w: ECDH-ES encryption requires an EC public key, got %T", apperr.ErrKeyTypeMismatch, key)
		}
		return &ecdhESEncrypter{alg: alg, recipient: pub, curve: curve}, nil

	case alg.IsPBES2():
		passphrase, ok := key.([]byte)
		if !ok {
			return nil, fmt.Errorf("%w: PBES2 encryption requires []byte passphrase, got %T", apperr.ErrKeyTypeMismatch, key)
		}
		return &pbes2Encrypter{alg: alg, passphrase: passphrase}, nil

	default:
		return nil, fmt.Errorf("%w: %q", apperr.ErrUnsupportedAlgorithm, header.Alg)
	}
}

func (DefaultDecrypterFactory) NewDecrypter(header *Header, key any) (Decrypter, error) {
	alg, ok := ParseJWEAlgorithm(header.Alg)
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperr.ErrUnsupportedAlgorithm, header.Alg)
	}
	switch {
	case alg == AlgDir:
		secret, ok := key.([]byte)
		if !ok {
			return nil, nil
		}
		return &dirEncrypter{key: secret}, nil

	case alg.IsAESKW():
		kek, ok := key.([]byte)
		if !ok {
			return nil, nil
		}
		return &aesKWEncrypter{alg: alg, kek: kek}, nil

	case alg.IsAESGCMKW():
		kek, ok := key.([]byte)
		if !ok {
			return nil, nil
		}
		return &aesGCMKWEncrypter{alg: alg, kek: kek}, nil

	case alg.IsRSA():
		priv, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, nil
		}
		return &rsaEncrypter{alg: alg, priv: priv}, nil

	case alg.IsECDHES():
		priv, curve, ok := ecdhPrivateKey(key)
		if !ok {
			return nil, nil
		}
		return &ecdhESEncrypter{alg: alg, priv: priv, curve: curve}, nil

	case alg.IsPBES2():
		passphrase, ok := key.([]byte)
		if !ok {
			return nil, nil
		}
		return &pbes2Encrypter{alg: alg, passphrase: passphrase}, nil

	default:
		return nil, fmt.Errorf("%w: %q", apperr.ErrUnsupportedAlgorithm, header.Alg)
	}
}

// dirEncrypter implements "dir" (RFC 7518 §4.5): the shared key is used
// directly as the CEK, with no encrypted-key segment.
type dirEncrypter struct{ key []byte }

func (e *dirEncrypter) Encrypt(header *Header, enc EncryptionMethod) (cek, encryptedKey []byte, err error) {
	if len(e.key) != enc.CEKBits()/8 {
		return nil, nil, fmt.Errorf("%w: dir key length must match %s's CEK size", apperr.ErrCryptoError, enc)
	}
	return e.key, []byte{}, nil
}

func (e *dirEncrypter) Decrypt(header *Header, enc EncryptionMethod, encryptedKey []byte) ([]byte, error) {
	if len(encryptedKey) != 0 {
		return nil, fmt.Errorf("%w: dir decryption requires an empty encrypted-key segment", apperr.ErrMalformedJose)
	}
	if len(e.key) != enc.CEKBits()/8 {
		return nil, fmt.Errorf("%w: dir key length must match %s's CEK size", apperr.ErrCryptoError, enc)
	}
	return e.key, nil
}

// aesKWEncrypter implements A128KW/A192KW/A256KW (RFC 7518 §4.4): a
// random CEK, wrapped under the shared key with RFC 3394 AES key wrap.
type aesKWEncrypter struct {
	alg JWEAlgorithm
	kek []byte
}

func (e *aesKWEncrypter) Encrypt(header *Header, enc EncryptionMethod) (cek, encryptedKey []byte, err error) {
	cek, err = GenerateCEK(enc)
	if err != nil {
		return nil, nil, err
	}
	wrapped, err := AESKeyWrap(e.kek, cek)
	if err != nil {
		return nil, nil, err
	}
	return cek, wrapped, nil
}

func (e *aesKWEncrypter) Decrypt(header *Header, enc EncryptionMethod, encryptedKey []byte) ([]byte, error) {
	return AESKeyUnwrap(e.kek, encryptedKey)
}

// aesGCMKWEncrypter implements A128GCMKW/A192GCMKW/A256GCMKW (RFC 7518
// §4.7): a random CEK, encrypted under the shared key with AES-GCM; the
// GCM IV and tag are recorded in the header's iv/tag parameters.
type aesGCMKWEncrypter struct {
	alg JWEAlgorithm
	kek []byte
}

func (e *aesGCMKWEncrypter) Encrypt(header *Header, enc EncryptionMethod) (cek, encryptedKey []byte, err error) {
	cek, err = GenerateCEK(enc)
	if err != nil {
		return nil, nil, err
	}
	block, err := aes.NewCipher(e.kek)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: AES-GCM key-wrap cipher: %w", apperr.ErrCryptoError, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: AES-GCM key-wrap init: %w", apperr.ErrCryptoError, err)
	}
	iv := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return nil, nil, fmt.Errorf("%w: generating AES-GCM key-wrap IV: %w", apperr.ErrCryptoError, err)
	}
	sealed := gcm.Seal(nil, iv, cek, nil)
	wrapped := sealed[:len(sealed)-gcm.Overhead()]
	tag := sealed[len(sealed)-gcm.Overhead():]
	header.Iv = b64.Encode(iv)
	header.Tag = b64.Encode(tag)
	return cek, wrapped, nil
}

func (e *aesGCMKWEncrypter) Decrypt(header *Header, enc EncryptionMethod, encryptedKey []byte) ([]byte, error) {
	iv, err := b64.Decode(header.Iv)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid iv header parameter: %w", apperr.ErrMalformedJose, err)
	}
	tag, err := b64.Decode(header.Tag)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid tag header parameter: %w", apperr.ErrMalformedJose, err)
	}
	block, err := aes.NewCipher(e.kek)
	if err != nil {
		return nil, fmt.Errorf("%w: AES-GCM key-wrap cipher: %w", apperr.ErrCryptoError, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: AES-GCM key-wrap init: %w", apperr.ErrCryptoError, err)
	}
	sealed := append(append([]byte{}, encryptedKey...), tag...)
	cek, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: AES-GCM key unwrap authentication failed: %w", apperr.ErrCryptoError, err)
	}
	return cek, nil
}

// rsaEncrypter implements RSA1_5/RSA-OAEP/RSA-OAEP-256 (RFC 7518 §4.2-4.3).
type rsaEncrypter struct {
	alg  JWEAlgorithm
	pub  *rsa.PublicKey
	priv *rsa.PrivateKey
}

func (e *rsaEncrypter) Encrypt(header *Header, enc EncryptionMethod) (cek, encryptedKey []byte, err error) {
	cek, err = GenerateCEK(enc)
	if err != nil {
		return nil, nil, err
	}
	switch e.alg {
	case AlgRSA15:
		encryptedKey, err = rsa.EncryptPKCS1v15(rand.Reader, e.pub, cek)
	case AlgRSAOAEP:
		encryptedKey, err = rsa.EncryptOAEP(sha1.New(), rand.Reader, e.pub, cek, nil)
	case AlgRSAOAEP256:
		encryptedKey, err = rsa.EncryptOAEP(sha256.New(), rand.Reader, e.pub, cek, nil)
	default:
		return nil, nil, fmt.Errorf("%w: %q", apperr.ErrUnsupportedAlgorithm, e.alg)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: RSA key encryption: %w", apperr.ErrCryptoError, err)
	}
	return cek, encryptedKey, nil
}

func (e *rsaEncrypter) Decrypt(header *Header, enc EncryptionMethod, encryptedKey []byte) ([]byte, error) {
	var cek []byte
	var err error
	switch e.alg {
	case AlgRSA15:
		cek, err = rsa.DecryptPKCS1v15(rand.Reader, e.priv, encryptedKey)
	case AlgRSAOAEP:
		cek, err = rsa.DecryptOAEP(sha1.New(), rand.Reader, e.priv, encryptedKey, nil)
	case AlgRSAOAEP256:
		cek, err = rsa.DecryptOAEP(sha256.New(), rand.Reader, e.priv, encryptedKey, nil)
	default:
		return nil, fmt.Errorf("%w: %q", apperr.ErrUnsupportedAlgorithm, e.alg)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: RSA key decryption failed: %w", apperr.ErrCryptoError, err)
	}
	return cek, nil
}

// pbes2Encrypter implements PBES2-HS256+A128KW and its siblings (RFC
// 7518 §4.8): a per-message salt and iteration count derive an AES
// key-wrap key from a shared passphrase.
type pbes2Encrypter struct {
	alg        JWEAlgorithm
	passphrase []byte
}

func (e *pbes2Encrypter) Encrypt(header *Header, enc EncryptionMethod) (cek, encryptedKey []byte, err error) {
	p2s := make([]byte, pbes2SaltLength)
	if _, err := rand.Read(p2s); err != nil {
		return nil, nil, fmt.Errorf("%w: generating PBES2 salt: %w", apperr.ErrCryptoError, err)
	}
	derived, err := pbes2DerivedKey(e.alg, e.passphrase, p2s, pbes2Iterations)
	if err != nil {
		return nil, nil, err
	}
	cek, err = GenerateCEK(enc)
	if err != nil {
		return nil, nil, err
	}
	wrapped, err := AESKeyWrap(derived, cek)
	if err != nil {
		return nil, nil, err
	}
	header.P2s = b64.Encode(p2s)
	header.P2c = int64(pbes2Iterations)
	return cek, wrapped, nil
}

func (e *pbes2Encrypter) Decrypt(header *Header, enc EncryptionMethod, encryptedKey []byte) ([]byte, error) {
	p2s, err := b64.Decode(header.P2s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid p2s header parameter: %w", apperr.ErrMalformedJose, err)
	}
	derived, err := pbes2DerivedKey(e.alg, e.passphrase, p2s, int(header.P2c))
	if err != nil {
		return nil, err
	}
	return AESKeyUnwrap(derived, encryptedKey)
}

// ecdhESEncrypter implements ECDH-ES and ECDH-ES+A*KW (RFC 7518 §4.6).
type ecdhESEncrypter struct {
	alg       JWEAlgorithm
	curve     ecdh.Curve
	recipient *ecdh.PublicKey // encrypt direction
	priv      *ecdh.PrivateKey // decrypt direction
}

func (e *ecdhESEncrypter) Encrypt(header *Header, enc EncryptionMethod) (cek, encryptedKey []byte, err error) {
	ephemeral, err := e.curve.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: generating ECDH ephemeral key: %w", apperr.ErrCryptoError, err)
	}
	shared, err := ephemeral.ECDH(e.recipient)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: ECDH key agreement: %w", apperr.ErrCryptoError, err)
	}
	header.Epk, err = ecdhPublicJWK(ephemeral.PublicKey())
	if err != nil {
		return nil, nil, err
	}

	apu, apv, err := headerApuApv(header)
	if err != nil {
		return nil, nil, err
	}

	if wrapAlg, ok := e.alg.ECDHESKeyWrap(); ok {
		derived, err := ConcatKDF(shared, ConcatKDFParams{
			AlgorithmID: string(wrapAlg), PartyUInfo: apu, PartyVInfo: apv, KeyDataLen: aesKeyBitsForWrap(wrapAlg),
		})
		if err != nil {
			return nil, nil, err
		}
		cek, err = GenerateCEK(enc)
		if err != nil {
			return nil, nil, err
		}
		wrapped, err := AESKeyWrap(derived, cek)
		if err != nil {
			return nil, nil, err
		}
		return cek, wrapped, nil
	}

	cek, err = ConcatKDF(shared, ConcatKDFParams{
		AlgorithmID: string(e.alg), PartyUInfo: apu, PartyVInfo: apv, KeyDataLen: enc.CEKBits(),
	})
	if err != nil {
		return nil, nil, err
	}
	return cek, []byte{}, nil
}

func (e *ecdhESEncrypter) Decrypt(header *Header, enc EncryptionMethod, encryptedKey []byte) ([]byte, error) {
	senderPub, err := ecdhPublicFromJWK(header.Epk, e.curve)
	if err != nil {
		return nil, err
	}
	shared, err := e.priv.ECDH(senderPub)
	if err != nil {
		return nil, fmt.Errorf("%w: ECDH key agreement: %w", apperr.ErrCryptoError, err)
	}

	apu, apv, err := headerApuApv(header)
	if err != nil {
		return nil, err
	}

	if wrapAlg, ok := e.alg.ECDHESKeyWrap(); ok {
		derived, err := ConcatKDF(shared, ConcatKDFParams{
			AlgorithmID: string(wrapAlg), PartyUInfo: apu, PartyVInfo: apv, KeyDataLen: aesKeyBitsForWrap(wrapAlg),
		})
		if err != nil {
			return nil, err
		}
		return AESKeyUnwrap(derived, encryptedKey)
	}

	if len(encryptedKey) != 0 {
		return nil, fmt.Errorf("%w: ECDH-ES direct decryption requires an empty encrypted-key segment", apperr.ErrMalformedJose)
	}
	return ConcatKDF(shared, ConcatKDFParams{
		AlgorithmID: string(e.alg), PartyUInfo: apu, PartyVInfo: apv, KeyDataLen: enc.CEKBits(),
	})
}

func headerApuApv(header *Header) (apu, apv []byte, err error) {
	if header.Apu != "" {
		if apu, err = b64.Decode(header.Apu); err != nil {
			return nil, nil, fmt.Errorf("%w: invalid apu header parameter: %w", apperr.ErrMalformedJose, err)
		}
	}
	if header.Apv != "" {
		if apv, err = b64.Decode(header.Apv); err != nil {
			return nil, nil, fmt.Errorf("%w: invalid apv header parameter: %w", apperr.ErrMalformedJose, err)
		}
	}
	return apu, apv, nil
}

// ecdhCurve maps the JWS/JWE "crv" names used in EC JWKs to crypto/ecdh
// curves.
func ecdhCurve(crv string) (ecdh.Curve, bool) {
	switch crv {
	case "P-256":
		return ecdh.P256(), true
	case "P-384":
		return ecdh.P384(), true
	case "P-521":
		return ecdh.P521(), true
	default:
		return nil, false
	}
}

func curveName(curve ecdh.Curve) string {
	switch curve {
	case ecdh.P256():
		return "P-256"
	case ecdh.P384():
		return "P-384"
	case ecdh.P521():
		return "P-521"
	default:
		return ""
	}
}

// ecdhPublicKey accepts an *ecdh.PublicKey directly, or an
// *ecdsa.PublicKey on a curve crypto/ecdh supports.
func ecdhPublicKey(key any) (*ecdh.PublicKey, ecdh.Curve, bool) {
	switch k := key.(type) {
	case *ecdh.PublicKey:
		return k, k.Curve(), true
	case *ecdsa.PublicKey:
		ek, err := k.ECDH()
		if err != nil {
			return nil, nil, false
		}
		return ek, ek.Curve(), true
	case *ecdsa.PrivateKey:
		ek, err := k.PublicKey.ECDH()
		if err != nil {
			return nil, nil, false
		}
		return ek, ek.Curve(), true
	default:
		return nil, nil, false
	}
}

func ecdhPrivateKey(key any) (*ecdh.PrivateKey, ecdh.Curve, bool) {
	switch k := key.(type) {
	case *ecdh.PrivateKey:
		return k, k.Curve(), true
	case *ecdsa.PrivateKey:
		ek, err := k.ECDH()
		if err != nil {
			return nil, nil, false
		}
		return ek, ek.Curve(), true
	default:
		return nil, nil, false
	}
}

// ecdhPublicJWK renders an ephemeral public key as the "epk" header
// parameter value: a minimal EC JWK (RFC 7518 §4.6.1.1).
func ecdhPublicJWK(pub *ecdh.PublicKey) (map[string]any, error) {
	raw := pub.Bytes()
	if len(raw) < 1 || raw[0] != 0x04 {
		return nil, fmt.Errorf("%w: unexpected ECDH public key encoding", apperr.ErrCryptoError)
	}
	coord := (len(raw) - 1) / 2
	x := raw[1 : 1+coord]
	y := raw[1+coord:]
	return map[string]any{
		"kty": string(KtyEC),
		"crv": curveName(pub.Curve()),
		"x":   b64.Encode(x),
		"y":   b64.Encode(y),
	}, nil
}

func ecdhPublicFromJWK(epk map[string]any, curve ecdh.Curve) (*ecdh.PublicKey, error) {
	if epk == nil {
		return nil, fmt.Errorf("%w: missing epk header parameter", apperr.ErrMalformedJose)
	}
	xs, _ := epk["x"].(string)
	ys, _ := epk["y"].(string)
	if xs == "" || ys == "" {
		return nil, fmt.Errorf("%w: epk missing x/y coordinates", apperr.ErrMalformedJose)
	}
	x, err := b64.Decode(xs)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid epk.x: %w", apperr.ErrMalformedJose, err)
	}
	y, err := b64.Decode(ys)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid epk.y: %w", apperr.ErrMalformedJose, err)
	}
	raw := append([]byte{0x04}, append(x, y...)...)
	pub, err := curve.NewPublicKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid epk point: %w", apperr.ErrMalformedJose, err)
	}
	return pub, nil
}
